// Package inventory_repo stores tanks, dispensing points, loads and the
// movement ledger in PostgreSQL.
package inventory_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/infrastructure/storage/postgres"
)

const (
	tableTanks     = "tanks"
	tablePoints    = "dispensing_points"
	tableLoads     = "inventory_loads"
	tableMovements = "inventory_movements"

	constraintTankLevel  = "tanks_level_check"
	constraintPointLevel = "dispensing_points_level_check"
)

var (
	tankColumns  = postgres.ExtractDBColumns[inventory.Tank]()
	pointColumns = postgres.ExtractDBColumns[inventory.DispensingPoint]()
	loadColumns  = []string{
		"id", "owner_kind", "owner_id", "fuel_type_id", "document_number", "tanker_plate",
		"driver_name", "driver_national_id", "documented", "received", "notes",
		"received_at", "user_id", "created_at", "updated_at",
	}
	movementColumns = []string{
		"id", "owner_kind", "owner_id", "kind", "delta", "before_level", "after_level",
		"theoretical", "measured", "difference", "group_id", "ticket_id", "load_id",
		"notes", "user_id", "created_at",
	}
)

// Repo implements inventory.Repository.
type Repo struct {
	txManager *postgres.TxManager
}

var _ inventory.Repository = (*Repo)(nil)

func New(txManager *postgres.TxManager) *Repo {
	return &Repo{txManager: txManager}
}

func (r *Repo) db(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// --- tanks ---

func (r *Repo) selectTanks() squirrel.SelectBuilder {
	return postgres.Builder().Select(tankColumns...).From(tableTanks)
}

func (r *Repo) CreateTank(ctx context.Context, t *inventory.Tank) error {
	q := postgres.Builder().
		Insert(tableTanks).
		Columns("code", "name", "point_id", "fuel_type_id", "capacity", "current_level", "active", "updated_at").
		Values(t.Code, t.Name, t.PointID, t.FuelTypeID, t.Capacity, t.CurrentLevel, t.Active, t.UpdatedAt)

	id, err := postgres.InsertReturningID(ctx, r.db(ctx), q)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return apperror.NewDuplicate("tank", "code", t.Code).WithCause(err)
		}
		return fmt.Errorf("insert tank: %w", err)
	}
	t.ID = id
	return nil
}

func (r *Repo) GetTank(ctx context.Context, id int64) (*inventory.Tank, error) {
	q := r.selectTanks().Where(squirrel.Eq{"id": id})
	return postgres.GetOne[inventory.Tank](ctx, r.db(ctx), q, "tank", id)
}

func (r *Repo) GetTankForUpdate(ctx context.Context, id int64) (*inventory.Tank, error) {
	q := r.selectTanks().Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE")
	return postgres.GetOne[inventory.Tank](ctx, r.db(ctx), q, "tank", id)
}

func (r *Repo) UpdateTankLevel(ctx context.Context, id int64, level types.Quantity, at time.Time) error {
	q := postgres.Builder().
		Update(tableTanks).
		Set("current_level", level).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id})

	n, err := postgres.ExecAffected(ctx, r.db(ctx), q)
	if err != nil {
		// The service checks bounds first; the constraint only fires on a bug.
		if postgres.IsCheckViolation(err, constraintTankLevel) {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "tank level out of range").
				WithDetail("tank_id", id).
				WithCause(err)
		}
		return fmt.Errorf("update tank level: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("tank", id)
	}
	return nil
}

func (r *Repo) ListTanks(ctx context.Context, f inventory.TankFilter) (domain.ListResult[inventory.Tank], error) {
	q := r.selectTanks()
	if f.PointID != nil {
		q = q.Where(squirrel.Eq{"point_id": *f.PointID})
	}
	if f.FuelTypeID != nil {
		q = q.Where(squirrel.Eq{"fuel_type_id": *f.FuelTypeID})
	}
	q = postgres.WithListFilter(q, f.ListFilter, "", "code", "name")
	return postgres.SelectPage[inventory.Tank](ctx, r.db(ctx), q, f.ListFilter, "id")
}

// --- dispensing points ---

func (r *Repo) selectPoints() squirrel.SelectBuilder {
	return postgres.Builder().Select(pointColumns...).From(tablePoints)
}

func (r *Repo) CreatePoint(ctx context.Context, p *inventory.DispensingPoint) error {
	q := postgres.Builder().
		Insert(tablePoints).
		Columns("name", "fuel_type_id", "capacity", "available_level", "active", "updated_at").
		Values(p.Name, p.FuelTypeID, p.Capacity, p.AvailableLevel, p.Active, p.UpdatedAt)

	id, err := postgres.InsertReturningID(ctx, r.db(ctx), q)
	if err != nil {
		return fmt.Errorf("insert dispensing point: %w", err)
	}
	p.ID = id
	return nil
}

func (r *Repo) GetPoint(ctx context.Context, id int64) (*inventory.DispensingPoint, error) {
	q := r.selectPoints().Where(squirrel.Eq{"id": id})
	return postgres.GetOne[inventory.DispensingPoint](ctx, r.db(ctx), q, "dispensing point", id)
}

func (r *Repo) GetPointForUpdate(ctx context.Context, id int64) (*inventory.DispensingPoint, error) {
	q := r.selectPoints().Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE")
	return postgres.GetOne[inventory.DispensingPoint](ctx, r.db(ctx), q, "dispensing point", id)
}

func (r *Repo) UpdatePointLevel(ctx context.Context, id int64, level types.Quantity, at time.Time) error {
	q := postgres.Builder().
		Update(tablePoints).
		Set("available_level", level).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id})

	n, err := postgres.ExecAffected(ctx, r.db(ctx), q)
	if err != nil {
		if postgres.IsCheckViolation(err, constraintPointLevel) {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "dispensing point level out of range").
				WithDetail("point_id", id).
				WithCause(err)
		}
		return fmt.Errorf("update point level: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("dispensing point", id)
	}
	return nil
}

func (r *Repo) ListPoints(ctx context.Context, f inventory.PointFilter) (domain.ListResult[inventory.DispensingPoint], error) {
	q := r.selectPoints()
	if f.FuelTypeID != nil {
		q = q.Where(squirrel.Eq{"fuel_type_id": *f.FuelTypeID})
	}
	q = postgres.WithListFilter(q, f.ListFilter, "", "name")
	return postgres.SelectPage[inventory.DispensingPoint](ctx, r.db(ctx), q, f.ListFilter, "id")
}

// --- loads ---

func (r *Repo) CreateLoad(ctx context.Context, l *inventory.Load) error {
	q := postgres.Builder().
		Insert(tableLoads).
		Columns(loadColumns[1:]...).
		Values(l.OwnerKind, l.OwnerID, l.FuelTypeID, l.DocumentNumber, l.TankerPlate,
			l.DriverName, l.DriverNationalID, l.Documented, l.Received, l.Notes,
			l.ReceivedAt, l.UserID, l.CreatedAt, l.UpdatedAt)

	id, err := postgres.InsertReturningID(ctx, r.db(ctx), q)
	if err != nil {
		return fmt.Errorf("insert load: %w", err)
	}
	l.ID = id
	return nil
}

func (r *Repo) GetLoadForUpdate(ctx context.Context, id int64) (*inventory.Load, error) {
	q := postgres.Builder().
		Select(loadColumns...).
		From(tableLoads).
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE")
	return postgres.GetOne[inventory.Load](ctx, r.db(ctx), q, "load", id)
}

func (r *Repo) UpdateLoad(ctx context.Context, l *inventory.Load) error {
	q := postgres.Builder().
		Update(tableLoads).
		Set("documented", l.Documented).
		Set("received", l.Received).
		Set("notes", l.Notes).
		Set("updated_at", l.UpdatedAt).
		Where(squirrel.Eq{"id": l.ID})

	n, err := postgres.ExecAffected(ctx, r.db(ctx), q)
	if err != nil {
		return fmt.Errorf("update load: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("load", l.ID)
	}
	return nil
}

// --- movements ---

func (r *Repo) AddMovement(ctx context.Context, m *inventory.Movement) error {
	q := postgres.Builder().
		Insert(tableMovements).
		Columns(movementColumns[1:]...).
		Values(m.OwnerKind, m.OwnerID, m.Kind, m.Delta, m.Before, m.After,
			m.Theoretical, m.Measured, m.Difference, m.GroupID, m.TicketID, m.LoadID,
			m.Notes, m.UserID, m.CreatedAt)

	id, err := postgres.InsertReturningID(ctx, r.db(ctx), q)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	m.ID = id
	return nil
}

func (r *Repo) ListMovements(ctx context.Context, f inventory.MovementFilter) (domain.ListResult[inventory.Movement], error) {
	q := movementQuery(f)
	return postgres.SelectPage[inventory.Movement](ctx, r.db(ctx), q, f.ListFilter, "id DESC")
}

func movementQuery(f inventory.MovementFilter) squirrel.SelectBuilder {
	q := postgres.Builder().Select(movementColumns...).From(tableMovements)
	if f.OwnerKind != "" {
		q = q.Where(squirrel.Eq{"owner_kind": f.OwnerKind})
	}
	if f.OwnerID != nil {
		q = q.Where(squirrel.Eq{"owner_id": *f.OwnerID})
	}
	if f.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": f.Kind})
	}
	if f.TicketID != nil {
		q = q.Where(squirrel.Eq{"ticket_id": *f.TicketID})
	}
	return postgres.WithListFilter(q, f.ListFilter, "created_at", "notes")
}
