// Package ticket_repo stores fuel tickets in PostgreSQL.
package ticket_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/ticket"
	"fueldesk/internal/infrastructure/storage/postgres"
)

const (
	tableName = "tickets"

	constraintActivePlate = "tickets_active_plate_key"
	constraintCode        = "tickets_code_key"
)

// writeColumns are the columns Create and Update write, in value order.
var writeColumns = []string{
	"code", "status", "supply_type", "request_type", "requester_id",
	"category_id", "unit_id", "subunit_id", "vehicle_id", "plate", "brand", "model",
	"point_id", "fuel_type_id", "quota_base_id", "quota_period_id",
	"requested", "dispatched", "delivered",
	"price_id", "unit_price", "amount", "currency_code",
	"notes", "approved_by", "approved_at", "issued_by", "receiver_id",
	"printed_at", "print_count", "dispatched_at", "finalized_by", "finalized_at",
	"rejected_by", "reject_reason", "closed_at", "created_at", "updated_at",
}

// selectColumns reads quota_period_id as 0 while the reservation is pending.
var selectColumns = func() []string {
	cols := []string{"id"}
	for _, c := range writeColumns {
		if c == "quota_period_id" {
			c = "COALESCE(quota_period_id, 0) AS quota_period_id"
		}
		cols = append(cols, c)
	}
	return cols
}()

var activeStatuses = []ticket.Status{ticket.StatusPending, ticket.StatusApproved, ticket.StatusPrinted}

// Repo implements ticket.Repository.
type Repo struct {
	txManager *postgres.TxManager
}

var _ ticket.Repository = (*Repo)(nil)

func New(txManager *postgres.TxManager) *Repo {
	return &Repo{txManager: txManager}
}

func (r *Repo) db(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *Repo) baseSelect() squirrel.SelectBuilder {
	return postgres.Builder().Select(selectColumns...).From(tableName)
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func values(t *ticket.Ticket) []any {
	return []any{
		t.Code, t.Status, t.SupplyType, t.RequestType, t.RequesterID,
		t.CategoryID, t.UnitID, t.SubunitID, t.VehicleID, t.Plate, t.Brand, t.Model,
		t.PointID, t.FuelTypeID, t.QuotaBaseID, nullableID(t.QuotaPeriodID),
		t.Requested, t.Dispatched, t.Delivered,
		t.PriceID, t.UnitPrice, t.Amount, t.CurrencyCode,
		t.Notes, t.ApprovedBy, t.ApprovedAt, t.IssuedBy, t.ReceiverID,
		t.PrintedAt, t.PrintCount, t.DispatchedAt, t.FinalizedBy, t.FinalizedAt,
		t.RejectedBy, t.RejectReason, t.ClosedAt, t.CreatedAt, t.UpdatedAt,
	}
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(t *ticket.Ticket, op string, err error) error {
	switch {
	case postgres.IsUniqueViolation(err, constraintActivePlate):
		return apperror.NewDuplicateActiveRequest(t.Plate).WithCause(err)
	case postgres.IsUniqueViolation(err, constraintCode):
		return apperror.NewDuplicate("ticket", "code", t.Code).WithCause(err)
	}
	return fmt.Errorf("%s ticket: %w", op, err)
}

func (r *Repo) Create(ctx context.Context, t *ticket.Ticket) error {
	q := postgres.Builder().
		Insert(tableName).
		Columns(writeColumns...).
		Values(values(t)...)

	id, err := postgres.InsertReturningID(ctx, r.db(ctx), q)
	if err != nil {
		return mapWriteError(t, "insert", err)
	}
	t.ID = id
	return nil
}

func (r *Repo) Update(ctx context.Context, t *ticket.Ticket) error {
	set := make(map[string]any, len(writeColumns))
	for i, v := range values(t) {
		set[writeColumns[i]] = v
	}
	q := postgres.Builder().
		Update(tableName).
		SetMap(set).
		Where(squirrel.Eq{"id": t.ID})

	n, err := postgres.ExecAffected(ctx, r.db(ctx), q)
	if err != nil {
		return mapWriteError(t, "update", err)
	}
	if n == 0 {
		return apperror.NewNotFound("ticket", t.ID)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*ticket.Ticket, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": id})
	return postgres.GetOne[ticket.Ticket](ctx, r.db(ctx), q, "ticket", id)
}

func (r *Repo) GetForUpdate(ctx context.Context, id int64) (*ticket.Ticket, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE")
	return postgres.GetOne[ticket.Ticket](ctx, r.db(ctx), q, "ticket", id)
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*ticket.Ticket, error) {
	if code == "" {
		return nil, apperror.NewNotFound("ticket", code)
	}
	q := r.baseSelect().Where(squirrel.Eq{"code": code})
	return postgres.GetOne[ticket.Ticket](ctx, r.db(ctx), q, "ticket", code)
}

func (r *Repo) GetByCodeForUpdate(ctx context.Context, code string) (*ticket.Ticket, error) {
	if code == "" {
		return nil, apperror.NewNotFound("ticket", code)
	}
	q := r.baseSelect().Where(squirrel.Eq{"code": code}).Suffix("FOR UPDATE")
	return postgres.GetOne[ticket.Ticket](ctx, r.db(ctx), q, "ticket", code)
}

func (r *Repo) FindActiveByPlate(ctx context.Context, plate string) (*ticket.Ticket, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"plate": plate, "status": activeStatuses}).
		Limit(1)
	return postgres.GetOne[ticket.Ticket](ctx, r.db(ctx), q, "active ticket", plate)
}

// ListStaleForUpdate skips rows locked by in-flight requests; the next sweep picks them up.
func (r *Repo) ListStaleForUpdate(ctx context.Context, cutoff time.Time) ([]ticket.Ticket, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"status": activeStatuses}).
		Where(squirrel.LtOrEq{"created_at": cutoff}).
		OrderBy("id").
		Suffix("FOR UPDATE SKIP LOCKED")

	items, err := postgres.SelectAll[ticket.Ticket](ctx, r.db(ctx), q)
	if err != nil {
		return nil, fmt.Errorf("list stale tickets: %w", err)
	}
	return items, nil
}

func (r *Repo) List(ctx context.Context, f ticket.Filter) (domain.ListResult[ticket.Ticket], error) {
	q := r.filtered(f)
	return postgres.SelectPage[ticket.Ticket](ctx, r.db(ctx), q, f.ListFilter, "id DESC")
}

func (r *Repo) filtered(f ticket.Filter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if len(f.Statuses) > 0 {
		q = q.Where(squirrel.Eq{"status": f.Statuses})
	}
	if f.UnitID != nil {
		q = q.Where(squirrel.Eq{"unit_id": *f.UnitID})
	}
	if f.PointID != nil {
		q = q.Where(squirrel.Eq{"point_id": *f.PointID})
	}
	if f.Plate != "" {
		q = q.Where(squirrel.Eq{"plate": f.Plate})
	}
	return postgres.WithListFilter(q, f.ListFilter, "created_at", "code", "plate")
}
