// Package quota_repo stores quota bases, monthly periods, ledger entries and
// archived history in PostgreSQL.
package quota_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/infrastructure/storage/postgres"
)

const (
	tableBases   = "quota_bases"
	tablePeriods = "quota_periods"
	tableEntries = "quota_entries"
	tableHistory = "quota_history"

	constraintScope = "quota_bases_scope_key"
)

var (
	baseColumns   = postgres.ExtractDBColumns[quota.Base]()
	periodColumns = []string{
		"id", "base_id", "period", "starts_on", "ends_on",
		"assigned", "available", "consumed", "recharged", "state",
		"created_at", "updated_at",
	}
	entryColumns = []string{
		"id", "period_id", "kind", "amount", "reason", "ticket_id", "authorized_by", "created_at",
	}
	historyColumns = []string{
		"period_id", "base_id", "period", "assigned", "consumed", "recharged", "unused", "closed_at",
	}
)

// Repo implements quota.Repository.
type Repo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
}

var _ quota.Repository = (*Repo)(nil)

func New(txManager *postgres.TxManager) *Repo {
	return &Repo{txManager: txManager, inserter: postgres.NewBatchInserter(txManager)}
}

func (r *Repo) db(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// --- bases ---

func (r *Repo) selectBases() squirrel.SelectBuilder {
	return postgres.Builder().Select(baseColumns...).From(tableBases)
}

// scopeCondition matches a scope exactly, treating a nil subunit as "whole unit".
func scopeCondition(s quota.Scope) squirrel.Sqlizer {
	cond := squirrel.And{
		squirrel.Eq{"category_id": s.CategoryID},
		squirrel.Eq{"unit_id": s.UnitID},
		squirrel.Eq{"fuel_type_id": s.FuelTypeID},
	}
	if s.SubunitID == nil {
		return append(cond, squirrel.Expr("subunit_id IS NULL"))
	}
	return append(cond, squirrel.Eq{"subunit_id": *s.SubunitID})
}

func (r *Repo) CreateBase(ctx context.Context, b *quota.Base) error {
	q := postgres.Builder().
		Insert(tableBases).
		Columns("category_id", "unit_id", "subunit_id", "fuel_type_id",
			"monthly_amount", "active", "created_at", "updated_at").
		Values(b.CategoryID, b.UnitID, b.SubunitID, b.FuelTypeID,
			b.MonthlyAmount, b.Active, b.CreatedAt, b.UpdatedAt)

	id, err := postgres.InsertReturningID(ctx, r.db(ctx), q)
	if err != nil {
		if postgres.IsUniqueViolation(err, constraintScope) {
			return apperror.NewDuplicate("quota base", "scope", "").WithCause(err)
		}
		return fmt.Errorf("insert quota base: %w", err)
	}
	b.ID = id
	return nil
}

func (r *Repo) UpdateBase(ctx context.Context, b *quota.Base) error {
	q := postgres.Builder().
		Update(tableBases).
		Set("category_id", b.CategoryID).
		Set("unit_id", b.UnitID).
		Set("subunit_id", b.SubunitID).
		Set("fuel_type_id", b.FuelTypeID).
		Set("monthly_amount", b.MonthlyAmount).
		Set("active", b.Active).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID})

	n, err := postgres.ExecAffected(ctx, r.db(ctx), q)
	if err != nil {
		if postgres.IsUniqueViolation(err, constraintScope) {
			return apperror.NewDuplicate("quota base", "scope", "").WithCause(err)
		}
		return fmt.Errorf("update quota base: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("quota base", b.ID)
	}
	return nil
}

func (r *Repo) GetBase(ctx context.Context, id int64) (*quota.Base, error) {
	q := r.selectBases().Where(squirrel.Eq{"id": id})
	return postgres.GetOne[quota.Base](ctx, r.db(ctx), q, "quota base", id)
}

func (r *Repo) GetBaseForUpdate(ctx context.Context, id int64) (*quota.Base, error) {
	q := r.selectBases().Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE")
	return postgres.GetOne[quota.Base](ctx, r.db(ctx), q, "quota base", id)
}

func (r *Repo) FindBaseByScope(ctx context.Context, scope quota.Scope) (*quota.Base, error) {
	q := r.selectBases().Where(scopeCondition(scope)).Limit(1)
	return postgres.GetOne[quota.Base](ctx, r.db(ctx), q, "quota base", scope)
}

func (r *Repo) ListBases(ctx context.Context, f quota.BaseFilter) (domain.ListResult[quota.Base], error) {
	q := r.selectBases()
	if f.UnitID != nil {
		q = q.Where(squirrel.Eq{"unit_id": *f.UnitID})
	}
	if f.FuelTypeID != nil {
		q = q.Where(squirrel.Eq{"fuel_type_id": *f.FuelTypeID})
	}
	if f.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	q = postgres.WithListFilter(q, f.ListFilter, "created_at")
	return postgres.SelectPage[quota.Base](ctx, r.db(ctx), q, f.ListFilter, "id")
}

func (r *Repo) ListActiveBases(ctx context.Context) ([]quota.Base, error) {
	q := r.selectBases().Where(squirrel.Eq{"active": true}).OrderBy("id")
	items, err := postgres.SelectAll[quota.Base](ctx, r.db(ctx), q)
	if err != nil {
		return nil, fmt.Errorf("list active bases: %w", err)
	}
	return items, nil
}

// --- periods ---

func (r *Repo) selectPeriods() squirrel.SelectBuilder {
	return postgres.Builder().Select(periodColumns...).From(tablePeriods)
}

// InsertPeriodIfAbsent relies on the (base_id, period) unique key, so two
// concurrent first reservations create exactly one row.
func (r *Repo) InsertPeriodIfAbsent(ctx context.Context, p *quota.Period) (bool, error) {
	sql, args, err := postgres.Builder().
		Insert(tablePeriods).
		Columns("base_id", "period", "starts_on", "ends_on",
			"assigned", "available", "consumed", "recharged", "state",
			"created_at", "updated_at").
		Values(p.BaseID, p.Period, p.StartsOn, p.EndsOn,
			p.Assigned, p.Available, p.Consumed, p.Recharged, p.State,
			p.CreatedAt, p.UpdatedAt).
		Suffix("ON CONFLICT (base_id, period) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := r.db(ctx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert quota period: %w", err)
	}
	p.ID = id
	return true, nil
}

func (r *Repo) GetPeriod(ctx context.Context, id int64) (*quota.Period, error) {
	q := r.selectPeriods().Where(squirrel.Eq{"id": id})
	return postgres.GetOne[quota.Period](ctx, r.db(ctx), q, "quota period", id)
}

func (r *Repo) GetPeriodForUpdate(ctx context.Context, id int64) (*quota.Period, error) {
	q := r.selectPeriods().Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE")
	return postgres.GetOne[quota.Period](ctx, r.db(ctx), q, "quota period", id)
}

func (r *Repo) FindPeriodForUpdate(ctx context.Context, baseID int64, period types.Period) (*quota.Period, error) {
	q := r.selectPeriods().
		Where(squirrel.Eq{"base_id": baseID, "period": period}).
		Suffix("FOR UPDATE")
	return postgres.GetOne[quota.Period](ctx, r.db(ctx), q, "quota period",
		map[string]any{"base_id": baseID, "period": period})
}

func (r *Repo) UpdatePeriod(ctx context.Context, p *quota.Period) error {
	q := postgres.Builder().
		Update(tablePeriods).
		Set("assigned", p.Assigned).
		Set("available", p.Available).
		Set("consumed", p.Consumed).
		Set("recharged", p.Recharged).
		Set("state", p.State).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID})

	n, err := postgres.ExecAffected(ctx, r.db(ctx), q)
	if err != nil {
		return fmt.Errorf("update quota period: %w", err)
	}
	if n == 0 {
		return apperror.NewNotFound("quota period", p.ID)
	}
	return nil
}

func (r *Repo) ListPeriods(ctx context.Context, f quota.PeriodFilter) (domain.ListResult[quota.Period], error) {
	q := r.selectPeriods()
	if f.Period != "" {
		q = q.Where(squirrel.Eq{"period": f.Period})
	}
	if f.BaseID != nil {
		q = q.Where(squirrel.Eq{"base_id": *f.BaseID})
	}
	if f.State != "" {
		q = q.Where(squirrel.Eq{"state": f.State})
	}
	q = postgres.WithListFilter(q, f.ListFilter, "created_at")
	return postgres.SelectPage[quota.Period](ctx, r.db(ctx), q, f.ListFilter, "id")
}

func (r *Repo) LockOpenPeriodsBefore(ctx context.Context, period types.Period) ([]quota.Period, error) {
	q := r.selectPeriods().
		Where(squirrel.NotEq{"state": quota.StateClosed}).
		Where(squirrel.Lt{"period": period}).
		OrderBy("id").
		Suffix("FOR UPDATE")

	items, err := postgres.SelectAll[quota.Period](ctx, r.db(ctx), q)
	if err != nil {
		return nil, fmt.Errorf("lock open periods: %w", err)
	}
	return items, nil
}

// --- entries ---

func (r *Repo) AddEntry(ctx context.Context, e *quota.Entry) error {
	q := postgres.Builder().
		Insert(tableEntries).
		Columns("period_id", "kind", "amount", "reason", "ticket_id", "authorized_by", "created_at").
		Values(e.PeriodID, e.Kind, e.Amount, e.Reason, e.TicketID, e.AuthorizedBy, e.CreatedAt)

	id, err := postgres.InsertReturningID(ctx, r.db(ctx), q)
	if err != nil {
		return fmt.Errorf("insert quota entry: %w", err)
	}
	e.ID = id
	return nil
}

func (r *Repo) ListEntries(ctx context.Context, periodID int64, f domain.ListFilter) (domain.ListResult[quota.Entry], error) {
	q := postgres.Builder().
		Select(entryColumns...).
		From(tableEntries).
		Where(squirrel.Eq{"period_id": periodID})
	q = postgres.WithListFilter(q, f, "created_at", "reason")
	return postgres.SelectPage[quota.Entry](ctx, r.db(ctx), q, f, "id DESC")
}

// --- history ---

// ArchivePeriods copies the snapshots in one COPY round-trip.
func (r *Repo) ArchivePeriods(ctx context.Context, records []quota.HistoryRecord) error {
	rows := make([][]any, 0, len(records))
	for _, h := range records {
		rows = append(rows, []any{
			h.PeriodID, h.BaseID, string(h.Period),
			int64(h.Assigned), int64(h.Consumed), int64(h.Recharged), int64(h.Unused),
			h.ClosedAt,
		})
	}
	if _, err := r.inserter.CopyFromSlice(ctx, tableHistory, historyColumns, rows); err != nil {
		return fmt.Errorf("archive quota periods: %w", err)
	}
	return nil
}

func (r *Repo) ListHistory(ctx context.Context, period types.Period, f domain.ListFilter) (domain.ListResult[quota.HistoryRecord], error) {
	q := postgres.Builder().
		Select(append([]string{"id"}, historyColumns...)...).
		From(tableHistory)
	if period != "" {
		q = q.Where(squirrel.Eq{"period": period})
	}
	q = postgres.WithListFilter(q, f, "closed_at")
	return postgres.SelectPage[quota.HistoryRecord](ctx, r.db(ctx), q, f, "id")
}
