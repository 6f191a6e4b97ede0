package quota

import (
	"context"

	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
)

// BaseFilter narrows ListBases.
type BaseFilter struct {
	domain.ListFilter
	UnitID     *int64
	FuelTypeID *int64
	ActiveOnly bool
}

// PeriodFilter narrows ListPeriods.
type PeriodFilter struct {
	domain.ListFilter
	Period types.Period
	BaseID *int64
	State  PeriodState
}

// Repository persists quota bases, periods, entries and history.
// Methods named ...ForUpdate must lock the row until the surrounding transaction ends.
type Repository interface {
	CreateBase(ctx context.Context, b *Base) error
	UpdateBase(ctx context.Context, b *Base) error
	GetBase(ctx context.Context, id int64) (*Base, error)
	GetBaseForUpdate(ctx context.Context, id int64) (*Base, error)
	// FindBaseByScope returns the base for an exact scope match, active or not.
	FindBaseByScope(ctx context.Context, scope Scope) (*Base, error)
	ListBases(ctx context.Context, f BaseFilter) (domain.ListResult[Base], error)
	ListActiveBases(ctx context.Context) ([]Base, error)

	// InsertPeriodIfAbsent inserts p unless a row for (p.BaseID, p.Period) exists
	// and reports whether it inserted. It is the atomic half of find-or-create and
	// never fails on the duplicate.
	InsertPeriodIfAbsent(ctx context.Context, p *Period) (bool, error)
	GetPeriod(ctx context.Context, id int64) (*Period, error)
	GetPeriodForUpdate(ctx context.Context, id int64) (*Period, error)
	FindPeriodForUpdate(ctx context.Context, baseID int64, period types.Period) (*Period, error)
	UpdatePeriod(ctx context.Context, p *Period) error
	ListPeriods(ctx context.Context, f PeriodFilter) (domain.ListResult[Period], error)
	// LockOpenPeriodsBefore returns every non-closed period older than period, locked.
	LockOpenPeriodsBefore(ctx context.Context, period types.Period) ([]Period, error)

	AddEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, periodID int64, f domain.ListFilter) (domain.ListResult[Entry], error)

	ArchivePeriods(ctx context.Context, records []HistoryRecord) error
	ListHistory(ctx context.Context, period types.Period, f domain.ListFilter) (domain.ListResult[HistoryRecord], error)
}
