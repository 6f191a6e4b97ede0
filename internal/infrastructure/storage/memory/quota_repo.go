package memory

import (
	"context"
	"slices"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/quota"
)

// QuotaRepo implements quota.Repository.
type QuotaRepo struct {
	s *Store
}

var _ quota.Repository = (*QuotaRepo)(nil)

func (r *QuotaRepo) CreateBase(ctx context.Context, b *quota.Base) error {
	defer r.s.lock(ctx)()
	d := r.s.data

	for _, existing := range d.bases {
		if existing.CategoryID == b.CategoryID && existing.UnitID == b.UnitID &&
			sameInt64(existing.SubunitID, b.SubunitID) && existing.FuelTypeID == b.FuelTypeID {
			return apperror.NewDuplicate("quota base", "scope", "").WithDetail("existing_id", existing.ID)
		}
	}
	b.ID = d.nextID()
	d.bases[b.ID] = *b
	return nil
}

func (r *QuotaRepo) UpdateBase(ctx context.Context, b *quota.Base) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.bases[b.ID]; !ok {
		return apperror.NewNotFound("quota base", b.ID)
	}
	r.s.data.bases[b.ID] = *b
	return nil
}

func (r *QuotaRepo) GetBase(ctx context.Context, id int64) (*quota.Base, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.data.bases[id]
	if !ok {
		return nil, apperror.NewNotFound("quota base", id)
	}
	return &b, nil
}

func (r *QuotaRepo) GetBaseForUpdate(ctx context.Context, id int64) (*quota.Base, error) {
	return r.GetBase(ctx, id)
}

func (r *QuotaRepo) FindBaseByScope(ctx context.Context, scope quota.Scope) (*quota.Base, error) {
	defer r.s.lock(ctx)()
	for _, b := range sortedValues(r.s.data.bases) {
		if b.CategoryID == scope.CategoryID && b.UnitID == scope.UnitID &&
			sameInt64(b.SubunitID, scope.SubunitID) && b.FuelTypeID == scope.FuelTypeID {
			return &b, nil
		}
	}
	return nil, apperror.NewNotFound("quota base", scope)
}

func (r *QuotaRepo) ListBases(ctx context.Context, f quota.BaseFilter) (domain.ListResult[quota.Base], error) {
	defer r.s.lock(ctx)()
	items := make([]quota.Base, 0)
	for _, b := range sortedValues(r.s.data.bases) {
		if f.UnitID != nil && b.UnitID != *f.UnitID {
			continue
		}
		if f.FuelTypeID != nil && b.FuelTypeID != *f.FuelTypeID {
			continue
		}
		if f.ActiveOnly && !b.Active {
			continue
		}
		items = append(items, b)
	}
	return paginate(items, f.ListFilter), nil
}

func (r *QuotaRepo) ListActiveBases(ctx context.Context) ([]quota.Base, error) {
	defer r.s.lock(ctx)()
	out := make([]quota.Base, 0)
	for _, b := range sortedValues(r.s.data.bases) {
		if b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *QuotaRepo) InsertPeriodIfAbsent(ctx context.Context, p *quota.Period) (bool, error) {
	defer r.s.lock(ctx)()
	d := r.s.data
	for _, existing := range d.periods {
		if existing.BaseID == p.BaseID && existing.Period == p.Period {
			return false, nil
		}
	}
	p.ID = d.nextID()
	d.periods[p.ID] = *p
	return true, nil
}

func (r *QuotaRepo) GetPeriod(ctx context.Context, id int64) (*quota.Period, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.data.periods[id]
	if !ok {
		return nil, apperror.NewNotFound("quota period", id)
	}
	return &p, nil
}

func (r *QuotaRepo) GetPeriodForUpdate(ctx context.Context, id int64) (*quota.Period, error) {
	return r.GetPeriod(ctx, id)
}

func (r *QuotaRepo) FindPeriodForUpdate(ctx context.Context, baseID int64, period types.Period) (*quota.Period, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.data.periods {
		if p.BaseID == baseID && p.Period == period {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("quota period", map[string]any{"base_id": baseID, "period": period})
}

func (r *QuotaRepo) UpdatePeriod(ctx context.Context, p *quota.Period) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.periods[p.ID]; !ok {
		return apperror.NewNotFound("quota period", p.ID)
	}
	r.s.data.periods[p.ID] = *p
	return nil
}

func (r *QuotaRepo) ListPeriods(ctx context.Context, f quota.PeriodFilter) (domain.ListResult[quota.Period], error) {
	defer r.s.lock(ctx)()
	items := make([]quota.Period, 0)
	for _, p := range sortedValues(r.s.data.periods) {
		if f.Period != "" && p.Period != f.Period {
			continue
		}
		if f.BaseID != nil && p.BaseID != *f.BaseID {
			continue
		}
		if f.State != "" && p.State != f.State {
			continue
		}
		items = append(items, p)
	}
	return paginate(items, f.ListFilter), nil
}

func (r *QuotaRepo) LockOpenPeriodsBefore(ctx context.Context, period types.Period) ([]quota.Period, error) {
	defer r.s.lock(ctx)()
	out := make([]quota.Period, 0)
	for _, p := range sortedValues(r.s.data.periods) {
		if p.State != quota.StateClosed && p.Period < period {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *QuotaRepo) AddEntry(ctx context.Context, e *quota.Entry) error {
	defer r.s.lock(ctx)()
	e.ID = r.s.data.nextID()
	r.s.data.entries = append(r.s.data.entries, *e)
	return nil
}

func (r *QuotaRepo) ListEntries(ctx context.Context, periodID int64, f domain.ListFilter) (domain.ListResult[quota.Entry], error) {
	defer r.s.lock(ctx)()
	items := make([]quota.Entry, 0)
	for _, e := range r.s.data.entries {
		if e.PeriodID != periodID {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.CreatedAt.After(*f.To) {
			continue
		}
		if f.Search != "" && !containsFold(e.Reason, f.Search) {
			continue
		}
		items = append(items, e)
	}
	slices.Reverse(items)
	return paginate(items, f), nil
}

func (r *QuotaRepo) ArchivePeriods(ctx context.Context, records []quota.HistoryRecord) error {
	defer r.s.lock(ctx)()
	for _, rec := range records {
		rec.ID = r.s.data.nextID()
		r.s.data.history = append(r.s.data.history, rec)
	}
	return nil
}

func (r *QuotaRepo) ListHistory(ctx context.Context, period types.Period, f domain.ListFilter) (domain.ListResult[quota.HistoryRecord], error) {
	defer r.s.lock(ctx)()
	items := make([]quota.HistoryRecord, 0)
	for _, h := range r.s.data.history {
		if period != "" && h.Period != period {
			continue
		}
		items = append(items, h)
	}
	return paginate(items, f), nil
}
