package memory

import (
	"context"
	"slices"
	"time"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/inventory"
)

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct {
	s *Store
}

var _ inventory.Repository = (*InventoryRepo)(nil)

func (r *InventoryRepo) CreateTank(ctx context.Context, t *inventory.Tank) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.data.tanks {
		if existing.Code == t.Code {
			return apperror.NewDuplicate("tank", "code", t.Code)
		}
	}
	t.ID = r.s.data.nextID()
	r.s.data.tanks[t.ID] = *t
	return nil
}

func (r *InventoryRepo) GetTank(ctx context.Context, id int64) (*inventory.Tank, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.data.tanks[id]
	if !ok {
		return nil, apperror.NewNotFound("tank", id)
	}
	return &t, nil
}

func (r *InventoryRepo) GetTankForUpdate(ctx context.Context, id int64) (*inventory.Tank, error) {
	return r.GetTank(ctx, id)
}

func (r *InventoryRepo) UpdateTankLevel(ctx context.Context, id int64, level types.Quantity, at time.Time) error {
	defer r.s.lock(ctx)()
	t, ok := r.s.data.tanks[id]
	if !ok {
		return apperror.NewNotFound("tank", id)
	}
	t.CurrentLevel = level
	t.UpdatedAt = at
	r.s.data.tanks[id] = t
	return nil
}

func (r *InventoryRepo) ListTanks(ctx context.Context, f inventory.TankFilter) (domain.ListResult[inventory.Tank], error) {
	defer r.s.lock(ctx)()
	items := make([]inventory.Tank, 0)
	for _, t := range sortedValues(r.s.data.tanks) {
		if f.PointID != nil && !sameInt64(t.PointID, f.PointID) {
			continue
		}
		if f.FuelTypeID != nil && t.FuelTypeID != *f.FuelTypeID {
			continue
		}
		if f.Search != "" && !containsFold(t.Code, f.Search) && !containsFold(t.Name, f.Search) {
			continue
		}
		items = append(items, t)
	}
	return paginate(items, f.ListFilter), nil
}

func (r *InventoryRepo) CreatePoint(ctx context.Context, p *inventory.DispensingPoint) error {
	defer r.s.lock(ctx)()
	p.ID = r.s.data.nextID()
	r.s.data.points[p.ID] = *p
	return nil
}

func (r *InventoryRepo) GetPoint(ctx context.Context, id int64) (*inventory.DispensingPoint, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.data.points[id]
	if !ok {
		return nil, apperror.NewNotFound("dispensing point", id)
	}
	return &p, nil
}

func (r *InventoryRepo) GetPointForUpdate(ctx context.Context, id int64) (*inventory.DispensingPoint, error) {
	return r.GetPoint(ctx, id)
}

func (r *InventoryRepo) UpdatePointLevel(ctx context.Context, id int64, level types.Quantity, at time.Time) error {
	defer r.s.lock(ctx)()
	p, ok := r.s.data.points[id]
	if !ok {
		return apperror.NewNotFound("dispensing point", id)
	}
	p.AvailableLevel = level
	p.UpdatedAt = at
	r.s.data.points[id] = p
	return nil
}

func (r *InventoryRepo) ListPoints(ctx context.Context, f inventory.PointFilter) (domain.ListResult[inventory.DispensingPoint], error) {
	defer r.s.lock(ctx)()
	items := make([]inventory.DispensingPoint, 0)
	for _, p := range sortedValues(r.s.data.points) {
		if f.FuelTypeID != nil && p.FuelTypeID != *f.FuelTypeID {
			continue
		}
		if f.Search != "" && !containsFold(p.Name, f.Search) {
			continue
		}
		items = append(items, p)
	}
	return paginate(items, f.ListFilter), nil
}

func (r *InventoryRepo) CreateLoad(ctx context.Context, l *inventory.Load) error {
	defer r.s.lock(ctx)()
	l.ID = r.s.data.nextID()
	r.s.data.loads[l.ID] = *l
	return nil
}

func (r *InventoryRepo) GetLoadForUpdate(ctx context.Context, id int64) (*inventory.Load, error) {
	defer r.s.lock(ctx)()
	l, ok := r.s.data.loads[id]
	if !ok {
		return nil, apperror.NewNotFound("load", id)
	}
	return &l, nil
}

func (r *InventoryRepo) UpdateLoad(ctx context.Context, l *inventory.Load) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.loads[l.ID]; !ok {
		return apperror.NewNotFound("load", l.ID)
	}
	r.s.data.loads[l.ID] = *l
	return nil
}

func (r *InventoryRepo) AddMovement(ctx context.Context, m *inventory.Movement) error {
	defer r.s.lock(ctx)()
	m.ID = r.s.data.nextID()
	r.s.data.movements = append(r.s.data.movements, *m)
	return nil
}

func (r *InventoryRepo) ListMovements(ctx context.Context, f inventory.MovementFilter) (domain.ListResult[inventory.Movement], error) {
	defer r.s.lock(ctx)()
	items := make([]inventory.Movement, 0)
	for _, m := range r.s.data.movements {
		if f.OwnerKind != "" && m.OwnerKind != f.OwnerKind {
			continue
		}
		if f.OwnerID != nil && m.OwnerID != *f.OwnerID {
			continue
		}
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		if f.TicketID != nil && !sameInt64(m.TicketID, f.TicketID) {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		if f.Search != "" && !containsFold(m.Notes, f.Search) {
			continue
		}
		items = append(items, m)
	}
	slices.Reverse(items)
	return paginate(items, f.ListFilter), nil
}
