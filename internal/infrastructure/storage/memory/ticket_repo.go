package memory

import (
	"context"
	"slices"
	"time"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/ticket"
)

// TicketRepo implements ticket.Repository.
type TicketRepo struct {
	s *Store
}

var _ ticket.Repository = (*TicketRepo)(nil)

// activeConflict mirrors the partial unique index on active plates.
func (r *TicketRepo) activeConflict(t *ticket.Ticket) bool {
	if !t.Status.IsActive() {
		return false
	}
	for _, other := range r.s.data.tickets {
		if other.ID != t.ID && other.Plate == t.Plate && other.Status.IsActive() {
			return true
		}
	}
	return false
}

func (r *TicketRepo) Create(ctx context.Context, t *ticket.Ticket) error {
	defer r.s.lock(ctx)()
	if r.activeConflict(t) {
		return apperror.NewDuplicateActiveRequest(t.Plate)
	}
	t.ID = r.s.data.nextID()
	r.s.data.tickets[t.ID] = *t
	return nil
}

func (r *TicketRepo) Update(ctx context.Context, t *ticket.Ticket) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.tickets[t.ID]; !ok {
		return apperror.NewNotFound("ticket", t.ID)
	}
	if r.activeConflict(t) {
		return apperror.NewDuplicateActiveRequest(t.Plate)
	}
	r.s.data.tickets[t.ID] = *t
	return nil
}

func (r *TicketRepo) Get(ctx context.Context, id int64) (*ticket.Ticket, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.data.tickets[id]
	if !ok {
		return nil, apperror.NewNotFound("ticket", id)
	}
	return &t, nil
}

func (r *TicketRepo) GetForUpdate(ctx context.Context, id int64) (*ticket.Ticket, error) {
	return r.Get(ctx, id)
}

func (r *TicketRepo) GetByCode(ctx context.Context, code string) (*ticket.Ticket, error) {
	defer r.s.lock(ctx)()
	for _, t := range r.s.data.tickets {
		if t.Code != "" && t.Code == code {
			return &t, nil
		}
	}
	return nil, apperror.NewNotFound("ticket", code)
}

func (r *TicketRepo) GetByCodeForUpdate(ctx context.Context, code string) (*ticket.Ticket, error) {
	return r.GetByCode(ctx, code)
}

func (r *TicketRepo) FindActiveByPlate(ctx context.Context, plate string) (*ticket.Ticket, error) {
	defer r.s.lock(ctx)()
	for _, t := range r.s.data.tickets {
		if t.Plate == plate && t.Status.IsActive() {
			return &t, nil
		}
	}
	return nil, apperror.NewNotFound("active ticket", plate)
}

func (r *TicketRepo) ListStaleForUpdate(ctx context.Context, cutoff time.Time) ([]ticket.Ticket, error) {
	defer r.s.lock(ctx)()
	out := make([]ticket.Ticket, 0)
	for _, t := range sortedValues(r.s.data.tickets) {
		if t.Status.IsActive() && !t.CreatedAt.After(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TicketRepo) List(ctx context.Context, f ticket.Filter) (domain.ListResult[ticket.Ticket], error) {
	defer r.s.lock(ctx)()
	items := make([]ticket.Ticket, 0)
	for _, t := range sortedValues(r.s.data.tickets) {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
			continue
		}
		if f.UnitID != nil && t.UnitID != *f.UnitID {
			continue
		}
		if f.PointID != nil && t.PointID != *f.PointID {
			continue
		}
		if f.Plate != "" && t.Plate != f.Plate {
			continue
		}
		if f.From != nil && t.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && t.CreatedAt.After(*f.To) {
			continue
		}
		if f.Search != "" && !containsFold(t.Code, f.Search) && !containsFold(t.Plate, f.Search) {
			continue
		}
		items = append(items, t)
	}
	slices.Reverse(items)
	return paginate(items, f.ListFilter), nil
}
