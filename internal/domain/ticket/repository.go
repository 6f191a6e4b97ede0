package ticket

import (
	"context"
	"time"

	"fueldesk/internal/domain"
)

// Filter narrows List. From/To bound CreatedAt; Search matches code and plate.
type Filter struct {
	domain.ListFilter
	Statuses []Status
	UnitID   *int64
	PointID  *int64
	Plate    string
}

// Repository persists tickets.
type Repository interface {
	// Create inserts t and fills its ID. A second active ticket for the same
	// plate fails with DuplicateActiveRequest.
	Create(ctx context.Context, t *Ticket) error
	Update(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id int64) (*Ticket, error)
	GetForUpdate(ctx context.Context, id int64) (*Ticket, error)
	GetByCode(ctx context.Context, code string) (*Ticket, error)
	GetByCodeForUpdate(ctx context.Context, code string) (*Ticket, error)
	// FindActiveByPlate returns the plate's PENDING/APPROVED/PRINTED ticket or NotFound.
	FindActiveByPlate(ctx context.Context, plate string) (*Ticket, error)
	// ListStaleForUpdate locks every active ticket created at or before cutoff.
	ListStaleForUpdate(ctx context.Context, cutoff time.Time) ([]Ticket, error)
	List(ctx context.Context, f Filter) (domain.ListResult[Ticket], error)
}
