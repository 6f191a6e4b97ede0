package inventory

import (
	"context"
	"time"

	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
)

// TankFilter narrows ListTanks.
type TankFilter struct {
	domain.ListFilter
	PointID    *int64
	FuelTypeID *int64
}

// PointFilter narrows ListPoints.
type PointFilter struct {
	domain.ListFilter
	FuelTypeID *int64
}

// MovementFilter narrows ListMovements. From/To bound CreatedAt.
type MovementFilter struct {
	domain.ListFilter
	OwnerKind OwnerKind
	OwnerID   *int64
	Kind      MovementKind
	TicketID  *int64
}

// Repository persists tanks, points, loads and movements.
type Repository interface {
	CreateTank(ctx context.Context, t *Tank) error
	GetTank(ctx context.Context, id int64) (*Tank, error)
	GetTankForUpdate(ctx context.Context, id int64) (*Tank, error)
	UpdateTankLevel(ctx context.Context, id int64, level types.Quantity, at time.Time) error
	ListTanks(ctx context.Context, f TankFilter) (domain.ListResult[Tank], error)

	CreatePoint(ctx context.Context, p *DispensingPoint) error
	GetPoint(ctx context.Context, id int64) (*DispensingPoint, error)
	GetPointForUpdate(ctx context.Context, id int64) (*DispensingPoint, error)
	UpdatePointLevel(ctx context.Context, id int64, level types.Quantity, at time.Time) error
	ListPoints(ctx context.Context, f PointFilter) (domain.ListResult[DispensingPoint], error)

	CreateLoad(ctx context.Context, l *Load) error
	GetLoadForUpdate(ctx context.Context, id int64) (*Load, error)
	UpdateLoad(ctx context.Context, l *Load) error

	AddMovement(ctx context.Context, m *Movement) error
	ListMovements(ctx context.Context, f MovementFilter) (domain.ListResult[Movement], error)
}
