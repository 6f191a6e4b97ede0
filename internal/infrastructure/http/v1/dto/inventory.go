package dto

import (
	"strings"
	"time"

	"fueldesk/internal/core/types"
	"fueldesk/internal/domain/inventory"
)

// HolderRef names a tank or dispensing point.
type HolderRef struct {
	Kind string `json:"kind" binding:"required"`
	ID   int64  `json:"id" binding:"required,min=1"`
}

// ToOwner converts to a domain owner.
func (h HolderRef) ToOwner() inventory.Owner {
	return inventory.Owner{Kind: inventory.OwnerKind(strings.ToUpper(h.Kind)), ID: h.ID}
}

// RecordLoadRequest registers a tanker delivery.
type RecordLoadRequest struct {
	Holder           HolderRef      `json:"holder" binding:"required"`
	DocumentNumber   string         `json:"documentNumber"`
	TankerPlate      string         `json:"tankerPlate"`
	DriverName       string         `json:"driverName"`
	DriverNationalID string         `json:"driverNationalId"`
	Documented       types.Quantity `json:"documented"`
	Received         types.Quantity `json:"received"`
	Notes            string         `json:"notes"`
	ReceivedAt       *time.Time     `json:"receivedAt"`
}

// ToInput converts to domain input.
func (r *RecordLoadRequest) ToInput() inventory.LoadInput {
	in := inventory.LoadInput{
		Owner:            r.Holder.ToOwner(),
		DocumentNumber:   r.DocumentNumber,
		TankerPlate:      r.TankerPlate,
		DriverName:       r.DriverName,
		DriverNationalID: r.DriverNationalID,
		Documented:       r.Documented,
		Received:         r.Received,
		Notes:            r.Notes,
	}
	if r.ReceivedAt != nil {
		in.ReceivedAt = *r.ReceivedAt
	}
	return in
}

// CorrectLoadRequest supersedes a load's received amount.
type CorrectLoadRequest struct {
	Received types.Quantity `json:"received"`
	Notes    string         `json:"notes" binding:"required"`
}

// EvaporationRequest records an evaporation loss.
type EvaporationRequest struct {
	Holder HolderRef      `json:"holder" binding:"required"`
	Amount types.Quantity `json:"amount"`
	Notes  string         `json:"notes"`
}

// ToInput converts to domain input.
func (r *EvaporationRequest) ToInput() inventory.EvaporationInput {
	return inventory.EvaporationInput{Owner: r.Holder.ToOwner(), Amount: r.Amount, Notes: r.Notes}
}

// TransferRequest moves fuel between tanks.
type TransferRequest struct {
	SourceTankID int64          `json:"sourceTankId" binding:"required,min=1"`
	TargetTankID int64          `json:"targetTankId" binding:"required,min=1"`
	Amount       types.Quantity `json:"amount"`
	Notes        string         `json:"notes"`
}

// ToInput converts to domain input.
func (r *TransferRequest) ToInput() inventory.TransferInput {
	return inventory.TransferInput{
		SourceTankID: r.SourceTankID,
		TargetTankID: r.TargetTankID,
		Amount:       r.Amount,
		Notes:        r.Notes,
	}
}

// MeasurementRequest records a physical dip reading.
type MeasurementRequest struct {
	Measured  types.Quantity `json:"measured"`
	Overwrite bool           `json:"overwrite"`
	Notes     string         `json:"notes"`
}

// TankListQuery filters tanks.
type TankListQuery struct {
	ListQuery
	PointID    *int64 `form:"pointId"`
	FuelTypeID *int64 `form:"fuelTypeId"`
}

// ToFilter converts to a domain filter.
func (q TankListQuery) ToFilter() inventory.TankFilter {
	return inventory.TankFilter{ListFilter: q.Filter(), PointID: q.PointID, FuelTypeID: q.FuelTypeID}
}

// PointListQuery filters dispensing points.
type PointListQuery struct {
	ListQuery
	FuelTypeID *int64 `form:"fuelTypeId"`
}

// ToFilter converts to a domain filter.
func (q PointListQuery) ToFilter() inventory.PointFilter {
	return inventory.PointFilter{ListFilter: q.Filter(), FuelTypeID: q.FuelTypeID}
}

// MovementListQuery filters the movement ledger.
type MovementListQuery struct {
	ListQuery
	HolderKind string `form:"holderKind"`
	HolderID   *int64 `form:"holderId"`
	Kind       string `form:"kind"`
	TicketID   *int64 `form:"ticketId"`
}

// ToFilter converts to a domain filter.
func (q MovementListQuery) ToFilter() inventory.MovementFilter {
	return inventory.MovementFilter{
		ListFilter: q.Filter(),
		OwnerKind:  inventory.OwnerKind(strings.ToUpper(q.HolderKind)),
		OwnerID:    q.HolderID,
		Kind:       inventory.MovementKind(strings.ToUpper(q.Kind)),
		TicketID:   q.TicketID,
	}
}
