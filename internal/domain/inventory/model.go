// Package inventory tracks fuel volume held in storage tanks and dispensing
// points. Every level change writes an immutable Movement in the same
// transaction as the level update.
package inventory

import (
	"strings"
	"time"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/types"
)

// OwnerKind says which kind of holder a movement belongs to.
type OwnerKind string

const (
	OwnerTank  OwnerKind = "TANK"
	OwnerPoint OwnerKind = "POINT"
)

// Owner addresses a tank or a dispensing point.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   int64     `json:"id"`
}

func TankOwner(id int64) Owner  { return Owner{Kind: OwnerTank, ID: id} }
func PointOwner(id int64) Owner { return Owner{Kind: OwnerPoint, ID: id} }

// Validate checks the owner reference.
func (o Owner) Validate() error {
	if o.Kind != OwnerTank && o.Kind != OwnerPoint {
		return apperror.NewValidation("owner kind must be TANK or POINT").WithDetail("kind", o.Kind)
	}
	if o.ID <= 0 {
		return apperror.NewValidation("owner id is required")
	}
	return nil
}

// Tank is a bulk fuel reservoir feeding a dispensing point.
type Tank struct {
	ID           int64          `db:"id" json:"id"`
	Code         string         `db:"code" json:"code"`
	Name         string         `db:"name" json:"name"`
	PointID      *int64         `db:"point_id" json:"pointId,omitempty"`
	FuelTypeID   int64          `db:"fuel_type_id" json:"fuelTypeId"`
	Capacity     types.Quantity `db:"capacity" json:"capacity"`
	CurrentLevel types.Quantity `db:"current_level" json:"currentLevel"`
	Active       bool           `db:"active" json:"active"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// DispensingPoint is the outlet fuel is released from. AvailableLevel is the
// volume that can still be dispatched and is the point's current level.
type DispensingPoint struct {
	ID             int64          `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	FuelTypeID     int64          `db:"fuel_type_id" json:"fuelTypeId"`
	Capacity       types.Quantity `db:"capacity" json:"capacity"`
	AvailableLevel types.Quantity `db:"available_level" json:"availableLevel"`
	Active         bool           `db:"active" json:"active"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// MovementKind classifies a level change.
type MovementKind string

const (
	MovementLoad        MovementKind = "LOAD"
	MovementCorrection  MovementKind = "CORRECTION"
	MovementEvaporation MovementKind = "EVAPORATION"
	MovementTransferOut MovementKind = "TRANSFER_OUT"
	MovementTransferIn  MovementKind = "TRANSFER_IN"
	MovementMeasurement MovementKind = "MEASUREMENT"
	MovementDispatch    MovementKind = "DISPATCH"
	MovementCredit      MovementKind = "CREDIT"
)

// Movement is an append-only record of one level change.
// Delta = After - Before.
type Movement struct {
	ID          int64           `db:"id" json:"id"`
	OwnerKind   OwnerKind       `db:"owner_kind" json:"ownerKind"`
	OwnerID     int64           `db:"owner_id" json:"ownerId"`
	Kind        MovementKind    `db:"kind" json:"kind"`
	Delta       types.Quantity  `db:"delta" json:"delta"`
	Before      types.Quantity  `db:"before_level" json:"before"`
	After       types.Quantity  `db:"after_level" json:"after"`
	Theoretical *types.Quantity `db:"theoretical" json:"theoretical,omitempty"`
	Measured    *types.Quantity `db:"measured" json:"measured,omitempty"`
	Difference  *types.Quantity `db:"difference" json:"difference,omitempty"`
	GroupID     *string         `db:"group_id" json:"groupId,omitempty"`
	TicketID    *int64          `db:"ticket_id" json:"ticketId,omitempty"`
	LoadID      *int64          `db:"load_id" json:"loadId,omitempty"`
	Notes       string          `db:"notes" json:"notes"`
	UserID      int64           `db:"user_id" json:"userId"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// Owner returns the holder the movement belongs to.
func (m *Movement) Owner() Owner {
	return Owner{Kind: m.OwnerKind, ID: m.OwnerID}
}

// Load is a tanker delivery into a tank or dispensing point.
type Load struct {
	ID               int64          `db:"id" json:"id"`
	OwnerKind        OwnerKind      `db:"owner_kind" json:"ownerKind"`
	OwnerID          int64          `db:"owner_id" json:"ownerId"`
	FuelTypeID       int64          `db:"fuel_type_id" json:"fuelTypeId"`
	DocumentNumber   string         `db:"document_number" json:"documentNumber"`
	TankerPlate      string         `db:"tanker_plate" json:"tankerPlate"`
	DriverName       string         `db:"driver_name" json:"driverName"`
	DriverNationalID string         `db:"driver_national_id" json:"driverNationalId"`
	Documented       types.Quantity `db:"documented" json:"documented"`
	Received         types.Quantity `db:"received" json:"received"`
	Notes            string         `db:"notes" json:"notes"`
	ReceivedAt       time.Time      `db:"received_at" json:"receivedAt"`
	UserID           int64          `db:"user_id" json:"userId"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// Owner returns the holder the load went into.
func (l *Load) Owner() Owner {
	return Owner{Kind: l.OwnerKind, ID: l.OwnerID}
}

// DocumentDifference is received minus the delivery document amount.
func (l *Load) DocumentDifference() types.Quantity {
	return l.Received - l.Documented
}

// LoadInput records a tanker delivery.
type LoadInput struct {
	Owner            Owner
	DocumentNumber   string
	TankerPlate      string
	DriverName       string
	DriverNationalID string
	Documented       types.Quantity
	Received         types.Quantity
	Notes            string
	ReceivedAt       time.Time
}

// Validate checks delivery-document fields. Point deliveries also need the
// driver's national id.
func (in LoadInput) Validate() error {
	if err := in.Owner.Validate(); err != nil {
		return err
	}
	if !in.Received.IsPositive() {
		return apperror.NewValidation("received amount must be positive").WithDetail("received", in.Received)
	}
	if in.Documented.IsNegative() {
		return apperror.NewValidation("documented amount must not be negative")
	}

	missing := make([]string, 0, 4)
	if strings.TrimSpace(in.DocumentNumber) == "" {
		missing = append(missing, "documentNumber")
	}
	if strings.TrimSpace(in.TankerPlate) == "" {
		missing = append(missing, "tankerPlate")
	}
	if strings.TrimSpace(in.DriverName) == "" {
		missing = append(missing, "driverName")
	}
	if in.Owner.Kind == OwnerPoint && strings.TrimSpace(in.DriverNationalID) == "" {
		missing = append(missing, "driverNationalId")
	}
	if len(missing) > 0 {
		return apperror.NewValidation("delivery document fields are required").WithDetail("missing", missing)
	}
	return nil
}

// EvaporationInput records a loss by evaporation.
type EvaporationInput struct {
	Owner  Owner
	Amount types.Quantity
	Notes  string
}

// TransferInput moves fuel between two tanks.
type TransferInput struct {
	SourceTankID int64
	TargetTankID int64
	Amount       types.Quantity
	Notes        string
}

func (in TransferInput) Validate() error {
	if in.SourceTankID <= 0 || in.TargetTankID <= 0 {
		return apperror.NewValidation("source and target tanks are required")
	}
	if in.SourceTankID == in.TargetTankID {
		return apperror.NewValidation("source and target tanks must differ")
	}
	if !in.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("amount", in.Amount)
	}
	return nil
}

// TransferResult holds both legs of a transfer.
type TransferResult struct {
	GroupID string    `json:"groupId"`
	Out     *Movement `json:"out"`
	In      *Movement `json:"in"`
}

// MeasurementInput is a physical dip reading of a tank.
type MeasurementInput struct {
	TankID    int64
	Measured  types.Quantity
	Overwrite bool
	Notes     string
}

func (in MeasurementInput) Validate() error {
	if in.TankID <= 0 {
		return apperror.NewValidation("tank id is required")
	}
	if in.Measured.IsNegative() {
		return apperror.NewValidation("measured level must not be negative")
	}
	return nil
}
