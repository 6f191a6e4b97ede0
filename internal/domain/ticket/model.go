// Package ticket implements the dispatch ticket lifecycle: request, approval,
// printing, physical dispatch and reconciliation against quota and inventory.
package ticket

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/types"
)

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusPrinted    Status = "PRINTED"
	StatusDispatched Status = "DISPATCHED"
	StatusFinalized  Status = "FINALIZED"
	StatusExpired    Status = "EXPIRED"
	StatusRejected   Status = "REJECTED"
)

// ActiveStatuses hold the vehicle lock and still own their reserved quota.
var ActiveStatuses = []Status{StatusPending, StatusApproved, StatusPrinted}

// IsActive reports whether s holds the vehicle lock.
func (s Status) IsActive() bool {
	return slices.Contains(ActiveStatuses, s)
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusFinalized || s == StatusExpired || s == StatusRejected
}

// transitions lists the states each target may be entered from.
var transitions = map[Status][]Status{
	StatusApproved:   {StatusPending},
	StatusPrinted:    {StatusApproved},
	StatusDispatched: {StatusPrinted},
	StatusFinalized:  {StatusPrinted, StatusDispatched},
	StatusExpired:    ActiveStatuses,
	StatusRejected:   ActiveStatuses,
}

// reprintable states keep their code and may be printed again.
var reprintable = []Status{StatusPrinted, StatusDispatched, StatusFinalized}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[to], from)
}

// SupplyType is how fuel leaves the dispensing point.
type SupplyType string

const (
	// SupplyContainer is bulk delivery into drums or jerrycans.
	SupplyContainer SupplyType = "CONTAINER"
	// SupplyPump is metered delivery straight into the vehicle.
	SupplyPump SupplyType = "PUMP"
)

// CodePrefix returns the ticket code prefix for the supply type.
func (s SupplyType) CodePrefix() string {
	if s == SupplyContainer {
		return "B"
	}
	return "R"
}

// RequestType distinguishes institutional consumption from sales.
type RequestType string

const (
	RequestInstitutional RequestType = "INSTITUTIONAL"
	RequestSale          RequestType = "SALE"
)

// DefaultUnitCode fills ticket codes for units without a code.
const DefaultUnitCode = "000"

// FormatCode builds <prefix><unitCode:3><id:6>. Longer unit codes keep their
// last three characters.
func FormatCode(supply SupplyType, unitCode string, id int64) string {
	unitCode = strings.TrimSpace(unitCode)
	if unitCode == "" {
		unitCode = DefaultUnitCode
	}
	switch {
	case len(unitCode) < 3:
		unitCode = strings.Repeat("0", 3-len(unitCode)) + unitCode
	case len(unitCode) > 3:
		unitCode = unitCode[len(unitCode)-3:]
	}
	return fmt.Sprintf("%s%s%06d", supply.CodePrefix(), unitCode, id)
}

// NormalizePlate is the vehicle identity used by the active-request lock.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

// Ticket is one fuel request. Vehicle fields are a snapshot taken at creation.
type Ticket struct {
	ID            int64       `db:"id" json:"id"`
	Code          string      `db:"code" json:"code"`
	Status        Status      `db:"status" json:"status"`
	SupplyType    SupplyType  `db:"supply_type" json:"supplyType"`
	RequestType   RequestType `db:"request_type" json:"requestType"`
	RequesterID   int64       `db:"requester_id" json:"requesterId"`
	CategoryID    int64       `db:"category_id" json:"categoryId"`
	UnitID        int64       `db:"unit_id" json:"unitId"`
	SubunitID     *int64      `db:"subunit_id" json:"subunitId,omitempty"`
	VehicleID     *int64      `db:"vehicle_id" json:"vehicleId,omitempty"`
	Plate         string      `db:"plate" json:"plate"`
	Brand         string      `db:"brand" json:"brand"`
	Model         string      `db:"model" json:"model"`
	PointID       int64       `db:"point_id" json:"pointId"`
	FuelTypeID    int64       `db:"fuel_type_id" json:"fuelTypeId"`
	QuotaBaseID   int64       `db:"quota_base_id" json:"quotaBaseId"`
	QuotaPeriodID int64       `db:"quota_period_id" json:"quotaPeriodId"`

	Requested  types.Quantity `db:"requested" json:"requested"`
	Dispatched types.Quantity `db:"dispatched" json:"dispatched"`
	Delivered  types.Quantity `db:"delivered" json:"delivered"`

	PriceID      *int64              `db:"price_id" json:"priceId,omitempty"`
	UnitPrice    decimal.NullDecimal `db:"unit_price" json:"unitPrice"`
	Amount       decimal.NullDecimal `db:"amount" json:"amount"`
	CurrencyCode string              `db:"currency_code" json:"currencyCode,omitempty"`

	Notes        string     `db:"notes" json:"notes"`
	ApprovedBy   *int64     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt   *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	IssuedBy     *int64     `db:"issued_by" json:"issuedBy,omitempty"`
	ReceiverID   *int64     `db:"receiver_id" json:"receiverId,omitempty"`
	PrintedAt    *time.Time `db:"printed_at" json:"printedAt,omitempty"`
	PrintCount   int        `db:"print_count" json:"printCount"`
	DispatchedAt *time.Time `db:"dispatched_at" json:"dispatchedAt,omitempty"`
	FinalizedBy  *int64     `db:"finalized_by" json:"finalizedBy,omitempty"`
	FinalizedAt  *time.Time `db:"finalized_at" json:"finalizedAt,omitempty"`
	RejectedBy   *int64     `db:"rejected_by" json:"rejectedBy,omitempty"`
	RejectReason string     `db:"reject_reason" json:"rejectReason,omitempty"`
	ClosedAt     *time.Time `db:"closed_at" json:"closedAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// transition moves the ticket to `to` or fails with InvalidState.
func (t *Ticket) transition(to Status, at time.Time) error {
	if !CanTransition(t.Status, to) {
		allowed := make([]string, 0, len(transitions[to]))
		for _, s := range transitions[to] {
			allowed = append(allowed, string(s))
		}
		return apperror.NewInvalidState("ticket", string(t.Status), allowed...).
			WithDetail("ticket_id", t.ID).
			WithDetail("target", to)
	}
	t.Status = to
	t.UpdatedAt = at
	return nil
}

// IsSale reports whether the ticket carries a price snapshot.
func (t *Ticket) IsSale() bool {
	return t.RequestType == RequestSale
}

// CreateInput is a new fuel request. With VehicleID set the vehicle snapshot
// comes from master data; otherwise Plate, Brand and Model are taken as given.
type CreateInput struct {
	UnitID      int64
	SubunitID   *int64
	VehicleID   int64
	Plate       string
	Brand       string
	Model       string
	PointID     int64
	FuelTypeID  int64
	Requested   types.Quantity
	SupplyType  SupplyType
	RequestType RequestType
	PriceID     *int64
	Notes       string
}

// Validate checks request input.
func (in CreateInput) Validate() error {
	if in.UnitID <= 0 || in.PointID <= 0 || in.FuelTypeID <= 0 {
		return apperror.NewValidation("unit, dispensing point and fuel type are required")
	}
	if in.VehicleID <= 0 && NormalizePlate(in.Plate) == "" {
		return apperror.NewValidation("vehicle or plate is required")
	}
	if !in.Requested.IsPositive() {
		return apperror.NewValidation("requested amount must be positive").WithDetail("requested", in.Requested)
	}
	if in.SupplyType != SupplyContainer && in.SupplyType != SupplyPump {
		return apperror.NewValidation("supply type must be CONTAINER or PUMP").WithDetail("supply_type", in.SupplyType)
	}
	if in.RequestType != RequestInstitutional && in.RequestType != RequestSale {
		return apperror.NewValidation("request type must be INSTITUTIONAL or SALE").WithDetail("request_type", in.RequestType)
	}
	return nil
}

// Inspection is the validator's view of a ticket code.
type Inspection struct {
	Result string  `json:"result"`
	Ticket *Ticket `json:"ticket"`
}

const (
	InspectReady            = "READY"
	InspectAlreadyFinalized = "ALREADY_FINALIZED"
)

// ExpireResult summarises a sweep.
type ExpireResult struct {
	Cutoff  time.Time `json:"cutoff"`
	Expired int       `json:"expired"`
	Skipped int       `json:"skipped"`
}
