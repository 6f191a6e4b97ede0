package dto

import (
	"strings"

	"fueldesk/internal/core/types"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/domain/ticket"
)

// CreateTicketRequest opens a fuel request.
type CreateTicketRequest struct {
	UnitID      int64          `json:"unitId" binding:"required,min=1"`
	SubunitID   *int64         `json:"subunitId"`
	VehicleID   int64          `json:"vehicleId"`
	Plate       string         `json:"plate"`
	Brand       string         `json:"brand"`
	Model       string         `json:"model"`
	PointID     int64          `json:"pointId" binding:"required,min=1"`
	FuelTypeID  int64          `json:"fuelTypeId" binding:"required,min=1"`
	Requested   types.Quantity `json:"requested"`
	SupplyType  string         `json:"supplyType" binding:"required"`
	RequestType string         `json:"requestType"`
	PriceID     *int64         `json:"priceId"`
	Notes       string         `json:"notes"`
}

// ToInput converts to domain input. Request type defaults to institutional.
func (r *CreateTicketRequest) ToInput() ticket.CreateInput {
	requestType := ticket.RequestType(strings.ToUpper(r.RequestType))
	if requestType == "" {
		requestType = ticket.RequestInstitutional
	}
	return ticket.CreateInput{
		UnitID:      r.UnitID,
		SubunitID:   r.SubunitID,
		VehicleID:   r.VehicleID,
		Plate:       r.Plate,
		Brand:       r.Brand,
		Model:       r.Model,
		PointID:     r.PointID,
		FuelTypeID:  r.FuelTypeID,
		Requested:   r.Requested,
		SupplyType:  ticket.SupplyType(strings.ToUpper(r.SupplyType)),
		RequestType: requestType,
		PriceID:     r.PriceID,
		Notes:       r.Notes,
	}
}

// PrintTicketRequest carries the issuer sample and the receiver's claim.
type PrintTicketRequest struct {
	IssuerSample       string `json:"issuerSample" binding:"required"`
	ReceiverNationalID string `json:"receiverNationalId" binding:"required"`
	ReceiverSample     string `json:"receiverSample" binding:"required"`
}

// ToInput converts to domain input.
func (r *PrintTicketRequest) ToInput() ticket.PrintInput {
	return ticket.PrintInput{
		IssuerSample: r.IssuerSample,
		Receiver:     identity.Claim{NationalID: r.ReceiverNationalID, Sample: r.ReceiverSample},
	}
}

// DispatchTicketRequest records the physical release. Released defaults to the requested amount.
type DispatchTicketRequest struct {
	Code     string          `json:"code" binding:"required"`
	Released *types.Quantity `json:"released"`
}

// FinalizeTicketRequest reconciles a ticket against the delivered amount.
type FinalizeTicketRequest struct {
	Code      string         `json:"code" binding:"required"`
	Delivered types.Quantity `json:"delivered"`
}

// RejectTicketRequest cancels an active ticket.
type RejectTicketRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// TicketListQuery filters tickets.
type TicketListQuery struct {
	ListQuery
	Status  []string `form:"status"`
	UnitID  *int64   `form:"unitId"`
	PointID *int64   `form:"pointId"`
	Plate   string   `form:"plate"`
}

// ToFilter converts to a domain filter.
func (q TicketListQuery) ToFilter() ticket.Filter {
	f := ticket.Filter{
		ListFilter: q.Filter(),
		UnitID:     q.UnitID,
		PointID:    q.PointID,
		Plate:      ticket.NormalizePlate(q.Plate),
	}
	for _, s := range q.Status {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Statuses = append(f.Statuses, ticket.Status(strings.ToUpper(part)))
			}
		}
	}
	return f
}
