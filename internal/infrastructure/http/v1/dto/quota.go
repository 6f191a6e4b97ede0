package dto

import (
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain/quota"
)

// CreateQuotaBaseRequest defines a monthly entitlement.
type CreateQuotaBaseRequest struct {
	CategoryID    int64          `json:"categoryId" binding:"required,min=1"`
	UnitID        int64          `json:"unitId" binding:"required,min=1"`
	SubunitID     *int64         `json:"subunitId"`
	FuelTypeID    int64          `json:"fuelTypeId" binding:"required,min=1"`
	MonthlyAmount types.Quantity `json:"monthlyAmount"`
}

// Scope returns the base scope.
func (r *CreateQuotaBaseRequest) Scope() quota.Scope {
	return quota.Scope{
		CategoryID: r.CategoryID,
		UnitID:     r.UnitID,
		SubunitID:  r.SubunitID,
		FuelTypeID: r.FuelTypeID,
	}
}

// UpdateQuotaBaseRequest changes the mutable fields of a base.
type UpdateQuotaBaseRequest struct {
	MonthlyAmount *types.Quantity `json:"monthlyAmount"`
	Active        *bool           `json:"active"`
}

// ToInput converts to domain input.
func (r *UpdateQuotaBaseRequest) ToInput() quota.UpdateBaseInput {
	return quota.UpdateBaseInput{MonthlyAmount: r.MonthlyAmount, Active: r.Active}
}

// RechargeRequest restores capacity to a period. Period defaults to the current month.
type RechargeRequest struct {
	Period string         `json:"period"`
	Amount types.Quantity `json:"amount"`
	Reason string         `json:"reason" binding:"required"`
}

// QuotaBaseListQuery filters bases.
type QuotaBaseListQuery struct {
	ListQuery
	UnitID     *int64 `form:"unitId"`
	FuelTypeID *int64 `form:"fuelTypeId"`
	ActiveOnly bool   `form:"activeOnly"`
}

// ToFilter converts to a domain filter.
func (q QuotaBaseListQuery) ToFilter() quota.BaseFilter {
	return quota.BaseFilter{
		ListFilter: q.Filter(),
		UnitID:     q.UnitID,
		FuelTypeID: q.FuelTypeID,
		ActiveOnly: q.ActiveOnly,
	}
}

// QuotaPeriodListQuery filters periods.
type QuotaPeriodListQuery struct {
	ListQuery
	Period string `form:"period"`
	BaseID *int64 `form:"baseId"`
	State  string `form:"state"`
}

// ToFilter converts to a domain filter.
func (q QuotaPeriodListQuery) ToFilter() quota.PeriodFilter {
	return quota.PeriodFilter{
		ListFilter: q.Filter(),
		Period:     types.Period(q.Period),
		BaseID:     q.BaseID,
		State:      quota.PeriodState(q.State),
	}
}
