// Package quota implements the period-scoped fuel allowance ledger.
package quota

import (
	"time"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/types"
)

// PeriodState is the lifecycle state of a quota period.
type PeriodState string

const (
	StateActive    PeriodState = "ACTIVE"
	StateExhausted PeriodState = "EXHAUSTED"
	StateClosed    PeriodState = "CLOSED"
)

// Scope identifies who a quota base belongs to.
type Scope struct {
	CategoryID int64  `db:"category_id" json:"categoryId"`
	UnitID     int64  `db:"unit_id" json:"unitId"`
	SubunitID  *int64 `db:"subunit_id" json:"subunitId,omitempty"`
	FuelTypeID int64  `db:"fuel_type_id" json:"fuelTypeId"`
}

// Base is the standing monthly entitlement for a scope.
type Base struct {
	ID            int64          `db:"id" json:"id"`
	Scope                        // embedded scope columns
	MonthlyAmount types.Quantity `db:"monthly_amount" json:"monthlyAmount"`
	Active        bool           `db:"active" json:"active"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// Validate checks base invariants.
func (b *Base) Validate() error {
	if b.CategoryID <= 0 || b.UnitID <= 0 || b.FuelTypeID <= 0 {
		return apperror.NewValidation("category, unit and fuel type are required")
	}
	if !b.MonthlyAmount.IsPositive() {
		return apperror.NewValidation("monthly amount must be positive").
			WithDetail("monthly_amount", b.MonthlyAmount)
	}
	return nil
}

// Period is one month's instantiation of a Base.
// Invariant: Available = Assigned + Recharged - Consumed, Available >= 0.
type Period struct {
	ID        int64          `db:"id" json:"id"`
	BaseID    int64          `db:"base_id" json:"baseId"`
	Period    types.Period   `db:"period" json:"period"`
	StartsOn  time.Time      `db:"starts_on" json:"startsOn"`
	EndsOn    time.Time      `db:"ends_on" json:"endsOn"`
	Assigned  types.Quantity `db:"assigned" json:"assigned"`
	Available types.Quantity `db:"available" json:"available"`
	Consumed  types.Quantity `db:"consumed" json:"consumed"`
	Recharged types.Quantity `db:"recharged" json:"recharged"`
	State     PeriodState    `db:"state" json:"state"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// NewPeriod initialises a period from the base's monthly amount.
func NewPeriod(base *Base, period types.Period, loc *time.Location, now time.Time) *Period {
	start, end := period.Bounds(loc)
	p := &Period{
		BaseID:    base.ID,
		Period:    period,
		StartsOn:  start,
		EndsOn:    end,
		Assigned:  base.MonthlyAmount,
		Available: base.MonthlyAmount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.refreshState()
	return p
}

// Balanced reports whether the running totals satisfy the ledger invariant.
func (p *Period) Balanced() bool {
	return p.Available == p.Assigned+p.Recharged-p.Consumed && p.Available >= 0
}

func (p *Period) refreshState() {
	if p.State == StateClosed {
		return
	}
	if p.Available > 0 {
		p.State = StateActive
	} else {
		p.State = StateExhausted
	}
}

func (p *Period) ensureOpen() error {
	if p.State == StateClosed {
		return apperror.NewPeriodClosed(p.Period.String()).WithDetail("period_id", p.ID)
	}
	return nil
}

// Reserve draws amount from the period.
func (p *Period) Reserve(amount types.Quantity) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("amount", amount)
	}
	if err := p.ensureOpen(); err != nil {
		return err
	}
	if p.Available < amount {
		return apperror.NewInsufficientQuota(p.ID, amount, p.Available)
	}
	p.Available -= amount
	p.Consumed += amount
	p.refreshState()
	return nil
}

// Release returns amount to the period.
func (p *Period) Release(amount types.Quantity) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("amount", amount)
	}
	if err := p.ensureOpen(); err != nil {
		return err
	}
	if amount > p.Consumed {
		return apperror.NewValidation("release exceeds consumed amount").
			WithDetail("amount", amount).
			WithDetail("consumed", p.Consumed)
	}
	p.Available += amount
	p.Consumed -= amount
	p.refreshState()
	return nil
}

// MaxRecharge is the largest recharge that keeps Available <= Assigned.
func (p *Period) MaxRecharge() types.Quantity {
	return types.MaxQuantity(0, p.Assigned-p.Available)
}

// Recharge restores capacity lost during the month.
func (p *Period) Recharge(amount types.Quantity) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("amount", amount)
	}
	if err := p.ensureOpen(); err != nil {
		return err
	}
	if p.Available+amount > p.Assigned {
		return apperror.NewRechargeExceedsAssigned(p.ID, amount, p.MaxRecharge())
	}
	p.Available += amount
	p.Recharged += amount
	p.refreshState()
	return nil
}

// Reassign applies a new monthly amount to an open period.
func (p *Period) Reassign(monthly types.Quantity) error {
	if err := p.ensureOpen(); err != nil {
		return err
	}
	available := monthly + p.Recharged - p.Consumed
	if available < 0 {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "monthly amount is below what the period already consumed").
			WithDetail("period_id", p.ID).
			WithDetail("monthly_amount", monthly).
			WithDetail("consumed", p.Consumed).
			WithDetail("recharged", p.Recharged)
	}
	p.Assigned = monthly
	p.Available = available
	p.refreshState()
	return nil
}

// Close marks the period immutable.
func (p *Period) Close() {
	p.State = StateClosed
}

// EntryKind classifies a quota ledger entry.
type EntryKind string

const (
	EntryConsumption EntryKind = "CONSUMPTION"
	EntryRelease     EntryKind = "RELEASE"
	EntryRecharge    EntryKind = "RECHARGE"
)

// Entry is an append-only record attributing a delta to a period.
type Entry struct {
	ID           int64          `db:"id" json:"id"`
	PeriodID     int64          `db:"period_id" json:"periodId"`
	Kind         EntryKind      `db:"kind" json:"kind"`
	Amount       types.Quantity `db:"amount" json:"amount"`
	Reason       string         `db:"reason" json:"reason"`
	TicketID     *int64         `db:"ticket_id" json:"ticketId,omitempty"`
	AuthorizedBy *int64         `db:"authorized_by" json:"authorizedBy,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

// Ref attributes a reserve or release to its cause.
type Ref struct {
	TicketID *int64
	Reason   string
}

// HistoryRecord is the archived snapshot of a closed period.
type HistoryRecord struct {
	ID        int64          `db:"id" json:"id"`
	PeriodID  int64          `db:"period_id" json:"periodId"`
	BaseID    int64          `db:"base_id" json:"baseId"`
	Period    types.Period   `db:"period" json:"period"`
	Assigned  types.Quantity `db:"assigned" json:"assigned"`
	Consumed  types.Quantity `db:"consumed" json:"consumed"`
	Recharged types.Quantity `db:"recharged" json:"recharged"`
	Unused    types.Quantity `db:"unused" json:"unused"`
	ClosedAt  time.Time      `db:"closed_at" json:"closedAt"`
}

// Archive snapshots p for the history table.
func Archive(p *Period, closedAt time.Time) HistoryRecord {
	return HistoryRecord{
		PeriodID:  p.ID,
		BaseID:    p.BaseID,
		Period:    p.Period,
		Assigned:  p.Assigned,
		Consumed:  p.Consumed,
		Recharged: p.Recharged,
		Unused:    p.Available,
		ClosedAt:  closedAt,
	}
}

// RolloverResult summarises a monthly rollover run.
type RolloverResult struct {
	Period  types.Period `json:"period"`
	Closed  int          `json:"closed"`
	Created int          `json:"created"`
}
