package quota

import (
	"context"
	"fmt"
	"strings"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/clock"
	"fueldesk/internal/core/tx"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/audit"
	"fueldesk/internal/domain/events"
	"fueldesk/internal/observability/metrics"
	"fueldesk/pkg/logger"
)

// Service is the quota engine: it owns every read-then-write of period balances.
type Service struct {
	repo      Repository
	txManager tx.Manager
	clock     clock.Clock
	audit     audit.Recorder
	bus       events.Bus
}

// NewService creates a new quota service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	clk clock.Clock,
	recorder audit.Recorder,
	bus events.Bus,
) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if bus == nil {
		bus = events.Nop{}
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		clock:     clk,
		audit:     recorder,
		bus:       bus,
	}
}

// CurrentPeriod returns the period containing the clock's now.
func (s *Service) CurrentPeriod() types.Period {
	return types.PeriodOf(s.clock.Now())
}

// --- Periods ---

// GetOrCreatePeriod returns the (base, period) row, creating it from the base's
// monthly amount on first access. The row is locked when called inside a
// transaction.
func (s *Service) GetOrCreatePeriod(ctx context.Context, baseID int64, period types.Period) (*Period, error) {
	var out *Period
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, p, err := s.lockPeriod(ctx, baseID, period)
		out = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockPeriod is the atomic find-or-create: insert-if-absent, then lock.
func (s *Service) lockPeriod(ctx context.Context, baseID int64, period types.Period) (*Base, *Period, error) {
	base, err := s.repo.GetBase(ctx, baseID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.repo.InsertPeriodIfAbsent(ctx, NewPeriod(base, period, s.clock.Location(), s.clock.Now())); err != nil {
		return nil, nil, fmt.Errorf("insert period: %w", err)
	}

	p, err := s.repo.FindPeriodForUpdate(ctx, baseID, period)
	if err != nil {
		return nil, nil, err
	}
	return base, p, nil
}

// Reserve draws amount from the base's period.
func (s *Service) Reserve(ctx context.Context, baseID int64, period types.Period, amount types.Quantity, ref Ref) (*Period, error) {
	var out *Period
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		base, p, err := s.lockPeriod(ctx, baseID, period)
		if err != nil {
			return err
		}
		if !base.Active {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "quota base is inactive").
				WithDetail("base_id", base.ID)
		}
		if err := p.Reserve(amount); err != nil {
			return err
		}
		if err := s.applyEntry(ctx, p, EntryConsumption, amount, ref, nil); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Release returns amount to an existing (base, period) row.
func (s *Service) Release(ctx context.Context, baseID int64, period types.Period, amount types.Quantity, ref Ref) (*Period, error) {
	var out *Period
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.FindPeriodForUpdate(ctx, baseID, period)
		if err != nil {
			return err
		}
		if err := p.Release(amount); err != nil {
			return err
		}
		if err := s.applyEntry(ctx, p, EntryRelease, amount, ref, nil); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReleaseToPeriod returns amount to the period that funded a ticket.
// Closed periods report CodePeriodClosed and are left untouched.
func (s *Service) ReleaseToPeriod(ctx context.Context, periodID int64, amount types.Quantity, ref Ref) (*Period, error) {
	var out *Period
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPeriodForUpdate(ctx, periodID)
		if err != nil {
			return err
		}
		if err := p.Release(amount); err != nil {
			return err
		}
		if err := s.applyEntry(ctx, p, EntryRelease, amount, ref, nil); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RechargeInput describes a manual recharge.
type RechargeInput struct {
	BaseID       int64
	Period       types.Period
	Amount       types.Quantity
	AuthorizedBy int64
	Reason       string
}

// Validate checks recharge input.
func (in RechargeInput) Validate() error {
	if in.BaseID <= 0 {
		return apperror.NewValidation("base id is required")
	}
	if _, err := types.ParsePeriod(in.Period.String()); err != nil {
		return apperror.NewValidation(err.Error())
	}
	if !in.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("amount", in.Amount)
	}
	if in.AuthorizedBy <= 0 {
		return apperror.NewValidation("authorizer is required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return apperror.NewValidation("reason is required")
	}
	return nil
}

// Recharge restores capacity to a period; it never lifts Available above Assigned.
func (s *Service) Recharge(ctx context.Context, in RechargeInput) (*Period, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var out *Period
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, p, err := s.lockPeriod(ctx, in.BaseID, in.Period)
		if err != nil {
			return err
		}
		if err := p.Recharge(in.Amount); err != nil {
			return err
		}
		authorizer := in.AuthorizedBy
		if err := s.applyEntry(ctx, p, EntryRecharge, in.Amount, Ref{Reason: in.Reason}, &authorizer); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quota recharged", "period_id", out.ID, "amount", in.Amount, "authorized_by", in.AuthorizedBy)
	s.bus.Publish(ctx, events.QuotaUpdated, out)
	return out, nil
}

// applyEntry persists a mutated period with its ledger entry and audit row.
func (s *Service) applyEntry(ctx context.Context, p *Period, kind EntryKind, amount types.Quantity, ref Ref, authorizedBy *int64) error {
	p.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdatePeriod(ctx, p); err != nil {
		return fmt.Errorf("update period: %w", err)
	}

	entry := &Entry{
		PeriodID:     p.ID,
		Kind:         kind,
		Amount:       amount,
		Reason:       ref.Reason,
		TicketID:     ref.TicketID,
		AuthorizedBy: authorizedBy,
		CreatedAt:    p.UpdatedAt,
	}
	if err := s.repo.AddEntry(ctx, entry); err != nil {
		return fmt.Errorf("add entry: %w", err)
	}

	action := audit.ActionReserve
	switch kind {
	case EntryRelease:
		action = audit.ActionRelease
	case EntryRecharge:
		action = audit.ActionRecharge
	}
	if err := s.audit.Record(ctx, audit.Entry{
		EntityType: audit.EntityQuotaPeriod,
		EntityID:   p.ID,
		Action:     action,
		Changes: map[string]any{
			"amount":    amount,
			"available": p.Available,
			"consumed":  p.Consumed,
			"recharged": p.Recharged,
			"state":     p.State,
			"ticket_id": ref.TicketID,
			"reason":    ref.Reason,
		},
	}); err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	metrics.QuotaOperation(string(kind))
	return nil
}

// RolloverMonth closes every open period older than the current one, archives
// it, and makes sure each active base has a period for the current month.
// Running it again in the same month changes nothing.
func (s *Service) RolloverMonth(ctx context.Context) (RolloverResult, error) {
	now := s.clock.Now()
	current := types.PeriodOf(now)
	result := RolloverResult{Period: current}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		open, err := s.repo.LockOpenPeriodsBefore(ctx, current)
		if err != nil {
			return fmt.Errorf("lock open periods: %w", err)
		}

		records := make([]HistoryRecord, 0, len(open))
		for i := range open {
			p := &open[i]
			records = append(records, Archive(p, now))
			p.Close()
			p.UpdatedAt = now
			if err := s.repo.UpdatePeriod(ctx, p); err != nil {
				return fmt.Errorf("close period %d: %w", p.ID, err)
			}
			if err := s.audit.Record(ctx, audit.Entry{
				EntityType: audit.EntityQuotaPeriod,
				EntityID:   p.ID,
				Action:     audit.ActionClose,
				Changes:    map[string]any{"period": p.Period, "unused": p.Available},
			}); err != nil {
				return fmt.Errorf("audit: %w", err)
			}
		}
		if err := s.repo.ArchivePeriods(ctx, records); err != nil {
			return fmt.Errorf("archive periods: %w", err)
		}

		bases, err := s.repo.ListActiveBases(ctx)
		if err != nil {
			return fmt.Errorf("list active bases: %w", err)
		}
		created := 0
		for i := range bases {
			inserted, err := s.repo.InsertPeriodIfAbsent(ctx, NewPeriod(&bases[i], current, s.clock.Location(), now))
			if err != nil {
				return fmt.Errorf("open period for base %d: %w", bases[i].ID, err)
			}
			if inserted {
				created++
			}
		}

		result.Closed = len(open)
		result.Created = created
		return nil
	})
	if err != nil {
		return RolloverResult{}, err
	}

	logger.Info(ctx, "quota rollover completed", "period", current, "closed", result.Closed, "created", result.Created)
	s.bus.Publish(ctx, events.QuotaRolledOver, result)
	return result, nil
}

// --- Bases ---

// CreateBase registers a new entitlement and opens its current period.
func (s *Service) CreateBase(ctx context.Context, scope Scope, monthly types.Quantity) (*Base, error) {
	now := s.clock.Now()
	base := &Base{
		Scope:         scope,
		MonthlyAmount: monthly,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindBaseByScope(ctx, scope)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperror.NewDuplicate("quota base", "scope", scopeKey(scope)).
				WithDetail("existing_id", existing.ID)
		}

		if err := s.repo.CreateBase(ctx, base); err != nil {
			return fmt.Errorf("create base: %w", err)
		}
		if _, err := s.repo.InsertPeriodIfAbsent(ctx, NewPeriod(base, types.PeriodOf(now), s.clock.Location(), now)); err != nil {
			return fmt.Errorf("open current period: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityQuotaBase,
			EntityID:   base.ID,
			Action:     audit.ActionCreate,
			Changes:    map[string]any{"scope": scope, "monthly_amount": monthly},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quota base created", "id", base.ID, "monthly_amount", monthly)
	s.bus.Publish(ctx, events.QuotaUpdated, base)
	return base, nil
}

// UpdateBaseInput carries the mutable fields of a base.
type UpdateBaseInput struct {
	MonthlyAmount *types.Quantity
	Active        *bool
}

// UpdateBase changes the monthly amount and/or active flag. A new monthly amount
// is applied to the current period as well.
func (s *Service) UpdateBase(ctx context.Context, id int64, in UpdateBaseInput) (*Base, error) {
	var base *Base
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		base, err = s.repo.GetBaseForUpdate(ctx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		changes := map[string]any{}
		if in.MonthlyAmount != nil && *in.MonthlyAmount != base.MonthlyAmount {
			changes["monthly_amount"] = map[string]any{"old": base.MonthlyAmount, "new": *in.MonthlyAmount}
			base.MonthlyAmount = *in.MonthlyAmount
		}
		if in.Active != nil && *in.Active != base.Active {
			changes["active"] = *in.Active
			base.Active = *in.Active
		}
		if len(changes) == 0 {
			return nil
		}
		if err := base.Validate(); err != nil {
			return err
		}

		base.UpdatedAt = now
		if err := s.repo.UpdateBase(ctx, base); err != nil {
			return fmt.Errorf("update base: %w", err)
		}

		if _, ok := changes["monthly_amount"]; ok {
			p, err := s.repo.FindPeriodForUpdate(ctx, base.ID, types.PeriodOf(now))
			switch {
			case apperror.IsNotFound(err):
			case err != nil:
				return err
			case p.State != StateClosed:
				if err := p.Reassign(base.MonthlyAmount); err != nil {
					return err
				}
				p.UpdatedAt = now
				if err := s.repo.UpdatePeriod(ctx, p); err != nil {
					return fmt.Errorf("update period: %w", err)
				}
				changes["period_id"] = p.ID
				changes["available"] = p.Available
			}
		}
		if base.Active {
			if _, err := s.repo.InsertPeriodIfAbsent(ctx, NewPeriod(base, types.PeriodOf(now), s.clock.Location(), now)); err != nil {
				return fmt.Errorf("open current period: %w", err)
			}
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: audit.EntityQuotaBase,
			EntityID:   base.ID,
			Action:     audit.ActionUpdate,
			Changes:    changes,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quota base updated", "id", base.ID)
	s.bus.Publish(ctx, events.QuotaUpdated, base)
	return base, nil
}

// SetBaseActive activates or deactivates a base.
func (s *Service) SetBaseActive(ctx context.Context, id int64, active bool) (*Base, error) {
	return s.UpdateBase(ctx, id, UpdateBaseInput{Active: &active})
}

// FindBaseForScope resolves the base funding a request scope.
func (s *Service) FindBaseForScope(ctx context.Context, scope Scope) (*Base, error) {
	return s.repo.FindBaseByScope(ctx, scope)
}

// --- Queries ---

func (s *Service) GetBase(ctx context.Context, id int64) (*Base, error) {
	return s.repo.GetBase(ctx, id)
}

func (s *Service) ListBases(ctx context.Context, f BaseFilter) (domain.ListResult[Base], error) {
	f.Normalize()
	return s.repo.ListBases(ctx, f)
}

func (s *Service) GetPeriod(ctx context.Context, id int64) (*Period, error) {
	return s.repo.GetPeriod(ctx, id)
}

func (s *Service) ListPeriods(ctx context.Context, f PeriodFilter) (domain.ListResult[Period], error) {
	f.Normalize()
	return s.repo.ListPeriods(ctx, f)
}

func (s *Service) ListEntries(ctx context.Context, periodID int64, f domain.ListFilter) (domain.ListResult[Entry], error) {
	f.Normalize()
	return s.repo.ListEntries(ctx, periodID, f)
}

func (s *Service) ListHistory(ctx context.Context, period types.Period, f domain.ListFilter) (domain.ListResult[HistoryRecord], error) {
	f.Normalize()
	return s.repo.ListHistory(ctx, period, f)
}

func scopeKey(s Scope) string {
	sub := "-"
	if s.SubunitID != nil {
		sub = fmt.Sprint(*s.SubunitID)
	}
	return fmt.Sprintf("%d/%d/%s/%d", s.CategoryID, s.UnitID, sub, s.FuelTypeID)
}
