package ticket

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fueldesk/internal/core/apperror"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/core/clock"
	"fueldesk/internal/core/tx"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/audit"
	"fueldesk/internal/domain/events"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/domain/masterdata"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/observability/metrics"
	"fueldesk/pkg/logger"
)

// QuotaLedger is the slice of the quota engine tickets draw on.
type QuotaLedger interface {
	FindBaseForScope(ctx context.Context, scope quota.Scope) (*quota.Base, error)
	Reserve(ctx context.Context, baseID int64, period types.Period, amount types.Quantity, ref quota.Ref) (*quota.Period, error)
	ReleaseToPeriod(ctx context.Context, periodID int64, amount types.Quantity, ref quota.Ref) (*quota.Period, error)
}

// InventoryLedger is the slice of the inventory ledger tickets move.
type InventoryLedger interface {
	GetPoint(ctx context.Context, id int64) (*inventory.DispensingPoint, error)
	Withdraw(ctx context.Context, pointID int64, amount types.Quantity, ticketID int64) (*inventory.Movement, error)
	Credit(ctx context.Context, pointID int64, amount types.Quantity, ticketID int64) (*inventory.Movement, error)
}

// Config tunes ticket issuing.
type Config struct {
	// DefaultUnitCode replaces empty unit codes in ticket codes.
	DefaultUnitCode string
}

// Service drives tickets through their lifecycle.
type Service struct {
	repo      Repository
	txManager tx.Manager
	clock     clock.Clock
	quota     QuotaLedger
	inventory InventoryLedger
	master    masterdata.Store
	verifier  identity.Verifier
	audit     audit.Recorder
	bus       events.Bus
	cfg       Config
}

// NewService creates a new ticket service.
func NewService(
	repo Repository,
	txManager tx.Manager,
	clk clock.Clock,
	quotaLedger QuotaLedger,
	inventoryLedger InventoryLedger,
	master masterdata.Store,
	verifier identity.Verifier,
	recorder audit.Recorder,
	bus events.Bus,
	cfg Config,
) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if bus == nil {
		bus = events.Nop{}
	}
	if cfg.DefaultUnitCode == "" {
		cfg.DefaultUnitCode = DefaultUnitCode
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		clock:     clk,
		quota:     quotaLedger,
		inventory: inventoryLedger,
		master:    master,
		verifier:  verifier,
		audit:     recorder,
		bus:       bus,
		cfg:       cfg,
	}
}

func (s *Service) code(t *Ticket, unitCode string) string {
	if strings.TrimSpace(unitCode) == "" {
		unitCode = s.cfg.DefaultUnitCode
	}
	return FormatCode(t.SupplyType, unitCode, t.ID)
}

func (s *Service) record(ctx context.Context, t *Ticket, action audit.Action, changes map[string]any) error {
	if changes == nil {
		changes = map[string]any{}
	}
	changes["status"] = t.Status
	if err := s.audit.Record(ctx, audit.Entry{
		EntityType: audit.EntityTicket,
		EntityID:   t.ID,
		Action:     action,
		Changes:    changes,
	}); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

// committed runs the post-commit side effects of a transition.
func (s *Service) committed(ctx context.Context, t *Ticket, event string) {
	metrics.TicketTransition(string(t.Status))
	logger.Info(ctx, "ticket "+strings.ToLower(string(t.Status)), "ticket_id", t.ID, "code", t.Code)
	s.bus.Publish(ctx, event, t)
}

// releaseQuota returns amount to the ticket's original period. A closed period
// keeps its archived balances; the release is skipped and reported false.
func (s *Service) releaseQuota(ctx context.Context, t *Ticket, amount types.Quantity, reason string) (bool, error) {
	if !amount.IsPositive() || t.QuotaPeriodID == 0 {
		return false, nil
	}
	ticketID := t.ID
	_, err := s.quota.ReleaseToPeriod(ctx, t.QuotaPeriodID, amount, quota.Ref{TicketID: &ticketID, Reason: reason})
	if apperror.HasCode(err, apperror.CodePeriodClosed) {
		logger.Warn(ctx, "quota period closed, release skipped",
			"ticket_id", t.ID,
			"period_id", t.QuotaPeriodID,
			"amount", amount,
		)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create registers a PENDING ticket and reserves its quota.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Ticket, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	requesterID := appctx.GetUserID(ctx)
	if requesterID == 0 {
		return nil, apperror.NewUnauthorized("requester is not authenticated")
	}

	unit, err := s.master.GetUnit(ctx, in.UnitID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	t := &Ticket{
		Status:      StatusPending,
		SupplyType:  in.SupplyType,
		RequestType: in.RequestType,
		RequesterID: requesterID,
		CategoryID:  unit.CategoryID,
		UnitID:      unit.ID,
		SubunitID:   in.SubunitID,
		PointID:     in.PointID,
		FuelTypeID:  in.FuelTypeID,
		Requested:   in.Requested,
		Plate:       NormalizePlate(in.Plate),
		Brand:       strings.TrimSpace(in.Brand),
		Model:       strings.TrimSpace(in.Model),
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.resolveRequest(ctx, in, t); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		active, err := s.repo.FindActiveByPlate(ctx, t.Plate)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if active != nil {
			return apperror.NewDuplicateActiveRequest(t.Plate).
				WithDetail("ticket_id", active.ID).
				WithDetail("code", active.Code)
		}

		base, err := s.quota.FindBaseForScope(ctx, quota.Scope{
			CategoryID: t.CategoryID,
			UnitID:     t.UnitID,
			SubunitID:  t.SubunitID,
			FuelTypeID: t.FuelTypeID,
		})
		if err != nil {
			return err
		}
		t.QuotaBaseID = base.ID

		if err := s.repo.Create(ctx, t); err != nil {
			return err
		}

		ticketID := t.ID
		period, err := s.quota.Reserve(ctx, base.ID, types.PeriodOf(now), t.Requested, quota.Ref{TicketID: &ticketID, Reason: "ticket request"})
		if err != nil {
			return err
		}
		t.QuotaPeriodID = period.ID
		t.Code = s.code(t, unit.Code)
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}

		return s.record(ctx, t, audit.ActionCreate, map[string]any{
			"code":            t.Code,
			"plate":           t.Plate,
			"requested":       t.Requested,
			"quota_period_id": t.QuotaPeriodID,
			"amount":          t.Amount,
		})
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, t, events.TicketCreated)
	return t, nil
}

// resolveRequest fills vehicle, point and price snapshots from master data.
func (s *Service) resolveRequest(ctx context.Context, in CreateInput, t *Ticket) error {
	var subunit *masterdata.Subunit
	if in.SubunitID != nil {
		var err error
		subunit, err = s.master.GetSubunit(ctx, *in.SubunitID)
		if err != nil {
			return err
		}
		if subunit.UnitID != in.UnitID {
			return apperror.NewValidation("subunit does not belong to unit").
				WithDetail("unit_id", in.UnitID).
				WithDetail("subunit_id", subunit.ID)
		}
	}

	if in.VehicleID > 0 {
		v, err := s.master.GetVehicle(ctx, in.VehicleID)
		if err != nil {
			return err
		}
		if !v.Active {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "vehicle is not active").WithDetail("vehicle_id", v.ID)
		}
		if v.FuelTypeID != in.FuelTypeID {
			return apperror.NewValidation("vehicle does not use the requested fuel type").
				WithDetail("vehicle_fuel_type_id", v.FuelTypeID)
		}
		id := v.ID
		t.VehicleID = &id
		t.Plate = NormalizePlate(v.Plate)
		t.Brand = v.Brand
		t.Model = v.Model
	}
	if t.Plate == "" {
		return apperror.NewValidation("vehicle plate is required")
	}

	point, err := s.inventory.GetPoint(ctx, in.PointID)
	if err != nil {
		return err
	}
	if !point.Active {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "dispensing point is not active").WithDetail("point_id", point.ID)
	}
	if point.FuelTypeID != in.FuelTypeID {
		return apperror.NewValidation("dispensing point does not hold the requested fuel type").
			WithDetail("point_fuel_type_id", point.FuelTypeID)
	}

	if in.RequestType != RequestSale {
		return nil
	}
	if subunit == nil || !subunit.SellsFuel {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "only subunits enabled for sales may request sale tickets")
	}

	var price *masterdata.Price
	if in.PriceID != nil {
		price, err = s.master.GetPrice(ctx, *in.PriceID)
		if err != nil {
			return err
		}
		if !price.Active || price.FuelTypeID != in.FuelTypeID {
			return apperror.NewValidation("price is not active for the requested fuel type").WithDetail("price_id", price.ID)
		}
	} else {
		price, err = s.master.ActivePrice(ctx, in.FuelTypeID)
		if err != nil {
			return err
		}
	}

	priceID := price.ID
	t.PriceID = &priceID
	t.UnitPrice = decimal.NewNullDecimal(price.UnitPrice)
	t.Amount = decimal.NewNullDecimal(types.Amount(t.Requested, price.UnitPrice))
	t.CurrencyCode = price.CurrencyCode
	return nil
}

// Approve moves a PENDING ticket to APPROVED.
func (s *Service) Approve(ctx context.Context, id int64) (*Ticket, error) {
	var t *Ticket
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := t.transition(StatusApproved, now); err != nil {
			return err
		}
		approver := appctx.GetUserID(ctx)
		t.ApprovedBy = &approver
		t.ApprovedAt = &now
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return s.record(ctx, t, audit.ActionApprove, nil)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, t, events.TicketApproved)
	return t, nil
}

// PrintInput carries the two identity confirmations required to print.
type PrintInput struct {
	// IssuerSample proves the acting user is at the counter.
	IssuerSample string
	// Receiver is the person collecting the fuel.
	Receiver identity.Claim
}

// Print confirms issuer and receiver and moves an APPROVED ticket to PRINTED.
func (s *Service) Print(ctx context.Context, id int64, in PrintInput) (*Ticket, error) {
	user := appctx.GetUser(ctx)
	if user == nil {
		return nil, apperror.NewUnauthorized("issuer is not authenticated")
	}
	issuerClaim := identity.Claim{NationalID: user.NationalID, Sample: in.IssuerSample}
	if err := issuerClaim.Validate("issuer"); err != nil {
		return nil, err
	}
	if err := in.Receiver.Validate("receiver"); err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, StatusPrinted) {
		return nil, apperror.NewInvalidState("ticket", string(current.Status), string(StatusApproved)).
			WithDetail("ticket_id", id)
	}

	issuer, err := s.verifier.Verify(ctx, issuerClaim)
	if err != nil {
		return nil, fmt.Errorf("verify issuer: %w", err)
	}
	if !issuer.Matched {
		return nil, apperror.NewIdentityMismatch("issuer", "issuer sample does not match the session user")
	}
	if !issuer.Has(identity.CapabilityIssue) {
		return nil, apperror.NewIdentityMismatch("issuer", "issuer is not authorised to issue tickets")
	}

	receiver, err := s.verifier.Verify(ctx, in.Receiver)
	if err != nil {
		return nil, fmt.Errorf("verify receiver: %w", err)
	}
	if !receiver.Matched {
		return nil, apperror.NewIdentityMismatch("receiver", "receiver sample does not match the national id")
	}
	if !receiver.Has(identity.CapabilityReceive) {
		return nil, apperror.NewIdentityMismatch("receiver", "receiver is not authorised to collect fuel")
	}
	if receiver.UnitID != nil && *receiver.UnitID != current.UnitID {
		return nil, apperror.NewIdentityMismatch("receiver", "receiver does not belong to the ticket's unit").
			WithDetail("receiver_unit_id", *receiver.UnitID).
			WithDetail("ticket_unit_id", current.UnitID)
	}

	var t *Ticket
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := t.transition(StatusPrinted, now); err != nil {
			return err
		}

		unit, err := s.master.GetUnit(ctx, t.UnitID)
		if err != nil {
			return err
		}
		issuedBy := user.UserID
		receiverID := receiver.PersonID
		t.Code = s.code(t, unit.Code)
		t.IssuedBy = &issuedBy
		t.ReceiverID = &receiverID
		t.PrintedAt = &now
		t.PrintCount = 1
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return s.record(ctx, t, audit.ActionPrint, map[string]any{
			"code":        t.Code,
			"receiver_id": receiverID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, t, events.TicketPrinted)
	return t, nil
}

// Reprint produces a copy of an already printed ticket.
func (s *Service) Reprint(ctx context.Context, id int64) (*Ticket, error) {
	var t *Ticket
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !slices.Contains(reprintable, t.Status) {
			allowed := make([]string, 0, len(reprintable))
			for _, st := range reprintable {
				allowed = append(allowed, string(st))
			}
			return apperror.NewInvalidState("ticket", string(t.Status), allowed...).WithDetail("ticket_id", id)
		}
		t.PrintCount++
		t.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return s.record(ctx, t, audit.ActionReprint, map[string]any{"print_count": t.PrintCount})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ticket reprinted", "ticket_id", t.ID, "print_count", t.PrintCount)
	return t, nil
}

// DispatchInput records the physical release of fuel.
type DispatchInput struct {
	Code string
	// Released defaults to the requested amount.
	Released *types.Quantity
}

// Dispatch moves a PRINTED ticket to DISPATCHED and takes the released volume
// from the dispensing point.
func (s *Service) Dispatch(ctx context.Context, in DispatchInput) (*Ticket, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, apperror.NewValidation("ticket code is required")
	}

	var t *Ticket
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := t.transition(StatusDispatched, now); err != nil {
			return err
		}

		released := t.Requested
		if in.Released != nil {
			released = *in.Released
		}
		if !released.IsPositive() {
			return apperror.NewValidation("released amount must be positive").WithDetail("released", released)
		}
		if released > t.Requested {
			return apperror.NewValidation("released amount exceeds requested amount").
				WithDetail("released", released).
				WithDetail("requested", t.Requested)
		}

		if _, err := s.inventory.Withdraw(ctx, t.PointID, released, t.ID); err != nil {
			return err
		}
		t.Dispatched = released
		t.DispatchedAt = &now
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return s.record(ctx, t, audit.ActionDispatch, map[string]any{"dispatched": released})
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, t, events.TicketDispatched)
	s.bus.Publish(ctx, events.InventoryUpdated, map[string]any{"pointId": t.PointID})
	return t, nil
}

// Inspect tells a validator whether a code can be finalized.
func (s *Service) Inspect(ctx context.Context, code string) (*Inspection, error) {
	t, err := s.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	switch t.Status {
	case StatusFinalized:
		return &Inspection{Result: InspectAlreadyFinalized, Ticket: t}, nil
	case StatusPrinted, StatusDispatched:
		return &Inspection{Result: InspectReady, Ticket: t}, nil
	default:
		return nil, apperror.NewInvalidState("ticket", string(t.Status), string(StatusPrinted), string(StatusDispatched)).
			WithDetail("code", t.Code)
	}
}

// FinalizeInput reconciles a ticket against what was actually delivered.
type FinalizeInput struct {
	Code      string
	Delivered types.Quantity
}

// Finalize closes a PRINTED or DISPATCHED ticket. Inventory is settled to the
// delivered amount and any undelivered quota returns to the funding period.
func (s *Service) Finalize(ctx context.Context, in FinalizeInput) (*Ticket, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, apperror.NewValidation("ticket code is required")
	}
	if in.Delivered.IsNegative() {
		return nil, apperror.NewValidation("delivered amount must not be negative")
	}

	var (
		t        *Ticket
		surplus  types.Quantity
		released bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		from := t.Status
		now := s.clock.Now()
		if err := t.transition(StatusFinalized, now); err != nil {
			return err
		}
		if in.Delivered > t.Requested {
			return apperror.NewInvalidFinalization("delivered amount exceeds requested amount").
				WithDetail("delivered", in.Delivered).
				WithDetail("requested", t.Requested)
		}

		// Settle the point so that exactly Delivered has left it.
		taken := types.Quantity(0)
		if from == StatusDispatched {
			taken = t.Dispatched
		}
		switch diff := taken - in.Delivered; {
		case diff > 0:
			if _, err := s.inventory.Credit(ctx, t.PointID, diff, t.ID); err != nil {
				return err
			}
		case diff < 0:
			if _, err := s.inventory.Withdraw(ctx, t.PointID, -diff, t.ID); err != nil {
				return err
			}
		}

		surplus = t.Requested - in.Delivered
		released, err = s.releaseQuota(ctx, t, surplus, "finalization surplus")
		if err != nil {
			return err
		}

		finalizer := appctx.GetUserID(ctx)
		t.Delivered = in.Delivered
		t.FinalizedBy = &finalizer
		t.FinalizedAt = &now
		t.ClosedAt = &now
		if t.IsSale() && t.UnitPrice.Valid {
			t.Amount = decimal.NewNullDecimal(types.Amount(in.Delivered, t.UnitPrice.Decimal))
		}
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return s.record(ctx, t, audit.ActionFinalize, map[string]any{
			"from":           from,
			"delivered":      in.Delivered,
			"surplus":        surplus,
			"quota_released": released,
		})
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, t, events.TicketFinalized)
	s.bus.Publish(ctx, events.InventoryUpdated, map[string]any{"pointId": t.PointID})
	if released {
		s.bus.Publish(ctx, events.QuotaUpdated, map[string]any{"periodId": t.QuotaPeriodID})
	}
	return t, nil
}

// Reject cancels an active ticket and returns its quota.
func (s *Service) Reject(ctx context.Context, id int64, reason string) (*Ticket, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.NewValidation("reject reason is required")
	}

	var t *Ticket
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := t.transition(StatusRejected, now); err != nil {
			return err
		}
		released, err := s.releaseQuota(ctx, t, t.Requested, "ticket rejected")
		if err != nil {
			return err
		}

		rejectedBy := appctx.GetUserID(ctx)
		t.RejectedBy = &rejectedBy
		t.RejectReason = reason
		t.ClosedAt = &now
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return s.record(ctx, t, audit.ActionReject, map[string]any{
			"reason":         reason,
			"quota_released": released,
		})
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, t, events.TicketRejected)
	return t, nil
}

// ExpireStale expires every active ticket created at or before cutoff and
// returns their quota. The whole sweep is one transaction.
func (s *Service) ExpireStale(ctx context.Context, cutoff time.Time) (ExpireResult, error) {
	result := ExpireResult{Cutoff: cutoff}
	var expired []Ticket

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		stale, err := s.repo.ListStaleForUpdate(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("list stale tickets: %w", err)
		}

		now := s.clock.Now()
		for i := range stale {
			t := &stale[i]
			if err := t.transition(StatusExpired, now); err != nil {
				return err
			}
			released, err := s.releaseQuota(ctx, t, t.Requested, "ticket expired")
			if err != nil {
				return fmt.Errorf("release quota for ticket %d: %w", t.ID, err)
			}
			if !released {
				result.Skipped++
			}
			t.ClosedAt = &now
			if err := s.repo.Update(ctx, t); err != nil {
				return fmt.Errorf("update ticket %d: %w", t.ID, err)
			}
			if err := s.record(ctx, t, audit.ActionExpire, map[string]any{
				"cutoff":         cutoff,
				"quota_released": released,
			}); err != nil {
				return err
			}
		}
		expired = stale
		return nil
	})
	if err != nil {
		return ExpireResult{}, err
	}

	result.Expired = len(expired)
	if result.Expired > 0 {
		metrics.TicketsExpired(result.Expired)
		for range expired {
			metrics.TicketTransition(string(StatusExpired))
		}
		s.bus.Publish(ctx, events.TicketsExpired, result)
	}
	logger.Info(ctx, "stale tickets expired", "cutoff", cutoff, "expired", result.Expired, "release_skipped", result.Skipped)
	return result, nil
}

// --- Queries ---

func (s *Service) Get(ctx context.Context, id int64) (*Ticket, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Ticket, error) {
	return s.repo.GetByCode(ctx, strings.TrimSpace(code))
}

func (s *Service) List(ctx context.Context, f Filter) (domain.ListResult[Ticket], error) {
	f.Normalize()
	f.Plate = NormalizePlate(f.Plate)
	return s.repo.List(ctx, f)
}
