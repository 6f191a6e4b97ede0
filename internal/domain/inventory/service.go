package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fueldesk/internal/core/apperror"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/core/clock"
	"fueldesk/internal/core/tx"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/audit"
	"fueldesk/internal/domain/events"
	"fueldesk/internal/domain/masterdata"
	"fueldesk/internal/observability/metrics"
	"fueldesk/pkg/logger"
)

// FuelTypes resolves fuel type names for the evaporation rule.
type FuelTypes interface {
	GetFuelType(ctx context.Context, id int64) (*masterdata.FuelType, error)
}

// Service is the inventory ledger.
type Service struct {
	repo      Repository
	txManager tx.Manager
	clock     clock.Clock
	fuels     FuelTypes
	rule      *EvaporationRule
	audit     audit.Recorder
	bus       events.Bus
}

// NewService creates a new inventory service. A nil rule selects DefaultEvaporationRule.
func NewService(
	repo Repository,
	txManager tx.Manager,
	clk clock.Clock,
	fuels FuelTypes,
	rule *EvaporationRule,
	recorder audit.Recorder,
	bus events.Bus,
) *Service {
	if rule == nil {
		rule = MustEvaporationRule(DefaultEvaporationRule)
	}
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
		fuels:     fuels,
		rule:      rule,
		audit:     recorder,
		bus:       bus,
	}
}

// holder is a locked tank or point seen through its level.
type holder struct {
	owner      Owner
	fuelTypeID int64
	capacity   types.Quantity
	level      types.Quantity
	active     bool
}

func (s *Service) lockHolder(ctx context.Context, o Owner) (*holder, error) {
	switch o.Kind {
	case OwnerTank:
		t, err := s.repo.GetTankForUpdate(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		return &holder{owner: o, fuelTypeID: t.FuelTypeID, capacity: t.Capacity, level: t.CurrentLevel, active: t.Active}, nil
	case OwnerPoint:
		p, err := s.repo.GetPointForUpdate(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		return &holder{owner: o, fuelTypeID: p.FuelTypeID, capacity: p.Capacity, level: p.AvailableLevel, active: p.Active}, nil
	default:
		return nil, o.Validate()
	}
}

func insufficient(o Owner, requested, available types.Quantity) error {
	if o.Kind == OwnerTank {
		return apperror.NewInsufficientTankStock(o.ID, requested, available)
	}
	return apperror.NewInsufficientStock(o.ID, requested, available)
}

// move applies delta to a locked holder and writes its movement record.
// Negative results fail with the holder's insufficient-stock error; positive
// deltas are capped by capacity when checkCapacity is set.
func (s *Service) move(ctx context.Context, h *holder, m *Movement, delta types.Quantity, checkCapacity bool) error {
	after := h.level + delta
	if after < 0 {
		return insufficient(h.owner, -delta, h.level)
	}
	if checkCapacity && delta > 0 && h.capacity > 0 && after > h.capacity {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "level would exceed capacity").
			WithDetail("owner", h.owner).
			WithDetail("capacity", h.capacity).
			WithDetail("level", h.level).
			WithDetail("amount", delta)
	}

	now := s.clock.Now()
	var err error
	if h.owner.Kind == OwnerTank {
		err = s.repo.UpdateTankLevel(ctx, h.owner.ID, after, now)
	} else {
		err = s.repo.UpdatePointLevel(ctx, h.owner.ID, after, now)
	}
	if err != nil {
		return fmt.Errorf("update level: %w", err)
	}

	m.OwnerKind = h.owner.Kind
	m.OwnerID = h.owner.ID
	m.Delta = delta
	m.Before = h.level
	m.After = after
	m.UserID = appctx.GetUserID(ctx)
	m.CreatedAt = now
	if err := s.repo.AddMovement(ctx, m); err != nil {
		return fmt.Errorf("add movement: %w", err)
	}
	h.level = after

	entity := audit.EntityTank
	if h.owner.Kind == OwnerPoint {
		entity = audit.EntityPoint
	}
	if err := s.audit.Record(ctx, audit.Entry{
		EntityType: entity,
		EntityID:   h.owner.ID,
		Action:     audit.ActionMovement,
		Changes: map[string]any{
			"movement_id": m.ID,
			"kind":        m.Kind,
			"before":      m.Before,
			"after":       m.After,
		},
	}); err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	metrics.InventoryMovement(string(m.Kind))
	return nil
}

// RecordLoad registers a tanker delivery and raises the holder's level.
func (s *Service) RecordLoad(ctx context.Context, in LoadInput) (*Load, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var load *Load
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		h, err := s.lockHolder(ctx, in.Owner)
		if err != nil {
			return err
		}
		if !h.active {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "holder is not active").WithDetail("owner", in.Owner)
		}

		now := s.clock.Now()
		receivedAt := in.ReceivedAt
		if receivedAt.IsZero() {
			receivedAt = now
		}
		load = &Load{
			OwnerKind:        in.Owner.Kind,
			OwnerID:          in.Owner.ID,
			FuelTypeID:       h.fuelTypeID,
			DocumentNumber:   in.DocumentNumber,
			TankerPlate:      in.TankerPlate,
			DriverName:       in.DriverName,
			DriverNationalID: in.DriverNationalID,
			Documented:       in.Documented,
			Received:         in.Received,
			Notes:            in.Notes,
			ReceivedAt:       receivedAt,
			UserID:           appctx.GetUserID(ctx),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.repo.CreateLoad(ctx, load); err != nil {
			return fmt.Errorf("create load: %w", err)
		}

		return s.move(ctx, h, &Movement{
			Kind:   MovementLoad,
			LoadID: &load.ID,
			Notes:  in.Notes,
		}, in.Received, true)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "load recorded", "load_id", load.ID, "owner", in.Owner.Kind, "owner_id", in.Owner.ID, "received", in.Received)
	s.bus.Publish(ctx, events.InventoryUpdated, load)
	return load, nil
}

// CorrectLoad supersedes a load's received amount, moving the holder's level by
// the difference.
func (s *Service) CorrectLoad(ctx context.Context, loadID int64, received types.Quantity, notes string) (*Movement, error) {
	if !received.IsPositive() {
		return nil, apperror.NewValidation("received amount must be positive").WithDetail("received", received)
	}

	var mv *Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		load, err := s.repo.GetLoadForUpdate(ctx, loadID)
		if err != nil {
			return err
		}
		delta := received - load.Received
		if delta == 0 {
			return apperror.NewValidation("received amount is unchanged")
		}

		h, err := s.lockHolder(ctx, load.Owner())
		if err != nil {
			return err
		}
		mv = &Movement{Kind: MovementCorrection, LoadID: &load.ID, Notes: notes}
		if err := s.move(ctx, h, mv, delta, true); err != nil {
			return err
		}

		load.Received = received
		load.UpdatedAt = s.clock.Now()
		if notes != "" {
			load.Notes = notes
		}
		return s.repo.UpdateLoad(ctx, load)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "load corrected", "load_id", loadID, "delta", mv.Delta)
	s.bus.Publish(ctx, events.InventoryUpdated, mv)
	return mv, nil
}

// RecordEvaporation lowers a holder's level by an evaporation loss. Only fuels
// accepted by the configured rule may evaporate.
func (s *Service) RecordEvaporation(ctx context.Context, in EvaporationInput) (*Movement, error) {
	if err := in.Owner.Validate(); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be positive").WithDetail("amount", in.Amount)
	}

	var mv *Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		h, err := s.lockHolder(ctx, in.Owner)
		if err != nil {
			return err
		}
		if !h.active {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "holder is not active").WithDetail("owner", in.Owner)
		}

		fuel, err := s.fuels.GetFuelType(ctx, h.fuelTypeID)
		if err != nil {
			return err
		}
		allowed, err := s.rule.Allows(fuel.Name)
		if err != nil {
			return err
		}
		if !allowed {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "evaporation does not apply to this fuel").
				WithDetail("fuel", fuel.Name).
				WithDetail("rule", s.rule.String())
		}

		mv = &Movement{Kind: MovementEvaporation, Notes: in.Notes}
		return s.move(ctx, h, mv, -in.Amount, false)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "evaporation recorded", "owner", in.Owner.Kind, "owner_id", in.Owner.ID, "amount", in.Amount)
	s.bus.Publish(ctx, events.InventoryUpdated, mv)
	return mv, nil
}

// Transfer moves fuel between two tanks as two movements sharing a group id.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	result := &TransferResult{GroupID: uuid.NewString()}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lock in id order so opposite transfers cannot deadlock.
		first, second := in.SourceTankID, in.TargetTankID
		if first > second {
			first, second = second, first
		}
		locked := make(map[int64]*holder, 2)
		for _, id := range []int64{first, second} {
			h, err := s.lockHolder(ctx, TankOwner(id))
			if err != nil {
				return err
			}
			locked[id] = h
		}
		src, dst := locked[in.SourceTankID], locked[in.TargetTankID]

		if !src.active || !dst.active {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "both tanks must be active")
		}
		if src.fuelTypeID != dst.fuelTypeID {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "tanks hold different fuel types").
				WithDetail("source_fuel_type_id", src.fuelTypeID).
				WithDetail("target_fuel_type_id", dst.fuelTypeID)
		}
		if src.level < in.Amount {
			return apperror.NewInsufficientTankStock(in.SourceTankID, in.Amount, src.level)
		}

		result.Out = &Movement{Kind: MovementTransferOut, GroupID: &result.GroupID, Notes: in.Notes}
		if err := s.move(ctx, src, result.Out, -in.Amount, false); err != nil {
			return err
		}
		result.In = &Movement{Kind: MovementTransferIn, GroupID: &result.GroupID, Notes: in.Notes}
		return s.move(ctx, dst, result.In, in.Amount, true)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer recorded",
		"group_id", result.GroupID,
		"source_tank_id", in.SourceTankID,
		"target_tank_id", in.TargetTankID,
		"amount", in.Amount,
	)
	s.bus.Publish(ctx, events.InventoryUpdated, result)
	return result, nil
}

// RecordMeasurement stores a dip reading against the theoretical level and,
// when Overwrite is set, moves the tank to the measured level.
func (s *Service) RecordMeasurement(ctx context.Context, in MeasurementInput) (*Movement, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var mv *Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		h, err := s.lockHolder(ctx, TankOwner(in.TankID))
		if err != nil {
			return err
		}

		theoretical := h.level
		measured := in.Measured
		diff := measured - theoretical
		mv = &Movement{
			Kind:        MovementMeasurement,
			Theoretical: &theoretical,
			Measured:    &measured,
			Difference:  &diff,
			Notes:       in.Notes,
		}

		var delta types.Quantity
		if in.Overwrite {
			delta = diff
		}
		return s.move(ctx, h, mv, delta, false)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "measurement recorded", "tank_id", in.TankID, "difference", *mv.Difference, "overwrite", in.Overwrite)
	s.bus.Publish(ctx, events.InventoryUpdated, mv)
	return mv, nil
}

// Withdraw releases fuel from a dispensing point for a ticket. It joins the
// caller's transaction and publishes nothing; the caller owns the commit.
func (s *Service) Withdraw(ctx context.Context, pointID int64, amount types.Quantity, ticketID int64) (*Movement, error) {
	return s.ticketMovement(ctx, pointID, MovementDispatch, -amount, amount, ticketID)
}

// Credit returns undelivered fuel to a dispensing point for a ticket.
func (s *Service) Credit(ctx context.Context, pointID int64, amount types.Quantity, ticketID int64) (*Movement, error) {
	return s.ticketMovement(ctx, pointID, MovementCredit, amount, amount, ticketID)
}

func (s *Service) ticketMovement(ctx context.Context, pointID int64, kind MovementKind, delta, amount types.Quantity, ticketID int64) (*Movement, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("amount must be positive").WithDetail("amount", amount)
	}

	var mv *Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		h, err := s.lockHolder(ctx, PointOwner(pointID))
		if err != nil {
			return err
		}
		mv = &Movement{Kind: kind, TicketID: &ticketID}
		return s.move(ctx, h, mv, delta, false)
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// --- Queries ---

func (s *Service) GetTank(ctx context.Context, id int64) (*Tank, error) {
	return s.repo.GetTank(ctx, id)
}

func (s *Service) ListTanks(ctx context.Context, f TankFilter) (domain.ListResult[Tank], error) {
	f.Normalize()
	return s.repo.ListTanks(ctx, f)
}

func (s *Service) GetPoint(ctx context.Context, id int64) (*DispensingPoint, error) {
	return s.repo.GetPoint(ctx, id)
}

func (s *Service) ListPoints(ctx context.Context, f PointFilter) (domain.ListResult[DispensingPoint], error) {
	f.Normalize()
	return s.repo.ListPoints(ctx, f)
}

func (s *Service) ListMovements(ctx context.Context, f MovementFilter) (domain.ListResult[Movement], error) {
	f.Normalize()
	return s.repo.ListMovements(ctx, f)
}

// ExportMovements collects up to limit movements matching f, starting at the
// first page. All pages are read from one snapshot.
func (s *Service) ExportMovements(ctx context.Context, f MovementFilter, limit int) ([]Movement, error) {
	if limit <= 0 {
		return nil, apperror.NewValidation("export limit must be positive").WithDetail("limit", limit)
	}
	f.Offset = 0

	items := make([]Movement, 0)
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		for len(items) < limit {
			f.Limit = min(domain.MaxLimit, limit-len(items))
			page, err := s.repo.ListMovements(ctx, f)
			if err != nil {
				return fmt.Errorf("list movements: %w", err)
			}
			items = append(items, page.Items...)
			if len(page.Items) < f.Limit {
				return nil
			}
			f.Offset += f.Limit
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
