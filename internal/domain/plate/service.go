// Package plate issues correlative plates for vehicles registered without one.
package plate

import (
	"context"
	"fmt"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/tx"
	"fueldesk/pkg/logger"
	"fueldesk/pkg/numerator"
)

const counterKey = "vehicle_plate"

// Counter is a gapless named counter. pkg/numerator implements it for postgres.
type Counter interface {
	Current(ctx context.Context, key string, seed int64) (int64, error)
	Next(ctx context.Context, key string, seed int64) (int64, error)
	Set(ctx context.Context, key string, value int64) error
}

// Config describes the plate format, e.g. SPMB0054.
type Config struct {
	Prefix   string
	PadWidth int
	// Seed is the last correlative considered used before the counter exists.
	Seed int64
}

// DefaultConfig matches the plates already painted on the fleet.
func DefaultConfig() Config {
	return Config{Prefix: "SPMB", PadWidth: 4, Seed: 53}
}

// Correlative is a counter value and its rendered plate.
type Correlative struct {
	Value  int64  `json:"value"`
	Plate  string `json:"plate"`
	Prefix string `json:"prefix"`
}

// Service issues plates.
type Service struct {
	counter   Counter
	txManager tx.Manager
	cfg       Config
}

func NewService(counter Counter, txManager tx.Manager, cfg Config) *Service {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultConfig().Prefix
	}
	if cfg.PadWidth <= 0 {
		cfg.PadWidth = numerator.DefaultPadWidth
	}
	return &Service{counter: counter, txManager: txManager, cfg: cfg}
}

func (s *Service) correlative(v int64) Correlative {
	return Correlative{Value: v, Plate: numerator.Format(s.cfg.Prefix, s.cfg.PadWidth, v), Prefix: s.cfg.Prefix}
}

// Peek returns the plate the next call to Next would issue, without issuing it.
func (s *Service) Peek(ctx context.Context) (Correlative, error) {
	cur, err := s.counter.Current(ctx, counterKey, s.cfg.Seed)
	if err != nil {
		return Correlative{}, err
	}
	return s.correlative(cur + 1), nil
}

// Next issues a new plate.
func (s *Service) Next(ctx context.Context) (Correlative, error) {
	var out Correlative
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		v, err := s.counter.Next(ctx, counterKey, s.cfg.Seed)
		if err != nil {
			return fmt.Errorf("next plate: %w", err)
		}
		out = s.correlative(v)
		return nil
	})
	if err != nil {
		return Correlative{}, err
	}

	logger.Info(ctx, "correlative plate issued", "plate", out.Plate)
	return out, nil
}

// Set overwrites the last issued correlative.
func (s *Service) Set(ctx context.Context, value int64) (Correlative, error) {
	if value < 0 {
		return Correlative{}, apperror.NewValidation("correlative must not be negative").WithDetail("value", value)
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.counter.Set(ctx, counterKey, value)
	})
	if err != nil {
		return Correlative{}, err
	}

	logger.Info(ctx, "correlative plate counter set", "value", value)
	return s.correlative(value), nil
}
