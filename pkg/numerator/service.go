// Package numerator provides gapless named counters backed by the sys_sequences table.
// Every counter is advanced with a single UPSERT, so concurrent first use of a
// key can never create two rows.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// DefaultPadWidth is used when Config.PadWidth is zero.
const DefaultPadWidth = 4

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierProvider resolves the querier for a call, e.g. the active transaction.
type QuerierProvider func(ctx context.Context) Querier

// Service provides counter operations.
type Service struct {
	querier QuerierProvider
}

// New creates a numerator bound to a fixed querier.
// Use for tools and testing scenarios.
func New(querier Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return querier }}
}

// NewWithProvider creates a numerator that resolves its querier per call so it
// joins the caller's transaction.
func NewWithProvider(provider QuerierProvider) *Service {
	return &Service{querier: provider}
}

// Current returns the last issued value of key, or seed when key was never used.
func (s *Service) Current(ctx context.Context, key string, seed int64) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}

	var cur int64
	err := s.querier(ctx).QueryRow(ctx, `
		SELECT current_val FROM sys_sequences WHERE key = $1
	`, key).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return seed, nil
	}
	if err != nil {
		return 0, fmt.Errorf("current %s: %w", key, err)
	}
	return cur, nil
}

// Next atomically advances key and returns the new value. An absent key
// starts from seed, so the first value is seed+1.
func (s *Service) Next(ctx context.Context, key string, seed int64) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}

	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key, seed+1).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", key, err)
	}
	return num, nil
}

// Set overwrites the last issued value of key (manual correction).
func (s *Service) Set(ctx context.Context, key string, value int64) error {
	if value < 0 {
		return fmt.Errorf("counter value must not be negative: %d", value)
	}

	var result int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Format renders prefix followed by num zero-padded to padWidth.
func Format(prefix string, padWidth int, num int64) string {
	if padWidth <= 0 {
		padWidth = DefaultPadWidth
	}
	return fmt.Sprintf("%s%0*d", prefix, padWidth, num)
}

// ParseNumber extracts the numeric part of a value produced by Format.
// Returns -1 if parsing fails.
func ParseNumber(prefix, formatted string) int64 {
	rest, ok := strings.CutPrefix(formatted, prefix)
	if !ok || rest == "" {
		return -1
	}
	num, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || num < 0 {
		return -1
	}
	return num
}
