// Package memory is the in-process storage backend. It implements every
// repository and tx.Manager over plain maps.
//
// A transaction holds the store mutex from start to finish, so transactions
// are serialised and row locks are implicit. A failed transaction restores the
// snapshot taken when it started.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"fueldesk/internal/domain"
	"fueldesk/internal/domain/audit"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/domain/masterdata"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/domain/ticket"
)

type txKey struct{}

type state struct {
	seq int64

	bases   map[int64]quota.Base
	periods map[int64]quota.Period
	entries []quota.Entry
	history []quota.HistoryRecord

	tickets map[int64]ticket.Ticket

	tanks     map[int64]inventory.Tank
	points    map[int64]inventory.DispensingPoint
	loads     map[int64]inventory.Load
	movements []inventory.Movement

	units    map[int64]masterdata.Unit
	subunits map[int64]masterdata.Subunit
	vehicles map[int64]masterdata.Vehicle
	fuels    map[int64]masterdata.FuelType
	prices   map[int64]masterdata.Price

	persons  map[string]identity.Person
	counters map[string]int64
	audit    []audit.Entry
}

func newState() *state {
	return &state{
		bases:    make(map[int64]quota.Base),
		periods:  make(map[int64]quota.Period),
		tickets:  make(map[int64]ticket.Ticket),
		tanks:    make(map[int64]inventory.Tank),
		points:   make(map[int64]inventory.DispensingPoint),
		loads:    make(map[int64]inventory.Load),
		units:    make(map[int64]masterdata.Unit),
		subunits: make(map[int64]masterdata.Subunit),
		vehicles: make(map[int64]masterdata.Vehicle),
		fuels:    make(map[int64]masterdata.FuelType),
		prices:   make(map[int64]masterdata.Price),
		persons:  make(map[string]identity.Person),
		counters: make(map[string]int64),
	}
}

// clone copies every table. Rows are values; pointer fields inside rows are
// never written through, so sharing them is safe.
func (s *state) clone() *state {
	return &state{
		seq:       s.seq,
		bases:     maps.Clone(s.bases),
		periods:   maps.Clone(s.periods),
		entries:   slices.Clone(s.entries),
		history:   slices.Clone(s.history),
		tickets:   maps.Clone(s.tickets),
		tanks:     maps.Clone(s.tanks),
		points:    maps.Clone(s.points),
		loads:     maps.Clone(s.loads),
		movements: slices.Clone(s.movements),
		units:     maps.Clone(s.units),
		subunits:  maps.Clone(s.subunits),
		vehicles:  maps.Clone(s.vehicles),
		fuels:     maps.Clone(s.fuels),
		prices:    maps.Clone(s.prices),
		persons:   maps.Clone(s.persons),
		counters:  maps.Clone(s.counters),
		audit:     slices.Clone(s.audit),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store owns the data and the transaction lock.
type Store struct {
	mu   sync.Mutex
	data *state
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState()}
}

// RunInTransaction implements tx.Manager.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// ReadOnly implements tx.Manager. Concurrent writers wait until fn returns.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lock takes the store mutex for calls made outside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Quota returns the quota repository view.
func (s *Store) Quota() *QuotaRepo { return &QuotaRepo{s: s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() *TicketRepo { return &TicketRepo{s: s} }

// Inventory returns the inventory repository view.
func (s *Store) Inventory() *InventoryRepo { return &InventoryRepo{s: s} }

// MasterData returns the read-only master data view.
func (s *Store) MasterData() *MasterData { return &MasterData{s: s} }

// Identities returns the enrolled person view.
func (s *Store) Identities() *Identities { return &Identities{s: s} }

// Counter returns the named counter view.
func (s *Store) Counter() *Counter { return &Counter{s: s} }

// Audit returns the audit recorder.
func (s *Store) Audit() *AuditLog { return &AuditLog{s: s} }

// --- helpers ---

// paginate slices items according to f.
func paginate[T any](items []T, f domain.ListFilter) domain.ListResult[T] {
	f.Normalize()
	total := len(items)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	page := make([]T, end-start)
	copy(page, items[start:end])
	return domain.ListResult[T]{
		Items:      page,
		TotalCount: int64(total),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
}

// sortedValues returns map values ordered by id.
func sortedValues[T any](m map[int64]T) []T {
	ids := slices.Collect(maps.Keys(m))
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sameInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
