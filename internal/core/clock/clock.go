// Package clock provides the time source used by ledgers and the scheduler.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time in the business timezone.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type system struct {
	loc *time.Location
}

// New returns a wall clock reporting time in loc.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return system{loc: loc}
}

func (s system) Now() time.Time { return time.Now().In(s.loc) }

func (s system) Location() *time.Location { return s.loc }

// Manual is a settable clock for tests and recovery tooling.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a clock frozen at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Location() *time.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now.Location()
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// EndOfPreviousDay returns the last instant before t's day started.
func EndOfPreviousDay(t time.Time) time.Time {
	return StartOfDay(t).Add(-time.Nanosecond)
}
