// Package events carries post-commit notifications to observers such as UI clients.
// Publishing is fire-and-forget: a failed or slow subscriber never affects the
// mutation that produced the event.
package events

import (
	"context"
	"sync"
	"time"

	"fueldesk/pkg/logger"
)

// Event names.
const (
	TicketCreated    = "ticket.created"
	TicketApproved   = "ticket.approved"
	TicketPrinted    = "ticket.printed"
	TicketDispatched = "ticket.dispatched"
	TicketFinalized  = "ticket.finalized"
	TicketRejected   = "ticket.rejected"
	TicketsExpired   = "tickets.expired"
	QuotaUpdated     = "quota.updated"
	QuotaRolledOver  = "quota.rolled_over"
	InventoryUpdated = "inventory.updated"
)

// Event is a single notification.
type Event struct {
	Name       string    `json:"name"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Bus publishes events after a successful commit.
type Bus interface {
	Publish(ctx context.Context, name string, payload any)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) {}

// Hub fans events out to in-process subscribers.
// Each subscriber owns a buffered channel; when it is full the event is dropped
// for that subscriber only.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	buffer int
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[int]chan Event), buffer: buffer}
}

// Publish delivers the event to every subscriber without blocking.
func (h *Hub) Publish(ctx context.Context, name string, payload any) {
	ev := Event{Name: name, Payload: payload, OccurredAt: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logger.Warn(ctx, "event dropped for slow subscriber", "event", name, "subscriber", id)
		}
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (h *Hub) Subscribe() (int, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ch := make(chan Event, h.buffer)
	h.subs[h.nextID] = ch
	return h.nextID, ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
