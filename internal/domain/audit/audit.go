// Package audit defines the append-only trail written alongside every ledger mutation.
package audit

import (
	"context"
	"time"
)

// Action is the audited operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionReserve  Action = "reserve"
	ActionRelease  Action = "release"
	ActionRecharge Action = "recharge"
	ActionClose    Action = "close"
	ActionApprove  Action = "approve"
	ActionPrint    Action = "print"
	ActionReprint  Action = "reprint"
	ActionDispatch Action = "dispatch"
	ActionFinalize Action = "finalize"
	ActionReject   Action = "reject"
	ActionExpire   Action = "expire"
	ActionMovement Action = "movement"
)

// Entity types.
const (
	EntityQuotaBase   = "quota_base"
	EntityQuotaPeriod = "quota_period"
	EntityTicket      = "ticket"
	EntityTank        = "tank"
	EntityPoint       = "dispensing_point"
)

// Entry is one audit row. UserID and ClientIP are filled from the context by the
// recorder when left empty.
type Entry struct {
	EntityType string         `json:"entityType"`
	EntityID   int64          `json:"entityId"`
	Action     Action         `json:"action"`
	UserID     int64          `json:"userId"`
	ClientIP   string         `json:"clientIp,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Recorder persists audit entries inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Reader returns an entity's trail, newest first.
type Reader interface {
	History(ctx context.Context, entityType string, entityID int64, limit int) ([]Entry, error)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
