// Package tx defines the unit of work used by every ledger mutation.
// Domain services depend on Manager; postgres and memory provide implementations.
package tx

import (
	"context"
)

// Manager runs a function as one atomic unit.
//
// The active transaction travels in the context passed to fn, so repositories
// called with that context join it. Any error returned by fn rolls back every
// write made inside it; nested calls reuse the outer unit.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// ReadOnly runs fn against one consistent view of the data. fn must not write.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
