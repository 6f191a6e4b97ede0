package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/pkg/logger"
)

func TestPoolStats_LazyPool(t *testing.T) {
	logger.SetDefault(logger.Nop())

	cfg, err := pgxpool.ParseConfig("postgres://fueldesk@127.0.0.1:1/fueldesk?sslmode=disable")
	require.NoError(t, err)
	cfg.MaxConns = 7
	cfg.MinConns = 0

	// No connection is opened until the first acquire.
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer pool.Close()

	stats := GetPoolStats(pool)
	assert.Equal(t, int32(7), stats.MaxConns)
	assert.Zero(t, stats.TotalConns)
	assert.Zero(t, stats.AcquiredConns)

	assert.NotPanics(t, func() { LogPoolStats(context.Background(), pool) })
}

func TestTxManager_NestedCallsJoinOuterTransaction(t *testing.T) {
	// A zero TxManager has no pool; beginning a transaction would panic.
	m := &TxManager{}
	outer := &Tx{}
	ctx := context.WithValue(context.Background(), txKey{}, outer)

	var seen []*Tx
	record := func(ctx context.Context) error {
		seen = append(seen, m.GetTx(ctx))
		return nil
	}

	require.NoError(t, m.ReadOnly(ctx, record))
	require.NoError(t, m.RunInTransaction(ctx, record))
	assert.Equal(t, []*Tx{outer, outer}, seen)
}

func TestTxOptions(t *testing.T) {
	opts := DefaultTxOptions()
	assert.Equal(t, "read committed", string(opts.IsolationLevel))
	assert.Equal(t, "read write", string(opts.AccessMode))
	assert.Positive(t, opts.StatementTimeout)
}
