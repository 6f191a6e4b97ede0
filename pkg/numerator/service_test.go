package numerator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences for a single key.
type mockQuerier struct {
	mu     sync.Mutex
	exists bool
	value  int64
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case strings.Contains(sql, "SELECT current_val"):
		if !m.exists {
			return &mockRow{err: pgx.ErrNoRows}
		}
		return &mockRow{val: m.value}
	case strings.Contains(sql, "current_val + 1"):
		if !m.exists {
			m.exists = true
			m.value = args[1].(int64)
		} else {
			m.value++
		}
		return &mockRow{val: m.value}
	default: // Set
		m.exists = true
		m.value = args[1].(int64)
		return &mockRow{val: m.value}
	}
}

func TestNext_StartsAfterSeed(t *testing.T) {
	svc := New(&mockQuerier{})
	ctx := context.Background()

	cur, err := svc.Current(ctx, "plate", 53)
	require.NoError(t, err)
	assert.Equal(t, int64(53), cur)

	num, err := svc.Next(ctx, "plate", 53)
	require.NoError(t, err)
	assert.Equal(t, int64(54), num)

	num, err = svc.Next(ctx, "plate", 53)
	require.NoError(t, err)
	assert.Equal(t, int64(55), num)

	cur, err = svc.Current(ctx, "plate", 53)
	require.NoError(t, err)
	assert.Equal(t, int64(55), cur)
}

func TestSet_OverridesCounter(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "plate", 200))
	num, err := svc.Next(ctx, "plate", 53)
	require.NoError(t, err)
	assert.Equal(t, int64(201), num)

	assert.Error(t, svc.Set(ctx, "plate", -1))
}

func TestNext_Concurrent(t *testing.T) {
	svc := New(&mockQuerier{})
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.Next(ctx, "plate", 0)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			seen[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestFormatAndParse(t *testing.T) {
	assert.Equal(t, "SPMB0054", Format("SPMB", 4, 54))
	assert.Equal(t, "SPMB12345", Format("SPMB", 4, 12345))
	assert.Equal(t, "X0007", Format("X", 0, 7))

	assert.Equal(t, int64(54), ParseNumber("SPMB", "SPMB0054"))
	assert.Equal(t, int64(-1), ParseNumber("SPMB", "ABC0054"))
	assert.Equal(t, int64(-1), ParseNumber("SPMB", "SPMB"))
}

func TestNilService(t *testing.T) {
	var svc *Service
	_, err := svc.Next(context.Background(), "k", 0)
	assert.Error(t, err)
}
