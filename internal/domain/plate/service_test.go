package plate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/domain/plate"
	"fueldesk/internal/infrastructure/storage/memory"
)

func newService() *plate.Service {
	store := memory.New()
	return plate.NewService(store.Counter(), store, plate.DefaultConfig())
}

func TestPeekDoesNotConsume(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	first, err := svc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SPMB0054", first.Plate)

	again, err := svc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestNextIssuesSequentialPlates(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, err := svc.Next(ctx)
	require.NoError(t, err)
	b, err := svc.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, "SPMB0054", a.Plate)
	assert.Equal(t, "SPMB0055", b.Plate)
	assert.Equal(t, int64(55), b.Value)

	peek, err := svc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SPMB0056", peek.Plate)
}

func TestSet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Set(ctx, -1)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	c, err := svc.Set(ctx, 120)
	require.NoError(t, err)
	assert.Equal(t, "SPMB0120", c.Plate)

	next, err := svc.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SPMB0121", next.Plate)
}

func TestCustomPrefix(t *testing.T) {
	store := memory.New()
	svc := plate.NewService(store.Counter(), store, plate.Config{Prefix: "FLT", PadWidth: 6})

	c, err := svc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "FLT000001", c.Plate)
}
