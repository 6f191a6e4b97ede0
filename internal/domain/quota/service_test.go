package quota_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/clock"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/infrastructure/storage/memory"
)

var march = types.Period("2025-03")

type fixture struct {
	store *memory.Store
	clock *clock.Manual
	svc   *quota.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	clk := clock.NewManual(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := quota.NewService(store.Quota(), store, clk, store.Audit(), nil)
	return &fixture{store: store, clock: clk, svc: svc}
}

func (f *fixture) base(t *testing.T, monthly int64) *quota.Base {
	t.Helper()
	b, err := f.svc.CreateBase(context.Background(), quota.Scope{CategoryID: 1, UnitID: 2, FuelTypeID: 3}, types.Liters(monthly))
	require.NoError(t, err)
	return b
}

func assertBalanced(t *testing.T, p *quota.Period) {
	t.Helper()
	assert.True(t, p.Balanced(), "available=%s assigned=%s recharged=%s consumed=%s",
		p.Available, p.Assigned, p.Recharged, p.Consumed)
}

func TestGetOrCreatePeriod_LazyInit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)

	p, err := f.svc.GetOrCreatePeriod(ctx, b.ID, types.Period("2025-04"))
	require.NoError(t, err)
	assert.Equal(t, types.Liters(1000), p.Assigned)
	assert.Equal(t, types.Liters(1000), p.Available)
	assert.Equal(t, quota.StateActive, p.State)
	assert.Equal(t, 1, p.StartsOn.Day())
	assert.Equal(t, 30, p.EndsOn.Day())

	again, err := f.svc.GetOrCreatePeriod(ctx, b.ID, types.Period("2025-04"))
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
}

func TestGetOrCreatePeriod_ConcurrentFirstAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 500)

	var wg sync.WaitGroup
	ids := make([]int64, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.svc.GetOrCreatePeriod(ctx, b.ID, types.Period("2025-05"))
			if assert.NoError(t, err) {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	res, err := f.svc.ListPeriods(ctx, quota.PeriodFilter{Period: "2025-05"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalCount)
}

func TestReserve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)

	p, err := f.svc.Reserve(ctx, b.ID, march, types.Liters(400), quota.Ref{Reason: "test"})
	require.NoError(t, err)
	assert.Equal(t, types.Liters(600), p.Available)
	assert.Equal(t, types.Liters(400), p.Consumed)
	assertBalanced(t, p)

	p, err = f.svc.Reserve(ctx, b.ID, march, types.Liters(600), quota.Ref{})
	require.NoError(t, err)
	assert.True(t, p.Available.IsZero())
	assert.Equal(t, quota.StateExhausted, p.State)

	_, err = f.svc.Reserve(ctx, b.ID, march, types.Liters(1), quota.Ref{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientQuota))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, types.Liters(1), appErr.Details["requested"])
}

func TestReserve_InactiveBase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)

	_, err := f.svc.SetBaseActive(ctx, b.ID, false)
	require.NoError(t, err)

	_, err = f.svc.Reserve(ctx, b.ID, march, types.Liters(10), quota.Ref{})
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestReserveRelease_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)

	before, err := f.svc.GetOrCreatePeriod(ctx, b.ID, march)
	require.NoError(t, err)

	_, err = f.svc.Reserve(ctx, b.ID, march, types.Liters(250), quota.Ref{})
	require.NoError(t, err)
	after, err := f.svc.Release(ctx, b.ID, march, types.Liters(250), quota.Ref{})
	require.NoError(t, err)

	assert.Equal(t, before.Available, after.Available)
	assert.Equal(t, before.Consumed, after.Consumed)
	assert.Equal(t, before.Recharged, after.Recharged)
	assert.Equal(t, quota.StateActive, after.State)
}

func TestRelease_ReactivatesExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 100)

	p, err := f.svc.Reserve(ctx, b.ID, march, types.Liters(100), quota.Ref{})
	require.NoError(t, err)
	require.Equal(t, quota.StateExhausted, p.State)

	p, err = f.svc.ReleaseToPeriod(ctx, p.ID, types.Liters(30), quota.Ref{Reason: "surplus"})
	require.NoError(t, err)
	assert.Equal(t, quota.StateActive, p.State)
	assert.Equal(t, types.Liters(30), p.Available)
}

func TestRelease_MoreThanConsumed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 100)

	_, err := f.svc.Reserve(ctx, b.ID, march, types.Liters(10), quota.Ref{})
	require.NoError(t, err)

	_, err = f.svc.Release(ctx, b.ID, march, types.Liters(11), quota.Ref{})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestRecharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)

	_, err := f.svc.Reserve(ctx, b.ID, march, types.Liters(300), quota.Ref{})
	require.NoError(t, err)

	p, err := f.svc.Recharge(ctx, quota.RechargeInput{
		BaseID: b.ID, Period: march, Amount: types.Liters(200), AuthorizedBy: 7, Reason: "spill",
	})
	require.NoError(t, err)
	assert.Equal(t, types.Liters(900), p.Available)
	assert.Equal(t, types.Liters(200), p.Recharged)
	assertBalanced(t, p)

	_, err = f.svc.Recharge(ctx, quota.RechargeInput{
		BaseID: b.ID, Period: march, Amount: types.Liters(101), AuthorizedBy: 7, Reason: "again",
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeRechargeExceedsAssigned))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, types.Liters(100), appErr.Details["max_recharge"])

	entries, err := f.svc.ListEntries(ctx, p.ID, domain.ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 2, entries.TotalCount)
	assert.Equal(t, quota.EntryRecharge, entries.Items[0].Kind)
	require.NotNil(t, entries.Items[0].AuthorizedBy)
	assert.Equal(t, int64(7), *entries.Items[0].AuthorizedBy)
}

func TestRecharge_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)

	tests := []struct {
		name string
		in   quota.RechargeInput
	}{
		{"no reason", quota.RechargeInput{BaseID: b.ID, Period: march, Amount: types.Liters(1), AuthorizedBy: 1}},
		{"no authorizer", quota.RechargeInput{BaseID: b.ID, Period: march, Amount: types.Liters(1), Reason: "x"}},
		{"zero amount", quota.RechargeInput{BaseID: b.ID, Period: march, AuthorizedBy: 1, Reason: "x"}},
		{"bad period", quota.RechargeInput{BaseID: b.ID, Period: "2025-13", Amount: types.Liters(1), AuthorizedBy: 1, Reason: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Recharge(ctx, tt.in)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestRolloverMonth_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)

	_, err := f.svc.Reserve(ctx, b.ID, march, types.Liters(400), quota.Ref{})
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 4, 1, 0, 5, 0, 0, time.UTC))

	first, err := f.svc.RolloverMonth(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Period("2025-04"), first.Period)
	assert.Equal(t, 1, first.Closed)
	assert.Equal(t, 1, first.Created)

	second, err := f.svc.RolloverMonth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Closed)
	assert.Equal(t, 0, second.Created)

	open, err := f.svc.ListPeriods(ctx, quota.PeriodFilter{Period: "2025-04"})
	require.NoError(t, err)
	require.EqualValues(t, 1, open.TotalCount)
	assert.Equal(t, types.Liters(1000), open.Items[0].Available)

	closed, err := f.svc.ListPeriods(ctx, quota.PeriodFilter{Period: march})
	require.NoError(t, err)
	require.EqualValues(t, 1, closed.TotalCount)
	assert.Equal(t, quota.StateClosed, closed.Items[0].State)

	history, err := f.svc.ListHistory(ctx, march, domain.ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, history.TotalCount)
	assert.Equal(t, types.Liters(400), history.Items[0].Consumed)
	assert.Equal(t, types.Liters(600), history.Items[0].Unused)
}

func TestClosedPeriod_RejectsMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)

	p, err := f.svc.Reserve(ctx, b.ID, march, types.Liters(100), quota.Ref{})
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC))
	_, err = f.svc.RolloverMonth(ctx)
	require.NoError(t, err)

	_, err = f.svc.ReleaseToPeriod(ctx, p.ID, types.Liters(100), quota.Ref{})
	assert.True(t, apperror.HasCode(err, apperror.CodePeriodClosed))

	closed, err := f.svc.GetPeriod(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Liters(900), closed.Available)
}

func TestCreateBase_DuplicateScope(t *testing.T) {
	f := newFixture(t)
	f.base(t, 1000)

	_, err := f.svc.CreateBase(context.Background(), quota.Scope{CategoryID: 1, UnitID: 2, FuelTypeID: 3}, types.Liters(5))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestBase_MonthlyAmountMustBePositive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, monthly := range []types.Quantity{0, types.Liters(-5)} {
		_, err := f.svc.CreateBase(ctx, quota.Scope{CategoryID: 1, UnitID: 9, FuelTypeID: 3}, monthly)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation), monthly.String())
	}
	bases, err := f.svc.ListBases(ctx, quota.BaseFilter{})
	require.NoError(t, err)
	assert.Zero(t, bases.TotalCount)

	b := f.base(t, 1000)
	zero := types.Quantity(0)
	_, err = f.svc.UpdateBase(ctx, b.ID, quota.UpdateBaseInput{MonthlyAmount: &zero})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	unchanged, err := f.svc.GetBase(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Liters(1000), unchanged.MonthlyAmount)
}

func TestUpdateBase_ReassignsCurrentPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)

	_, err := f.svc.Reserve(ctx, b.ID, march, types.Liters(300), quota.Ref{})
	require.NoError(t, err)

	monthly := types.Liters(500)
	_, err = f.svc.UpdateBase(ctx, b.ID, quota.UpdateBaseInput{MonthlyAmount: &monthly})
	require.NoError(t, err)

	p, err := f.svc.GetOrCreatePeriod(ctx, b.ID, march)
	require.NoError(t, err)
	assert.Equal(t, types.Liters(500), p.Assigned)
	assert.Equal(t, types.Liters(200), p.Available)
	assertBalanced(t, p)

	tooLow := types.Liters(100)
	_, err = f.svc.UpdateBase(ctx, b.ID, quota.UpdateBaseInput{MonthlyAmount: &tooLow})
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	unchanged, err := f.svc.GetBase(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Liters(500), unchanged.MonthlyAmount)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 1000)
	boom := errors.New("boom")

	err := f.store.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := f.svc.Reserve(ctx, b.ID, march, types.Liters(100), quota.Ref{}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := f.svc.GetOrCreatePeriod(ctx, b.ID, march)
	require.NoError(t, err)
	assert.Equal(t, types.Liters(1000), p.Available)
}

func TestPeriod_InvariantUnderConcurrentReserve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.base(t, 100)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Reserve(ctx, b.ID, march, types.Liters(10), quota.Ref{}); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	p, err := f.svc.GetOrCreatePeriod(ctx, b.ID, march)
	require.NoError(t, err)
	assert.True(t, p.Available.IsZero())
	assertBalanced(t, p)
}
