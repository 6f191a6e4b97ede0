package ticket_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/clock"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain"
	"fueldesk/internal/domain/audit"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/domain/masterdata"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/domain/scheduler"
	"fueldesk/internal/domain/ticket"
	"fueldesk/internal/infrastructure/storage/memory"
)

const (
	fuelID    int64 = 1
	unitID    int64 = 10
	subunitID int64 = 11
	otherUnit int64 = 20
)

type fixture struct {
	store     *memory.Store
	clock     *clock.Manual
	quota     *quota.Service
	inventory *inventory.Service
	svc       *ticket.Service

	base    *quota.Base
	pointID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	clk := clock.NewManual(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	md := store.MasterData()
	md.PutFuelType(masterdata.FuelType{ID: fuelID, Name: "Gasolina 91", Active: true})
	md.PutUnit(masterdata.Unit{ID: unitID, Code: "7", Name: "Operaciones", CategoryID: 1, Active: true})
	md.PutUnit(masterdata.Unit{ID: otherUnit, Code: "120", Name: "Logistica", CategoryID: 1, Active: true})
	md.PutSubunit(masterdata.Subunit{ID: subunitID, UnitID: unitID, Name: "Estacion", SellsFuel: true, Active: true})
	md.PutVehicle(masterdata.Vehicle{ID: 30, Plate: "ab 123 cd", Brand: "Toyota", Model: "Hilux", UnitID: unitID, FuelTypeID: fuelID, Active: true})
	md.PutPrice(masterdata.Price{ID: 40, FuelTypeID: fuelID, CurrencyCode: "USD", UnitPrice: types.MustMoney("0.50"), Active: true,
		ValidFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})

	enroll(t, store, identity.Person{ID: 100, NationalID: "V100", Name: "Issuer", Capabilities: []string{"issue"}, Active: true}, "issuer-secret")
	receiverUnit := unitID
	enroll(t, store, identity.Person{ID: 200, NationalID: "V200", Name: "Receiver", Capabilities: []string{"receive"}, UnitID: &receiverUnit, Active: true}, "receiver-secret")
	enroll(t, store, identity.Person{ID: 300, NationalID: "V300", Name: "Clerk", Active: true}, "clerk-secret")
	foreignUnit := otherUnit
	enroll(t, store, identity.Person{ID: 400, NationalID: "V400", Name: "Outsider", Capabilities: []string{"receive"}, UnitID: &foreignUnit, Active: true}, "outsider-secret")

	quotaSvc := quota.NewService(store.Quota(), store, clk, store.Audit(), nil)
	invSvc := inventory.NewService(store.Inventory(), store, clk, md, nil, store.Audit(), nil)
	svc := ticket.NewService(store.Tickets(), store, clk, quotaSvc, invSvc, md,
		identity.NewCredentialVerifier(store.Identities()), store.Audit(), nil, ticket.Config{})

	base, err := quotaSvc.CreateBase(ctx, quota.Scope{CategoryID: 1, UnitID: unitID, FuelTypeID: fuelID}, types.Liters(1000))
	require.NoError(t, err)

	point := &inventory.DispensingPoint{
		Name: "Llenadero", FuelTypeID: fuelID, Capacity: types.Liters(10000), AvailableLevel: types.Liters(5000), Active: true,
	}
	require.NoError(t, store.Inventory().CreatePoint(ctx, point))

	return &fixture{store: store, clock: clk, quota: quotaSvc, inventory: invSvc, svc: svc, base: base, pointID: point.ID}
}

func enroll(t *testing.T, store *memory.Store, p identity.Person, secret string) {
	t.Helper()
	hash, err := identity.HashSecret(secret)
	require.NoError(t, err)
	p.SecretHash = hash
	store.Identities().Enroll(p)
}

func userCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: 1, NationalID: "V100", Name: "Issuer"})
}

func (f *fixture) request(plate string, liters int64) ticket.CreateInput {
	return ticket.CreateInput{
		UnitID:      unitID,
		Plate:       plate,
		PointID:     f.pointID,
		FuelTypeID:  fuelID,
		Requested:   types.Liters(liters),
		SupplyType:  ticket.SupplyPump,
		RequestType: ticket.RequestInstitutional,
	}
}

func (f *fixture) available(t *testing.T) types.Quantity {
	t.Helper()
	p, err := f.quota.GetOrCreatePeriod(context.Background(), f.base.ID, "2025-03")
	require.NoError(t, err)
	return p.Available
}

func (f *fixture) pointLevel(t *testing.T) types.Quantity {
	t.Helper()
	p, err := f.inventory.GetPoint(context.Background(), f.pointID)
	require.NoError(t, err)
	return p.AvailableLevel
}

func printInput() ticket.PrintInput {
	return ticket.PrintInput{
		IssuerSample: "issuer-secret",
		Receiver:     identity.Claim{NationalID: "V200", Sample: "receiver-secret"},
	}
}

// printed creates, approves and prints a ticket.
func (f *fixture) printed(t *testing.T, in ticket.CreateInput) *ticket.Ticket {
	t.Helper()
	ctx := userCtx()
	tk, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, tk.ID)
	require.NoError(t, err)
	tk, err = f.svc.Print(ctx, tk.ID, printInput())
	require.NoError(t, err)
	return tk
}

func TestCreate_ReservesQuotaAndAssignsCode(t *testing.T) {
	f := newFixture(t)

	tk, err := f.svc.Create(userCtx(), f.request("abc-123", 200))
	require.NoError(t, err)

	assert.Equal(t, ticket.StatusPending, tk.Status)
	assert.Equal(t, "ABC-123", tk.Plate)
	assert.Equal(t, ticket.FormatCode(ticket.SupplyPump, "007", tk.ID), tk.Code)
	assert.NotZero(t, tk.QuotaPeriodID)
	assert.Equal(t, int64(1), tk.RequesterID)
	assert.Equal(t, types.Liters(800), f.available(t))

	entries := f.store.Audit().Entries(string(audit.EntityTicket), tk.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
}

func TestCreate_RequiresAuthenticatedUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.request("ABC123", 10))
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestCreate_DuplicateActivePlate(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	_, err := f.svc.Create(ctx, f.request("ABC123", 200))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.request(" abc 123 ", 100))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicateActiveRequest))
	assert.Equal(t, types.Liters(800), f.available(t))
}

func TestCreate_ConcurrentSamePlate(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Create(ctx, f.request("RACE01", 50)); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, types.Liters(950), f.available(t))
}

func TestCreate_InsufficientQuotaLeavesNoTicket(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	_, err := f.svc.Create(ctx, f.request("ABC123", 1001))
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientQuota))

	list, err := f.svc.List(ctx, ticket.Filter{Plate: "ABC123"})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)

	_, err = f.svc.Create(ctx, f.request("ABC123", 1000))
	assert.NoError(t, err)
}

func TestCreate_FromVehicleSnapshot(t *testing.T) {
	f := newFixture(t)
	in := f.request("", 100)
	in.VehicleID = 30

	tk, err := f.svc.Create(userCtx(), in)
	require.NoError(t, err)
	assert.Equal(t, "AB123CD", tk.Plate)
	assert.Equal(t, "Toyota", tk.Brand)
	require.NotNil(t, tk.VehicleID)
	assert.Equal(t, int64(30), *tk.VehicleID)
}

func TestCreate_SaleSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	sub := subunitID
	_, err := f.quota.CreateBase(context.Background(), quota.Scope{CategoryID: 1, UnitID: unitID, SubunitID: &sub, FuelTypeID: fuelID}, types.Liters(500))
	require.NoError(t, err)

	in := f.request("SALE01", 200)
	in.SubunitID = &sub
	in.RequestType = ticket.RequestSale
	in.SupplyType = ticket.SupplyContainer

	tk, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "B007", tk.Code[:4])
	require.True(t, tk.Amount.Valid)
	assert.True(t, types.MustMoney("100").Equal(tk.Amount.Decimal), "amount %s", tk.Amount.Decimal)
	assert.Equal(t, "USD", tk.CurrencyCode)

	_, err = f.svc.Approve(ctx, tk.ID)
	require.NoError(t, err)
	_, err = f.svc.Print(ctx, tk.ID, printInput())
	require.NoError(t, err)
	tk, err = f.svc.Finalize(ctx, ticket.FinalizeInput{Code: tk.Code, Delivered: types.Liters(150)})
	require.NoError(t, err)
	assert.True(t, types.MustMoney("75").Equal(tk.Amount.Decimal), "amount %s", tk.Amount.Decimal)
}

func TestCreate_SaleRequiresSellingSubunit(t *testing.T) {
	f := newFixture(t)
	in := f.request("SALE02", 10)
	in.RequestType = ticket.RequestSale

	_, err := f.svc.Create(userCtx(), in)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestApprove_OnlyFromPending(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk, err := f.svc.Create(ctx, f.request("ABC123", 10))
	require.NoError(t, err)
	tk, err = f.svc.Approve(ctx, tk.ID)
	require.NoError(t, err)
	require.NotNil(t, tk.ApprovedBy)
	assert.Equal(t, int64(1), *tk.ApprovedBy)

	_, err = f.svc.Approve(ctx, tk.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
}

func TestPrint_IdentityChecks(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk, err := f.svc.Create(ctx, f.request("ABC123", 10))
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, tk.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		ctx  context.Context
		in   ticket.PrintInput
	}{
		{"wrong issuer sample", ctx, ticket.PrintInput{IssuerSample: "nope", Receiver: printInput().Receiver}},
		{"issuer lacks capability", appctx.WithUser(context.Background(), &appctx.UserContext{UserID: 3, NationalID: "V300"}),
			ticket.PrintInput{IssuerSample: "clerk-secret", Receiver: printInput().Receiver}},
		{"wrong receiver sample", ctx, ticket.PrintInput{IssuerSample: "issuer-secret", Receiver: identity.Claim{NationalID: "V200", Sample: "nope"}}},
		{"unknown receiver", ctx, ticket.PrintInput{IssuerSample: "issuer-secret", Receiver: identity.Claim{NationalID: "V999", Sample: "x"}}},
		{"receiver lacks capability", ctx, ticket.PrintInput{IssuerSample: "issuer-secret", Receiver: identity.Claim{NationalID: "V300", Sample: "clerk-secret"}}},
		{"receiver from another unit", ctx, ticket.PrintInput{IssuerSample: "issuer-secret", Receiver: identity.Claim{NationalID: "V400", Sample: "outsider-secret"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Print(tt.ctx, tk.ID, tt.in)
			assert.True(t, apperror.HasCode(err, apperror.CodeIdentityMismatch), "got %v", err)
		})
	}

	current, err := f.svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusApproved, current.Status)
	assert.Zero(t, current.PrintCount)
}

func TestPrint_SetsIssuerAndReceiver(t *testing.T) {
	f := newFixture(t)

	tk := f.printed(t, f.request("ABC123", 10))
	assert.Equal(t, ticket.StatusPrinted, tk.Status)
	assert.Equal(t, 1, tk.PrintCount)
	require.NotNil(t, tk.ReceiverID)
	assert.Equal(t, int64(200), *tk.ReceiverID)
	require.NotNil(t, tk.IssuedBy)
	assert.Equal(t, int64(1), *tk.IssuedBy)
	assert.Equal(t, types.Liters(5000), f.pointLevel(t))
}

func TestReprint(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	pending, err := f.svc.Create(ctx, f.request("P1", 10))
	require.NoError(t, err)
	_, err = f.svc.Reprint(ctx, pending.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))

	tk := f.printed(t, f.request("P2", 10))
	tk, err = f.svc.Reprint(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tk.PrintCount)
	assert.Equal(t, ticket.StatusPrinted, tk.Status)
}

func TestDispatchThenFinalize_PartialDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk := f.printed(t, f.request("ABC123", 1000))
	p, err := f.quota.GetPeriod(ctx, tk.QuotaPeriodID)
	require.NoError(t, err)
	require.Equal(t, quota.StateExhausted, p.State)

	tk, err = f.svc.Dispatch(ctx, ticket.DispatchInput{Code: tk.Code})
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusDispatched, tk.Status)
	assert.Equal(t, types.Liters(1000), tk.Dispatched)
	assert.Equal(t, types.Liters(4000), f.pointLevel(t))

	tk, err = f.svc.Finalize(ctx, ticket.FinalizeInput{Code: tk.Code, Delivered: types.Liters(800)})
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusFinalized, tk.Status)
	assert.Equal(t, types.Liters(800), tk.Delivered)
	assert.Equal(t, types.Liters(4200), f.pointLevel(t))

	p, err = f.quota.GetPeriod(ctx, tk.QuotaPeriodID)
	require.NoError(t, err)
	assert.Equal(t, types.Liters(200), p.Available)
	assert.Equal(t, types.Liters(800), p.Consumed)
	assert.Equal(t, quota.StateActive, p.State)

	movements, err := f.inventory.ListMovements(ctx, inventory.MovementFilter{TicketID: &tk.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, movements.TotalCount)
	assert.Equal(t, inventory.MovementCredit, movements.Items[0].Kind)
	assert.Equal(t, inventory.MovementDispatch, movements.Items[1].Kind)
}

func TestFinalize_FromPrintedWithdrawsDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk := f.printed(t, f.request("ABC123", 300))
	tk, err := f.svc.Finalize(ctx, ticket.FinalizeInput{Code: tk.Code, Delivered: types.Liters(250)})
	require.NoError(t, err)

	assert.Equal(t, types.Liters(4750), f.pointLevel(t))
	assert.Equal(t, types.Liters(750), f.available(t))
	require.NotNil(t, tk.ClosedAt)
}

func TestFinalize_RejectsOverDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk := f.printed(t, f.request("ABC123", 300))
	tk, err := f.svc.Dispatch(ctx, ticket.DispatchInput{Code: tk.Code})
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, ticket.FinalizeInput{Code: tk.Code, Delivered: types.Liters(301)})
	require.True(t, apperror.HasCode(err, apperror.CodeInvalidFinalization))

	current, err := f.svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusDispatched, current.Status)
	assert.Equal(t, types.Liters(4700), f.pointLevel(t))
	assert.Equal(t, types.Liters(700), f.available(t))
}

func TestDispatch_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk := f.printed(t, f.request("ABC123", 600))
	_, err := f.inventory.Withdraw(ctx, f.pointID, types.Liters(4500), 0)
	require.NoError(t, err)

	_, err = f.svc.Dispatch(ctx, ticket.DispatchInput{Code: tk.Code})
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	current, err := f.svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusPrinted, current.Status)
	assert.Equal(t, types.Liters(500), f.pointLevel(t))
}

func TestDispatch_ReleasedCappedAtRequested(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk := f.printed(t, f.request("ABC123", 100))
	over := types.Liters(101)
	_, err := f.svc.Dispatch(ctx, ticket.DispatchInput{Code: tk.Code, Released: &over})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	partial := types.Liters(60)
	tk, err = f.svc.Dispatch(ctx, ticket.DispatchInput{Code: tk.Code, Released: &partial})
	require.NoError(t, err)
	assert.Equal(t, types.Liters(4940), f.pointLevel(t))

	_, err = f.svc.Finalize(ctx, ticket.FinalizeInput{Code: tk.Code, Delivered: types.Liters(90)})
	require.NoError(t, err)
	assert.Equal(t, types.Liters(4910), f.pointLevel(t))
	assert.Equal(t, types.Liters(910), f.available(t))
}

func TestInspect(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk := f.printed(t, f.request("ABC123", 100))
	res, err := f.svc.Inspect(ctx, tk.Code)
	require.NoError(t, err)
	assert.Equal(t, ticket.InspectReady, res.Result)

	_, err = f.svc.Finalize(ctx, ticket.FinalizeInput{Code: tk.Code, Delivered: types.Liters(100)})
	require.NoError(t, err)
	res, err = f.svc.Inspect(ctx, tk.Code)
	require.NoError(t, err)
	assert.Equal(t, ticket.InspectAlreadyFinalized, res.Result)
}

func TestReject_RestoresQuotaAndFreesPlate(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk, err := f.svc.Create(ctx, f.request("ABC123", 400))
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, tk.ID, "")
	require.True(t, apperror.HasCode(err, apperror.CodeValidation))

	tk, err = f.svc.Reject(ctx, tk.ID, "wrong unit")
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusRejected, tk.Status)
	assert.Equal(t, types.Liters(1000), f.available(t))

	_, err = f.svc.Create(ctx, f.request("ABC123", 100))
	assert.NoError(t, err)
}

func TestReject_NotFromDispatched(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk := f.printed(t, f.request("ABC123", 100))
	_, err := f.svc.Dispatch(ctx, ticket.DispatchInput{Code: tk.Code})
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, tk.ID, "too late")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidState))
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	pending, err := f.svc.Create(ctx, f.request("OLD1", 100))
	require.NoError(t, err)
	printed := f.printed(t, f.request("OLD2", 200))

	dispatched := f.printed(t, f.request("OLD3", 50))
	_, err = f.svc.Dispatch(ctx, ticket.DispatchInput{Code: dispatched.Code})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	fresh, err := f.svc.Create(ctx, f.request("NEW1", 10))
	require.NoError(t, err)

	res, err := f.svc.ExpireStale(ctx, time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Expired)
	assert.Equal(t, 0, res.Skipped)

	for _, id := range []int64{pending.ID, printed.ID} {
		tk, err := f.svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, ticket.StatusExpired, tk.Status)
	}
	tk, err := f.svc.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusPending, tk.Status)

	// 50 dispatched and 10 fresh remain reserved.
	assert.Equal(t, types.Liters(940), f.available(t))
	assert.Equal(t, types.Liters(4950), f.pointLevel(t))

	_, err = f.svc.Create(ctx, f.request("OLD1", 10))
	assert.NoError(t, err)
}

func TestExpireStale_ClosedPeriodSkipsRelease(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk, err := f.svc.Create(ctx, f.request("ABC123", 300))
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 4, 1, 0, 5, 0, 0, time.UTC))
	_, err = f.quota.RolloverMonth(ctx)
	require.NoError(t, err)

	res, err := f.svc.ExpireStale(ctx, clock.EndOfPreviousDay(f.clock.Now()))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, 1, res.Skipped)

	p, err := f.quota.GetPeriod(ctx, tk.QuotaPeriodID)
	require.NoError(t, err)
	assert.Equal(t, quota.StateClosed, p.State)
	assert.Equal(t, types.Liters(700), p.Available)
}

func TestRecover_AcrossMonthBoundaryRestoresQuota(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()

	tk, err := f.svc.Create(ctx, f.request("ABC123", 300))
	require.NoError(t, err)
	assert.Equal(t, types.Liters(700), f.available(t))

	// Down from March 10th until April 2nd.
	f.clock.Set(time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC))
	res, err := scheduler.NewJobs(f.svc, f.quota, f.clock).Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sweep.Expired)
	assert.Equal(t, 0, res.Sweep.Skipped)
	assert.Equal(t, 1, res.Rollover.Closed)

	expired, err := f.svc.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusExpired, expired.Status)

	march, err := f.quota.GetPeriod(ctx, tk.QuotaPeriodID)
	require.NoError(t, err)
	assert.Equal(t, quota.StateClosed, march.State)
	assert.Equal(t, types.Liters(1000), march.Available)
	assert.True(t, march.Consumed.IsZero())

	history, err := f.quota.ListHistory(ctx, "2025-03", domain.ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, history.TotalCount)
	assert.Equal(t, types.Liters(1000), history.Items[0].Unused)
	assert.True(t, history.Items[0].Consumed.IsZero())

	april, err := f.quota.GetOrCreatePeriod(ctx, f.base.ID, "2025-04")
	require.NoError(t, err)
	assert.Equal(t, types.Liters(1000), april.Available)
}
