package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/clock"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/domain/masterdata"
	"fueldesk/internal/infrastructure/storage/memory"
)

const (
	gasoline int64 = 1
	diesel   int64 = 2
)

type fixture struct {
	store *memory.Store
	svc   *inventory.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	md := store.MasterData()
	md.PutFuelType(masterdata.FuelType{ID: gasoline, Name: "Gasolina 95", Active: true})
	md.PutFuelType(masterdata.FuelType{ID: diesel, Name: "Gasoil", Active: true})

	clk := clock.NewManual(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := inventory.NewService(store.Inventory(), store, clk, md, nil, store.Audit(), nil)
	return &fixture{store: store, svc: svc}
}

func (f *fixture) tank(t *testing.T, code string, fuel int64, level int64) int64 {
	t.Helper()
	tk := &inventory.Tank{
		Code: code, Name: code, FuelTypeID: fuel,
		Capacity: types.Liters(1000), CurrentLevel: types.Liters(level), Active: true,
	}
	require.NoError(t, f.store.Inventory().CreateTank(context.Background(), tk))
	return tk.ID
}

func (f *fixture) point(t *testing.T, fuel int64, level int64) int64 {
	t.Helper()
	p := &inventory.DispensingPoint{
		Name: "Llenadero", FuelTypeID: fuel,
		Capacity: types.Liters(2000), AvailableLevel: types.Liters(level), Active: true,
	}
	require.NoError(t, f.store.Inventory().CreatePoint(context.Background(), p))
	return p.ID
}

func (f *fixture) tankLevel(t *testing.T, id int64) types.Quantity {
	t.Helper()
	tk, err := f.svc.GetTank(context.Background(), id)
	require.NoError(t, err)
	return tk.CurrentLevel
}

func userCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: 5})
}

func load(owner inventory.Owner, liters int64) inventory.LoadInput {
	return inventory.LoadInput{
		Owner:            owner,
		DocumentNumber:   "G-0001",
		TankerPlate:      "CIS001",
		DriverName:       "Pedro",
		DriverNationalID: "V123",
		Documented:       types.Liters(liters),
		Received:         types.Liters(liters),
	}
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	a := f.tank(t, "T-A", gasoline, 500)
	b := f.tank(t, "T-B", gasoline, 100)

	res, err := f.svc.Transfer(ctx, inventory.TransferInput{SourceTankID: a, TargetTankID: b, Amount: types.Liters(200)})
	require.NoError(t, err)

	assert.Equal(t, types.Liters(300), f.tankLevel(t, a))
	assert.Equal(t, types.Liters(300), f.tankLevel(t, b))
	assert.NotEmpty(t, res.GroupID)
	require.NotNil(t, res.Out.GroupID)
	require.NotNil(t, res.In.GroupID)
	assert.Equal(t, *res.Out.GroupID, *res.In.GroupID)
	assert.Zero(t, res.Out.Delta+res.In.Delta)
	assert.Equal(t, int64(5), res.Out.UserID)

	movements, err := f.svc.ListMovements(ctx, inventory.MovementFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, movements.TotalCount)
}

func TestTransfer_InsufficientSourceLeavesBothTanks(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	a := f.tank(t, "T-A", gasoline, 100)
	b := f.tank(t, "T-B", gasoline, 100)

	_, err := f.svc.Transfer(ctx, inventory.TransferInput{SourceTankID: a, TargetTankID: b, Amount: types.Liters(150)})
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientTankStock))

	assert.Equal(t, types.Liters(100), f.tankLevel(t, a))
	assert.Equal(t, types.Liters(100), f.tankLevel(t, b))
	movements, err := f.svc.ListMovements(ctx, inventory.MovementFilter{})
	require.NoError(t, err)
	assert.Zero(t, movements.TotalCount)
}

func TestTransfer_TargetOverCapacityRollsBackSource(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	a := f.tank(t, "T-A", gasoline, 500)
	b := f.tank(t, "T-B", gasoline, 900)

	_, err := f.svc.Transfer(ctx, inventory.TransferInput{SourceTankID: a, TargetTankID: b, Amount: types.Liters(200)})
	require.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Equal(t, types.Liters(500), f.tankLevel(t, a))
	assert.Equal(t, types.Liters(900), f.tankLevel(t, b))
}

func TestTransfer_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	a := f.tank(t, "T-A", gasoline, 500)
	d := f.tank(t, "T-D", diesel, 0)

	_, err := f.svc.Transfer(ctx, inventory.TransferInput{SourceTankID: a, TargetTankID: a, Amount: types.Liters(1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.Transfer(ctx, inventory.TransferInput{SourceTankID: a, TargetTankID: d, Amount: types.Liters(1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestRecordLoad(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	a := f.tank(t, "T-A", gasoline, 100)

	in := load(inventory.TankOwner(a), 400)
	in.Received = types.Liters(395)
	l, err := f.svc.RecordLoad(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, types.Liters(495), f.tankLevel(t, a))
	assert.Equal(t, types.Liters(-5), l.DocumentDifference())

	_, err = f.svc.RecordLoad(ctx, load(inventory.TankOwner(a), 600))
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Equal(t, types.Liters(495), f.tankLevel(t, a))
}

func TestRecordLoad_RequiresDocument(t *testing.T) {
	f := newFixture(t)
	p := f.point(t, gasoline, 0)

	in := load(inventory.PointOwner(p), 100)
	in.DocumentNumber = ""
	in.DriverNationalID = ""
	_, err := f.svc.RecordLoad(userCtx(), in)
	require.True(t, apperror.HasCode(err, apperror.CodeValidation))

	appErr, _ := apperror.AsAppError(err)
	assert.ElementsMatch(t, []string{"documentNumber", "driverNationalId"}, appErr.Details["missing"])
}

func TestCorrectLoad(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	a := f.tank(t, "T-A", gasoline, 0)

	l, err := f.svc.RecordLoad(ctx, load(inventory.TankOwner(a), 300))
	require.NoError(t, err)

	mv, err := f.svc.CorrectLoad(ctx, l.ID, types.Liters(280), "recount")
	require.NoError(t, err)
	assert.Equal(t, inventory.MovementCorrection, mv.Kind)
	assert.Equal(t, types.Liters(-20), mv.Delta)
	assert.Equal(t, types.Liters(280), f.tankLevel(t, a))

	_, err = f.svc.CorrectLoad(ctx, l.ID, types.Liters(280), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestRecordEvaporation(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	gas := f.tank(t, "T-G", gasoline, 500)
	dsl := f.tank(t, "T-D", diesel, 500)

	mv, err := f.svc.RecordEvaporation(ctx, inventory.EvaporationInput{Owner: inventory.TankOwner(gas), Amount: types.Liters(3)})
	require.NoError(t, err)
	assert.Equal(t, inventory.MovementEvaporation, mv.Kind)
	assert.Equal(t, types.Liters(497), f.tankLevel(t, gas))

	_, err = f.svc.RecordEvaporation(ctx, inventory.EvaporationInput{Owner: inventory.TankOwner(dsl), Amount: types.Liters(3)})
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Equal(t, types.Liters(500), f.tankLevel(t, dsl))

	_, err = f.svc.RecordEvaporation(ctx, inventory.EvaporationInput{Owner: inventory.TankOwner(gas), Amount: types.Liters(600)})
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientTankStock))
}

func TestRecordMeasurement(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	a := f.tank(t, "T-A", gasoline, 500)

	mv, err := f.svc.RecordMeasurement(ctx, inventory.MeasurementInput{TankID: a, Measured: types.Liters(480)})
	require.NoError(t, err)
	require.NotNil(t, mv.Difference)
	assert.Equal(t, types.Liters(-20), *mv.Difference)
	assert.Equal(t, types.Liters(500), *mv.Theoretical)
	assert.Zero(t, mv.Delta)
	assert.Equal(t, types.Liters(500), f.tankLevel(t, a))

	mv, err = f.svc.RecordMeasurement(ctx, inventory.MeasurementInput{TankID: a, Measured: types.Liters(480), Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, types.Liters(-20), mv.Delta)
	assert.Equal(t, types.Liters(480), mv.After)
	assert.Equal(t, types.Liters(480), f.tankLevel(t, a))
}

func TestWithdrawAndCredit(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	p := f.point(t, gasoline, 100)

	_, err := f.svc.Withdraw(ctx, p, types.Liters(101), 9)
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))

	mv, err := f.svc.Withdraw(ctx, p, types.Liters(40), 9)
	require.NoError(t, err)
	assert.Equal(t, inventory.MovementDispatch, mv.Kind)
	require.NotNil(t, mv.TicketID)
	assert.Equal(t, int64(9), *mv.TicketID)

	_, err = f.svc.Credit(ctx, p, types.Liters(15), 9)
	require.NoError(t, err)

	point, err := f.svc.GetPoint(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, types.Liters(75), point.AvailableLevel)
}

func TestMovementLedgerMatchesLevel(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	a := f.tank(t, "T-A", gasoline, 0)
	b := f.tank(t, "T-B", gasoline, 0)

	_, err := f.svc.RecordLoad(ctx, load(inventory.TankOwner(a), 700))
	require.NoError(t, err)
	_, err = f.svc.Transfer(ctx, inventory.TransferInput{SourceTankID: a, TargetTankID: b, Amount: types.Liters(250)})
	require.NoError(t, err)
	_, err = f.svc.RecordEvaporation(ctx, inventory.EvaporationInput{Owner: inventory.TankOwner(a), Amount: types.Liters(2)})
	require.NoError(t, err)

	for _, id := range []int64{a, b} {
		movements, err := f.svc.ListMovements(ctx, inventory.MovementFilter{OwnerKind: inventory.OwnerTank, OwnerID: &id})
		require.NoError(t, err)
		var sum types.Quantity
		for _, m := range movements.Items {
			sum += m.Delta
			assert.Equal(t, m.Before+m.Delta, m.After)
		}
		assert.Equal(t, f.tankLevel(t, id), sum)
	}
}

func TestExportMovements(t *testing.T) {
	f := newFixture(t)
	ctx := userCtx()
	a := f.tank(t, "T-A", gasoline, 600)
	b := f.tank(t, "T-B", gasoline, 0)

	for range 3 {
		_, err := f.svc.Transfer(ctx, inventory.TransferInput{SourceTankID: a, TargetTankID: b, Amount: types.Liters(100)})
		require.NoError(t, err)
	}

	all, err := f.svc.ExportMovements(ctx, inventory.MovementFilter{}, 100)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	capped, err := f.svc.ExportMovements(ctx, inventory.MovementFilter{}, 4)
	require.NoError(t, err)
	assert.Len(t, capped, 4)
	assert.Equal(t, all[:4], capped)

	onlyB, err := f.svc.ExportMovements(ctx, inventory.MovementFilter{OwnerKind: inventory.OwnerTank, OwnerID: &b}, 100)
	require.NoError(t, err)
	require.Len(t, onlyB, 3)
	for _, m := range onlyB {
		assert.Equal(t, b, m.OwnerID)
	}

	_, err = f.svc.ExportMovements(ctx, inventory.MovementFilter{}, 0)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
