// Package reference_repo reads master data and enrolled identities from
// PostgreSQL. Both are maintained outside the ledgers and are read-only here.
package reference_repo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"fueldesk/internal/domain/identity"
	"fueldesk/internal/domain/masterdata"
	"fueldesk/internal/infrastructure/storage/postgres"
)

// MasterData implements masterdata.Store.
type MasterData struct {
	txManager *postgres.TxManager
}

var _ masterdata.Store = (*MasterData)(nil)

func NewMasterData(txManager *postgres.TxManager) *MasterData {
	return &MasterData{txManager: txManager}
}

func (m *MasterData) db(ctx context.Context) postgres.Querier {
	return m.txManager.GetQuerier(ctx)
}

func (m *MasterData) GetUnit(ctx context.Context, id int64) (*masterdata.Unit, error) {
	q := postgres.Builder().
		Select("id", "code", "name", "category_id", "active").
		From("units").
		Where(squirrel.Eq{"id": id})
	return postgres.GetOne[masterdata.Unit](ctx, m.db(ctx), q, "unit", id)
}

func (m *MasterData) GetSubunit(ctx context.Context, id int64) (*masterdata.Subunit, error) {
	q := postgres.Builder().
		Select("id", "unit_id", "name", "sells_fuel", "active").
		From("subunits").
		Where(squirrel.Eq{"id": id})
	return postgres.GetOne[masterdata.Subunit](ctx, m.db(ctx), q, "subunit", id)
}

func (m *MasterData) GetVehicle(ctx context.Context, id int64) (*masterdata.Vehicle, error) {
	q := postgres.Builder().
		Select("id", "plate", "brand", "model", "unit_id", "subunit_id", "fuel_type_id", "active").
		From("vehicles").
		Where(squirrel.Eq{"id": id})
	return postgres.GetOne[masterdata.Vehicle](ctx, m.db(ctx), q, "vehicle", id)
}

func (m *MasterData) GetFuelType(ctx context.Context, id int64) (*masterdata.FuelType, error) {
	q := postgres.Builder().
		Select("id", "name", "active").
		From("fuel_types").
		Where(squirrel.Eq{"id": id})
	return postgres.GetOne[masterdata.FuelType](ctx, m.db(ctx), q, "fuel type", id)
}

func priceSelect() squirrel.SelectBuilder {
	return postgres.Builder().
		Select("id", "fuel_type_id", "currency_code", "unit_price", "active", "valid_from").
		From("fuel_prices")
}

func (m *MasterData) GetPrice(ctx context.Context, id int64) (*masterdata.Price, error) {
	q := priceSelect().Where(squirrel.Eq{"id": id})
	return postgres.GetOne[masterdata.Price](ctx, m.db(ctx), q, "price", id)
}

func (m *MasterData) ActivePrice(ctx context.Context, fuelTypeID int64) (*masterdata.Price, error) {
	q := priceSelect().
		Where(squirrel.Eq{"fuel_type_id": fuelTypeID, "active": true}).
		OrderBy("valid_from DESC", "id DESC").
		Limit(1)
	return postgres.GetOne[masterdata.Price](ctx, m.db(ctx), q, "active price", fuelTypeID)
}

// Identities implements identity.Store.
type Identities struct {
	txManager *postgres.TxManager
}

var _ identity.Store = (*Identities)(nil)

func NewIdentities(txManager *postgres.TxManager) *Identities {
	return &Identities{txManager: txManager}
}

func (i *Identities) FindByNationalID(ctx context.Context, nationalID string) (*identity.Person, error) {
	q := postgres.Builder().
		Select("id", "national_id", "name", "secret_hash", "capabilities", "roles", "unit_id", "active").
		From("persons").
		Where(squirrel.Eq{"national_id": strings.TrimSpace(nationalID)})
	return postgres.GetOne[identity.Person](ctx, i.txManager.GetQuerier(ctx), q, "person", nationalID)
}
