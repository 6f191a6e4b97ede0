// Package masterdata exposes the read-only reference data the ledgers consult:
// organisational units, vehicles, fuel types and prices.
package masterdata

import (
	"context"
	"time"

	"fueldesk/internal/core/types"
)

// Unit is an organisational unit (dependency).
type Unit struct {
	ID         int64  `db:"id" json:"id"`
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
	CategoryID int64  `db:"category_id" json:"categoryId"`
	Active     bool   `db:"active" json:"active"`
}

// Subunit belongs to a Unit. SellsFuel marks subunits allowed to raise sale tickets.
type Subunit struct {
	ID        int64  `db:"id" json:"id"`
	UnitID    int64  `db:"unit_id" json:"unitId"`
	Name      string `db:"name" json:"name"`
	SellsFuel bool   `db:"sells_fuel" json:"sellsFuel"`
	Active    bool   `db:"active" json:"active"`
}

// Vehicle is the fleet record a ticket snapshots at request time.
type Vehicle struct {
	ID         int64  `db:"id" json:"id"`
	Plate      string `db:"plate" json:"plate"`
	Brand      string `db:"brand" json:"brand"`
	Model      string `db:"model" json:"model"`
	UnitID     int64  `db:"unit_id" json:"unitId"`
	SubunitID  *int64 `db:"subunit_id" json:"subunitId,omitempty"`
	FuelTypeID int64  `db:"fuel_type_id" json:"fuelTypeId"`
	Active     bool   `db:"active" json:"active"`
}

type FuelType struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`
}

// Price is a unit price for a fuel type in one currency.
type Price struct {
	ID           int64       `db:"id" json:"id"`
	FuelTypeID   int64       `db:"fuel_type_id" json:"fuelTypeId"`
	CurrencyCode string      `db:"currency_code" json:"currencyCode"`
	UnitPrice    types.Money `db:"unit_price" json:"unitPrice"`
	Active       bool        `db:"active" json:"active"`
	ValidFrom    time.Time   `db:"valid_from" json:"validFrom"`
}

// Store is the read-only lookup surface. Missing rows are apperror NotFound.
type Store interface {
	GetUnit(ctx context.Context, id int64) (*Unit, error)
	GetSubunit(ctx context.Context, id int64) (*Subunit, error)
	GetVehicle(ctx context.Context, id int64) (*Vehicle, error)
	GetFuelType(ctx context.Context, id int64) (*FuelType, error)
	GetPrice(ctx context.Context, id int64) (*Price, error)
	// ActivePrice returns the newest active price for the fuel type.
	ActivePrice(ctx context.Context, fuelTypeID int64) (*Price, error)
}
