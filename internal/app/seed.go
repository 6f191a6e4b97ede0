package app

import (
	"context"
	"time"

	"fueldesk/internal/core/clock"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/core/types"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/domain/masterdata"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/infrastructure/storage/memory"
)

// DemoPerson is an enrolled person with the plain secret used to sign in.
type DemoPerson struct {
	identity.Person
	Secret string
}

// Demo is the reference data a fresh installation starts with.
type Demo struct {
	FuelTypes []masterdata.FuelType
	Units     []masterdata.Unit
	Subunits  []masterdata.Subunit
	Vehicles  []masterdata.Vehicle
	Prices    []masterdata.Price
	Persons   []DemoPerson
	Points    []inventory.DispensingPoint
	Tanks     []inventory.Tank
	Quotas    []DemoQuota
}

// DemoQuota is a standing monthly entitlement.
type DemoQuota struct {
	Scope   quota.Scope
	Monthly types.Quantity
}

// DemoData returns the demo dataset. IDs are fixed so the SQL seed and the
// memory store agree.
func DemoData() Demo {
	ops := int64(1)
	station := int64(1)
	point := int64(1)
	validFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	return Demo{
		FuelTypes: []masterdata.FuelType{
			{ID: 1, Name: "Gasolina 91", Active: true},
			{ID: 2, Name: "Gasoil", Active: true},
		},
		Units: []masterdata.Unit{
			{ID: 1, Code: "7", Name: "Operaciones", CategoryID: 1, Active: true},
			{ID: 2, Code: "120", Name: "Logistica", CategoryID: 1, Active: true},
		},
		Subunits: []masterdata.Subunit{
			{ID: 1, UnitID: 1, Name: "Estacion de servicio", SellsFuel: true, Active: true},
		},
		Vehicles: []masterdata.Vehicle{
			{ID: 1, Plate: "AB123CD", Brand: "Toyota", Model: "Hilux", UnitID: 1, FuelTypeID: 1, Active: true},
			{ID: 2, Plate: "A45BC6D", Brand: "Ford", Model: "F-350", UnitID: 2, FuelTypeID: 2, Active: true},
		},
		Prices: []masterdata.Price{
			{ID: 1, FuelTypeID: 1, CurrencyCode: "USD", UnitPrice: types.MustMoney("0.50"), Active: true, ValidFrom: validFrom},
			{ID: 2, FuelTypeID: 2, CurrencyCode: "USD", UnitPrice: types.MustMoney("0.40"), Active: true, ValidFrom: validFrom},
		},
		Persons: []DemoPerson{
			{Person: identity.Person{ID: 1, NationalID: "V1000000", Name: "Administrador",
				Roles: []string{appctx.RoleAdmin}, Active: true}, Secret: "admin"},
			{Person: identity.Person{ID: 2, NationalID: "V2000000", Name: "Jefe de despacho",
				Capabilities: []string{string(identity.CapabilityIssue)},
				Roles:        []string{appctx.RoleApprover, appctx.RoleRequester}, UnitID: &ops, Active: true}, Secret: "approver"},
			{Person: identity.Person{ID: 3, NationalID: "V3000000", Name: "Conductor",
				Capabilities: []string{string(identity.CapabilityReceive)}, UnitID: &ops, Active: true}, Secret: "driver"},
			{Person: identity.Person{ID: 4, NationalID: "V4000000", Name: "Almacenista",
				Roles: []string{appctx.RoleWarehouse, appctx.RoleValidator}, Active: true}, Secret: "warehouse"},
		},
		Points: []inventory.DispensingPoint{
			{ID: point, Name: "Llenadero principal", FuelTypeID: 1, Capacity: types.Liters(20000), AvailableLevel: types.Liters(5000), Active: true},
		},
		Tanks: []inventory.Tank{
			{ID: 1, Code: "TQ-01", Name: "Tanque 1", PointID: &point, FuelTypeID: 1, Capacity: types.Liters(40000), CurrentLevel: types.Liters(15000), Active: true},
			{ID: 2, Code: "TQ-02", Name: "Tanque 2", PointID: &point, FuelTypeID: 1, Capacity: types.Liters(40000), Active: true},
		},
		Quotas: []DemoQuota{
			{Scope: quota.Scope{CategoryID: 1, UnitID: 1, FuelTypeID: 1}, Monthly: types.Liters(2000)},
			{Scope: quota.Scope{CategoryID: 1, UnitID: 1, SubunitID: &station, FuelTypeID: 1}, Monthly: types.Liters(500)},
			{Scope: quota.Scope{CategoryID: 1, UnitID: 2, FuelTypeID: 2}, Monthly: types.Liters(1200)},
		},
	}
}

// SeedMemory loads DemoData into a fresh memory store.
func SeedMemory(ctx context.Context, store *memory.Store, clk clock.Clock) error {
	demo := DemoData()
	now := clk.Now()

	md := store.MasterData()
	for _, f := range demo.FuelTypes {
		md.PutFuelType(f)
	}
	for _, u := range demo.Units {
		md.PutUnit(u)
	}
	for _, s := range demo.Subunits {
		md.PutSubunit(s)
	}
	for _, v := range demo.Vehicles {
		md.PutVehicle(v)
	}
	for _, p := range demo.Prices {
		md.PutPrice(p)
	}

	for _, p := range demo.Persons {
		hash, err := identity.HashSecret(p.Secret)
		if err != nil {
			return err
		}
		person := p.Person
		person.SecretHash = hash
		store.Identities().Enroll(person)
	}

	inv := store.Inventory()
	pointIDs := make(map[int64]int64, len(demo.Points))
	for _, p := range demo.Points {
		point := p
		seedID := point.ID
		point.ID = 0
		point.UpdatedAt = now
		if err := inv.CreatePoint(ctx, &point); err != nil {
			return err
		}
		pointIDs[seedID] = point.ID
	}
	for _, t := range demo.Tanks {
		tank := t
		tank.ID = 0
		tank.UpdatedAt = now
		if tank.PointID != nil {
			id := pointIDs[*tank.PointID]
			tank.PointID = &id
		}
		if err := inv.CreateTank(ctx, &tank); err != nil {
			return err
		}
	}

	quotas := quota.NewService(store.Quota(), store, clk, store.Audit(), nil)
	for _, q := range demo.Quotas {
		if _, err := quotas.CreateBase(ctx, q.Scope, q.Monthly); err != nil {
			return err
		}
	}
	return nil
}
