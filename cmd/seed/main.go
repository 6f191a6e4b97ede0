// Package main provides a CLI tool for seeding the database with reference data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"fueldesk/internal/app"
	"fueldesk/internal/config"
	"fueldesk/internal/core/apperror"
	"fueldesk/internal/core/clock"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/infrastructure/storage/postgres"
	"fueldesk/internal/infrastructure/storage/postgres/quota_repo"
	"fueldesk/pkg/logger"
)

// referenceTables have their BIGSERIAL sequences moved past the fixed demo ids.
var referenceTables = []string{
	"fuel_types", "units", "subunits", "vehicles", "fuel_prices", "persons", "dispensing_points", "tanks",
}

func main() {
	migrations := flag.String("migrations", "", "apply this SQL file before seeding")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatal("seed only applies to the postgres driver")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if *migrations != "" {
		sql, err := os.ReadFile(*migrations)
		if err != nil {
			log.Fatalw("failed to read migrations", "path", *migrations, "error", err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			log.Fatalw("failed to apply migrations", "path", *migrations, "error", err)
		}
		log.Infow("migrations applied", "path", *migrations)
	}

	txm := postgres.NewTxManager(pool)
	demo := app.DemoData()

	queries, err := referenceQueries(demo)
	if err != nil {
		log.Fatalw("failed to prepare reference data", "error", err)
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return postgres.NewBatchExecutor(txm).ExecuteBatch(ctx, queries)
	})
	if err != nil {
		log.Fatalw("failed to seed reference data", "error", err)
	}
	log.Infow("reference data seeded", "statements", len(queries))

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalw("invalid timezone", "error", err)
	}
	recorder, err := postgres.NewAuditRecorder(txm, cfg.Audit.CompressThreshold)
	if err != nil {
		log.Fatalw("failed to create audit recorder", "error", err)
	}
	quotas := quota.NewService(quota_repo.New(txm), txm, clock.New(loc), recorder, nil)
	for _, q := range demo.Quotas {
		base, err := quotas.CreateBase(ctx, q.Scope, q.Monthly)
		if apperror.IsDuplicate(err) {
			log.Infow("quota base already exists", "unit_id", q.Scope.UnitID, "fuel_type_id", q.Scope.FuelTypeID)
			continue
		}
		if err != nil {
			log.Fatalw("failed to seed quota base", "error", err)
		}
		log.Infow("quota base created", "base_id", base.ID, "monthly", q.Monthly)
	}

	log.Info("seeding completed successfully")
}

func referenceQueries(demo app.Demo) ([]postgres.BatchQuery, error) {
	var qs []postgres.BatchQuery
	add := func(sql string, args ...any) {
		qs = append(qs, postgres.BatchQuery{SQL: sql, Args: args})
	}

	for _, f := range demo.FuelTypes {
		add(`INSERT INTO fuel_types (id, name, active) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			f.ID, f.Name, f.Active)
	}
	for _, u := range demo.Units {
		add(`INSERT INTO units (id, code, name, category_id, active) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Code, u.Name, u.CategoryID, u.Active)
	}
	for _, s := range demo.Subunits {
		add(`INSERT INTO subunits (id, unit_id, name, sells_fuel, active) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			s.ID, s.UnitID, s.Name, s.SellsFuel, s.Active)
	}
	for _, v := range demo.Vehicles {
		add(`INSERT INTO vehicles (id, plate, brand, model, unit_id, subunit_id, fuel_type_id, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
			v.ID, v.Plate, v.Brand, v.Model, v.UnitID, v.SubunitID, v.FuelTypeID, v.Active)
	}
	for _, p := range demo.Prices {
		add(`INSERT INTO fuel_prices (id, fuel_type_id, currency_code, unit_price, active, valid_from)
			VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.FuelTypeID, p.CurrencyCode, p.UnitPrice, p.Active, p.ValidFrom)
	}
	for _, p := range demo.Persons {
		hash, err := identity.HashSecret(p.Secret)
		if err != nil {
			return nil, fmt.Errorf("hash secret for %s: %w", p.NationalID, err)
		}
		add(`INSERT INTO persons (id, national_id, name, secret_hash, capabilities, roles, unit_id, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.NationalID, p.Name, hash, p.Capabilities, p.Roles, p.UnitID, p.Active)
	}
	for _, p := range demo.Points {
		add(`INSERT INTO dispensing_points (id, name, fuel_type_id, capacity, available_level, active)
			VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.FuelTypeID, p.Capacity, p.AvailableLevel, p.Active)
	}
	for _, t := range demo.Tanks {
		add(`INSERT INTO tanks (id, code, name, point_id, fuel_type_id, capacity, current_level, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
			t.ID, t.Code, t.Name, t.PointID, t.FuelTypeID, t.Capacity, t.CurrentLevel, t.Active)
	}

	for _, table := range referenceTables {
		add(fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST((SELECT COALESCE(MAX(id), 1) FROM %s), 1))`, table, table))
	}
	return qs, nil
}
