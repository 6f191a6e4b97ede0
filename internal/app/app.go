// Package app assembles the services for the configured storage driver.
// cmd/server and cmd/worker share it so both processes run identical ledgers.
package app

import (
	"context"
	"fmt"
	"net/http"

	"fueldesk/internal/config"
	"fueldesk/internal/core/clock"
	"fueldesk/internal/core/tx"
	"fueldesk/internal/domain/audit"
	"fueldesk/internal/domain/auth"
	"fueldesk/internal/domain/events"
	"fueldesk/internal/domain/identity"
	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/domain/masterdata"
	"fueldesk/internal/domain/plate"
	"fueldesk/internal/domain/quota"
	"fueldesk/internal/domain/scheduler"
	"fueldesk/internal/domain/ticket"
	v1 "fueldesk/internal/infrastructure/http/v1"
	"fueldesk/internal/infrastructure/storage/memory"
	"fueldesk/internal/infrastructure/storage/postgres"
	"fueldesk/internal/infrastructure/storage/postgres/inventory_repo"
	"fueldesk/internal/infrastructure/storage/postgres/quota_repo"
	"fueldesk/internal/infrastructure/storage/postgres/reference_repo"
	"fueldesk/internal/infrastructure/storage/postgres/ticket_repo"
	"fueldesk/pkg/logger"
	"fueldesk/pkg/numerator"
)

const eventBuffer = 64

// backend is the storage-specific half of the container.
type backend struct {
	txManager  tx.Manager
	quota      quota.Repository
	tickets    ticket.Repository
	inventory  inventory.Repository
	master     masterdata.Store
	identities identity.Store
	counter    plate.Counter
	recorder   audit.Recorder
	reader     audit.Reader
	pool       *postgres.Pool
}

// App holds the wired services.
type App struct {
	Config config.Config
	Clock  clock.Clock
	Hub    *events.Hub

	JWT       *auth.JWTService
	Auth      *auth.Service
	Quota     *quota.Service
	Tickets   *ticket.Service
	Inventory *inventory.Service
	Plates    *plate.Service
	Jobs      *scheduler.Jobs
	Audit     audit.Reader

	pool *postgres.Pool
	log  *logger.Logger
}

// New connects the configured storage and builds every service on top of it.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}
	clk := clock.New(loc)

	var b *backend
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		b, err = newMemoryBackend(ctx, clk)
	default:
		b, err = newPostgresBackend(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	rule, err := inventory.NewEvaporationRule(cfg.Inventory.EvaporationRule)
	if err != nil {
		if b.pool != nil {
			b.pool.Close()
		}
		return nil, fmt.Errorf("evaporation rule: %w", err)
	}

	hub := events.NewHub(eventBuffer)
	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.Auth.JWTSecret,
		Issuer:         cfg.Auth.Issuer,
		AccessTokenTTL: cfg.Auth.TokenTTL,
	})

	quotaSvc := quota.NewService(b.quota, b.txManager, clk, b.recorder, hub)
	inventorySvc := inventory.NewService(b.inventory, b.txManager, clk, b.master, rule, b.recorder, hub)
	ticketSvc := ticket.NewService(
		b.tickets,
		b.txManager,
		clk,
		quotaSvc,
		inventorySvc,
		b.master,
		identity.NewCredentialVerifier(b.identities),
		b.recorder,
		hub,
		ticket.Config{DefaultUnitCode: cfg.Tickets.DefaultUnitCode},
	)

	a := &App{
		Config:    cfg,
		Clock:     clk,
		Hub:       hub,
		JWT:       jwtService,
		Auth:      auth.NewService(b.identities, jwtService),
		Quota:     quotaSvc,
		Inventory: inventorySvc,
		Tickets:   ticketSvc,
		Plates: plate.NewService(b.counter, b.txManager, plate.Config{
			Prefix:   cfg.Plates.Prefix,
			PadWidth: cfg.Plates.PadWidth,
			Seed:     cfg.Plates.Seed,
		}),
		Jobs:  scheduler.NewJobs(ticketSvc, quotaSvc, clk),
		Audit: b.reader,
		pool:  b.pool,
		log:   log,
	}

	log.Infow("application wired",
		"driver", cfg.Storage.Driver,
		"timezone", loc.String(),
	)
	return a, nil
}

func newPostgresBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 {
		poolCfg.MinConns = cfg.Database.MinConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	txm := postgres.NewTxManager(pool)
	recorder, err := postgres.NewAuditRecorder(txm, cfg.Audit.CompressThreshold)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &backend{
		txManager:  txm,
		quota:      quota_repo.New(txm),
		tickets:    ticket_repo.New(txm),
		inventory:  inventory_repo.New(txm),
		master:     reference_repo.NewMasterData(txm),
		identities: reference_repo.NewIdentities(txm),
		counter:    numerator.NewWithProvider(txm.CounterQuerier),
		recorder:   recorder,
		reader:     recorder,
		pool:       pool,
	}, nil
}

func newMemoryBackend(ctx context.Context, clk clock.Clock) (*backend, error) {
	store := memory.New()
	if err := SeedMemory(ctx, store, clk); err != nil {
		return nil, fmt.Errorf("seed memory store: %w", err)
	}
	return &backend{
		txManager:  store,
		quota:      store.Quota(),
		tickets:    store.Tickets(),
		inventory:  store.Inventory(),
		master:     store.MasterData(),
		identities: store.Identities(),
		counter:    store.Counter(),
		recorder:   store.Audit(),
		reader:     store.Audit(),
	}, nil
}

// Router builds the HTTP handler for the API process.
func (a *App) Router(version string) http.Handler {
	return v1.NewRouter(v1.RouterConfig{
		Logger:       a.log,
		JWTValidator: a.JWT,
		CORSOrigins:  a.Config.HTTP.CORSOrigins,
		Location:     a.Clock.Location(),
		Pool:         a.pool,
		Driver:       a.Config.Storage.Driver,
		Version:      version,
		AuthService:  a.Auth,
		Quota:        a.Quota,
		Tickets:      a.Tickets,
		Inventory:    a.Inventory,
		Plates:       a.Plates,
		Audit:        a.Audit,
		Hub:          a.Hub,
		Jobs:         a.Jobs,
	})
}

// Runner builds the scheduler runner from the scheduler configuration.
func (a *App) Runner() (*scheduler.Runner, error) {
	sc := a.Config.Scheduler
	return scheduler.NewRunner(a.Jobs, a.Clock, scheduler.Config{
		Location:         a.Clock.Location(),
		DailyAt:          sc.DailyAt,
		MonthlyDay:       sc.MonthlyDay,
		MonthlyAt:        sc.MonthlyAt,
		RecoverOnStartup: sc.RecoverOnStartup,
	})
}

// Close releases the database pool after logging its final statistics.
func (a *App) Close() {
	if a.pool != nil {
		postgres.LogPoolStats(context.Background(), a.pool.Unwrap())
		a.pool.Close()
	}
}
