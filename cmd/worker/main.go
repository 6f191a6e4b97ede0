// Package main is the entry point for the fueldesk scheduler worker.
// It runs startup recovery, the daily ticket sweep and the monthly quota rollover.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fueldesk/internal/app"
	"fueldesk/internal/config"
	"fueldesk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	if cfg.Storage.Driver == config.DriverMemory {
		// A memory store is private to its process; the server must embed the scheduler instead.
		log.Fatal("the worker requires the postgres driver; set scheduler.embedded on the server for memory mode")
	}
	if !cfg.Scheduler.Enabled {
		log.Info("scheduler disabled, nothing to do")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting fueldesk worker")

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer application.Close()

	runner, err := application.Runner()
	if err != nil {
		log.Fatalw("invalid scheduler configuration", "error", err)
	}
	runner.Start(ctx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	runner.Stop()
	cancel()

	log.Info("worker stopped")
}
