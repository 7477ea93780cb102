// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package main is the entry point for the Shipmart service.
//
// Shipmart turns raw marketplace event tables into analysis-ready
// feature marts and runs a parameterized free-shipping policy
// simulation over them. The service initializes in the following order:
//
//  1. Configuration: layered Koanf v2 sources (defaults, YAML, env)
//  2. Database: embedded DuckDB holding source tables and marts
//  3. Pipeline runner: full-snapshot rebuild with atomic mart swaps
//  4. Supervisor tree: rebuild scheduler and HTTP API under Suture
//
// Every derived mart is recomputed in full on each rebuild; readers of
// the HTTP API always see the last completely published version.
//
// # Configuration
//
// Key environment variables (see config.yaml.example for the full set):
//
//	SHIPMART_DB_PATH        DuckDB file path
//	REBUILD_ON_STARTUP      rebuild before serving (default true)
//	REBUILD_INTERVAL        periodic rebuild interval, 0 disables
//	CAMPAIGN_RATE_THRESHOLD campaign detector rate bound (default 0.8)
//	CAMPAIGN_MIN_ORDERS     campaign detector volume bound (default 30)
//	SIM_PRICE_THRESHOLD     simulated free-shipping GMV bound
//	SIM_DISTANCE_CAP_KM     simulated free-shipping distance cap
//	HTTP_PORT               API port (default 8642)
//	LOG_LEVEL               trace|debug|info|warn|error
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the scheduler stops, and the database is
// checkpointed and closed.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/freightlab/shipmart/internal/api"
	"github.com/freightlab/shipmart/internal/cache"
	"github.com/freightlab/shipmart/internal/config"
	"github.com/freightlab/shipmart/internal/database"
	"github.com/freightlab/shipmart/internal/logging"
	"github.com/freightlab/shipmart/internal/pipeline"
	"github.com/freightlab/shipmart/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Float64("campaign_rate_threshold", cfg.Pipeline.CampaignRateThreshold).
		Int("campaign_min_orders", cfg.Pipeline.CampaignMinOrders).
		Float64("sim_price_threshold", cfg.Pipeline.SimPriceThreshold).
		Float64("sim_distance_cap_km", cfg.Pipeline.SimDistanceCapKm).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	runner := pipeline.NewRunner(db, &cfg.Pipeline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Pipeline.RebuildOnStartup {
		// A failed startup rebuild is not fatal: previously published
		// marts (if any) keep serving, and the next trigger retries.
		if err := runner.Rebuild(ctx); err != nil {
			logging.Error().Err(err).Msg("Startup rebuild failed")
		}
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddPipelineService(supervisor.NewSchedulerService(runner, cfg.Pipeline.RebuildInterval))

	if cfg.Server.Enabled {
		var respCache *cache.Cache
		if cfg.Server.CacheTTL > 0 {
			respCache = cache.New(cfg.Server.CacheTTL)
			defer respCache.Close()
		}
		handler := api.NewHandler(db, runner, respCache, cfg)
		server := &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      api.NewRouter(handler, &cfg.Server),
			ReadTimeout:  cfg.Server.Timeout,
			WriteTimeout: cfg.Server.Timeout,
		}
		tree.AddAPIService(supervisor.NewHTTPService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))
	}

	errCh := tree.ServeBackground(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
