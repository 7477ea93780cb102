// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package config loads and validates Shipmart configuration from layered
// sources (defaults, optional YAML file, environment variables).
package config

import (
	"fmt"
	"time"

	"github.com/freightlab/shipmart/internal/validation"
)

// Config is the root configuration for the Shipmart service.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig configures the embedded DuckDB store holding both the
// source relations and the published marts.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Use ":memory:" for tests.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory is DuckDB's memory limit, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads" validate:"min=0"`
}

// PipelineConfig configures rebuild scheduling and the parameterized
// stages. Thresholds live here and are handed to the campaign detector
// and policy simulator as immutable parameter structs at call time;
// no stage reads ambient global state.
type PipelineConfig struct {
	// RebuildOnStartup triggers a full rebuild before serving.
	RebuildOnStartup bool `koanf:"rebuild_on_startup"`

	// RebuildInterval re-runs the full rebuild periodically.
	// 0 disables the scheduler.
	RebuildInterval time.Duration `koanf:"rebuild_interval"`

	// CampaignRateThreshold is the inclusive free-shipping item rate
	// bound for campaign-like seller months.
	CampaignRateThreshold float64 `koanf:"campaign_rate_threshold" validate:"min=0,max=1"`

	// CampaignMinOrders is the inclusive order-count bound for
	// campaign-like seller months.
	CampaignMinOrders int `koanf:"campaign_min_orders" validate:"min=1"`

	// SimPriceThreshold is the minimum order GMV for simulated free
	// shipping.
	SimPriceThreshold float64 `koanf:"sim_price_threshold" validate:"min=0"`

	// SimDistanceCapKm is the maximum average shipping distance for
	// simulated free shipping. Must be positive.
	SimDistanceCapKm float64 `koanf:"sim_distance_cap_km" validate:"gt=0"`
}

// ServerConfig configures the read-only HTTP surface.
type ServerConfig struct {
	Enabled bool          `koanf:"enabled"`
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CacheTTL bounds how long mart responses may be served from the
	// in-memory cache. Rebuilds flush the cache immediately; the TTL
	// covers rebuilds triggered outside the API process.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"min=0"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for structural errors. Parameter
// errors here are configuration errors, surfaced before any pipeline
// computation begins.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
