// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package database

import "fmt"

// Source relation DDL. These tables are loaded by an external ingestion
// step; the pipeline only reads them. CREATE TABLE IF NOT EXISTS keeps
// startup idempotent against an already-loaded database file.
var sourceTables = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id     VARCHAR PRIMARY KEY,
		customer_id  VARCHAR NOT NULL,
		status       VARCHAR,
		purchased_at TIMESTAMP,
		approved_at  TIMESTAMP,
		delivered_at TIMESTAMP,
		estimated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id     VARCHAR NOT NULL,
		item_seq     INTEGER NOT NULL,
		product_id   VARCHAR,
		seller_id    VARCHAR,
		price        DOUBLE,
		freight_cost DOUBLE,
		PRIMARY KEY (order_id, item_seq)
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id VARCHAR PRIMARY KEY,
		zone_key    VARCHAR,
		city        VARCHAR,
		region      VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS sellers (
		seller_id VARCHAR PRIMARY KEY,
		zone_key  VARCHAR,
		city      VARCHAR,
		region    VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id VARCHAR PRIMARY KEY,
		category   VARCHAR,
		weight_g   DOUBLE,
		length_cm  DOUBLE,
		height_cm  DOUBLE,
		width_cm   DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS category_translation (
		category         VARCHAR PRIMARY KEY,
		category_english VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS geolocation (
		zone_key  VARCHAR NOT NULL,
		latitude  DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS satisfaction_records (
		review_id VARCHAR PRIMARY KEY,
		order_id  VARCHAR NOT NULL,
		score     DOUBLE NOT NULL
	)`,
}

// createSourceTables creates the read-only input tables if missing.
func (db *DB) createSourceTables() error {
	for _, ddl := range sourceTables {
		if _, err := db.conn.Exec(ddl); err != nil {
			return fmt.Errorf("create source table: %w", err)
		}
	}
	return nil
}

// Published mart names. Staging tables get the stagingSuffix while a
// rebuild is writing, and are renamed into place on success.
const (
	MartZoneCentroids     = "zone_centroids"
	MartItemFacts         = "item_facts"
	MartOrderMetrics      = "order_metrics"
	MartSellerMonth       = "seller_month_metrics"
	MartMonthlyKPI        = "monthly_kpi"
	MartCampaignWindows   = "campaign_windows"
	MartSimulationResults = "simulation_results"

	stagingSuffix = "__staging"
)

// martDDL maps each mart to its column definition. The staging table and
// the published table share the definition by construction.
var martDDL = map[string]string{
	MartZoneCentroids: `(
		zone_key  VARCHAR PRIMARY KEY,
		latitude  DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL
	)`,
	MartItemFacts: `(
		order_id              VARCHAR NOT NULL,
		item_seq              INTEGER NOT NULL,
		product_id            VARCHAR,
		seller_id             VARCHAR,
		customer_id           VARCHAR,
		order_month           VARCHAR NOT NULL,
		status                VARCHAR,
		purchased_at          TIMESTAMP NOT NULL,
		delivered_at          TIMESTAMP,
		estimated_at          TIMESTAMP,
		price                 DOUBLE NOT NULL,
		freight_cost          DOUBLE,
		distance_km           DOUBLE,
		delivery_days         BIGINT,
		delay_days            BIGINT,
		freight_ratio         DOUBLE,
		is_free_shipping_item BOOLEAN NOT NULL,
		weight_band           VARCHAR,
		price_band            VARCHAR NOT NULL,
		category_english      VARCHAR,
		PRIMARY KEY (order_id, item_seq)
	)`,
	MartOrderMetrics: `(
		order_id               VARCHAR PRIMARY KEY,
		order_month            VARCHAR NOT NULL,
		status                 VARCHAR,
		item_count             INTEGER NOT NULL,
		order_gmv              DOUBLE NOT NULL,
		order_freight          DOUBLE NOT NULL,
		avg_distance_km        DOUBLE,
		avg_delivery_days      DOUBLE,
		avg_delay_days         DOUBLE,
		avg_freight_ratio      DOUBLE,
		is_free_shipping_order BOOLEAN NOT NULL,
		satisfaction_score     DOUBLE
	)`,
	MartSellerMonth: `(
		seller_id               VARCHAR NOT NULL,
		order_month             VARCHAR NOT NULL,
		order_count             INTEGER NOT NULL,
		item_count              INTEGER NOT NULL,
		gmv                     DOUBLE NOT NULL,
		freight                 DOUBLE NOT NULL,
		free_shipping_item_rate DOUBLE,
		heavy_item_rate         DOUBLE,
		PRIMARY KEY (seller_id, order_month)
	)`,
	MartMonthlyKPI: `(
		order_month              VARCHAR PRIMARY KEY,
		order_count              INTEGER NOT NULL,
		gmv                      DOUBLE NOT NULL,
		freight                  DOUBLE NOT NULL,
		avg_freight_per_order    DOUBLE NOT NULL,
		free_shipping_order_rate DOUBLE,
		avg_distance_km          DOUBLE,
		avg_delivery_days        DOUBLE,
		avg_delay_days           DOUBLE,
		avg_satisfaction         DOUBLE
	)`,
	MartCampaignWindows: `(
		seller_id               VARCHAR NOT NULL,
		order_month             VARCHAR NOT NULL,
		order_count             INTEGER NOT NULL,
		free_shipping_item_rate DOUBLE NOT NULL,
		PRIMARY KEY (seller_id, order_month)
	)`,
	MartSimulationResults: `(
		order_month           VARCHAR PRIMARY KEY,
		total_orders          INTEGER NOT NULL,
		qualifying_orders     INTEGER NOT NULL,
		subsidy_cost_estimate DOUBLE NOT NULL,
		apply_rate            DOUBLE NOT NULL
	)`,
}
