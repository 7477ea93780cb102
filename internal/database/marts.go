// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/freightlab/shipmart/internal/logging"
	"github.com/freightlab/shipmart/internal/metrics"
	"github.com/freightlab/shipmart/internal/models"
)

// ErrMartNotPublished is returned by mart readers before the first
// successful rebuild has published the relation.
var ErrMartNotPublished = errors.New("mart not published yet")

// publishMart materializes a derived relation atomically:
//
//  1. write all rows into <mart>__staging
//  2. in one transaction, drop the previous mart and rename staging
//     into place
//
// Concurrent readers either see the previous complete version or the
// new complete version, never a partial one. Any failure leaves the
// previously published mart untouched; the staging table is dropped
// best-effort.
func (db *DB) publishMart(ctx context.Context, mart string, insert func(tx *sql.Tx) (int, error)) (err error) {
	start := time.Now()
	staging := mart + stagingSuffix

	defer func() {
		if err != nil {
			// Best-effort cleanup; the published mart is untouched.
			_, _ = db.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging)
		}
	}()

	if _, err = db.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return fmt.Errorf("drop stale staging for %s: %w", mart, err)
	}
	if _, err = db.conn.ExecContext(ctx, "CREATE TABLE "+staging+" "+martDDL[mart]); err != nil {
		return fmt.Errorf("create staging for %s: %w", mart, err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staging write for %s: %w", mart, err)
	}
	rowCount, err := insert(tx)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write staging for %s: %w", mart, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit staging for %s: %w", mart, err)
	}

	// The swap itself. DuckDB DDL is transactional, so drop+rename is
	// all-or-nothing from a reader's point of view.
	swapTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap for %s: %w", mart, err)
	}
	if _, err = swapTx.ExecContext(ctx, "DROP TABLE IF EXISTS "+mart); err != nil {
		_ = swapTx.Rollback()
		return fmt.Errorf("drop previous %s: %w", mart, err)
	}
	if _, err = swapTx.ExecContext(ctx, "ALTER TABLE "+staging+" RENAME TO "+mart); err != nil {
		_ = swapTx.Rollback()
		return fmt.Errorf("swap %s into place: %w", mart, err)
	}
	if err = swapTx.Commit(); err != nil {
		return fmt.Errorf("commit swap for %s: %w", mart, err)
	}

	metrics.RecordMartPublish(mart, start, rowCount)
	logging.Debug().Str("mart", mart).Int("rows", rowCount).Msg("Mart published")
	return nil
}

// martExists reports whether a mart has been published.
func (db *DB) martExists(ctx context.Context, mart string) (bool, error) {
	const query = `
		SELECT count(*) FROM information_schema.tables
		WHERE table_name = ?`

	var n int
	if err := db.conn.QueryRowContext(ctx, query, mart).Scan(&n); err != nil {
		return false, fmt.Errorf("check mart %s: %w", mart, err)
	}
	return n > 0, nil
}

// MartsPublished reports whether a full publish sequence has completed.
// simulation_results is published last, so its presence implies every
// mart has a published version.
func (db *DB) MartsPublished(ctx context.Context) (bool, error) {
	return db.martExists(ctx, MartSimulationResults)
}

// MartRowCount returns the row count of a published mart.
func (db *DB) MartRowCount(ctx context.Context, mart string) (int, error) {
	exists, err := db.martExists(ctx, mart)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%s: %w", mart, ErrMartNotPublished)
	}

	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT count(*) FROM "+mart).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", mart, err)
	}
	return n, nil
}

// PublishZoneCentroids replaces the zone_centroids mart.
func (db *DB) PublishZoneCentroids(ctx context.Context, centroids []models.ZoneCentroid) error {
	return db.publishMart(ctx, MartZoneCentroids, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO "+MartZoneCentroids+stagingSuffix+" VALUES (?, ?, ?)")
		if err != nil {
			return 0, err
		}
		defer closeWithLog(stmt, "statement")

		for _, c := range centroids {
			if _, err := stmt.ExecContext(ctx, c.ZoneKey, c.Latitude, c.Longitude); err != nil {
				return 0, err
			}
		}
		return len(centroids), nil
	})
}

// PublishItemFacts replaces the item_facts mart.
func (db *DB) PublishItemFacts(ctx context.Context, facts []models.ItemFact) error {
	return db.publishMart(ctx, MartItemFacts, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO "+MartItemFacts+stagingSuffix+
				" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return 0, err
		}
		defer closeWithLog(stmt, "statement")

		for _, f := range facts {
			if _, err := stmt.ExecContext(ctx,
				f.OrderID, f.ItemSeq, f.ProductID, f.SellerID, f.CustomerID,
				f.OrderMonth, f.Status, f.PurchasedAt, f.DeliveredAt, f.EstimatedAt,
				f.Price, f.FreightCost.Ptr(),
				f.DistanceKm.Ptr(), f.DeliveryDays.Ptr(), f.DelayDays.Ptr(),
				f.FreightRatio.Ptr(), f.FreeShippingItem,
				f.WeightBand.Ptr(), f.PriceBand, f.CategoryEnglish.Ptr(),
			); err != nil {
				return 0, err
			}
		}
		return len(facts), nil
	})
}

// PublishOrderMetrics replaces the order_metrics mart.
func (db *DB) PublishOrderMetrics(ctx context.Context, orders []models.OrderMetric) error {
	return db.publishMart(ctx, MartOrderMetrics, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO "+MartOrderMetrics+stagingSuffix+
				" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return 0, err
		}
		defer closeWithLog(stmt, "statement")

		for _, o := range orders {
			if _, err := stmt.ExecContext(ctx,
				o.OrderID, o.OrderMonth, o.Status, o.ItemCount,
				o.GMV, o.Freight,
				o.AvgDistanceKm.Ptr(), o.AvgDeliveryDays.Ptr(),
				o.AvgDelayDays.Ptr(), o.AvgFreightRatio.Ptr(),
				o.FreeShippingOrder, o.Satisfaction.Ptr(),
			); err != nil {
				return 0, err
			}
		}
		return len(orders), nil
	})
}

// PublishSellerMonthMetrics replaces the seller_month_metrics mart.
func (db *DB) PublishSellerMonthMetrics(ctx context.Context, rows []models.SellerMonthMetric) error {
	return db.publishMart(ctx, MartSellerMonth, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO "+MartSellerMonth+stagingSuffix+
				" VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return 0, err
		}
		defer closeWithLog(stmt, "statement")

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx,
				r.SellerID, r.OrderMonth, r.OrderCount, r.ItemCount,
				r.GMV, r.Freight,
				r.FreeShippingItemRate.Ptr(), r.HeavyItemRate.Ptr(),
			); err != nil {
				return 0, err
			}
		}
		return len(rows), nil
	})
}

// PublishMonthlyKPIs replaces the monthly_kpi mart.
func (db *DB) PublishMonthlyKPIs(ctx context.Context, rows []models.MonthlyKPI) error {
	return db.publishMart(ctx, MartMonthlyKPI, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO "+MartMonthlyKPI+stagingSuffix+
				" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return 0, err
		}
		defer closeWithLog(stmt, "statement")

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx,
				r.OrderMonth, r.OrderCount, r.GMV, r.Freight,
				r.AvgFreightPerOrder, r.FreeShippingOrderRate.Ptr(),
				r.AvgDistanceKm.Ptr(), r.AvgDeliveryDays.Ptr(),
				r.AvgDelayDays.Ptr(), r.AvgSatisfaction.Ptr(),
			); err != nil {
				return 0, err
			}
		}
		return len(rows), nil
	})
}

// PublishCampaignWindows replaces the campaign_windows mart.
func (db *DB) PublishCampaignWindows(ctx context.Context, rows []models.CampaignWindow) error {
	return db.publishMart(ctx, MartCampaignWindows, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO "+MartCampaignWindows+stagingSuffix+" VALUES (?, ?, ?, ?)")
		if err != nil {
			return 0, err
		}
		defer closeWithLog(stmt, "statement")

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx,
				r.SellerID, r.OrderMonth, r.OrderCount, r.FreeShippingItemRate,
			); err != nil {
				return 0, err
			}
		}
		return len(rows), nil
	})
}

// PublishSimulationResults replaces the simulation_results mart.
func (db *DB) PublishSimulationResults(ctx context.Context, rows []models.SimulationResult) error {
	return db.publishMart(ctx, MartSimulationResults, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO "+MartSimulationResults+stagingSuffix+" VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return 0, err
		}
		defer closeWithLog(stmt, "statement")

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx,
				r.OrderMonth, r.TotalOrders, r.QualifyingOrders,
				r.SubsidyCost, r.ApplyRate,
			); err != nil {
				return 0, err
			}
		}
		return len(rows), nil
	})
}
