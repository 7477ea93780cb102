// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freightlab/shipmart/internal/models"
)

// Mart readers. Each reader checks publication first so that callers can
// distinguish "never rebuilt" (ErrMartNotPublished) from an empty mart.

func nullFloat(v sql.NullFloat64) models.NullFloat {
	if !v.Valid {
		return models.NullFloat{}
	}
	return models.Float(v.Float64)
}

func nullInt(v sql.NullInt64) models.NullInt {
	if !v.Valid {
		return models.NullInt{}
	}
	return models.Int(v.Int64)
}

func nullStr(v sql.NullString) models.NullString {
	if !v.Valid {
		return models.NullString{}
	}
	return models.Str(v.String)
}

// queryMart guards a mart read behind the publication check.
func (db *DB) queryMart(ctx context.Context, mart, query string, scanner func(*sql.Rows) error, args ...any) error {
	exists, err := db.martExists(ctx, mart)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", mart, ErrMartNotPublished)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", mart, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		if err := scanner(rows); err != nil {
			return fmt.Errorf("scan %s: %w", mart, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", mart, err)
	}
	return nil
}

// ZoneCentroids reads the published centroid mart keyed by zone.
func (db *DB) ZoneCentroids(ctx context.Context) (map[string]models.ZoneCentroid, error) {
	const query = `SELECT zone_key, latitude, longitude FROM zone_centroids`

	out := make(map[string]models.ZoneCentroid)
	err := db.queryMart(ctx, MartZoneCentroids, query, func(rows *sql.Rows) error {
		var c models.ZoneCentroid
		if err := rows.Scan(&c.ZoneKey, &c.Latitude, &c.Longitude); err != nil {
			return err
		}
		out[c.ZoneKey] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ItemFacts reads the published item fact mart, ordered by key for
// deterministic output.
func (db *DB) ItemFacts(ctx context.Context) ([]models.ItemFact, error) {
	const query = `
		SELECT order_id, item_seq, product_id, seller_id, customer_id,
		       order_month, status, purchased_at, delivered_at, estimated_at,
		       price, freight_cost, distance_km, delivery_days, delay_days,
		       freight_ratio, is_free_shipping_item, weight_band, price_band,
		       category_english
		FROM item_facts
		ORDER BY order_id, item_seq`

	var out []models.ItemFact
	err := db.queryMart(ctx, MartItemFacts, query, func(rows *sql.Rows) error {
		var f models.ItemFact
		var status sql.NullString
		var delivered, estimated sql.NullTime
		var freight, distance, ratio sql.NullFloat64
		var deliveryDays, delayDays sql.NullInt64
		var weightBand, category sql.NullString
		if err := rows.Scan(&f.OrderID, &f.ItemSeq, &f.ProductID, &f.SellerID,
			&f.CustomerID, &f.OrderMonth, &status, &f.PurchasedAt,
			&delivered, &estimated, &f.Price, &freight, &distance,
			&deliveryDays, &delayDays, &ratio, &f.FreeShippingItem,
			&weightBand, &f.PriceBand, &category); err != nil {
			return err
		}
		f.Status = status.String
		if delivered.Valid {
			t := delivered.Time
			f.DeliveredAt = &t
		}
		if estimated.Valid {
			t := estimated.Time
			f.EstimatedAt = &t
		}
		f.FreightCost = nullFloat(freight)
		f.DistanceKm = nullFloat(distance)
		f.DeliveryDays = nullInt(deliveryDays)
		f.DelayDays = nullInt(delayDays)
		f.FreightRatio = nullFloat(ratio)
		f.WeightBand = nullStr(weightBand)
		f.CategoryEnglish = nullStr(category)
		out = append(out, f)
		return nil
	})
	return out, err
}

// OrderMetrics reads the published order mart. An empty month selects
// all months.
func (db *DB) OrderMetrics(ctx context.Context, month string) ([]models.OrderMetric, error) {
	query := `
		SELECT order_id, order_month, status, item_count, order_gmv,
		       order_freight, avg_distance_km, avg_delivery_days,
		       avg_delay_days, avg_freight_ratio, is_free_shipping_order,
		       satisfaction_score
		FROM order_metrics`
	var args []any
	if month != "" {
		query += " WHERE order_month = ?"
		args = append(args, month)
	}
	query += " ORDER BY order_id"

	var out []models.OrderMetric
	err := db.queryMart(ctx, MartOrderMetrics, query, func(rows *sql.Rows) error {
		var o models.OrderMetric
		var status sql.NullString
		var distance, delivery, delay, ratio, satisfaction sql.NullFloat64
		if err := rows.Scan(&o.OrderID, &o.OrderMonth, &status, &o.ItemCount,
			&o.GMV, &o.Freight, &distance, &delivery, &delay, &ratio,
			&o.FreeShippingOrder, &satisfaction); err != nil {
			return err
		}
		o.Status = status.String
		o.AvgDistanceKm = nullFloat(distance)
		o.AvgDeliveryDays = nullFloat(delivery)
		o.AvgDelayDays = nullFloat(delay)
		o.AvgFreightRatio = nullFloat(ratio)
		o.Satisfaction = nullFloat(satisfaction)
		out = append(out, o)
		return nil
	}, args...)
	return out, err
}

// SellerMonthMetrics reads the published seller-month mart. An empty
// month selects all months.
func (db *DB) SellerMonthMetrics(ctx context.Context, month string) ([]models.SellerMonthMetric, error) {
	query := `
		SELECT seller_id, order_month, order_count, item_count, gmv,
		       freight, free_shipping_item_rate, heavy_item_rate
		FROM seller_month_metrics`
	var args []any
	if month != "" {
		query += " WHERE order_month = ?"
		args = append(args, month)
	}
	query += " ORDER BY seller_id, order_month"

	var out []models.SellerMonthMetric
	err := db.queryMart(ctx, MartSellerMonth, query, func(rows *sql.Rows) error {
		var r models.SellerMonthMetric
		var freeRate, heavyRate sql.NullFloat64
		if err := rows.Scan(&r.SellerID, &r.OrderMonth, &r.OrderCount,
			&r.ItemCount, &r.GMV, &r.Freight, &freeRate, &heavyRate); err != nil {
			return err
		}
		r.FreeShippingItemRate = nullFloat(freeRate)
		r.HeavyItemRate = nullFloat(heavyRate)
		out = append(out, r)
		return nil
	}, args...)
	return out, err
}

// MonthlyKPIs reads the published monthly mart ordered by month.
func (db *DB) MonthlyKPIs(ctx context.Context) ([]models.MonthlyKPI, error) {
	const query = `
		SELECT order_month, order_count, gmv, freight, avg_freight_per_order,
		       free_shipping_order_rate, avg_distance_km, avg_delivery_days,
		       avg_delay_days, avg_satisfaction
		FROM monthly_kpi
		ORDER BY order_month`

	var out []models.MonthlyKPI
	err := db.queryMart(ctx, MartMonthlyKPI, query, func(rows *sql.Rows) error {
		var r models.MonthlyKPI
		var freeRate, distance, delivery, delay, satisfaction sql.NullFloat64
		if err := rows.Scan(&r.OrderMonth, &r.OrderCount, &r.GMV, &r.Freight,
			&r.AvgFreightPerOrder, &freeRate, &distance, &delivery,
			&delay, &satisfaction); err != nil {
			return err
		}
		r.FreeShippingOrderRate = nullFloat(freeRate)
		r.AvgDistanceKm = nullFloat(distance)
		r.AvgDeliveryDays = nullFloat(delivery)
		r.AvgDelayDays = nullFloat(delay)
		r.AvgSatisfaction = nullFloat(satisfaction)
		out = append(out, r)
		return nil
	})
	return out, err
}

// CampaignWindows reads the published campaign mart.
func (db *DB) CampaignWindows(ctx context.Context) ([]models.CampaignWindow, error) {
	const query = `
		SELECT seller_id, order_month, order_count, free_shipping_item_rate
		FROM campaign_windows
		ORDER BY seller_id, order_month`

	var out []models.CampaignWindow
	err := db.queryMart(ctx, MartCampaignWindows, query, func(rows *sql.Rows) error {
		var r models.CampaignWindow
		if err := rows.Scan(&r.SellerID, &r.OrderMonth, &r.OrderCount,
			&r.FreeShippingItemRate); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// SimulationResults reads the published simulation mart ordered by month.
func (db *DB) SimulationResults(ctx context.Context) ([]models.SimulationResult, error) {
	const query = `
		SELECT order_month, total_orders, qualifying_orders,
		       subsidy_cost_estimate, apply_rate
		FROM simulation_results
		ORDER BY order_month`

	var out []models.SimulationResult
	err := db.queryMart(ctx, MartSimulationResults, query, func(rows *sql.Rows) error {
		var r models.SimulationResult
		if err := rows.Scan(&r.OrderMonth, &r.TotalOrders, &r.QualifyingOrders,
			&r.SubsidyCost, &r.ApplyRate); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}
