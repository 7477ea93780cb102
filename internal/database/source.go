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

// Snapshot reads every source relation in full. A rebuild operates on
// exactly one snapshot so all derived relations stay mutually
// consistent. A structural problem with any source table (for example a
// required column missing from an externally loaded file) surfaces here
// as an error and aborts the rebuild before anything is published.
func (db *DB) Snapshot(ctx context.Context) (*models.SourceSnapshot, error) {
	snap := &models.SourceSnapshot{}

	var err error
	if snap.Orders, err = db.loadOrders(ctx); err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	if snap.Items, err = db.loadOrderItems(ctx); err != nil {
		return nil, fmt.Errorf("load order_items: %w", err)
	}
	if snap.Customers, err = db.loadCustomers(ctx); err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	if snap.Sellers, err = db.loadSellers(ctx); err != nil {
		return nil, fmt.Errorf("load sellers: %w", err)
	}
	if snap.Products, err = db.loadProducts(ctx); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if snap.Translations, err = db.loadTranslations(ctx); err != nil {
		return nil, fmt.Errorf("load category_translation: %w", err)
	}
	if snap.Geolocation, err = db.loadGeolocation(ctx); err != nil {
		return nil, fmt.Errorf("load geolocation: %w", err)
	}
	if snap.Satisfaction, err = db.loadSatisfaction(ctx); err != nil {
		return nil, fmt.Errorf("load satisfaction_records: %w", err)
	}

	return snap, nil
}

func (db *DB) loadOrders(ctx context.Context) ([]models.Order, error) {
	const query = `
		SELECT order_id, customer_id, status,
		       purchased_at, approved_at, delivered_at, estimated_at
		FROM orders`

	var out []models.Order
	err := db.queryAndScan(ctx, query, func(rows *sql.Rows) error {
		var o models.Order
		var status sql.NullString
		var purchased, approved, delivered, estimated sql.NullTime
		if err := rows.Scan(&o.OrderID, &o.CustomerID, &status,
			&purchased, &approved, &delivered, &estimated); err != nil {
			return err
		}
		o.Status = status.String
		if purchased.Valid {
			t := purchased.Time
			o.PurchasedAt = &t
		}
		if approved.Valid {
			t := approved.Time
			o.ApprovedAt = &t
		}
		if delivered.Valid {
			t := delivered.Time
			o.DeliveredAt = &t
		}
		if estimated.Valid {
			t := estimated.Time
			o.EstimatedAt = &t
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

func (db *DB) loadOrderItems(ctx context.Context) ([]models.OrderItem, error) {
	const query = `
		SELECT order_id, item_seq, product_id, seller_id, price, freight_cost
		FROM order_items`

	var out []models.OrderItem
	err := db.queryAndScan(ctx, query, func(rows *sql.Rows) error {
		var it models.OrderItem
		var product, seller sql.NullString
		var price, freight sql.NullFloat64
		if err := rows.Scan(&it.OrderID, &it.ItemSeq, &product, &seller, &price, &freight); err != nil {
			return err
		}
		it.ProductID = product.String
		it.SellerID = seller.String
		it.Price = price.Float64
		if freight.Valid {
			it.FreightCost = models.Float(freight.Float64)
		}
		out = append(out, it)
		return nil
	})
	return out, err
}

func (db *DB) loadCustomers(ctx context.Context) ([]models.Customer, error) {
	const query = `SELECT customer_id, zone_key, city, region FROM customers`

	var out []models.Customer
	err := db.queryAndScan(ctx, query, func(rows *sql.Rows) error {
		var c models.Customer
		var zone, city, region sql.NullString
		if err := rows.Scan(&c.CustomerID, &zone, &city, &region); err != nil {
			return err
		}
		c.ZoneKey = zone.String
		c.City = city.String
		c.Region = region.String
		out = append(out, c)
		return nil
	})
	return out, err
}

func (db *DB) loadSellers(ctx context.Context) ([]models.Seller, error) {
	const query = `SELECT seller_id, zone_key, city, region FROM sellers`

	var out []models.Seller
	err := db.queryAndScan(ctx, query, func(rows *sql.Rows) error {
		var s models.Seller
		var zone, city, region sql.NullString
		if err := rows.Scan(&s.SellerID, &zone, &city, &region); err != nil {
			return err
		}
		s.ZoneKey = zone.String
		s.City = city.String
		s.Region = region.String
		out = append(out, s)
		return nil
	})
	return out, err
}

func (db *DB) loadProducts(ctx context.Context) ([]models.Product, error) {
	const query = `
		SELECT product_id, category, weight_g, length_cm, height_cm, width_cm
		FROM products`

	var out []models.Product
	err := db.queryAndScan(ctx, query, func(rows *sql.Rows) error {
		var p models.Product
		var category sql.NullString
		var weight, length, height, width sql.NullFloat64
		if err := rows.Scan(&p.ProductID, &category, &weight, &length, &height, &width); err != nil {
			return err
		}
		if category.Valid {
			p.Category = models.Str(category.String)
		}
		if weight.Valid {
			p.WeightG = models.Float(weight.Float64)
		}
		if length.Valid {
			p.LengthCm = models.Float(length.Float64)
		}
		if height.Valid {
			p.HeightCm = models.Float(height.Float64)
		}
		if width.Valid {
			p.WidthCm = models.Float(width.Float64)
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (db *DB) loadTranslations(ctx context.Context) (map[string]string, error) {
	const query = `SELECT category, category_english FROM category_translation`

	out := make(map[string]string)
	err := db.queryAndScan(ctx, query, func(rows *sql.Rows) error {
		var category string
		var english sql.NullString
		if err := rows.Scan(&category, &english); err != nil {
			return err
		}
		if english.Valid {
			out[category] = english.String
		}
		return nil
	})
	return out, err
}

func (db *DB) loadGeolocation(ctx context.Context) ([]models.RawPoint, error) {
	const query = `SELECT zone_key, latitude, longitude FROM geolocation`

	var out []models.RawPoint
	err := db.queryAndScan(ctx, query, func(rows *sql.Rows) error {
		var p models.RawPoint
		if err := rows.Scan(&p.ZoneKey, &p.Latitude, &p.Longitude); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (db *DB) loadSatisfaction(ctx context.Context) ([]models.SatisfactionRecord, error) {
	const query = `SELECT review_id, order_id, score FROM satisfaction_records`

	var out []models.SatisfactionRecord
	err := db.queryAndScan(ctx, query, func(rows *sql.Rows) error {
		var r models.SatisfactionRecord
		if err := rows.Scan(&r.ReviewID, &r.OrderID, &r.Score); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// queryAndScan executes a query and scans all rows using the provided
// scanner function. Reduces repetitive query-scan-collect patterns.
func (db *DB) queryAndScan(ctx context.Context, query string, scanner func(*sql.Rows) error) error {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		if err := scanner(rows); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}
	return nil
}
