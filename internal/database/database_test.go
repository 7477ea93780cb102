// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/freightlab/shipmart/internal/config"
	"github.com/freightlab/shipmart/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func TestReaderBeforePublish(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.MonthlyKPIs(ctx); !errors.Is(err, ErrMartNotPublished) {
		t.Fatalf("MonthlyKPIs before publish: got %v, want ErrMartNotPublished", err)
	}
	if _, err := db.OrderMetrics(ctx, ""); !errors.Is(err, ErrMartNotPublished) {
		t.Fatalf("OrderMetrics before publish: got %v, want ErrMartNotPublished", err)
	}
}

func TestMartsPublished(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	published, err := db.MartsPublished(ctx)
	if err != nil {
		t.Fatalf("MartsPublished: %v", err)
	}
	if published {
		t.Fatal("MartsPublished before any publish: got true, want false")
	}

	// simulation_results is the last mart in the publish sequence; its
	// presence is what flips the health signal.
	if err := db.PublishSimulationResults(ctx, []models.SimulationResult{
		{OrderMonth: "2024-01", TotalOrders: 2, QualifyingOrders: 1, SubsidyCost: 20, ApplyRate: 0.5},
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	published, err = db.MartsPublished(ctx)
	if err != nil {
		t.Fatalf("MartsPublished: %v", err)
	}
	if !published {
		t.Fatal("MartsPublished after publish: got false, want true")
	}
}

func TestPublishAndReadOrderMetrics(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	in := []models.OrderMetric{
		{
			OrderID:           "order-a",
			OrderMonth:        "2024-01",
			Status:            "delivered",
			ItemCount:         2,
			GMV:               150,
			Freight:           20,
			AvgDistanceKm:     models.Float(10),
			AvgDeliveryDays:   models.Float(4),
			AvgFreightRatio:   models.Float(0.133),
			FreeShippingOrder: false,
			Satisfaction:      models.Float(5),
		},
		{
			OrderID:    "order-b",
			OrderMonth: "2024-02",
			Status:     "delivered",
			ItemCount:  1,
			GMV:        80,
			Freight:    0,
			// Averages stay null when no item resolved a distance or
			// delivery window.
			FreeShippingOrder: true,
		},
	}
	if err := db.PublishOrderMetrics(ctx, in); err != nil {
		t.Fatalf("PublishOrderMetrics: %v", err)
	}

	all, err := db.OrderMetrics(ctx, "")
	if err != nil {
		t.Fatalf("OrderMetrics: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d rows, want 2", len(all))
	}
	if got := all[0]; got.OrderID != "order-a" || got.GMV != 150 || !got.AvgDistanceKm.Valid {
		t.Errorf("order-a round-trip mismatch: %+v", got)
	}
	if got := all[1]; got.AvgDistanceKm.Valid || got.Satisfaction.Valid || !got.FreeShippingOrder {
		t.Errorf("order-b nulls not preserved: %+v", got)
	}

	jan, err := db.OrderMetrics(ctx, "2024-01")
	if err != nil {
		t.Fatalf("OrderMetrics(2024-01): %v", err)
	}
	if len(jan) != 1 || jan[0].OrderID != "order-a" {
		t.Errorf("month filter: got %+v, want only order-a", jan)
	}
}

func TestPublishReplacesPreviousVersion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.PublishMonthlyKPIs(ctx, []models.MonthlyKPI{
		{OrderMonth: "2024-01", OrderCount: 10, GMV: 1000, Freight: 100, AvgFreightPerOrder: 10},
	}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := db.PublishMonthlyKPIs(ctx, []models.MonthlyKPI{
		{OrderMonth: "2024-01", OrderCount: 12, GMV: 1200, Freight: 110, AvgFreightPerOrder: 9.17},
		{OrderMonth: "2024-02", OrderCount: 3, GMV: 200, Freight: 30, AvgFreightPerOrder: 10},
	}); err != nil {
		t.Fatalf("second publish: %v", err)
	}

	rows, err := db.MonthlyKPIs(ctx)
	if err != nil {
		t.Fatalf("MonthlyKPIs: %v", err)
	}
	if len(rows) != 2 || rows[0].OrderCount != 12 {
		t.Errorf("second version not visible: %+v", rows)
	}
}

func TestFailedPublishKeepsLastVersion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.PublishSimulationResults(ctx, []models.SimulationResult{
		{OrderMonth: "2024-01", TotalOrders: 2, QualifyingOrders: 1, SubsidyCost: 20, ApplyRate: 0.5},
	}); err != nil {
		t.Fatalf("initial publish: %v", err)
	}

	errBoom := errors.New("insert failed")
	err := db.publishMart(ctx, MartSimulationResults, func(*sql.Tx) (int, error) {
		return 0, errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("publishMart: got %v, want wrapped insert error", err)
	}

	// The failed rebuild must leave the published mart untouched and must
	// not leave a staging table behind.
	rows, err := db.SimulationResults(ctx)
	if err != nil {
		t.Fatalf("SimulationResults after failed publish: %v", err)
	}
	if len(rows) != 1 || rows[0].SubsidyCost != 20 {
		t.Errorf("previous version lost: %+v", rows)
	}

	staging, err := db.martExists(ctx, MartSimulationResults+stagingSuffix)
	if err != nil {
		t.Fatalf("martExists: %v", err)
	}
	if staging {
		t.Error("staging table left behind after failed publish")
	}
}

func TestZoneCentroidsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	in := []models.ZoneCentroid{
		{ZoneKey: "01001", Latitude: -23.55, Longitude: -46.63},
		{ZoneKey: "20000", Latitude: -22.91, Longitude: -43.17},
	}
	if err := db.PublishZoneCentroids(ctx, in); err != nil {
		t.Fatalf("PublishZoneCentroids: %v", err)
	}

	got, err := db.ZoneCentroids(ctx)
	if err != nil {
		t.Fatalf("ZoneCentroids: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d centroids, want 2", len(got))
	}
	if c := got["01001"]; c.Latitude != -23.55 || c.Longitude != -46.63 {
		t.Errorf("centroid 01001 mismatch: %+v", c)
	}
}

func TestItemFactsNullColumns(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	fact := models.ItemFact{
		OrderID:     "order-a",
		ItemSeq:     1,
		ProductID:   "prod-1",
		SellerID:    "seller-1",
		CustomerID:  "cust-1",
		OrderMonth:  "2024-01",
		Status:      "shipped",
		PurchasedAt: mustTime(t, "2024-01-03T10:00:00Z"),
		Price:       49.9,
		PriceBand:   models.PriceBandLow,
		// Freight, distance, day counts, ratio, weight band and
		// category all unresolved for this row.
	}
	if err := db.PublishItemFacts(ctx, []models.ItemFact{fact}); err != nil {
		t.Fatalf("PublishItemFacts: %v", err)
	}

	facts, err := db.ItemFacts(ctx)
	if err != nil {
		t.Fatalf("ItemFacts: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}
	got := facts[0]
	if got.FreightCost.Valid || got.DistanceKm.Valid || got.DeliveryDays.Valid ||
		got.DelayDays.Valid || got.FreightRatio.Valid || got.WeightBand.Valid ||
		got.CategoryEnglish.Valid {
		t.Errorf("null columns not preserved: %+v", got)
	}
	if got.FreeShippingItem {
		t.Error("unknown freight must not count as free shipping")
	}
	if got.DeliveredAt != nil || got.EstimatedAt != nil {
		t.Errorf("timestamp pointers not preserved: %+v", got)
	}
}

func TestSnapshotReadsSources(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	conn := db.Conn()

	mustExec(t, conn, `INSERT INTO orders VALUES
		('order-a', 'cust-1', 'delivered',
		 TIMESTAMP '2024-01-03 10:00:00', TIMESTAMP '2024-01-03 11:00:00',
		 TIMESTAMP '2024-01-07 09:00:00', TIMESTAMP '2024-01-10 00:00:00'),
		('order-b', 'cust-2', 'shipped',
		 TIMESTAMP '2024-01-05 08:00:00', NULL, NULL, NULL)`)
	mustExec(t, conn, `INSERT INTO order_items VALUES
		('order-a', 1, 'prod-1', 'seller-1', 100, 20),
		('order-a', 2, 'prod-2', 'seller-1', 50, NULL),
		('order-b', 1, 'prod-1', 'seller-2', 80, 0)`)
	mustExec(t, conn, `INSERT INTO customers VALUES ('cust-1', '01001', 'sao paulo', 'SP')`)
	mustExec(t, conn, `INSERT INTO sellers VALUES ('seller-1', '20000', 'rio', 'RJ')`)
	mustExec(t, conn, `INSERT INTO products VALUES ('prod-1', 'moveis', 12000, 50, 30, 40)`)
	mustExec(t, conn, `INSERT INTO category_translation VALUES ('moveis', 'furniture')`)
	mustExec(t, conn, `INSERT INTO geolocation VALUES ('01001', -23.55, -46.63), ('01001', -23.56, -46.64)`)
	mustExec(t, conn, `INSERT INTO satisfaction_records VALUES ('rev-1', 'order-a', 5)`)

	snap, err := db.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if len(snap.Orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(snap.Orders))
	}
	var orderB models.Order
	for _, o := range snap.Orders {
		if o.OrderID == "order-b" {
			orderB = o
		}
	}
	if orderB.DeliveredAt != nil || orderB.EstimatedAt != nil {
		t.Errorf("order-b missing timestamps must stay nil: %+v", orderB)
	}

	if len(snap.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(snap.Items))
	}
	var nullFreight, zeroFreight bool
	for _, it := range snap.Items {
		if it.OrderID == "order-a" && it.ItemSeq == 2 {
			nullFreight = !it.FreightCost.Valid
		}
		if it.OrderID == "order-b" && it.ItemSeq == 1 {
			zeroFreight = it.FreightCost.Valid && it.FreightCost.Float64 == 0
		}
	}
	if !nullFreight {
		t.Error("NULL freight_cost must load as invalid NullFloat")
	}
	if !zeroFreight {
		t.Error("zero freight_cost must load as valid zero, not null")
	}

	if got := snap.Translations["moveis"]; got != "furniture" {
		t.Errorf("translation: got %q, want %q", got, "furniture")
	}
	if len(snap.Geolocation) != 2 {
		t.Errorf("got %d geolocation points, want 2", len(snap.Geolocation))
	}
	if len(snap.Satisfaction) != 1 || snap.Satisfaction[0].Score != 5 {
		t.Errorf("satisfaction: %+v", snap.Satisfaction)
	}
}

func TestMartRowCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.MartRowCount(ctx, MartCampaignWindows); err == nil {
		t.Fatal("MartRowCount before publish: want error")
	}

	if err := db.PublishCampaignWindows(ctx, []models.CampaignWindow{
		{SellerID: "seller-1", OrderMonth: "2024-01", OrderCount: 30, FreeShippingItemRate: 0.9},
	}); err != nil {
		t.Fatalf("PublishCampaignWindows: %v", err)
	}

	n, err := db.MartRowCount(ctx, MartCampaignWindows)
	if err != nil {
		t.Fatalf("MartRowCount: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d rows, want 1", n)
	}
}

func mustExec(t *testing.T, conn *sql.DB, query string) {
	t.Helper()
	if _, err := conn.Exec(query); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return parsed
}
