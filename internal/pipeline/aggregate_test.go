// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package pipeline

import (
	"math"
	"testing"

	"github.com/freightlab/shipmart/internal/models"
)

func sellerFact(seller, orderID, month string, price float64, free bool, band models.NullString) models.ItemFact {
	freight := models.Float(10)
	if free {
		freight = models.Float(0)
	}
	return models.ItemFact{
		OrderID:          orderID,
		SellerID:         seller,
		OrderMonth:       month,
		Price:            price,
		FreightCost:      freight,
		FreeShippingItem: free,
		WeightBand:       band,
	}
}

func TestRollupSellerMonths(t *testing.T) {
	light := models.Str(models.WeightBandLight)
	heavy := models.Str(models.WeightBandHeavy)
	facts := []models.ItemFact{
		sellerFact("s1", "o1", "2024-01", 100, true, heavy),
		sellerFact("s1", "o1", "2024-01", 50, false, light),
		sellerFact("s1", "o2", "2024-01", 80, true, models.NullString{}),
		sellerFact("s1", "o3", "2024-02", 10, false, light),
		sellerFact("s2", "o4", "2024-01", 20, false, light),
	}

	rows := rollupSellerMonths(facts)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(rows), rows)
	}

	r := rows[0] // s1/2024-01 after sorting
	if r.SellerID != "s1" || r.OrderMonth != "2024-01" {
		t.Fatalf("first row: %+v", r)
	}
	if r.OrderCount != 2 {
		t.Errorf("order count: %d, want 2 distinct orders", r.OrderCount)
	}
	if r.ItemCount != 3 || r.GMV != 230 {
		t.Errorf("items/gmv: %+v", r)
	}
	if !r.FreeShippingItemRate.Valid || math.Abs(r.FreeShippingItemRate.Float64-2.0/3.0) > 1e-9 {
		t.Errorf("free rate: %+v, want 2/3", r.FreeShippingItemRate)
	}
	// The heavy rate only counts the two items whose band resolved.
	if !r.HeavyItemRate.Valid || math.Abs(r.HeavyItemRate.Float64-0.5) > 1e-9 {
		t.Errorf("heavy rate: %+v, want 1/2", r.HeavyItemRate)
	}
}

func TestRollupSellerMonthsSkipsUnmatchedSeller(t *testing.T) {
	facts := []models.ItemFact{
		sellerFact("", "o1", "2024-01", 100, false, models.NullString{}),
	}
	if rows := rollupSellerMonths(facts); len(rows) != 0 {
		t.Errorf("items without a seller must be skipped: %+v", rows)
	}
}

func TestRollupSellerMonthsAllBandsNull(t *testing.T) {
	facts := []models.ItemFact{
		sellerFact("s1", "o1", "2024-01", 100, false, models.NullString{}),
	}
	rows := rollupSellerMonths(facts)
	if rows[0].HeavyItemRate.Valid {
		t.Errorf("heavy rate must be null when no band resolved: %+v", rows[0])
	}
}

func TestRollupMonths(t *testing.T) {
	orders := []models.OrderMetric{
		{
			OrderID: "o1", OrderMonth: "2024-01", GMV: 150, Freight: 20,
			AvgDistanceKm: models.Float(10), FreeShippingOrder: false,
			Satisfaction: models.Float(5),
		},
		{
			OrderID: "o2", OrderMonth: "2024-01", GMV: 80, Freight: 0,
			FreeShippingOrder: true,
		},
		{
			OrderID: "o3", OrderMonth: "2024-02", GMV: 60, Freight: 6,
			AvgDistanceKm: models.Float(30), FreeShippingOrder: false,
		},
	}

	kpis := rollupMonths(orders)
	if len(kpis) != 2 {
		t.Fatalf("got %d months, want 2", len(kpis))
	}
	if kpis[0].OrderMonth != "2024-01" || kpis[1].OrderMonth != "2024-02" {
		t.Fatalf("months not sorted: %+v", kpis)
	}

	jan := kpis[0]
	if jan.OrderCount != 2 || jan.GMV != 230 || jan.Freight != 20 {
		t.Errorf("january sums: %+v", jan)
	}
	if jan.AvgFreightPerOrder != 10 {
		t.Errorf("avg freight per order: %v, want 10", jan.AvgFreightPerOrder)
	}
	if !jan.FreeShippingOrderRate.Valid || jan.FreeShippingOrderRate.Float64 != 0.5 {
		t.Errorf("free shipping order rate: %+v, want 0.5", jan.FreeShippingOrderRate)
	}
	// o2 has no resolved distance or satisfaction; the averages cover
	// only the orders that do.
	if !jan.AvgDistanceKm.Valid || jan.AvgDistanceKm.Float64 != 10 {
		t.Errorf("avg distance: %+v, want 10", jan.AvgDistanceKm)
	}
	if !jan.AvgSatisfaction.Valid || jan.AvgSatisfaction.Float64 != 5 {
		t.Errorf("avg satisfaction: %+v, want 5", jan.AvgSatisfaction)
	}
	if jan.AvgDeliveryDays.Valid {
		t.Errorf("no order resolved delivery days, want null: %+v", jan.AvgDeliveryDays)
	}
}
