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

func fact(orderID string, seq int, price float64, freight models.NullFloat) models.ItemFact {
	return models.ItemFact{
		OrderID:     orderID,
		ItemSeq:     seq,
		OrderMonth:  "2024-01",
		Status:      "delivered",
		Price:       price,
		FreightCost: freight,
	}
}

func TestRollupOrdersSumConsistency(t *testing.T) {
	facts := []models.ItemFact{
		fact("order-a", 1, 100, models.Float(12)),
		fact("order-a", 2, 50, models.Float(8)),
		fact("order-b", 1, 80, models.Float(0)),
	}

	orders := rollupOrders(facts, nil)
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}

	byID := map[string]models.OrderMetric{}
	for _, o := range orders {
		byID[o.OrderID] = o
	}

	// GMV and freight are exactly the sums over the order's facts.
	a := byID["order-a"]
	if a.GMV != 150 || a.Freight != 20 || a.ItemCount != 2 {
		t.Errorf("order-a: %+v", a)
	}
	if a.FreeShippingOrder {
		t.Error("order-a has paid freight")
	}

	b := byID["order-b"]
	if b.Freight != 0 || !b.FreeShippingOrder {
		t.Errorf("order-b must be a free-shipping order: %+v", b)
	}
}

func TestRollupOrdersSingleItemFreeShipping(t *testing.T) {
	orders := rollupOrders([]models.ItemFact{fact("order-a", 1, 10, models.Float(0))}, nil)
	if len(orders) != 1 || !orders[0].FreeShippingOrder {
		t.Errorf("single zero-freight item must make a free-shipping order: %+v", orders)
	}
}

func TestRollupOrdersNullAverages(t *testing.T) {
	withDistance := fact("order-a", 1, 10, models.Float(5))
	withDistance.DistanceKm = models.Float(100)
	withDistance.DeliveryDays = models.Int(4)
	noDistance := fact("order-a", 2, 10, models.Float(5))

	orders := rollupOrders([]models.ItemFact{withDistance, noDistance}, nil)
	o := orders[0]

	// The mean skips the null item rather than counting it as zero.
	if !o.AvgDistanceKm.Valid || o.AvgDistanceKm.Float64 != 100 {
		t.Errorf("avg distance: %+v, want 100", o.AvgDistanceKm)
	}
	if !o.AvgDeliveryDays.Valid || o.AvgDeliveryDays.Float64 != 4 {
		t.Errorf("avg delivery days: %+v, want 4", o.AvgDeliveryDays)
	}

	allNull := rollupOrders([]models.ItemFact{fact("order-b", 1, 10, models.NullFloat{})}, nil)
	b := allNull[0]
	if b.AvgDistanceKm.Valid || b.AvgDeliveryDays.Valid || b.AvgDelayDays.Valid || b.AvgFreightRatio.Valid {
		t.Errorf("order with no resolved features must average to null, not zero: %+v", b)
	}
}

func TestRollupOrdersNullFreightContributesNothing(t *testing.T) {
	facts := []models.ItemFact{
		fact("order-a", 1, 100, models.Float(15)),
		fact("order-a", 2, 50, models.NullFloat{}),
	}
	orders := rollupOrders(facts, nil)
	if orders[0].Freight != 15 {
		t.Errorf("freight: %v, want 15 (null contributes 0)", orders[0].Freight)
	}
}

func TestRollupOrdersSatisfactionJoin(t *testing.T) {
	facts := []models.ItemFact{
		fact("order-a", 1, 100, models.Float(10)),
		fact("order-b", 1, 50, models.Float(5)),
	}
	satisfaction := []models.SatisfactionRecord{
		{ReviewID: "r1", OrderID: "order-a", Score: 5},
		{ReviewID: "r2", OrderID: "order-a", Score: 2},
	}

	orders := rollupOrders(facts, satisfaction)
	byID := map[string]models.OrderMetric{}
	for _, o := range orders {
		byID[o.OrderID] = o
	}

	a := byID["order-a"]
	if !a.Satisfaction.Valid || math.Abs(a.Satisfaction.Float64-3.5) > 1e-9 {
		t.Errorf("order-a satisfaction: %+v, want mean 3.5", a.Satisfaction)
	}
	if byID["order-b"].Satisfaction.Valid {
		t.Error("order without reviews must keep a null score")
	}
}

func TestRollupOrdersSorted(t *testing.T) {
	facts := []models.ItemFact{
		fact("order-c", 1, 1, models.Float(1)),
		fact("order-a", 1, 1, models.Float(1)),
		fact("order-b", 1, 1, models.Float(1)),
	}
	orders := rollupOrders(facts, nil)
	for i := 1; i < len(orders); i++ {
		if orders[i-1].OrderID >= orders[i].OrderID {
			t.Fatalf("output not sorted: %+v", orders)
		}
	}
}
