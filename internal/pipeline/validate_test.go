// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package pipeline

import (
	"testing"

	"github.com/freightlab/shipmart/internal/models"
)

func TestValidateSources(t *testing.T) {
	snap := &models.SourceSnapshot{
		Orders: []models.Order{
			{OrderID: "order-a", CustomerID: "c1", PurchasedAt: ts("2024-01-01T00:00:00Z")},
			{OrderID: "order-no-ts", CustomerID: "c2"},
		},
		Items: []models.OrderItem{
			{OrderID: "order-a", ItemSeq: 1, Price: 100, FreightCost: models.Float(10)},
			{OrderID: "order-a", ItemSeq: 2, Price: -5, FreightCost: models.Float(10)},
			{OrderID: "order-a", ItemSeq: 3, Price: 50, FreightCost: models.Float(-1)},
			{OrderID: "order-no-ts", ItemSeq: 1, Price: 40},
			{OrderID: "order-missing", ItemSeq: 1, Price: 30},
		},
	}

	orders, items, exclusions := validateSources(snap)

	if len(orders) != 1 {
		t.Fatalf("got %d valid orders, want 1", len(orders))
	}
	if _, ok := orders["order-a"]; !ok {
		t.Error("order-a must survive validation")
	}

	if len(items) != 1 {
		t.Fatalf("got %d valid items, want 1: %+v", len(items), items)
	}
	if items[0].ItemSeq != 1 {
		t.Errorf("surviving item: %+v", items[0])
	}

	want := map[string]int{
		ExclusionNegativePrice:     1,
		ExclusionNegativeFreight:   1,
		ExclusionOrphanItem:        1,
		ExclusionMissingPurchaseTS: 2, // the order plus its item
	}
	for rule, n := range want {
		if exclusions[rule] != n {
			t.Errorf("exclusions[%s] = %d, want %d", rule, exclusions[rule], n)
		}
	}
}

func TestValidateSourcesCleanInput(t *testing.T) {
	snap := &models.SourceSnapshot{
		Orders: []models.Order{
			{OrderID: "order-a", CustomerID: "c1", PurchasedAt: ts("2024-01-01T00:00:00Z")},
		},
		Items: []models.OrderItem{
			{OrderID: "order-a", ItemSeq: 1, Price: 100, FreightCost: models.Float(0)},
			{OrderID: "order-a", ItemSeq: 2, Price: 0},
		},
	}

	_, items, exclusions := validateSources(snap)
	if len(items) != 2 {
		t.Errorf("got %d items, want 2 (zero price and null freight are valid)", len(items))
	}
	for rule, n := range exclusions {
		if n != 0 {
			t.Errorf("exclusions[%s] = %d, want 0", rule, n)
		}
	}
}
