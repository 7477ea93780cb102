// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package pipeline

import "github.com/freightlab/shipmart/internal/models"

// Exclusion rule names, used as metric labels and log fields.
const (
	ExclusionNegativePrice     = "negative_price"
	ExclusionNegativeFreight   = "negative_freight"
	ExclusionOrphanItem        = "orphan_item"
	ExclusionMissingPurchaseTS = "missing_purchase_timestamp"
)

// validateSources filters invalid rows out of the snapshot and counts
// every exclusion per rule. Invalid rows are never silently dropped:
// the counts surface in metrics and the rebuild log.
//
// Orders without a purchase timestamp cannot be placed on the time
// axis and are excluded together with their items. An item referencing
// an order that does not exist at all is a data-integrity violation
// and is excluded as an orphan.
func validateSources(snap *models.SourceSnapshot) (map[string]models.Order, []models.OrderItem, map[string]int) {
	exclusions := map[string]int{
		ExclusionNegativePrice:     0,
		ExclusionNegativeFreight:   0,
		ExclusionOrphanItem:        0,
		ExclusionMissingPurchaseTS: 0,
	}

	known := make(map[string]bool, len(snap.Orders))
	valid := make(map[string]models.Order, len(snap.Orders))
	for _, o := range snap.Orders {
		known[o.OrderID] = true
		if o.PurchasedAt == nil {
			exclusions[ExclusionMissingPurchaseTS]++
			continue
		}
		valid[o.OrderID] = o
	}

	items := make([]models.OrderItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		if !known[it.OrderID] {
			exclusions[ExclusionOrphanItem]++
			continue
		}
		if _, ok := valid[it.OrderID]; !ok {
			// Parent order exists but was excluded for its missing
			// purchase timestamp; its items go with it.
			exclusions[ExclusionMissingPurchaseTS]++
			continue
		}
		switch {
		case it.Price < 0:
			exclusions[ExclusionNegativePrice]++
		case it.FreightCost.Valid && it.FreightCost.Float64 < 0:
			exclusions[ExclusionNegativeFreight]++
		default:
			items = append(items, it)
		}
	}
	return valid, items, exclusions
}
