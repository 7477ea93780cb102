// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package pipeline

import "github.com/freightlab/shipmart/internal/models"

// assembledItem is one item joined with its parent order and every
// dimension that resolved. The order join is mandatory; all dimension
// joins are left joins, so any pointer here may be nil.
type assembledItem struct {
	item  models.OrderItem
	order models.Order

	customer *models.Customer
	seller   *models.Seller
	product  *models.Product

	categoryEnglish models.NullString
}

// assemble joins validated items with their orders and dimensions.
// A dimension miss leaves the corresponding field nil and the record in
// the stream; downstream features derived from it come out null.
func assemble(orders map[string]models.Order, items []models.OrderItem, snap *models.SourceSnapshot) []assembledItem {
	customers := make(map[string]models.Customer, len(snap.Customers))
	for _, c := range snap.Customers {
		customers[c.CustomerID] = c
	}
	sellers := make(map[string]models.Seller, len(snap.Sellers))
	for _, s := range snap.Sellers {
		sellers[s.SellerID] = s
	}
	products := make(map[string]models.Product, len(snap.Products))
	for _, p := range snap.Products {
		products[p.ProductID] = p
	}

	out := make([]assembledItem, 0, len(items))
	for _, it := range items {
		order, ok := orders[it.OrderID]
		if !ok {
			// Validation already excluded orphans and timestamp-less
			// parents; nothing else should be missing here.
			continue
		}
		a := assembledItem{item: it, order: order}

		if c, ok := customers[order.CustomerID]; ok {
			a.customer = &c
		}
		if s, ok := sellers[it.SellerID]; ok {
			a.seller = &s
		}
		if p, ok := products[it.ProductID]; ok {
			a.product = &p
			if p.Category.Valid {
				if english, ok := snap.Translations[p.Category.String]; ok {
					a.categoryEnglish = models.Str(english)
				} else {
					// Untranslated categories keep their source name
					// rather than disappearing from category cuts.
					a.categoryEnglish = p.Category
				}
			}
		}
		out = append(out, a)
	}
	return out
}
