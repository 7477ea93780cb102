// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package pipeline

import (
	"sort"

	"github.com/freightlab/shipmart/internal/models"
)

// rollupOrders reduces item facts to one row per order and left-joins
// the averaged satisfaction score. GMV and freight are sums over the
// order's facts and nothing else; there is no second computation path
// that could drift from the item grain. Output is sorted by order id.
func rollupOrders(facts []models.ItemFact, satisfaction []models.SatisfactionRecord) []models.OrderMetric {
	scores := make(map[string]*models.MeanAcc)
	for _, s := range satisfaction {
		acc := scores[s.OrderID]
		if acc == nil {
			acc = &models.MeanAcc{}
			scores[s.OrderID] = acc
		}
		acc.AddFloat(s.Score)
	}

	type orderAcc struct {
		metric   models.OrderMetric
		distance models.MeanAcc
		delivery models.MeanAcc
		delay    models.MeanAcc
		ratio    models.MeanAcc
	}
	orders := make(map[string]*orderAcc)
	for _, f := range facts {
		a := orders[f.OrderID]
		if a == nil {
			a = &orderAcc{metric: models.OrderMetric{
				OrderID:    f.OrderID,
				OrderMonth: f.OrderMonth,
				Status:     f.Status,
			}}
			orders[f.OrderID] = a
		}
		a.metric.ItemCount++
		a.metric.GMV += f.Price
		// Null freight contributes nothing to the order total, same
		// convention as the item-level free-shipping flag.
		a.metric.Freight += f.FreightCost.Or(0)

		// Averages ignore null items; an order with no non-null item
		// stays null for that metric, never zero.
		a.distance.Add(f.DistanceKm)
		a.delivery.Add(f.DeliveryDays.Float())
		a.delay.Add(f.DelayDays.Float())
		a.ratio.Add(f.FreightRatio)
	}

	out := make([]models.OrderMetric, 0, len(orders))
	for orderID, a := range orders {
		m := a.metric
		m.AvgDistanceKm = a.distance.Mean()
		m.AvgDeliveryDays = a.delivery.Mean()
		m.AvgDelayDays = a.delay.Mean()
		m.AvgFreightRatio = a.ratio.Mean()
		m.FreeShippingOrder = m.Freight == 0
		if acc, ok := scores[orderID]; ok {
			m.Satisfaction = acc.Mean()
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}
