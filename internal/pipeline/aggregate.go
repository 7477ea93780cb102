// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package pipeline

import (
	"sort"

	"github.com/freightlab/shipmart/internal/models"
)

// rollupSellerMonths reduces item facts to one row per (seller, month).
// Rates are means of 0/1 indicators: the free-shipping rate counts every
// item, while the heavy rate only counts items whose weight band
// resolved, so unknown weights dilute nothing. Items that never matched
// a seller are skipped. Output is sorted by (seller, month).
func rollupSellerMonths(facts []models.ItemFact) []models.SellerMonthMetric {
	type key struct{ seller, month string }
	type acc struct {
		metric    models.SellerMonthMetric
		orders    map[string]bool
		freeRate  models.MeanAcc
		heavyRate models.MeanAcc
	}

	groups := make(map[key]*acc)
	for _, f := range facts {
		if f.SellerID == "" {
			continue
		}
		k := key{f.SellerID, f.OrderMonth}
		a := groups[k]
		if a == nil {
			a = &acc{
				metric: models.SellerMonthMetric{SellerID: f.SellerID, OrderMonth: f.OrderMonth},
				orders: make(map[string]bool),
			}
			groups[k] = a
		}
		a.orders[f.OrderID] = true
		a.metric.ItemCount++
		a.metric.GMV += f.Price
		a.metric.Freight += f.FreightCost.Or(0)
		a.freeRate.AddBool(f.FreeShippingItem)
		if f.WeightBand.Valid {
			a.heavyRate.AddBool(f.WeightBand.String == models.WeightBandHeavy)
		}
	}

	out := make([]models.SellerMonthMetric, 0, len(groups))
	for _, a := range groups {
		m := a.metric
		m.OrderCount = len(a.orders)
		m.FreeShippingItemRate = a.freeRate.Mean()
		m.HeavyItemRate = a.heavyRate.Mean()
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SellerID != out[j].SellerID {
			return out[i].SellerID < out[j].SellerID
		}
		return out[i].OrderMonth < out[j].OrderMonth
	})
	return out
}

// rollupMonths reduces order metrics to one KPI row per month. The
// averaged metrics skip orders where the underlying feature never
// resolved, matching the order-level averaging convention. Output is
// sorted by month.
func rollupMonths(orders []models.OrderMetric) []models.MonthlyKPI {
	type acc struct {
		kpi          models.MonthlyKPI
		freeRate     models.MeanAcc
		distance     models.MeanAcc
		delivery     models.MeanAcc
		delay        models.MeanAcc
		satisfaction models.MeanAcc
	}

	months := make(map[string]*acc)
	for _, o := range orders {
		a := months[o.OrderMonth]
		if a == nil {
			a = &acc{kpi: models.MonthlyKPI{OrderMonth: o.OrderMonth}}
			months[o.OrderMonth] = a
		}
		a.kpi.OrderCount++
		a.kpi.GMV += o.GMV
		a.kpi.Freight += o.Freight
		a.freeRate.AddBool(o.FreeShippingOrder)
		a.distance.Add(o.AvgDistanceKm)
		a.delivery.Add(o.AvgDeliveryDays)
		a.delay.Add(o.AvgDelayDays)
		a.satisfaction.Add(o.Satisfaction)
	}

	out := make([]models.MonthlyKPI, 0, len(months))
	for _, a := range months {
		k := a.kpi
		k.AvgFreightPerOrder = k.Freight / float64(k.OrderCount)
		k.FreeShippingOrderRate = a.freeRate.Mean()
		k.AvgDistanceKm = a.distance.Mean()
		k.AvgDeliveryDays = a.delivery.Mean()
		k.AvgDelayDays = a.delay.Mean()
		k.AvgSatisfaction = a.satisfaction.Mean()
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderMonth < out[j].OrderMonth })
	return out
}
