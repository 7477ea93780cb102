// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package pipeline

import (
	"math"
	"time"

	"github.com/freightlab/shipmart/internal/models"
)

// earthRadiusKm is the mean Earth radius used for great-circle distance.
const earthRadiusKm = 6371.0

// orderMonthLayout formats the month bucket key, e.g. "2024-01".
const orderMonthLayout = "2006-01"

// Haversine returns the great-circle distance in kilometers between two
// coordinates given in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// enrich derives the per-item features from the assembled stream.
// Every feature is null exactly when its inputs are unresolved; a
// partial record never fails, it just carries more nulls.
func enrich(assembled []assembledItem, centroids map[string]models.ZoneCentroid) []models.ItemFact {
	out := make([]models.ItemFact, 0, len(assembled))
	for _, a := range assembled {
		purchase := *a.order.PurchasedAt
		f := models.ItemFact{
			OrderID:         a.item.OrderID,
			ItemSeq:         a.item.ItemSeq,
			ProductID:       a.item.ProductID,
			SellerID:        a.item.SellerID,
			CustomerID:      a.order.CustomerID,
			OrderMonth:      purchase.Format(orderMonthLayout),
			Status:          a.order.Status,
			PurchasedAt:     purchase,
			DeliveredAt:     a.order.DeliveredAt,
			EstimatedAt:     a.order.EstimatedAt,
			Price:           a.item.Price,
			FreightCost:     a.item.FreightCost,
			CategoryEnglish: a.categoryEnglish,
		}

		f.DistanceKm = itemDistance(a, centroids)

		if a.order.DeliveredAt != nil {
			f.DeliveryDays = models.Int(wholeDays(purchase, *a.order.DeliveredAt))
			if a.order.EstimatedAt != nil {
				f.DelayDays = models.Int(wholeDays(*a.order.EstimatedAt, *a.order.DeliveredAt))
			}
		}

		// Null price never divides; null freight has no ratio either.
		if f.Price > 0 && f.FreightCost.Valid {
			f.FreightRatio = models.Float(f.FreightCost.Float64 / f.Price)
		}

		// Unknown freight is not free shipping. The flag asserts a
		// zero charge, and an absent value asserts nothing.
		f.FreeShippingItem = f.FreightCost.Valid && f.FreightCost.Float64 == 0

		f.WeightBand = weightBand(a.product)
		f.PriceBand = priceBand(f.Price)

		out = append(out, f)
	}
	return out
}

// itemDistance is null unless both endpoint centroids resolved.
func itemDistance(a assembledItem, centroids map[string]models.ZoneCentroid) models.NullFloat {
	if a.customer == nil || a.seller == nil {
		return models.NullFloat{}
	}
	from, ok := centroids[a.customer.ZoneKey]
	if !ok {
		return models.NullFloat{}
	}
	to, ok := centroids[a.seller.ZoneKey]
	if !ok {
		return models.NullFloat{}
	}
	return models.Float(Haversine(from.Latitude, from.Longitude, to.Latitude, to.Longitude))
}

// wholeDays counts calendar-free whole days between two instants,
// flooring so that a delivery 12 hours early counts as one day early.
func wholeDays(from, to time.Time) int64 {
	return int64(math.Floor(to.Sub(from).Hours() / 24))
}

// weightBand buckets by product weight in kilograms. Null weight means
// null band, never a default bucket.
func weightBand(p *models.Product) models.NullString {
	if p == nil || !p.WeightG.Valid {
		return models.NullString{}
	}
	kg := p.WeightG.Float64 / 1000
	switch {
	case kg < models.WeightBandMediumMinKg:
		return models.Str(models.WeightBandLight)
	case kg < models.WeightBandHeavyMinKg:
		return models.Str(models.WeightBandMedium)
	default:
		return models.Str(models.WeightBandHeavy)
	}
}

// priceBand buckets by item price. Price is mandatory, so the band
// always resolves.
func priceBand(price float64) string {
	switch {
	case price < models.PriceBandMidMin:
		return models.PriceBandLow
	case price < models.PriceBandHighMin:
		return models.PriceBandMid
	default:
		return models.PriceBandHigh
	}
}
