// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package models

import "time"

// Derived relations. Every type here is fully recomputed on each rebuild
// and published via staging-table swap; none is incrementally patched.

// ZoneCentroid is the mean coordinate of all raw samples for a zone key.
type ZoneCentroid struct {
	ZoneKey   string  `json:"zone_key"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Weight band thresholds (kilograms) and price band thresholds
// (order-item price). Fixed documented constants, not inferred from data.
const (
	WeightBandMediumMinKg = 2.0  // light < 2kg <= medium
	WeightBandHeavyMinKg  = 10.0 // medium < 10kg <= heavy

	PriceBandMidMin  = 50.0  // low < 50 <= mid
	PriceBandHighMin = 200.0 // mid < 200 <= high
)

// Weight band labels.
const (
	WeightBandLight  = "light"
	WeightBandMedium = "medium"
	WeightBandHeavy  = "heavy"
)

// Price band labels.
const (
	PriceBandLow  = "low"
	PriceBandMid  = "mid"
	PriceBandHigh = "high"
)

// ItemFact is one enriched row per (order_id, item_sequence).
type ItemFact struct {
	OrderID    string `json:"order_id"`
	ItemSeq    int    `json:"item_seq"`
	ProductID  string `json:"product_id"`
	SellerID   string `json:"seller_id"`
	CustomerID string `json:"customer_id"`
	OrderMonth string `json:"order_month"`
	Status     string `json:"status"`

	PurchasedAt time.Time  `json:"purchased_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	EstimatedAt *time.Time `json:"estimated_at,omitempty"`

	Price       float64   `json:"price"`
	FreightCost NullFloat `json:"freight_cost"`

	// Derived features. Each is null exactly when its inputs are
	// unresolved: distance when either centroid is missing, the day
	// counts when a required timestamp is missing, and the freight
	// ratio when price is non-positive.
	DistanceKm       NullFloat  `json:"distance_km"`
	DeliveryDays     NullInt    `json:"delivery_days"`
	DelayDays        NullInt    `json:"delay_days"`
	FreightRatio     NullFloat  `json:"freight_ratio"`
	FreeShippingItem bool       `json:"is_free_shipping_item"`
	WeightBand       NullString `json:"weight_band"`
	PriceBand        string     `json:"price_band"`
	CategoryEnglish  NullString `json:"category_english"`
}

// OrderMetric is one row per order. GMV and freight are exact sums over
// the order's item facts; there is no independent recomputation path.
type OrderMetric struct {
	OrderID    string `json:"order_id"`
	OrderMonth string `json:"order_month"`
	Status     string `json:"status"`
	ItemCount  int    `json:"item_count"`

	GMV     float64 `json:"order_gmv"`
	Freight float64 `json:"order_freight"`

	AvgDistanceKm   NullFloat `json:"avg_distance_km"`
	AvgDeliveryDays NullFloat `json:"avg_delivery_days"`
	AvgDelayDays    NullFloat `json:"avg_delay_days"`
	AvgFreightRatio NullFloat `json:"avg_freight_ratio"`

	FreeShippingOrder bool      `json:"is_free_shipping_order"`
	Satisfaction      NullFloat `json:"satisfaction_score"`
}

// SellerMonthMetric is one row per (seller_id, order_month).
type SellerMonthMetric struct {
	SellerID   string `json:"seller_id"`
	OrderMonth string `json:"order_month"`

	OrderCount int     `json:"order_count"`
	ItemCount  int     `json:"item_count"`
	GMV        float64 `json:"gmv"`
	Freight    float64 `json:"freight"`

	FreeShippingItemRate NullFloat `json:"free_shipping_item_rate"`
	HeavyItemRate        NullFloat `json:"heavy_item_rate"`
}

// MonthlyKPI is one row per order month.
type MonthlyKPI struct {
	OrderMonth string `json:"order_month"`

	OrderCount int     `json:"order_count"`
	GMV        float64 `json:"gmv"`
	Freight    float64 `json:"freight"`

	AvgFreightPerOrder    float64   `json:"avg_freight_per_order"`
	FreeShippingOrderRate NullFloat `json:"free_shipping_order_rate"`
	AvgDistanceKm         NullFloat `json:"avg_distance_km"`
	AvgDeliveryDays       NullFloat `json:"avg_delivery_days"`
	AvgDelayDays          NullFloat `json:"avg_delay_days"`
	AvgSatisfaction       NullFloat `json:"avg_satisfaction"`
}

// CampaignWindow marks a (seller_id, order_month) pair whose free-shipping
// item rate and order volume meet the detector thresholds. The set is used
// only for segmentation; it mutates nothing else.
type CampaignWindow struct {
	SellerID             string  `json:"seller_id"`
	OrderMonth           string  `json:"order_month"`
	OrderCount           int     `json:"order_count"`
	FreeShippingItemRate float64 `json:"free_shipping_item_rate"`
}

// SellerUplift compares a seller's campaign months against their
// non-campaign months. Only sellers with both segments get a row.
type SellerUplift struct {
	SellerID          string    `json:"seller_id"`
	CampaignMonths    []string  `json:"campaign_months"`
	AvgOrdersCampaign float64   `json:"avg_orders_campaign"`
	AvgOrdersOffCamp  float64   `json:"avg_orders_non_campaign"`
	OrderUpliftPct    NullFloat `json:"order_uplift_pct"`
	AvgGMVCampaign    float64   `json:"avg_gmv_campaign"`
	AvgGMVOffCamp     float64   `json:"avg_gmv_non_campaign"`
	GMVUpliftPct      NullFloat `json:"gmv_uplift_pct"`
}

// SimulationResult is one row per order month for a given parameter set.
// Re-running with identical inputs and parameters reproduces identical rows.
type SimulationResult struct {
	OrderMonth string `json:"order_month"`

	TotalOrders      int     `json:"total_orders"`
	QualifyingOrders int     `json:"qualifying_orders"`
	SubsidyCost      float64 `json:"subsidy_cost_estimate"`
	ApplyRate        float64 `json:"apply_rate"`
}
