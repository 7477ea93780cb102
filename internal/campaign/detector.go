// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package campaign flags seller-months whose free-shipping behavior looks
// like a deliberate promotion, and measures the order and GMV uplift those
// windows show against the same seller's ordinary months.
package campaign

import (
	"fmt"
	"sort"

	"github.com/freightlab/shipmart/internal/models"
	"github.com/freightlab/shipmart/internal/validation"
)

// Params are the detector thresholds. Both bounds are inclusive.
type Params struct {
	RateThreshold float64 `validate:"min=0,max=1"`
	MinOrders     int     `validate:"min=1"`
}

// Validate rejects out-of-range thresholds before any classification runs.
func (p Params) Validate() error {
	if err := validation.ValidateStruct(p); err != nil {
		return fmt.Errorf("campaign parameters: %w", err)
	}
	return nil
}

// Detect classifies seller-months as campaign-like. A seller-month
// qualifies when its free-shipping item rate is at least RateThreshold
// and its order count is at least MinOrders. A null rate never
// qualifies. Output is sorted by (seller_id, order_month).
func Detect(rows []models.SellerMonthMetric, p Params) []models.CampaignWindow {
	var out []models.CampaignWindow
	for _, r := range rows {
		if !r.FreeShippingItemRate.GreaterEq(p.RateThreshold) {
			continue
		}
		if r.OrderCount < p.MinOrders {
			continue
		}
		out = append(out, models.CampaignWindow{
			SellerID:             r.SellerID,
			OrderMonth:           r.OrderMonth,
			OrderCount:           r.OrderCount,
			FreeShippingItemRate: r.FreeShippingItemRate.Float64,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SellerID != out[j].SellerID {
			return out[i].SellerID < out[j].SellerID
		}
		return out[i].OrderMonth < out[j].OrderMonth
	})
	return out
}
