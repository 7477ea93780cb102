// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package simulate estimates what a free-shipping policy would cost.
// The simulator is a pure function of the order mart and its parameters:
// identical inputs always produce identical rows.
package simulate

import (
	"fmt"
	"sort"

	"github.com/freightlab/shipmart/internal/models"
	"github.com/freightlab/shipmart/internal/validation"
)

// Params describes one candidate policy: orders at or above
// PriceThreshold whose average shipping distance is within DistanceCapKm
// would ship free.
type Params struct {
	PriceThreshold float64 `validate:"min=0"`
	DistanceCapKm  float64 `validate:"gt=0"`
}

// Validate rejects bad parameters before any computation begins.
func (p Params) Validate() error {
	if err := validation.ValidateStruct(p); err != nil {
		return fmt.Errorf("simulation parameters: %w", err)
	}
	return nil
}

// Run evaluates the policy against every order and aggregates per month.
// An order qualifies when order_gmv >= PriceThreshold and its average
// distance is known and within DistanceCapKm; a null distance never
// qualifies, so unresolved geography is costed conservatively. The
// subsidy estimate for a month is the freight the marketplace would
// forgo on its qualifying orders. Output is sorted by month.
func Run(orders []models.OrderMetric, p Params) []models.SimulationResult {
	type acc struct {
		total      int
		qualifying int
		subsidy    float64
	}
	months := make(map[string]*acc)
	for _, o := range orders {
		a := months[o.OrderMonth]
		if a == nil {
			a = &acc{}
			months[o.OrderMonth] = a
		}
		a.total++
		if o.GMV >= p.PriceThreshold && o.AvgDistanceKm.LessEq(p.DistanceCapKm) {
			a.qualifying++
			a.subsidy += o.Freight
		}
	}

	out := make([]models.SimulationResult, 0, len(months))
	for month, a := range months {
		out = append(out, models.SimulationResult{
			OrderMonth:       month,
			TotalOrders:      a.total,
			QualifyingOrders: a.qualifying,
			SubsidyCost:      a.subsidy,
			ApplyRate:        float64(a.qualifying) / float64(a.total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderMonth < out[j].OrderMonth })
	return out
}
