// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package campaign

import (
	"sort"

	"github.com/freightlab/shipmart/internal/models"
)

// Uplift compares each flagged seller's campaign months against their
// remaining months. Sellers with no campaign window, or with nothing but
// campaign windows, have no baseline to compare against and are skipped.
// Output is sorted by gmv uplift, highest first; sellers without a
// computable gmv uplift sort last.
func Uplift(rows []models.SellerMonthMetric, windows []models.CampaignWindow) []models.SellerUplift {
	flagged := make(map[string]map[string]bool)
	for _, w := range windows {
		if flagged[w.SellerID] == nil {
			flagged[w.SellerID] = make(map[string]bool)
		}
		flagged[w.SellerID][w.OrderMonth] = true
	}

	type segment struct {
		months []string
		orders float64
		gmv    float64
		n      int
	}
	camp := make(map[string]*segment)
	off := make(map[string]*segment)
	for _, r := range rows {
		var seg map[string]*segment
		if flagged[r.SellerID][r.OrderMonth] {
			seg = camp
		} else {
			seg = off
		}
		s := seg[r.SellerID]
		if s == nil {
			s = &segment{}
			seg[r.SellerID] = s
		}
		s.months = append(s.months, r.OrderMonth)
		s.orders += float64(r.OrderCount)
		s.gmv += r.GMV
		s.n++
	}

	var out []models.SellerUplift
	for sellerID, c := range camp {
		o := off[sellerID]
		if o == nil {
			continue
		}
		sort.Strings(c.months)
		u := models.SellerUplift{
			SellerID:          sellerID,
			CampaignMonths:    c.months,
			AvgOrdersCampaign: c.orders / float64(c.n),
			AvgOrdersOffCamp:  o.orders / float64(o.n),
			AvgGMVCampaign:    c.gmv / float64(c.n),
			AvgGMVOffCamp:     o.gmv / float64(o.n),
		}
		u.OrderUpliftPct = upliftPct(u.AvgOrdersCampaign, u.AvgOrdersOffCamp)
		u.GMVUpliftPct = upliftPct(u.AvgGMVCampaign, u.AvgGMVOffCamp)
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].GMVUpliftPct, out[j].GMVUpliftPct
		switch {
		case a.Valid && b.Valid && a.Float64 != b.Float64:
			return a.Float64 > b.Float64
		case a.Valid != b.Valid:
			return a.Valid
		default:
			return out[i].SellerID < out[j].SellerID
		}
	})
	return out
}

// upliftPct is null when the baseline is zero, so a seller with an empty
// baseline never reports an infinite uplift.
func upliftPct(campaign, baseline float64) models.NullFloat {
	if baseline == 0 {
		return models.NullFloat{}
	}
	return models.Float((campaign - baseline) / baseline * 100)
}
