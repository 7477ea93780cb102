// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package campaign

import (
	"testing"

	"github.com/freightlab/shipmart/internal/models"
)

func sellerMonth(seller, month string, orders int, rate models.NullFloat) models.SellerMonthMetric {
	return models.SellerMonthMetric{
		SellerID:             seller,
		OrderMonth:           month,
		OrderCount:           orders,
		FreeShippingItemRate: rate,
	}
}

func TestDetectBoundaries(t *testing.T) {
	p := Params{RateThreshold: 0.8, MinOrders: 30}

	tests := []struct {
		name string
		row  models.SellerMonthMetric
		want bool
	}{
		{"exactly at both thresholds", sellerMonth("s1", "2024-01", 30, models.Float(0.8)), true},
		{"above both thresholds", sellerMonth("s1", "2024-02", 100, models.Float(0.95)), true},
		{"one order short", sellerMonth("s1", "2024-03", 29, models.Float(0.8)), false},
		{"rate just under", sellerMonth("s1", "2024-04", 1000, models.Float(0.79)), false},
		{"null rate", sellerMonth("s1", "2024-05", 1000, models.NullFloat{}), false},
		{"zero orders", sellerMonth("s1", "2024-06", 0, models.Float(1.0)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect([]models.SellerMonthMetric{tt.row}, p)
			if (len(got) == 1) != tt.want {
				t.Errorf("Detect(%+v) included=%v, want %v", tt.row, len(got) == 1, tt.want)
			}
		})
	}
}

func TestDetectSortsOutput(t *testing.T) {
	p := Params{RateThreshold: 0.5, MinOrders: 1}
	rows := []models.SellerMonthMetric{
		sellerMonth("s2", "2024-02", 10, models.Float(0.9)),
		sellerMonth("s1", "2024-03", 10, models.Float(0.9)),
		sellerMonth("s1", "2024-01", 10, models.Float(0.9)),
	}

	got := Detect(rows, p)
	if len(got) != 3 {
		t.Fatalf("got %d windows, want 3", len(got))
	}
	wantOrder := []string{"s1/2024-01", "s1/2024-03", "s2/2024-02"}
	for i, w := range got {
		if key := w.SellerID + "/" + w.OrderMonth; key != wantOrder[i] {
			t.Errorf("window %d: got %s, want %s", i, key, wantOrder[i])
		}
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"defaults", Params{RateThreshold: 0.8, MinOrders: 30}, false},
		{"rate of one", Params{RateThreshold: 1.0, MinOrders: 1}, false},
		{"negative rate", Params{RateThreshold: -0.1, MinOrders: 30}, true},
		{"rate above one", Params{RateThreshold: 1.1, MinOrders: 30}, true},
		{"zero min orders", Params{RateThreshold: 0.8, MinOrders: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%+v) = %v, wantErr %v", tt.p, err, tt.wantErr)
			}
		})
	}
}

func TestUplift(t *testing.T) {
	rows := []models.SellerMonthMetric{
		{SellerID: "s1", OrderMonth: "2024-01", OrderCount: 40, GMV: 4000},
		{SellerID: "s1", OrderMonth: "2024-02", OrderCount: 60, GMV: 6000},
		{SellerID: "s1", OrderMonth: "2024-03", OrderCount: 20, GMV: 2000},
		{SellerID: "s1", OrderMonth: "2024-04", OrderCount: 30, GMV: 3000},
		// s2 has only campaign months: no baseline, no uplift row.
		{SellerID: "s2", OrderMonth: "2024-01", OrderCount: 50, GMV: 5000},
		// s3 has no campaign months at all.
		{SellerID: "s3", OrderMonth: "2024-01", OrderCount: 10, GMV: 1000},
	}
	windows := []models.CampaignWindow{
		{SellerID: "s1", OrderMonth: "2024-01"},
		{SellerID: "s1", OrderMonth: "2024-02"},
		{SellerID: "s2", OrderMonth: "2024-01"},
	}

	got := Uplift(rows, windows)
	if len(got) != 1 {
		t.Fatalf("got %d uplift rows, want 1: %+v", len(got), got)
	}
	u := got[0]
	if u.SellerID != "s1" {
		t.Fatalf("got seller %s, want s1", u.SellerID)
	}
	if u.AvgOrdersCampaign != 50 || u.AvgOrdersOffCamp != 25 {
		t.Errorf("order averages: campaign=%v off=%v, want 50/25", u.AvgOrdersCampaign, u.AvgOrdersOffCamp)
	}
	if !u.OrderUpliftPct.Valid || u.OrderUpliftPct.Float64 != 100 {
		t.Errorf("order uplift: %+v, want 100%%", u.OrderUpliftPct)
	}
	if !u.GMVUpliftPct.Valid || u.GMVUpliftPct.Float64 != 100 {
		t.Errorf("gmv uplift: %+v, want 100%%", u.GMVUpliftPct)
	}
	if len(u.CampaignMonths) != 2 || u.CampaignMonths[0] != "2024-01" {
		t.Errorf("campaign months: %v", u.CampaignMonths)
	}
}

func TestUpliftSortedByGMVUplift(t *testing.T) {
	rows := []models.SellerMonthMetric{
		// low: 50% gmv uplift
		{SellerID: "low", OrderMonth: "2024-01", OrderCount: 30, GMV: 3000},
		{SellerID: "low", OrderMonth: "2024-02", OrderCount: 20, GMV: 2000},
		// high: 200% gmv uplift
		{SellerID: "high", OrderMonth: "2024-01", OrderCount: 30, GMV: 3000},
		{SellerID: "high", OrderMonth: "2024-02", OrderCount: 10, GMV: 1000},
		// nullish: zero baseline, null uplift, sorts last
		{SellerID: "nullish", OrderMonth: "2024-01", OrderCount: 30, GMV: 3000},
		{SellerID: "nullish", OrderMonth: "2024-02", OrderCount: 0, GMV: 0},
	}
	windows := []models.CampaignWindow{
		{SellerID: "low", OrderMonth: "2024-01"},
		{SellerID: "high", OrderMonth: "2024-01"},
		{SellerID: "nullish", OrderMonth: "2024-01"},
	}

	got := Uplift(rows, windows)
	want := []string{"high", "low", "nullish"}
	if len(got) != len(want) {
		t.Fatalf("got %d uplift rows, want %d", len(got), len(want))
	}
	for i, sellerID := range want {
		if got[i].SellerID != sellerID {
			t.Errorf("position %d: got %s, want %s", i, got[i].SellerID, sellerID)
		}
	}
}

func TestUpliftZeroBaseline(t *testing.T) {
	rows := []models.SellerMonthMetric{
		{SellerID: "s1", OrderMonth: "2024-01", OrderCount: 40, GMV: 4000},
		{SellerID: "s1", OrderMonth: "2024-02", OrderCount: 0, GMV: 0},
	}
	windows := []models.CampaignWindow{{SellerID: "s1", OrderMonth: "2024-01"}}

	got := Uplift(rows, windows)
	if len(got) != 1 {
		t.Fatalf("got %d uplift rows, want 1", len(got))
	}
	if got[0].OrderUpliftPct.Valid || got[0].GMVUpliftPct.Valid {
		t.Errorf("zero baseline must yield null uplift, got %+v", got[0])
	}
}
