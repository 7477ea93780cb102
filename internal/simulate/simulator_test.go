// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package simulate

import (
	"reflect"
	"testing"

	"github.com/freightlab/shipmart/internal/models"
)

func order(id, month string, gmv, freight float64, distance models.NullFloat) models.OrderMetric {
	return models.OrderMetric{
		OrderID:       id,
		OrderMonth:    month,
		GMV:           gmv,
		Freight:       freight,
		AvgDistanceKm: distance,
	}
}

func TestRunScenario(t *testing.T) {
	orders := []models.OrderMetric{
		order("order-a", "2024-01", 150, 20, models.Float(10)),
		order("order-b", "2024-01", 80, 15, models.Float(5)),
	}
	p := Params{PriceThreshold: 120, DistanceCapKm: 15}

	got := Run(orders, p)
	want := []models.SimulationResult{{
		OrderMonth:       "2024-01",
		TotalOrders:      2,
		QualifyingOrders: 1,
		SubsidyCost:      20,
		ApplyRate:        0.5,
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Run() = %+v, want %+v", got, want)
	}
}

func TestRunQualification(t *testing.T) {
	p := Params{PriceThreshold: 100, DistanceCapKm: 50}

	tests := []struct {
		name string
		o    models.OrderMetric
		want bool
	}{
		{"gmv at threshold, distance within cap", order("o", "2024-01", 100, 10, models.Float(50)), true},
		{"gmv below threshold", order("o", "2024-01", 99.99, 10, models.Float(10)), false},
		{"distance above cap", order("o", "2024-01", 500, 10, models.Float(50.01)), false},
		{"null distance never qualifies", order("o", "2024-01", 10000, 10, models.NullFloat{}), false},
		{"zero distance", order("o", "2024-01", 100, 10, models.Float(0)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Run([]models.OrderMetric{tt.o}, p)
			if len(got) != 1 {
				t.Fatalf("got %d rows, want 1", len(got))
			}
			if qualified := got[0].QualifyingOrders == 1; qualified != tt.want {
				t.Errorf("qualified=%v, want %v", qualified, tt.want)
			}
		})
	}
}

func TestRunDeterminism(t *testing.T) {
	orders := []models.OrderMetric{
		order("o1", "2024-02", 150, 20, models.Float(10)),
		order("o2", "2024-01", 80, 15, models.Float(5)),
		order("o3", "2024-01", 300, 30, models.NullFloat{}),
		order("o4", "2024-03", 120, 12, models.Float(40)),
	}
	p := Params{PriceThreshold: 100, DistanceCapKm: 30}

	first := Run(orders, p)
	second := Run(orders, p)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated runs differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].OrderMonth >= first[i].OrderMonth {
			t.Errorf("output not sorted by month: %+v", first)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	got := Run(nil, Params{PriceThreshold: 100, DistanceCapKm: 30})
	if len(got) != 0 {
		t.Errorf("Run(nil) = %+v, want empty", got)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"valid", Params{PriceThreshold: 120, DistanceCapKm: 600}, false},
		{"zero threshold allowed", Params{PriceThreshold: 0, DistanceCapKm: 1}, false},
		{"negative threshold", Params{PriceThreshold: -1, DistanceCapKm: 600}, true},
		{"zero distance cap", Params{PriceThreshold: 120, DistanceCapKm: 0}, true},
		{"negative distance cap", Params{PriceThreshold: 120, DistanceCapKm: -5}, true},
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
