// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package models

import (
	"github.com/goccy/go-json"
)

// Nullable numeric types for mart computation.
//
// The source relations carry optional measures (freight, timestamps,
// coordinates), and every aggregation grain must propagate "unknown"
// without collapsing it to zero. These types make the propagation rules
// explicit instead of relying on a query engine's three-valued logic:
// any inequality comparison with a null operand is false. That is the
// conservative rule the policy simulator depends on (an order with
// unresolved geography never qualifies for simulated free shipping).

// NullFloat is an optional float64.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a valid NullFloat holding v.
func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

// FloatPtr returns a NullFloat from a possibly-nil pointer.
func FloatPtr(p *float64) NullFloat {
	if p == nil {
		return NullFloat{}
	}
	return Float(*p)
}

// GreaterEq reports n >= x. A null operand makes the comparison false.
func (n NullFloat) GreaterEq(x float64) bool {
	return n.Valid && n.Float64 >= x
}

// LessEq reports n <= x. A null operand makes the comparison false.
func (n NullFloat) LessEq(x float64) bool {
	return n.Valid && n.Float64 <= x
}

// Or returns the held value, or fallback when null.
func (n NullFloat) Or(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Float64
}

// Ptr returns a pointer to the value, or nil when null.
// Used for SQL args and JSON-friendly structs.
func (n NullFloat) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// MarshalJSON encodes null for invalid values.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON decodes JSON null as an invalid value.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Float64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// NullInt is an optional int64. Used for day-count measures.
type NullInt struct {
	Int64 int64
	Valid bool
}

// Int returns a valid NullInt holding v.
func Int(v int64) NullInt {
	return NullInt{Int64: v, Valid: true}
}

// Ptr returns a pointer to the value, or nil when null.
func (n NullInt) Ptr() *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// Float converts to NullFloat, preserving nullness.
func (n NullInt) Float() NullFloat {
	if !n.Valid {
		return NullFloat{}
	}
	return Float(float64(n.Int64))
}

// MarshalJSON encodes null for invalid values.
func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int64)
}

// UnmarshalJSON decodes JSON null as an invalid value.
func (n *NullInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullInt{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Int64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// NullString is an optional string, distinct from the empty string.
// Dimension-join misses surface as null attributes, never as "".
type NullString struct {
	String string
	Valid  bool
}

// Str returns a valid NullString holding s.
func Str(s string) NullString {
	return NullString{String: s, Valid: true}
}

// Ptr returns a pointer to the value, or nil when null.
func (n NullString) Ptr() *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

// MarshalJSON encodes null for invalid values.
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.String)
}

// UnmarshalJSON decodes JSON null as an invalid value.
func (n *NullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullString{}
		return nil
	}
	if err := json.Unmarshal(data, &n.String); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MeanAcc accumulates non-null values and produces their arithmetic mean.
// An accumulator that never saw a non-null value yields null, never zero;
// that keeps "no data" distinguishable from "averages to zero" at every
// aggregation grain.
type MeanAcc struct {
	sum float64
	n   int
}

// Add folds a nullable value into the accumulator. Nulls are skipped.
func (a *MeanAcc) Add(v NullFloat) {
	if !v.Valid {
		return
	}
	a.sum += v.Float64
	a.n++
}

// AddFloat folds a known value into the accumulator.
func (a *MeanAcc) AddFloat(v float64) {
	a.sum += v
	a.n++
}

// AddBool folds a 0/1 indicator into the accumulator, so that Mean()
// yields a rate. Rate metrics are averages of indicators by convention,
// keeping their null handling identical to the other averaged measures.
func (a *MeanAcc) AddBool(v bool) {
	if v {
		a.sum++
	}
	a.n++
}

// Mean returns the arithmetic mean of the accumulated values,
// or null when nothing was accumulated.
func (a *MeanAcc) Mean() NullFloat {
	if a.n == 0 {
		return NullFloat{}
	}
	return Float(a.sum / float64(a.n))
}

// Count returns the number of accumulated non-null values.
func (a *MeanAcc) Count() int {
	return a.n
}
