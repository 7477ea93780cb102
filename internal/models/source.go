// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package models

import "time"

// Source relations. These mirror the read-only input tables loaded by an
// external ingestion step; the pipeline never mutates them.

// RawPoint is one raw geolocation sample. Many samples share a zone key.
type RawPoint struct {
	ZoneKey   string
	Latitude  float64
	Longitude float64
}

// Order is the order header. PurchasedAt is mandatory for everything
// downstream; orders without it are excluded (counted, not dropped
// silently). The remaining timestamps are optional.
type Order struct {
	OrderID     string
	CustomerID  string
	Status      string
	PurchasedAt *time.Time
	ApprovedAt  *time.Time
	DeliveredAt *time.Time
	EstimatedAt *time.Time
}

// OrderItem is one line of an order, keyed by (OrderID, ItemSeq).
type OrderItem struct {
	OrderID     string
	ItemSeq     int
	ProductID   string
	SellerID    string
	Price       float64
	FreightCost NullFloat
}

// Customer is the buyer dimension.
type Customer struct {
	CustomerID string
	ZoneKey    string
	City       string
	Region     string
}

// Seller is the merchant dimension.
type Seller struct {
	SellerID string
	ZoneKey  string
	City     string
	Region   string
}

// Product is the catalog dimension. Weight is in grams as shipped by the
// source system; the enricher converts to kilograms for banding.
type Product struct {
	ProductID string
	Category  NullString
	WeightG   NullFloat
	LengthCm  NullFloat
	HeightCm  NullFloat
	WidthCm   NullFloat
}

// SatisfactionRecord is one satisfaction survey response for an order.
// An order can have several; the sentiment join averages them.
type SatisfactionRecord struct {
	ReviewID string
	OrderID  string
	Score    float64
}

// SourceSnapshot bundles a full read of every source relation.
// A rebuild operates on exactly one snapshot, so all derived relations
// are mutually consistent.
type SourceSnapshot struct {
	Orders       []Order
	Items        []OrderItem
	Customers    []Customer
	Sellers      []Seller
	Products     []Product
	Translations map[string]string // category -> category_english
	Geolocation  []RawPoint
	Satisfaction []SatisfactionRecord
}
