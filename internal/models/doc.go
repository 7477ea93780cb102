// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package models defines the source and derived record types shared by
// the pipeline stages, the mart store, and the HTTP surface, together
// with the nullable numeric types that carry "unknown" through every
// aggregation grain.
package models
