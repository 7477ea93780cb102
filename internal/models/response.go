// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package models

import "time"

// APIResponse is the envelope for every HTTP response.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata carries response bookkeeping.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count,omitempty"`
}

// APIError is a machine-readable error code with a human message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthStatus reports process and mart health.
type HealthStatus struct {
	Status            string     `json:"status"`
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	MartsPublished    bool       `json:"marts_published"`
	LastRebuildTime   *time.Time `json:"last_rebuild_time,omitempty"`
	Uptime            float64    `json:"uptime_seconds"`
}
