// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package metrics provides Prometheus instrumentation for:
//   - pipeline stage durations and row counts
//   - per-rule exclusion counters (no row is ever dropped silently)
//   - mart publication (row gauges, last successful rebuild timestamp)
//   - HTTP endpoint latency
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipmart_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	StageRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shipmart_stage_output_rows",
			Help: "Rows produced by each pipeline stage in the last rebuild",
		},
		[]string{"stage"},
	)

	RowsExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipmart_rows_excluded_total",
			Help: "Rows excluded from the pipeline, labeled by validation rule",
		},
		[]string{"rule"},
	)

	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipmart_rebuilds_total",
			Help: "Completed rebuild attempts by outcome",
		},
		[]string{"outcome"}, // "success" or "failure"
	)

	LastRebuildTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shipmart_last_rebuild_timestamp_seconds",
			Help: "Unix timestamp of the last successful rebuild",
		},
	)

	// Mart store metrics
	MartRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shipmart_mart_rows",
			Help: "Row count of each published mart",
		},
		[]string{"mart"},
	)

	MartPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipmart_mart_publish_duration_seconds",
			Help:    "Duration of staging-write plus swap per mart",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mart"},
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipmart_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RecordStage records a stage's duration and output row count.
func RecordStage(stage string, start time.Time, rows int) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	StageRows.WithLabelValues(stage).Set(float64(rows))
}

// RecordExclusions adds per-rule exclusion counts from a rebuild.
func RecordExclusions(counts map[string]int) {
	for rule, n := range counts {
		RowsExcluded.WithLabelValues(rule).Add(float64(n))
	}
}

// RecordMartPublish records a mart publication.
func RecordMartPublish(mart string, start time.Time, rows int) {
	MartPublishDuration.WithLabelValues(mart).Observe(time.Since(start).Seconds())
	MartRows.WithLabelValues(mart).Set(float64(rows))
}

// RecordRebuild records a rebuild outcome.
func RecordRebuild(err error) {
	if err != nil {
		RebuildsTotal.WithLabelValues("failure").Inc()
		return
	}
	RebuildsTotal.WithLabelValues("success").Inc()
	LastRebuildTimestamp.SetToCurrentTime()
}

// RecordHTTPRequest records an HTTP request observation.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}
