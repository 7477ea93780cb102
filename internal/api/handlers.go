// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package api serves the published marts over a read-only HTTP surface
// and exposes a rebuild trigger. Mart reads never block a rebuild: the
// storage layer swaps complete versions underneath the readers.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/freightlab/shipmart/internal/cache"
	"github.com/freightlab/shipmart/internal/campaign"
	"github.com/freightlab/shipmart/internal/config"
	"github.com/freightlab/shipmart/internal/database"
	"github.com/freightlab/shipmart/internal/models"
)

// Version is the reported service version.
const Version = "1.0.0"

// MartReader is the mart storage surface the handlers read from.
type MartReader interface {
	Ping(ctx context.Context) error
	MartsPublished(ctx context.Context) (bool, error)
	MonthlyKPIs(ctx context.Context) ([]models.MonthlyKPI, error)
	OrderMetrics(ctx context.Context, month string) ([]models.OrderMetric, error)
	SellerMonthMetrics(ctx context.Context, month string) ([]models.SellerMonthMetric, error)
	CampaignWindows(ctx context.Context) ([]models.CampaignWindow, error)
	SimulationResults(ctx context.Context) ([]models.SimulationResult, error)
}

// Rebuilder triggers pipeline rebuilds.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
	LastRebuild() time.Time
}

// Handler serves all HTTP endpoints.
type Handler struct {
	store     MartReader
	rebuilder Rebuilder
	cache     *cache.Cache
	cfg       *config.Config
	startTime time.Time

	// rebuildMu serializes manually triggered rebuilds; a second
	// trigger while one is running is rejected, not queued.
	rebuildMu sync.Mutex
	building  bool
}

// NewHandler constructs the handler set. The cache may be nil to serve
// every request from storage.
func NewHandler(store MartReader, rebuilder Rebuilder, respCache *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		rebuilder: rebuilder,
		cache:     respCache,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// cachedResult keeps the row slice and its length together so a cache
// hit can be served without reflecting on the slice type.
type cachedResult struct {
	rows  interface{}
	count int
}

// serveMart answers from the response cache when possible, otherwise
// fetches from storage and fills the cache. Errors are never cached.
func (h *Handler) serveMart(w http.ResponseWriter, key string, fetch func() (interface{}, int, error)) {
	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			res := v.(cachedResult)
			respondData(w, res.rows, res.count)
			return
		}
	}
	rows, count, err := fetch()
	if err != nil {
		respondMartError(w, err)
		return
	}
	if h.cache != nil {
		h.cache.Set(key, cachedResult{rows: rows, count: count})
	}
	respondData(w, rows, count)
}

// Health reports process, database and mart status. The service is
// degraded until the first rebuild publishes the marts.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dbConnected := h.store.Ping(ctx) == nil

	// Catalog existence check only; health probes must not scan marts.
	martsPublished := false
	if dbConnected {
		published, err := h.store.MartsPublished(ctx)
		martsPublished = err == nil && published
	}

	status := "healthy"
	if !dbConnected || !martsPublished {
		status = "degraded"
	}

	var lastRebuild *time.Time
	if t := h.rebuilder.LastRebuild(); !t.IsZero() {
		lastRebuild = &t
	}

	respondData(w, models.HealthStatus{
		Status:            status,
		Version:           Version,
		DatabaseConnected: dbConnected,
		MartsPublished:    martsPublished,
		LastRebuildTime:   lastRebuild,
		Uptime:            time.Since(h.startTime).Seconds(),
	}, 0)
}

// MonthlyKPIs serves the monthly_kpi mart.
func (h *Handler) MonthlyKPIs(w http.ResponseWriter, r *http.Request) {
	h.serveMart(w, cache.GenerateKey("monthly_kpi", nil), func() (interface{}, int, error) {
		rows, err := h.store.MonthlyKPIs(r.Context())
		return rows, len(rows), err
	})
}

// OrderMetrics serves the order_metrics mart, optionally filtered by
// ?month=.
func (h *Handler) OrderMetrics(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_MONTH",
			"month must look like 2024-01", nil)
		return
	}
	h.serveMart(w, cache.GenerateKey("order_metrics", month), func() (interface{}, int, error) {
		rows, err := h.store.OrderMetrics(r.Context(), month)
		return rows, len(rows), err
	})
}

// SellerMonthMetrics serves the seller_month_metrics mart, optionally
// filtered by ?month=.
func (h *Handler) SellerMonthMetrics(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_MONTH",
			"month must look like 2024-01", nil)
		return
	}
	h.serveMart(w, cache.GenerateKey("seller_month_metrics", month), func() (interface{}, int, error) {
		rows, err := h.store.SellerMonthMetrics(r.Context(), month)
		return rows, len(rows), err
	})
}

// CampaignUplift serves the campaign-versus-baseline seller comparison,
// derived on demand from the seller_month_metrics and campaign_windows
// marts.
func (h *Handler) CampaignUplift(w http.ResponseWriter, r *http.Request) {
	h.serveMart(w, cache.GenerateKey("campaign_uplift", nil), func() (interface{}, int, error) {
		rows, err := h.store.SellerMonthMetrics(r.Context(), "")
		if err != nil {
			return nil, 0, err
		}
		windows, err := h.store.CampaignWindows(r.Context())
		if err != nil {
			return nil, 0, err
		}
		uplift := campaign.Uplift(rows, windows)
		return uplift, len(uplift), nil
	})
}

// CampaignWindows serves the campaign_windows mart.
func (h *Handler) CampaignWindows(w http.ResponseWriter, r *http.Request) {
	h.serveMart(w, cache.GenerateKey("campaign_windows", nil), func() (interface{}, int, error) {
		rows, err := h.store.CampaignWindows(r.Context())
		return rows, len(rows), err
	})
}

// SimulationResults serves the simulation_results mart.
func (h *Handler) SimulationResults(w http.ResponseWriter, r *http.Request) {
	h.serveMart(w, cache.GenerateKey("simulation_results", nil), func() (interface{}, int, error) {
		rows, err := h.store.SimulationResults(r.Context())
		return rows, len(rows), err
	})
}

// Rebuild triggers a synchronous full rebuild. Only one manual rebuild
// runs at a time; concurrent triggers get 409.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	h.rebuildMu.Lock()
	if h.building {
		h.rebuildMu.Unlock()
		respondError(w, http.StatusConflict, "REBUILD_IN_PROGRESS",
			"a rebuild is already running", nil)
		return
	}
	h.building = true
	h.rebuildMu.Unlock()

	defer func() {
		h.rebuildMu.Lock()
		h.building = false
		h.rebuildMu.Unlock()
	}()

	if err := h.rebuilder.Rebuild(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "REBUILD_FAILED",
			"rebuild failed; previously published marts are unchanged", err)
		return
	}
	// New mart versions are live; cached responses are now stale.
	if h.cache != nil {
		h.cache.Flush()
	}
	respondData(w, map[string]string{"result": "rebuilt"}, 0)
}

// respondMartError distinguishes "not rebuilt yet" from real failures.
func respondMartError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrMartNotPublished) {
		respondError(w, http.StatusServiceUnavailable, "MART_NOT_PUBLISHED",
			"mart not published yet; trigger a rebuild", nil)
		return
	}
	respondError(w, http.StatusInternalServerError, "QUERY_FAILED",
		"failed to query mart", err)
}
