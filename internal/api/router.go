// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freightlab/shipmart/internal/config"
	"github.com/freightlab/shipmart/internal/middleware"
)

// NewRouter wires the full route tree.
func NewRouter(handler *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitReqs, window))
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", handler.Health)

		r.Route("/marts", func(r chi.Router) {
			r.Get("/monthly", handler.MonthlyKPIs)
			r.Get("/orders", handler.OrderMetrics)
			r.Get("/seller-months", handler.SellerMonthMetrics)
			r.Get("/campaigns", handler.CampaignWindows)
			r.Get("/campaigns/uplift", handler.CampaignUplift)
			r.Get("/simulation", handler.SimulationResults)
		})

		r.Post("/rebuild", handler.Rebuild)
	})

	return r
}
