// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package pipeline rebuilds every derived mart from one consistent
// snapshot of the source relations. A rebuild is a directed acyclic
// sequence of stages; each stage fully materializes its output before
// the next reads it, and each mart is published atomically, so a
// failure anywhere leaves every previously published mart intact.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/freightlab/shipmart/internal/campaign"
	"github.com/freightlab/shipmart/internal/config"
	"github.com/freightlab/shipmart/internal/logging"
	"github.com/freightlab/shipmart/internal/metrics"
	"github.com/freightlab/shipmart/internal/models"
	"github.com/freightlab/shipmart/internal/simulate"
)

// Store is the mart storage the runner reads sources from and publishes
// derived relations to.
type Store interface {
	Snapshot(ctx context.Context) (*models.SourceSnapshot, error)
	PublishZoneCentroids(ctx context.Context, rows []models.ZoneCentroid) error
	PublishItemFacts(ctx context.Context, rows []models.ItemFact) error
	PublishOrderMetrics(ctx context.Context, rows []models.OrderMetric) error
	PublishSellerMonthMetrics(ctx context.Context, rows []models.SellerMonthMetric) error
	PublishMonthlyKPIs(ctx context.Context, rows []models.MonthlyKPI) error
	PublishCampaignWindows(ctx context.Context, rows []models.CampaignWindow) error
	PublishSimulationResults(ctx context.Context, rows []models.SimulationResult) error
}

// Runner executes full rebuilds with a fixed parameter set. Parameters
// are bound at construction; nothing is read from shared mutable state
// during a run, so two runners never interfere.
type Runner struct {
	store          Store
	campaignParams campaign.Params
	simParams      simulate.Params

	// rebuildMu serializes entire rebuilds. Scheduler ticks and manual
	// triggers publish through the same staging tables, so two runs must
	// never reach the publish phase at the same time.
	rebuildMu sync.Mutex

	mu          sync.Mutex
	lastSuccess time.Time
}

// NewRunner binds a store and the configured detector and simulator
// parameters.
func NewRunner(store Store, cfg *config.PipelineConfig) *Runner {
	return &Runner{
		store: store,
		campaignParams: campaign.Params{
			RateThreshold: cfg.CampaignRateThreshold,
			MinOrders:     cfg.CampaignMinOrders,
		},
		simParams: simulate.Params{
			PriceThreshold: cfg.SimPriceThreshold,
			DistanceCapKm:  cfg.SimDistanceCapKm,
		},
	}
}

// Rebuild recomputes and republishes every derived mart from a fresh
// source snapshot. Parameter validation happens before any data is
// read, so a misconfigured runner fails as a configuration error, not
// halfway through a rebuild. Rebuilds are serialized: a concurrent
// caller blocks until the running rebuild finishes.
func (r *Runner) Rebuild(ctx context.Context) (err error) {
	r.rebuildMu.Lock()
	defer r.rebuildMu.Unlock()

	start := time.Now()
	defer func() {
		metrics.RecordRebuild(err)
		if err != nil {
			logging.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Rebuild failed")
		}
	}()

	if err = r.campaignParams.Validate(); err != nil {
		return err
	}
	if err = r.simParams.Validate(); err != nil {
		return err
	}

	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read source snapshot: %w", err)
	}
	logging.Info().
		Int("orders", len(snap.Orders)).
		Int("items", len(snap.Items)).
		Int("geolocation_points", len(snap.Geolocation)).
		Msg("Rebuild started")

	stageStart := time.Now()
	resolved := ResolveCentroids(snap.Geolocation)
	metrics.RecordStage("centroids", stageStart, len(resolved))

	stageStart = time.Now()
	orders, items, exclusions := validateSources(snap)
	metrics.RecordStage("validate", stageStart, len(items))
	metrics.RecordExclusions(exclusions)
	for rule, n := range exclusions {
		if n > 0 {
			logging.Warn().Str("rule", rule).Int("count", n).Msg("Rows excluded")
		}
	}

	stageStart = time.Now()
	assembled := assemble(orders, items, snap)
	metrics.RecordStage("assemble", stageStart, len(assembled))

	stageStart = time.Now()
	facts := enrich(assembled, resolved)
	metrics.RecordStage("enrich", stageStart, len(facts))

	stageStart = time.Now()
	orderMetrics := rollupOrders(facts, snap.Satisfaction)
	metrics.RecordStage("order_rollup", stageStart, len(orderMetrics))

	stageStart = time.Now()
	sellerMonths := rollupSellerMonths(facts)
	metrics.RecordStage("seller_month_rollup", stageStart, len(sellerMonths))

	stageStart = time.Now()
	monthly := rollupMonths(orderMetrics)
	metrics.RecordStage("monthly_rollup", stageStart, len(monthly))

	stageStart = time.Now()
	windows := campaign.Detect(sellerMonths, r.campaignParams)
	metrics.RecordStage("campaign_detect", stageStart, len(windows))

	stageStart = time.Now()
	simulation := simulate.Run(orderMetrics, r.simParams)
	metrics.RecordStage("simulate", stageStart, len(simulation))

	// Publication happens only after every stage computed cleanly.
	// Each mart swaps atomically; if one publish fails, the marts after
	// it keep their previous versions and the rebuild reports failure.
	if err = r.store.PublishZoneCentroids(ctx, sortedCentroids(resolved)); err != nil {
		return err
	}
	if err = r.store.PublishItemFacts(ctx, sortedFacts(facts)); err != nil {
		return err
	}
	if err = r.store.PublishOrderMetrics(ctx, orderMetrics); err != nil {
		return err
	}
	if err = r.store.PublishSellerMonthMetrics(ctx, sellerMonths); err != nil {
		return err
	}
	if err = r.store.PublishMonthlyKPIs(ctx, monthly); err != nil {
		return err
	}
	if err = r.store.PublishCampaignWindows(ctx, windows); err != nil {
		return err
	}
	if err = r.store.PublishSimulationResults(ctx, simulation); err != nil {
		return err
	}

	r.mu.Lock()
	r.lastSuccess = time.Now()
	r.mu.Unlock()

	logging.Info().
		Int("item_facts", len(facts)).
		Int("orders", len(orderMetrics)).
		Int("campaign_windows", len(windows)).
		Dur("elapsed", time.Since(start)).
		Msg("Rebuild complete")
	return nil
}

// LastRebuild returns when the last successful rebuild finished, or the
// zero time if none has.
func (r *Runner) LastRebuild() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSuccess
}

func sortedCentroids(centroids map[string]models.ZoneCentroid) []models.ZoneCentroid {
	out := make([]models.ZoneCentroid, 0, len(centroids))
	for _, c := range centroids {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneKey < out[j].ZoneKey })
	return out
}

func sortedFacts(facts []models.ItemFact) []models.ItemFact {
	sort.Slice(facts, func(i, j int) bool {
		if facts[i].OrderID != facts[j].OrderID {
			return facts[i].OrderID < facts[j].OrderID
		}
		return facts[i].ItemSeq < facts[j].ItemSeq
	})
	return facts
}
