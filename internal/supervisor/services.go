// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/freightlab/shipmart/internal/logging"
)

// Rebuilder is the pipeline surface the scheduler drives.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// HTTPService runs an http.Server under supervision. Serve blocks until
// the context is canceled, then shuts the server down gracefully.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps a configured http.Server.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// SchedulerService periodically triggers full rebuilds. A failed
// rebuild is logged and retried at the next tick rather than crashing
// the service; the marts keep their last published versions in between.
type SchedulerService struct {
	rebuilder Rebuilder
	interval  time.Duration
}

// NewSchedulerService creates a scheduler ticking at interval.
func NewSchedulerService(rebuilder Rebuilder, interval time.Duration) *SchedulerService {
	return &SchedulerService{rebuilder: rebuilder, interval: interval}
}

// Serve implements suture.Service. With a non-positive interval the
// scheduler parks until shutdown, so the service tree shape stays the
// same whether or not periodic rebuilds are enabled.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", s.interval).Msg("Rebuild scheduler started")
	for {
		select {
		case <-ticker.C:
			if err := s.rebuilder.Rebuild(ctx); err != nil {
				logging.Error().Err(err).Msg("Scheduled rebuild failed")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *SchedulerService) String() string { return "rebuild-scheduler" }
