// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package main runs the Marquee web server.
//
// Marquee serves movie recommendations to two experiment arms and records
// every impression, click, rating, engagement and request timing through
// an asynchronous ingestion pipeline into per-kind CSV logs. The dashboard
// and /api/metrics read those logs back to compare the arms.
//
// # Startup
//
//  1. Configuration (koanf: defaults, config.yaml, environment variables)
//  2. Event log store, optional circuit breaker and dead-letter store
//  3. Ingestion pipeline, with persisted events fanned out to the live feed
//  4. Sessions, variant assigner, recommender, analytics engine
//  5. Admin basic auth and casbin policy when credentials are configured
//  6. Supervisor tree: data (ingest), messaging (hub), api (http)
//
// # Shutdown
//
// SIGINT or SIGTERM stops the HTTP server first, then drains the event
// queue for events.shutdown_deadline, then closes live-feed clients.
// Events still queued after the deadline are logged as lost.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/marquee/internal/analytics"
	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/authz"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/deadletter"
	"github.com/tomtom215/marquee/internal/eventlog"
	"github.com/tomtom215/marquee/internal/experiment"
	"github.com/tomtom215/marquee/internal/ingest"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
	"github.com/tomtom215/marquee/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Server stopped")
}

//nolint:gocyclo // sequential wiring
func run(cfg *config.Config) error {
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Str("log_dir", cfg.Events.LogDir).
		Str("analytics_engine", cfg.Analytics.Engine).
		Msg("Starting Marquee")

	store := eventlog.NewStore(cfg.Events.LogDir)
	var appender ingest.Appender = store
	if cfg.Breaker.Enabled {
		appender = ingest.NewBreakerAppender(store, ingest.BreakerConfig{
			Name:             "eventlog",
			FailureThreshold: cfg.Breaker.MaxFailures,
			Timeout:          cfg.Breaker.Timeout,
		})
	}

	hub := websocket.NewHub()
	opts := []ingest.Option{ingest.WithObserver(hub.Publish)}

	var dlq *deadletter.Store
	if cfg.DeadLetter.Enabled {
		var err error
		dlq, err = deadletter.Open(deadletter.Config{Path: cfg.DeadLetter.Path})
		if err != nil {
			return fmt.Errorf("open dead-letter store: %w", err)
		}
		defer func() {
			if err := dlq.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing dead-letter store")
			}
		}()
		opts = append(opts, ingest.WithFailureSink(dlq))
		logging.Info().Str("path", cfg.DeadLetter.Path).Int("entries", dlq.Count()).Msg("Dead-letter store opened")
	}

	pipeline := ingest.New(ingest.Config{
		QueueCapacity:   cfg.Events.QueueCapacity,
		DequeueTimeout:  cfg.Events.DequeueTimeout,
		DropLogInterval: cfg.Events.DropLogInterval,
	}, appender, opts...)

	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	assigner, err := experiment.NewAssigner(cfg.Experiment.Hash, cfg.Experiment.Salt)
	if err != nil {
		return fmt.Errorf("variant assigner: %w", err)
	}

	catalog, err := recommend.LoadCatalog(cfg.Recommend.CatalogPath)
	if err != nil {
		return err
	}
	recommender := recommend.NewEngine(catalog, cfg.Recommend.Seed, logging.WithComponent("recommend"))

	engine, err := analytics.NewEngine(cfg.Analytics.Engine, cfg.Events.LogDir)
	if err != nil {
		return fmt.Errorf("analytics engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing analytics engine")
		}
	}()

	results := analytics.NewService(engine, cfg.Analytics.RecentLimit, analytics.WithCacheTTL(cfg.Analytics.CacheTTL))
	defer results.Close()

	deps := api.Deps{
		Config:      cfg,
		Pipeline:    pipeline,
		Sessions:    sessions,
		Assigner:    assigner,
		Recommender: recommender,
		Analytics:   results,
		Hub:         hub,
		DeadLetter:  dlq,
	}
	if cfg.AdminEnabled() {
		if deps.Admin, deps.Enforcer, err = adminAuth(cfg); err != nil {
			return err
		}
		logging.Info().Str("username", cfg.Security.AdminUsername).Msg("Admin endpoints enabled")
	} else {
		logging.Info().Msg("Admin endpoints disabled (no admin credentials configured)")
	}

	handler, err := api.NewHandler(deps)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		// The data layer must outlive its drain deadline.
		ShutdownTimeout: cfg.Server.ShutdownTimeout + cfg.Events.ShutdownDeadline,
	})
	if err != nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	tree.AddDataService(services.NewIngestService(pipeline, cfg.Events.ShutdownDeadline))
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := tree.ServeBackground(context.Background())
	logging.Info().Msg("Supervisor tree started")

	select {
	case <-sigCtx.Done():
		logging.Info().Msg("Shutdown signal received")
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervisor tree stopped: %w", err)
		}
		return nil
	}

	start := time.Now()
	shutdownErr := tree.Shutdown()

	stats := pipeline.Stats()
	logging.Info().
		Uint64("persisted", stats.Persisted).
		Uint64("failed", stats.Failed).
		Uint64("dropped", stats.Dropped).
		Uint64("lost", stats.Lost).
		Dur("took", time.Since(start)).
		Msg("Shutdown complete")

	if shutdownErr != nil {
		if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
			logging.Warn().Int("unstopped", len(report)).Msg("Some services did not stop in time")
		}
		return shutdownErr
	}
	return nil
}

// adminAuth builds the basic-auth gate and the RBAC policy for the admin
// routes. The configured admin is granted the admin role.
func adminAuth(cfg *config.Config) (*auth.BasicAuthManager, *authz.Enforcer, error) {
	admin, err := auth.NewBasicAuthManager(cfg.Security.AdminUsername, cfg.Security.AdminPasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("admin credentials: %w", err)
	}
	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return nil, nil, fmt.Errorf("authorization policy: %w", err)
	}
	if err := enforcer.AddRoleForUser(cfg.Security.AdminUsername, auth.RoleAdmin); err != nil {
		return nil, nil, fmt.Errorf("grant admin role: %w", err)
	}
	return admin, enforcer, nil
}
