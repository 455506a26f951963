// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// ErrNotServing is returned by Shutdown before ServeBackground.
var ErrNotServing = errors.New("supervisor tree is not serving")

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long one layer may take to stop. It must
	// exceed the event drain deadline or the data layer is abandoned.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// SupervisorTree runs the process's long-lived services in three layers:
//   - data: the event ingestion worker
//   - messaging: the live-feed hub
//   - api: the HTTP server
//
// Shutdown stops them in the order api, data, messaging, so no request can
// enqueue an event after the queue starts draining and events persisted
// during the drain still reach live-feed clients.
type SupervisorTree struct {
	root      *suture.Supervisor
	data      *suture.Supervisor
	messaging *suture.Supervisor
	api       *suture.Supervisor
	layers    map[*suture.Supervisor]suture.ServiceToken
	logger    *slog.Logger
	config    TreeConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   <-chan error
}

// NewSupervisorTree creates a new supervisor tree with the given configuration.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	if logger == nil {
		return nil, errors.New("supervisor: logger is required")
	}
	defaults := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = defaults.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = defaults.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	// MustHook has a pointer receiver.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	spec := func(hook suture.EventHook) suture.Spec {
		return suture.Spec{
			EventHook:        hook,
			FailureThreshold: config.FailureThreshold,
			FailureDecay:     config.FailureDecay,
			FailureBackoff:   config.FailureBackoff,
			Timeout:          config.ShutdownTimeout,
		}
	}

	// Children inherit the root's hook when added.
	t := &SupervisorTree{
		root:      suture.New("marquee", spec(hook)),
		data:      suture.New("data-layer", spec(nil)),
		messaging: suture.New("messaging-layer", spec(nil)),
		api:       suture.New("api-layer", spec(nil)),
		layers:    make(map[*suture.Supervisor]suture.ServiceToken, 3),
		logger:    logger,
		config:    config,
	}
	for _, layer := range []*suture.Supervisor{t.data, t.messaging, t.api} {
		t.layers[layer] = t.root.Add(layer)
	}
	return t, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddDataService adds the event worker or anything else that owns
// persisted state.
func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.data.Add(svc)
}

// AddMessagingService adds a live-feed component.
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

// AddAPIService adds the HTTP server.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is canceled. Layers stop in no particular
// order; use ServeBackground and Shutdown for an ordered stop.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a goroutine. The returned channel
// receives the root's result once it stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	ctx, cancel := context.WithCancel(ctx)
	done := t.root.ServeBackground(ctx)

	t.mu.Lock()
	t.cancel, t.done = cancel, done
	t.mu.Unlock()
	return done
}

// Shutdown stops the api, data and messaging layers one at a time, then
// the root. Each layer gets ShutdownTimeout; a layer that overruns is
// reported and the next one is stopped anyway.
func (t *SupervisorTree) Shutdown() error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()
	if cancel == nil {
		return ErrNotServing
	}

	var errs []error
	for _, layer := range []*suture.Supervisor{t.api, t.data, t.messaging} {
		start := time.Now()
		err := t.root.RemoveAndWait(t.layers[layer], t.config.ShutdownTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", layer, err))
			t.logger.Warn("layer did not stop in time", "layer", layer.String(), "error", err)
			continue
		}
		t.logger.Info("layer stopped", "layer", layer.String(), "took", time.Since(start))
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// UnstoppedServiceReport lists services that overran ShutdownTimeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
