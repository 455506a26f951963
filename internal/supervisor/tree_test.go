// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForStarts(t *testing.T, svcs ...*mockService) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for _, s := range svcs {
		for s.starts.Load() == 0 {
			if time.Now().After(deadline) {
				t.Fatalf("%s was not started", s.name)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestNewSupervisorTree(t *testing.T) {
	t.Parallel()

	t.Run("requires a logger", func(t *testing.T) {
		if _, err := NewSupervisorTree(nil, TreeConfig{}); err == nil {
			t.Error("expected error for nil logger")
		}
	})

	t.Run("zero config takes defaults", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("NewSupervisorTree() error = %v", err)
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("config = %+v, want %+v", tree.config, DefaultTreeConfig())
		}
		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("explicit values are kept", func(t *testing.T) {
		tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{FailureThreshold: 2, ShutdownTimeout: time.Second})
		if tree.config.FailureThreshold != 2 || tree.config.ShutdownTimeout != time.Second {
			t.Errorf("config = %+v", tree.config)
		}
	})
}

func TestSupervisorTree_ShutdownOrder(t *testing.T) {
	t.Parallel()

	journal := &stopJournal{}
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})

	data := newMockService("ingest", journal)
	messaging := newMockService("hub", journal)
	api := newMockService("http", journal)
	tree.AddDataService(data)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	tree.ServeBackground(context.Background())
	waitForStarts(t, data, messaging, api)

	if err := tree.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	want := []string{"http", "ingest", "hub"}
	if got := journal.order(); !slices.Equal(got, want) {
		t.Errorf("stop order = %v, want %v", got, want)
	}
}

func TestSupervisorTree_ShutdownBeforeServe(t *testing.T) {
	t.Parallel()

	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err := tree.Shutdown(); !errors.Is(err, ErrNotServing) {
		t.Errorf("Shutdown() error = %v, want ErrNotServing", err)
	}
}

func TestSupervisorTree_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	svc := newMockService("api", nil)
	tree.AddAPIService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- tree.Serve(ctx) }()
	waitForStarts(t, svc)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	t.Parallel()

	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	failing := newMockService("flaky", nil)
	failing.failN = 2
	stable := newMockService("stable", nil)
	tree.AddMessagingService(failing)
	tree.AddAPIService(stable)

	tree.ServeBackground(context.Background())
	defer func() { _ = tree.Shutdown() }()

	deadline := time.Now().Add(2 * time.Second)
	for failing.starts.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("flaky service started %d times, want >= 3", failing.starts.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if stable.starts.Load() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.starts.Load())
	}
}
