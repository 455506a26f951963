// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ingest

import (
	"errors"
	"os"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marquee/internal/eventlog"
	"github.com/tomtom215/marquee/internal/events"
)

func TestBreakerAppenderOpensAfterThreshold(t *testing.T) {
	t.Parallel()

	next := &recordingAppender{failOn: map[string]bool{"1": true}}
	b := NewBreakerAppender(next, BreakerConfig{Name: "test", FailureThreshold: 2, Timeout: time.Hour})

	for i := 0; i < 2; i++ {
		if err := b.Append(click(t, "u", "1")); !errors.Is(err, errDiskFull) {
			t.Fatalf("Append() #%d error = %v, want errDiskFull", i, err)
		}
	}
	if got := b.State(events.KindClick); got != "open" {
		t.Fatalf("State() = %q, want open", got)
	}

	err := b.Append(click(t, "u", "1"))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("Append() on open breaker error = %v, want ErrOpenState", err)
	}
	if got := next.callCount(); got != 2 {
		t.Errorf("next called %d times, want 2", got)
	}
}

func TestBreakerAppenderPassesThrough(t *testing.T) {
	t.Parallel()

	next := &recordingAppender{}
	b := NewBreakerAppender(next, BreakerConfig{})
	for i := 0; i < 10; i++ {
		if err := b.Append(click(t, "u", "1")); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if got := b.State(events.KindClick); got != "closed" {
		t.Errorf("State() = %q, want closed", got)
	}
	if got := len(next.events()); got != 10 {
		t.Errorf("next got %d events, want 10", got)
	}
}

func TestBreakerAppenderHalfOpenRecovers(t *testing.T) {
	t.Parallel()

	next := &recordingAppender{failOn: map[string]bool{"bad": true}}
	b := NewBreakerAppender(next, BreakerConfig{FailureThreshold: 1, Timeout: 20 * time.Millisecond})

	_ = b.Append(click(t, "u", "bad"))
	if got := b.State(events.KindClick); got != "open" {
		t.Fatalf("State() = %q, want open", got)
	}

	time.Sleep(40 * time.Millisecond)
	if err := b.Append(click(t, "u", "good")); err != nil {
		t.Fatalf("probe Append() error = %v", err)
	}
	if got := b.State(events.KindClick); got != "closed" {
		t.Errorf("State() after probe = %q, want closed", got)
	}
}

func TestBreakerAppenderIsolatesKinds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A directory where the impressions log belongs makes every impression
	// append fail.
	if err := os.Mkdir(eventlog.Path(dir, events.KindImpression), 0o755); err != nil {
		t.Fatal(err)
	}
	b := NewBreakerAppender(eventlog.NewStore(dir), BreakerConfig{FailureThreshold: 5, Timeout: 30 * time.Second})
	p := New(testConfig(100), b)
	p.Start()

	for i := 0; i < 5; i++ {
		if !p.Impression("alice", events.VariantControl, []string{"1", "2", "3"}) {
			t.Fatal("Impression rejected")
		}
	}
	for i := 0; i < 3; i++ {
		if !p.Click("alice", events.VariantControl, "7") {
			t.Fatal("Click rejected")
		}
	}
	if lost := p.Stop(5 * time.Second); lost != 0 {
		t.Fatalf("Stop() = %d, want 0", lost)
	}

	if got := b.State(events.KindImpression); got != "open" {
		t.Errorf("State(impression) = %q, want open", got)
	}
	if got := b.State(events.KindClick); got != "closed" {
		t.Errorf("State(click) = %q, want closed", got)
	}
	clicks, err := eventlog.NewReader(dir).ReadAll(events.KindClick)
	if err != nil {
		t.Fatalf("ReadAll(click) error = %v", err)
	}
	if len(clicks) != 3 {
		t.Errorf("persisted %d clicks, want 3", len(clicks))
	}
	if s := p.Stats(); s.Persisted != 3 || s.Failed != 5 {
		t.Errorf("Stats() = %+v, want 3 persisted 5 failed", s)
	}
}
