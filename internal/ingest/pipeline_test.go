// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ingest

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/eventlog"
	"github.com/tomtom215/marquee/internal/events"
)

func TestPipelineRejectsWhenFull(t *testing.T) {
	t.Parallel()

	p := New(testConfig(10000), &recordingAppender{})
	for i := 0; i < 10000; i++ {
		if !p.Click("alice", events.VariantControl, "1") {
			t.Fatalf("Click #%d rejected before capacity", i)
		}
	}
	if p.Click("alice", events.VariantControl, "1") {
		t.Fatal("Click on full queue accepted")
	}
	if got := p.QueueSize(); got != 10000 {
		t.Errorf("QueueSize() = %d, want 10000", got)
	}
	if got := p.QueueCapacity(); got != 10000 {
		t.Errorf("QueueCapacity() = %d, want 10000", got)
	}
	s := p.Stats()
	if s.Enqueued != 10000 || s.Dropped != 1 {
		t.Errorf("Stats() = %+v, want 10000 enqueued 1 dropped", s)
	}
}

func TestPipelinePersistsToEventLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := New(testConfig(100), eventlog.NewStore(dir))
	p.Start()

	for i := 0; i < 3; i++ {
		if !p.Click("alice", events.VariantTreatment, "7") {
			t.Fatal("Click rejected")
		}
	}
	if lost := p.Stop(5 * time.Second); lost != 0 {
		t.Fatalf("Stop() = %d, want 0", lost)
	}

	got, err := eventlog.NewReader(dir).ReadAll(events.KindClick)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("click log has %d rows, want 3", len(got))
	}
	for _, e := range got {
		if e.UserID != "alice" || e.Variant != events.VariantTreatment || e.MovieID != "7" {
			t.Errorf("row = %+v", e)
		}
	}
}

func TestPipelinePreservesPerKindOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := New(testConfig(1000), eventlog.NewStore(dir))
	p.Start()

	for i := 0; i < 200; i++ {
		p.Click("u", events.VariantControl, strconv.Itoa(i))
		p.Conversion("u", events.VariantControl, strconv.Itoa(i), i%5+1)
	}
	if lost := p.Stop(10 * time.Second); lost != 0 {
		t.Fatalf("Stop() = %d, want 0", lost)
	}

	r := eventlog.NewReader(dir)
	for _, kind := range []events.Kind{events.KindClick, events.KindConversion} {
		got, err := r.ReadAll(kind)
		if err != nil {
			t.Fatalf("ReadAll(%s) error = %v", kind, err)
		}
		if len(got) != 200 {
			t.Fatalf("%s log has %d rows, want 200", kind, len(got))
		}
		for i, e := range got {
			if e.MovieID != strconv.Itoa(i) {
				t.Fatalf("%s row %d MovieID = %q, want %d", kind, i, e.MovieID, i)
			}
		}
	}
}

func TestPipelineConcurrentProducers(t *testing.T) {
	t.Parallel()

	a := &recordingAppender{}
	p := New(testConfig(10000), a)
	p.Start()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				p.Click("user"+strconv.Itoa(g), events.VariantControl, strconv.Itoa(i))
			}
		}(g)
	}
	wg.Wait()

	if lost := p.Stop(10 * time.Second); lost != 0 {
		t.Fatalf("Stop() = %d, want 0", lost)
	}
	if got := len(a.events()); got != 2000 {
		t.Fatalf("persisted %d events, want 2000", got)
	}

	// Each producer's events stay in the order it enqueued them.
	next := map[string]int{}
	for _, e := range a.events() {
		want := strconv.Itoa(next[e.UserID])
		if e.MovieID != want {
			t.Fatalf("user %s got movie %s, want %s", e.UserID, e.MovieID, want)
		}
		next[e.UserID]++
	}
}

func TestPipelineRejectsInvalidEvents(t *testing.T) {
	t.Parallel()

	p := New(testConfig(10), &recordingAppender{})

	tests := []struct {
		name string
		ok   bool
	}{
		{"rating too high", p.Conversion("u", events.VariantControl, "1", 6)},
		{"rating too low", p.Conversion("u", events.VariantControl, "1", -1)},
		{"unknown variant", p.Click("u", events.Variant("blue"), "1")},
	}
	for _, tt := range tests {
		if tt.ok {
			t.Errorf("%s: accepted, want rejected", tt.name)
		}
	}
	if s := p.Stats(); s.Rejected != 3 || s.Enqueued != 0 {
		t.Errorf("Stats() = %+v, want 3 rejected", s)
	}
}

func TestPipelineKindHelpers(t *testing.T) {
	t.Parallel()

	a := &recordingAppender{}
	p := New(testConfig(10), a)
	p.Start()

	p.Impression("bob", events.VariantTreatment, []string{"1", "2", "3"})
	p.Engagement("bob", events.VariantTreatment, "2", 1500, "")
	p.Performance("", "/recommendations", 12.345, "GET", 200)
	p.Stop(5 * time.Second)

	got := a.events()
	if len(got) != 3 {
		t.Fatalf("persisted %d events, want 3", len(got))
	}
	if got[0].Kind != events.KindImpression || got[0].MovieID != events.JoinMovieIDs([]string{"1", "2", "3"}) {
		t.Errorf("impression = %+v", got[0])
	}
	if got[1].Kind != events.KindEngagement || events.ParseMetadata(got[1].Metadata)["action"] != events.DefaultEngagementAction {
		t.Errorf("engagement = %+v", got[1])
	}
	if got[2].Variant != events.VariantSystem || got[2].UserID != events.AnonymousUser {
		t.Errorf("performance = %+v", got[2])
	}
}

func TestPipelineOptions(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	sink := &recordingSink{}
	a := &recordingAppender{failOn: map[string]bool{"x": true}}

	p := New(testConfig(10), a,
		WithFailureSink(sink),
		WithObserver(func(e events.Event) {
			mu.Lock()
			seen = append(seen, e.MovieID)
			mu.Unlock()
		}),
	)
	p.Start()
	p.Click("u", events.VariantControl, "1")
	p.Click("u", events.VariantControl, "x")
	p.Stop(5 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "1" {
		t.Errorf("observer saw %v, want [1]", seen)
	}
	if got := len(sink.entries()); got != 1 {
		t.Errorf("sink got %d entries, want 1", got)
	}
	if s := p.Stats(); s.State != "stopped" || s.Persisted != 1 || s.Failed != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}
