// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ingest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/events"
)

var errDiskFull = errors.New("no space left on device")

// recordingAppender keeps every appended event and fails for movie IDs in
// failOn.
type recordingAppender struct {
	mu     sync.Mutex
	got    []events.Event
	failOn map[string]bool
	calls  int
}

func (a *recordingAppender) Append(e events.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.failOn[e.MovieID] {
		return errDiskFull
	}
	a.got = append(a.got, e)
	return nil
}

func (a *recordingAppender) events() []events.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]events.Event, len(a.got))
	copy(out, a.got)
	return out
}

func (a *recordingAppender) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// blockingAppender signals started on its first call and blocks every
// call until release is closed.
type blockingAppender struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newBlockingAppender() *blockingAppender {
	return &blockingAppender{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (a *blockingAppender) Append(events.Event) error {
	a.once.Do(func() { close(a.started) })
	<-a.release
	return nil
}

type panickingAppender struct {
	recordingAppender
}

func (a *panickingAppender) Append(e events.Event) error {
	if e.MovieID == "boom" {
		panic("appender exploded")
	}
	return a.recordingAppender.Append(e)
}

type sinkEntry struct {
	event events.Event
	cause error
}

type recordingSink struct {
	mu  sync.Mutex
	got []sinkEntry
}

func (s *recordingSink) Put(e events.Event, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, sinkEntry{event: e, cause: cause})
	return nil
}

func (s *recordingSink) entries() []sinkEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sinkEntry, len(s.got))
	copy(out, s.got)
	return out
}

func click(t *testing.T, user, movie string) events.Event {
	t.Helper()
	e, err := events.New(events.KindClick, user, events.VariantControl, movie, 0, "")
	if err != nil {
		t.Fatalf("events.New() error = %v", err)
	}
	return e
}

func testConfig(capacity int) Config {
	return Config{
		QueueCapacity:   capacity,
		DequeueTimeout:  10 * time.Millisecond,
		DropLogInterval: 0,
	}
}
