// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// mockService runs until canceled, optionally failing its first few runs.
// Stops are appended to a shared journal so tests can check ordering.
type mockService struct {
	name     string
	starts   atomic.Int32
	failures atomic.Int32
	failN    int32

	journal *stopJournal
}

func newMockService(name string, journal *stopJournal) *mockService {
	return &mockService{name: name, journal: journal}
}

func (m *mockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	if m.failN > 0 && m.failures.Add(1) <= m.failN {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	if m.journal != nil {
		m.journal.record(m.name)
	}
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }

type stopJournal struct {
	mu    sync.Mutex
	names []string
}

func (j *stopJournal) record(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.names = append(j.names, name)
}

func (j *stopJournal) order() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.names...)
}
