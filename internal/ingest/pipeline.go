// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ingest

import (
	"sync/atomic"
	"time"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// Config configures a Pipeline.
type Config struct {
	QueueCapacity   int
	DequeueTimeout  time.Duration
	DropLogInterval time.Duration
}

// DefaultConfig matches the production defaults.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:   10000,
		DequeueTimeout:  DefaultDequeueTimeout,
		DropLogInterval: time.Second,
	}
}

// Option customizes a Pipeline.
type Option func(*WorkerConfig)

// WithFailureSink hands failed events to sink.
func WithFailureSink(sink FailureSink) Option {
	return func(c *WorkerConfig) { c.Sink = sink }
}

// WithObserver calls fn from the worker after each successful append.
// fn must not block.
func WithObserver(fn func(events.Event)) Option {
	return func(c *WorkerConfig) { c.Observer = fn }
}

// Pipeline owns the queue and worker and is the producer-facing API used
// by HTTP handlers.
type Pipeline struct {
	queue  *Queue
	worker *Worker

	enqueued atomic.Uint64
	dropped  atomic.Uint64
	rejected atomic.Uint64
}

// New builds a stopped pipeline that appends with appender.
func New(cfg Config, appender Appender, opts ...Option) *Pipeline {
	wcfg := WorkerConfig{
		DequeueTimeout:  cfg.DequeueTimeout,
		DropLogInterval: cfg.DropLogInterval,
	}
	for _, opt := range opts {
		opt(&wcfg)
	}

	p := &Pipeline{queue: NewQueue(cfg.QueueCapacity)}
	p.worker = NewWorker(p.queue, appender, &p.dropped, wcfg)
	return p
}

// Start starts the worker.
func (p *Pipeline) Start() {
	p.worker.Start()
}

// Stop drains for at most deadline and returns the number of lost events.
func (p *Pipeline) Stop(deadline time.Duration) int {
	return p.worker.Stop(deadline)
}

// State returns the worker state.
func (p *Pipeline) State() State {
	return p.worker.State()
}

// Record builds an event and enqueues it. It returns false if the event
// was invalid or the queue was full; neither is an error for the caller.
func (p *Pipeline) Record(kind events.Kind, userID string, variant events.Variant, movieID string, rating int, metadata string) bool {
	e, err := events.New(kind, userID, variant, movieID, rating, metadata)
	if err != nil {
		p.rejected.Add(1)
		logging.Debug().Err(err).Str("kind", string(kind)).Msg("rejected invalid event")
		return false
	}
	return p.Enqueue(e)
}

// Enqueue places an already built event on the queue without blocking.
func (p *Pipeline) Enqueue(e events.Event) bool {
	ok := p.queue.Enqueue(e)
	if ok {
		p.enqueued.Add(1)
	} else {
		p.dropped.Add(1)
	}
	metrics.RecordEnqueue(string(e.Kind), ok)
	return ok
}

// Impression records the list of movies shown to a user.
func (p *Pipeline) Impression(userID string, variant events.Variant, movieIDs []string) bool {
	return p.Record(events.KindImpression, userID, variant, events.JoinMovieIDs(movieIDs), 0, "")
}

// Click records a click on a movie.
func (p *Pipeline) Click(userID string, variant events.Variant, movieID string) bool {
	return p.Record(events.KindClick, userID, variant, movieID, 0, "")
}

// Conversion records a 1-5 rating.
func (p *Pipeline) Conversion(userID string, variant events.Variant, movieID string, rating int) bool {
	return p.Record(events.KindConversion, userID, variant, movieID, rating, "")
}

// Engagement records how long a user looked at a movie.
func (p *Pipeline) Engagement(userID string, variant events.Variant, movieID string, dwellMs int64, action string) bool {
	return p.Record(events.KindEngagement, userID, variant, movieID, 0, events.EngagementMetadata(dwellMs, action))
}

// Performance records the latency of one HTTP request.
func (p *Pipeline) Performance(userID, endpoint string, latencyMs float64, method string, status int) bool {
	return p.Record(events.KindPerformance, userID, events.VariantSystem, "", 0,
		events.PerformanceMetadata(endpoint, latencyMs, method, status))
}

// QueueSize returns the number of events waiting to be persisted.
func (p *Pipeline) QueueSize() int {
	return p.queue.Size()
}

// QueueCapacity returns the queue capacity.
func (p *Pipeline) QueueCapacity() int {
	return p.queue.Cap()
}

// Stats is a point-in-time view of the pipeline.
type Stats struct {
	State         string `json:"state"`
	QueueSize     int    `json:"queue_size"`
	QueueCapacity int    `json:"queue_capacity"`
	Enqueued      uint64 `json:"enqueued"`
	Dropped       uint64 `json:"dropped"`
	Rejected      uint64 `json:"rejected"`
	Persisted     uint64 `json:"persisted"`
	Failed        uint64 `json:"failed"`
	Lost          uint64 `json:"lost"`
}

// Stats returns the current counters.
func (p *Pipeline) Stats() Stats {
	ws := p.worker.Stats()
	return Stats{
		State:         p.worker.State().String(),
		QueueSize:     p.queue.Size(),
		QueueCapacity: p.queue.Cap(),
		Enqueued:      p.enqueued.Load(),
		Dropped:       p.dropped.Load(),
		Rejected:      p.rejected.Load(),
		Persisted:     ws.Persisted,
		Failed:        ws.Failed,
		Lost:          ws.Lost,
	}
}
