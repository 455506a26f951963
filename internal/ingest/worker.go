// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// State is the lifecycle state of a Worker.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Appender persists one event. The eventlog.Store satisfies it.
type Appender interface {
	Append(e events.Event) error
}

// FailureSink receives events whose append failed.
type FailureSink interface {
	Put(e events.Event, cause error) error
}

// DefaultDequeueTimeout is how long the worker blocks before rechecking
// its state.
const DefaultDequeueTimeout = time.Second

// Worker is the single consumer of a Queue.
type Worker struct {
	queue          *Queue
	appender       Appender
	sink           FailureSink
	observer       func(events.Event)
	dequeueTimeout time.Duration
	log            zerolog.Logger

	// dropped is incremented by producers; the loop reports it through
	// dropLimiter so that producers never log.
	dropped      *atomic.Uint64
	dropReported atomic.Uint64
	dropLimiter  *rate.Limiter

	lifecycle sync.Mutex
	state     atomic.Int32
	quit      chan struct{}
	done      chan struct{}

	persisted atomic.Uint64
	failed    atomic.Uint64
	lost      atomic.Uint64
}

// WorkerConfig configures NewWorker.
type WorkerConfig struct {
	DequeueTimeout  time.Duration
	DropLogInterval time.Duration
	Sink            FailureSink
	Observer        func(events.Event)
}

// NewWorker returns a stopped worker consuming q and appending with a.
// dropped is the producer-side drop counter reported by the loop.
func NewWorker(q *Queue, a Appender, dropped *atomic.Uint64, cfg WorkerConfig) *Worker {
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = DefaultDequeueTimeout
	}
	limit := rate.Inf
	if cfg.DropLogInterval > 0 {
		limit = rate.Every(cfg.DropLogInterval)
	}
	if dropped == nil {
		dropped = new(atomic.Uint64)
	}
	w := &Worker{
		queue:          q,
		appender:       a,
		sink:           cfg.Sink,
		observer:       cfg.Observer,
		dequeueTimeout: cfg.DequeueTimeout,
		log:            logging.WithComponent("ingest-worker"),
		dropped:        dropped,
		dropLimiter:    rate.NewLimiter(limit, 1),
	}
	w.state.Store(int32(StateStopped))
	return w
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Start launches the processing loop. Calling Start on a running worker
// is a no-op.
func (w *Worker) Start() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if st := w.State(); st != StateStopped {
		w.log.Info().Str("state", st.String()).Msg("event worker already started")
		return
	}
	if w.done != nil {
		select {
		case <-w.done:
		default:
			w.log.Warn().Msg("previous event worker loop has not exited yet, not starting")
			return
		}
	}

	w.quit = make(chan struct{})
	w.done = make(chan struct{})
	w.state.Store(int32(StateRunning))
	go w.loop(w.quit, w.done)

	w.log.Info().
		Int("queue_capacity", w.queue.Cap()).
		Dur("dequeue_timeout", w.dequeueTimeout).
		Msg("event worker started")
}

// Stop drains the queue for at most deadline and stops the worker. It
// returns the number of events that were still queued when the deadline
// passed; those events are discarded. Stop on a stopped worker returns 0.
func (w *Worker) Stop(deadline time.Duration) int {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.State() != StateRunning {
		return 0
	}
	w.state.Store(int32(StateStopping))
	w.log.Info().
		Int("queued", w.queue.Size()).
		Dur("deadline", deadline).
		Msg("event worker stopping, draining queue")

	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	drainErr := w.queue.DrainAndWait(ctx)
	cancel()

	w.state.Store(int32(StateStopped))
	close(w.quit)

	lost := 0
	if drainErr != nil {
		lost = w.queue.discard()
	}
	if lost > 0 {
		w.lost.Add(uint64(lost))
		metrics.EventsLostOnShutdown.Add(float64(lost))
		w.log.Warn().Int("lost", lost).Dur("deadline", deadline).Msg("shutdown deadline elapsed, queued events lost")
	}
	metrics.EventQueueDepth.Set(float64(w.queue.Size()))

	select {
	case <-w.done:
	case <-time.After(w.dequeueTimeout):
		w.log.Warn().Msg("event worker loop did not exit in time, a persist may still be in progress")
	}

	w.reportDrops(true)
	w.log.Info().
		Uint64("persisted", w.persisted.Load()).
		Uint64("failed", w.failed.Load()).
		Int("lost", lost).
		Msg("event worker stopped")
	return lost
}

// loop keeps consuming while RUNNING and, during STOPPING, until Stop has
// seen the queue drained or the deadline pass.
func (w *Worker) loop(quit, done chan struct{}) {
	defer close(done)

	for w.State() != StateStopped {
		e, ok := w.queue.dequeue(w.dequeueTimeout, quit)
		if ok {
			w.persist(e)
			w.queue.Done()
		}
		metrics.EventQueueDepth.Set(float64(w.queue.Size()))
		w.reportDrops(false)
	}
}

// persist is the single catch-log-continue boundary of the pipeline.
func (w *Worker) persist(e events.Event) {
	start := time.Now()
	err := w.safeAppend(e)
	elapsed := time.Since(start)

	if err == nil {
		w.persisted.Add(1)
		metrics.RecordPersist(string(e.Kind), elapsed, "")
		if w.observer != nil {
			w.observer(e)
		}
		return
	}

	w.failed.Add(1)
	metrics.RecordPersist(string(e.Kind), elapsed, failureReason(err))
	w.log.Error().
		Err(err).
		Str("kind", string(e.Kind)).
		Str("user_id", e.UserID).
		Str("variant", string(e.Variant)).
		Msg("failed to persist event")

	if w.sink == nil {
		return
	}
	if serr := w.sink.Put(e, err); serr != nil {
		w.log.Error().Err(serr).Str("kind", string(e.Kind)).Msg("failed to dead-letter event, event lost")
	}
}

func (w *Worker) safeAppend(e events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPersistPanic, r)
		}
	}()
	return w.appender.Append(e)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, ErrPersistPanic):
		return "panic"
	default:
		return "io"
	}
}

// reportDrops logs the number of events dropped since the last report.
// Reports are rate limited unless force is set.
func (w *Worker) reportDrops(force bool) {
	total := w.dropped.Load()
	prev := w.dropReported.Load()
	if total == prev {
		return
	}
	if !force && !w.dropLimiter.Allow() {
		return
	}
	if !w.dropReported.CompareAndSwap(prev, total) {
		return
	}
	w.log.Warn().
		Uint64("dropped", total-prev).
		Uint64("dropped_total", total).
		Int("queue_capacity", w.queue.Cap()).
		Msg("event queue full, events dropped")
}

// WorkerStats is a snapshot of worker counters.
type WorkerStats struct {
	Persisted uint64
	Failed    uint64
	Lost      uint64
}

// Stats returns the worker counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Persisted: w.persisted.Load(),
		Failed:    w.failed.Load(),
		Lost:      w.lost.Load(),
	}
}
