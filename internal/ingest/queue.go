// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/marquee/internal/events"
)

// Queue is a bounded FIFO of events, safe for many producers and one
// consumer. Every successfully enqueued event must be acknowledged with
// Done after it has been processed.
type Queue struct {
	items chan events.Event

	mu         sync.Mutex
	unfinished int
	idle       chan struct{} // closed while unfinished == 0
}

// NewQueue returns a queue holding at most capacity events.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &Queue{
		items: make(chan events.Event, capacity),
		idle:  idle,
	}
}

// Enqueue adds e without blocking. It returns false when the queue is full.
func (q *Queue) Enqueue(e events.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case q.items <- e:
		if q.unfinished == 0 {
			q.idle = make(chan struct{})
		}
		q.unfinished++
		return true
	default:
		return false
	}
}

// Dequeue waits up to timeout for an event. ok is false on timeout.
func (q *Queue) Dequeue(timeout time.Duration) (e events.Event, ok bool) {
	return q.dequeue(timeout, nil)
}

// dequeue is Dequeue that also returns early when quit is closed.
func (q *Queue) dequeue(timeout time.Duration, quit <-chan struct{}) (e events.Event, ok bool) {
	select {
	case e = <-q.items:
		return e, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e = <-q.items:
		return e, true
	case <-timer.C:
		return events.Event{}, false
	case <-quit:
		return events.Event{}, false
	}
}

// Done acknowledges that one dequeued event has been processed.
func (q *Queue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished == 0 {
		return
	}
	q.unfinished--
	if q.unfinished == 0 {
		close(q.idle)
	}
}

// Size is the number of events waiting to be dequeued.
func (q *Queue) Size() int {
	return len(q.items)
}

// Cap is the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.items)
}

// Unfinished is the number of enqueued events not yet acknowledged.
func (q *Queue) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// DrainAndWait blocks until every enqueued event has been acknowledged or
// ctx is done, in which case ctx.Err() is returned.
func (q *Queue) DrainAndWait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// discard removes every waiting event without processing it and returns
// how many were removed. Used once the shutdown deadline has passed.
func (q *Queue) discard() int {
	n := 0
	for {
		select {
		case <-q.items:
			n++
			q.Done()
		default:
			return n
		}
	}
}
