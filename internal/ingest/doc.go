// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package ingest is the asynchronous event-ingestion pipeline: a bounded
// queue filled by request handlers and drained by a single background
// worker that appends each event to its per-kind log.
//
// # Flow
//
//	handler -> Pipeline.Record -> Queue.Enqueue (non-blocking)
//	                                   |
//	                     Worker loop: Dequeue(1s) -> persist -> Done
//
// Producers never touch storage. Enqueue either places the event in the
// buffer or reports false when the buffer is at capacity; it never waits.
// The worker is the only writer of the event logs, so per-kind append order
// equals dequeue order.
//
// # Worker States
//
//	STOPPED -> RUNNING -> STOPPING -> STOPPED
//
// Start is a no-op while the worker is running. Stop(deadline) moves to
// STOPPING, waits until every queued event has been persisted or the
// deadline passes, and returns the number of events that were still queued
// and are therefore lost. A second Stop returns 0 immediately.
//
// # Failure Policy
//
// A failed append is logged, counted, optionally handed to a FailureSink
// (the dead-letter store), and the loop continues. Panics raised by the
// appender are recovered at the same boundary. No other part of the
// pipeline suppresses errors.
//
// # Ownership
//
// A Pipeline is an ordinary value built by main and passed to the HTTP
// handlers and to the supervisor. There is no package-level queue and
// nothing starts on import.
package ingest
