// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ingest

import "errors"

var (
	// ErrQueueFull reports that the queue rejected an event.
	ErrQueueFull = errors.New("event queue full")

	// ErrPersistPanic wraps a panic recovered from an Appender.
	ErrPersistPanic = errors.New("panic while persisting event")
)
