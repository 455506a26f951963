// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package deadletter keeps events whose append to the event log failed.

The ingestion worker hands every failed event to a Store through Put. The
events sit in BadgerDB, keyed by time-ordered UUIDs, until an operator
replays them through the pipeline from the admin API:

	store, err := deadletter.Open(deadletter.Config{Path: "data/deadletter"})
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Replay(ctx, func(e events.Event) error {
		if !pipeline.Enqueue(e) {
			return ingest.ErrQueueFull
		}
		return nil
	})

Replay deletes each entry only after fn accepted it and stops at the first
error, so a full queue leaves the remainder in place for the next attempt.

The store is optional. With it disabled a failed append is logged and the
event is dropped.
*/
package deadletter
