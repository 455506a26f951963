// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package eventlog persists events to append-only CSV files, one per kind,
// and reads them back for analytics.
//
// # Layout
//
//	<dir>/impressions.csv
//	<dir>/clicks.csv
//	<dir>/conversions.csv
//	<dir>/engagements.csv
//	<dir>/performances.csv
//
// A file is created on the first append of its kind, starting with the
// header row. Files are never truncated or rewritten.
//
// # Writers
//
// Store is not safe for concurrent use. The ingestion worker is the only
// writer in a running process; every append is a single write(2) on a file
// opened with O_APPEND, so a row is either fully present or absent.
//
// # Readers
//
// Reader may run concurrently with the writer. A row that is still being
// appended is never observed half-written because of the single write, and
// rows that fail to parse are skipped with a warning.
package eventlog
