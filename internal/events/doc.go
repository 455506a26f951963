// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package events defines the interaction record that flows through the
// ingestion pipeline.
//
// # Kinds
//
// Every Event has one of five kinds. Each kind is persisted to its own log
// whose file stem is the plural of the kind:
//
//	impression   -> impressions.csv   (movie_id is a comma-joined id list)
//	click        -> clicks.csv
//	conversion   -> conversions.csv   (rating 1-5)
//	engagement   -> engagements.csv   (metadata dwell_time_ms=...,action=...)
//	performance  -> performances.csv  (metadata endpoint=...,latency_ms=...)
//
// # Columns
//
// All logs share the same header, in fixed order:
//
//	timestamp,user_id,variant,movie_id,rating,metadata
//
// Absent optional fields are written as empty strings. Timestamps are
// RFC 3339 with nanoseconds, in UTC.
//
// # Immutability
//
// Events are values. Construct them with New, which normalizes the user ID
// (empty becomes "anonymous") and validates kind, variant, and rating. Code
// downstream of New never modifies an Event.
package events
