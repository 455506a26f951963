// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package cache provides a small generic TTL cache.
//
// The analytics service keeps its last summary and activity feed here so
// dashboard polling does not rescan the event logs on every request.
package cache
