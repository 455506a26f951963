// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package middleware provides the HTTP middleware shared by every route.

  - RequestID: propagates or generates X-Request-ID and seeds the logging
    context with request and correlation IDs.
  - PrometheusMetrics: request count, latency histogram and in-flight gauge,
    labeled by chi route pattern so path parameters do not explode
    cardinality.
  - Performance: sets X-Response-Time-Ms, records a performance event
    through the ingest pipeline for every request, keeps a sliding window
    of per-endpoint latencies, and warns when a request exceeds the slow
    threshold.

All middleware has the func(http.Handler) http.Handler shape used by chi.
*/
package middleware
