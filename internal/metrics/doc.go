// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package metrics declares the Prometheus collectors exported at /metrics.

# Ingestion Pipeline

  - marquee_events_enqueued_total{kind}: events accepted by the queue
  - marquee_events_dropped_total{kind}: events rejected because the queue was full
  - marquee_events_persisted_total{kind}: rows appended to the event logs
  - marquee_events_persist_failures_total{kind,reason}: appends that failed
  - marquee_events_lost_on_shutdown_total: events still queued at the drain deadline
  - marquee_event_queue_depth: instantaneous queue length
  - marquee_event_persist_duration_seconds: append latency
  - marquee_event_breaker_state: persist circuit breaker (0 closed, 1 half-open, 2 open)
  - marquee_deadletter_entries: events held in the dead-letter store

# HTTP

  - marquee_http_requests_total{method,endpoint,status}
  - marquee_http_request_duration_seconds{method,endpoint}
  - marquee_http_requests_in_flight
  - marquee_http_slow_requests_total{endpoint}

# Experiment

  - marquee_variant_assignments_total{variant}
  - marquee_livefeed_clients

Collectors are registered on the default registry through promauto.
*/
package metrics
