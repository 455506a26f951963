// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion pipeline
	EventsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_events_enqueued_total",
			Help: "Events accepted by the ingestion queue",
		},
		[]string{"kind"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_events_dropped_total",
			Help: "Events rejected because the ingestion queue was full",
		},
		[]string{"kind"},
	)

	EventsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_events_persisted_total",
			Help: "Events appended to the per-kind event logs",
		},
		[]string{"kind"},
	)

	EventPersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_events_persist_failures_total",
			Help: "Event appends that failed",
		},
		[]string{"kind", "reason"}, // reason: io, breaker_open, panic
	)

	EventsLostOnShutdown = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_events_lost_on_shutdown_total",
			Help: "Events still queued when the shutdown drain deadline elapsed",
		},
	)

	EventQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_event_queue_depth",
			Help: "Current number of events waiting in the ingestion queue",
		},
	)

	EventPersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marquee_event_persist_duration_seconds",
			Help:    "Time spent appending one event to its log",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	EventBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marquee_event_breaker_state",
			Help: "Persist circuit breaker state per event kind (0=closed, 1=half-open, 2=open)",
		},
		[]string{"kind"},
	)

	DeadLetterEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_deadletter_entries",
			Help: "Events currently held in the dead-letter store",
		},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	SlowRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_http_slow_requests_total",
			Help: "HTTP requests slower than the configured threshold",
		},
		[]string{"endpoint"},
	)

	// Experiment
	VariantAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_variant_assignments_total",
			Help: "Logins by assigned variant",
		},
		[]string{"variant"},
	)

	LiveFeedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marquee_livefeed_clients",
			Help: "Connected live event feed clients",
		},
	)
)

// RecordEnqueue counts one enqueue attempt for kind.
func RecordEnqueue(kind string, accepted bool) {
	if accepted {
		EventsEnqueued.WithLabelValues(kind).Inc()
		return
	}
	EventsDropped.WithLabelValues(kind).Inc()
}

// RecordPersist records the outcome of one append.
func RecordPersist(kind string, duration time.Duration, reason string) {
	EventPersistDuration.Observe(duration.Seconds())
	if reason == "" {
		EventsPersisted.WithLabelValues(kind).Inc()
		return
	}
	EventPersistFailures.WithLabelValues(kind, reason).Inc()
}

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
