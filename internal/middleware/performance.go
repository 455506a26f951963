// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package middleware

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// ResponseTimeHeader reports handler latency in milliseconds.
const ResponseTimeHeader = "X-Response-Time-Ms"

// PerformanceRecorder accepts performance events. *ingest.Pipeline
// satisfies it.
type PerformanceRecorder interface {
	Performance(userID, endpoint string, latencyMs float64, method string, status int) bool
}

// UserResolver returns the user behind a request, or "" when unknown.
type UserResolver func(r *http.Request) string

// RequestMetrics is one observed request.
type RequestMetrics struct {
	Endpoint   string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
}

// EndpointStats aggregates the window for one method and endpoint.
type EndpointStats struct {
	Endpoint     string  `json:"endpoint"`
	RequestCount int64   `json:"request_count"`
	AvgMs        float64 `json:"avg_ms"`
	P50Ms        float64 `json:"p50_ms"`
	P95Ms        float64 `json:"p95_ms"`
	P99Ms        float64 `json:"p99_ms"`
	MaxMs        float64 `json:"max_ms"`
}

// PerformanceMonitor keeps a sliding window of recent requests.
type PerformanceMonitor struct {
	mu         sync.RWMutex
	window     []RequestMetrics
	maxMetrics int
}

// NewPerformanceMonitor returns a monitor remembering maxMetrics requests.
func NewPerformanceMonitor(maxMetrics int) *PerformanceMonitor {
	if maxMetrics <= 0 {
		maxMetrics = 1000
	}
	return &PerformanceMonitor{
		window:     make([]RequestMetrics, 0, maxMetrics),
		maxMetrics: maxMetrics,
	}
}

// RecordRequest adds m to the window, evicting the oldest entry when full.
func (pm *PerformanceMonitor) RecordRequest(m RequestMetrics) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.window) == pm.maxMetrics {
		copy(pm.window, pm.window[1:])
		pm.window = pm.window[:len(pm.window)-1]
	}
	pm.window = append(pm.window, m)
}

// GetStats returns per-endpoint statistics, busiest first.
func (pm *PerformanceMonitor) GetStats() []EndpointStats {
	pm.mu.RLock()
	grouped := make(map[string][]time.Duration)
	for _, m := range pm.window {
		key := m.Method + " " + m.Endpoint
		grouped[key] = append(grouped[key], m.Duration)
	}
	pm.mu.RUnlock()

	stats := make([]EndpointStats, 0, len(grouped))
	for endpoint, durations := range grouped {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		var sum time.Duration
		for _, d := range durations {
			sum += d
		}
		stats = append(stats, EndpointStats{
			Endpoint:     endpoint,
			RequestCount: int64(len(durations)),
			AvgMs:        toMs(sum / time.Duration(len(durations))),
			P50Ms:        toMs(percentile(durations, 0.50)),
			P95Ms:        toMs(percentile(durations, 0.95)),
			P99Ms:        toMs(percentile(durations, 0.99)),
			MaxMs:        toMs(durations[len(durations)-1]),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RequestCount != stats[j].RequestCount {
			return stats[i].RequestCount > stats[j].RequestCount
		}
		return stats[i].Endpoint < stats[j].Endpoint
	})
	return stats
}

// Middleware times each request, stamps X-Response-Time-Ms, records a
// performance event for it and warns when it exceeds threshold.
func (pm *PerformanceMonitor) Middleware(recorder PerformanceRecorder, user UserResolver, threshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w, func(h http.Header) {
				h.Set(ResponseTimeHeader, formatMs(time.Since(start)))
			})

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			endpoint := Endpoint(r)
			pm.RecordRequest(RequestMetrics{
				Endpoint:   endpoint,
				Method:     r.Method,
				Duration:   elapsed,
				StatusCode: sw.statusCode,
				Timestamp:  start,
			})

			userID := events.AnonymousUser
			if user != nil {
				if id := user(r); id != "" {
					userID = id
				}
			}
			if recorder != nil {
				recorder.Performance(userID, endpoint, toMs(elapsed), r.Method, sw.statusCode)
			}

			if threshold > 0 && elapsed > threshold {
				metrics.SlowRequests.WithLabelValues(endpoint).Inc()
				logging.Ctx(r.Context()).Warn().
					Str("method", r.Method).
					Str("endpoint", endpoint).
					Float64("latency_ms", toMs(elapsed)).
					Dur("threshold", threshold).
					Msg("slow request")
			}
		})
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func formatMs(d time.Duration) string {
	return strconv.FormatFloat(toMs(d), 'f', 2, 64)
}
