// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"

	"github.com/tomtom215/marquee/internal/ingest"
	"github.com/tomtom215/marquee/internal/middleware"
)

// QueueHealth is returned by GET /api/health/queue.
type QueueHealth struct {
	Healthy          bool                       `json:"healthy"`
	Pipeline         ingest.Stats               `json:"pipeline"`
	Utilization      float64                    `json:"utilization"`
	DeadLetter       *int                       `json:"deadletter_entries,omitempty"`
	LiveFeedClients  int                        `json:"live_feed_clients"`
	AnalyticsEngine  string                     `json:"analytics_engine"`
	EndpointLatency  []middleware.EndpointStats `json:"endpoint_latency"`
	AssignmentHash   string                     `json:"assignment_hash"`
	RecommendCatalog int                        `json:"catalog_size"`
}

// HealthQueue reports the ingestion pipeline's state. It answers 503 when
// the worker is not running.
func (h *Handler) HealthQueue(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats := h.pipeline.Stats()
	health := QueueHealth{
		Healthy:          h.pipeline.State() == ingest.StateRunning,
		Pipeline:         stats,
		AnalyticsEngine:  h.analytics.Engine().Name(),
		EndpointLatency:  h.perf.GetStats(),
		AssignmentHash:   h.assigner.Hash(),
		RecommendCatalog: h.recommender.Catalog().Len(),
	}
	if stats.QueueCapacity > 0 {
		health.Utilization = float64(stats.QueueSize) / float64(stats.QueueCapacity)
	}
	if h.deadletter != nil {
		n := h.deadletter.Count()
		health.DeadLetter = &n
	}
	if h.hub != nil {
		health.LiveFeedClients = h.hub.ClientCount()
	}

	if !health.Healthy {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "ingestion worker is "+stats.State, health)
		return
	}
	rw.Success(health)
}

// HealthLive always answers 200 while the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}
