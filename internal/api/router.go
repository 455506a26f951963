// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/marquee/internal/authz"
	"github.com/tomtom215/marquee/internal/middleware"
	"github.com/tomtom215/marquee/internal/websocket"
)

// NewRouter wires every route and the global middleware stack.
func NewRouter(h *Handler) http.Handler {
	sec := h.config.Security
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: sec.CORSOrigins,
		RateLimitRequests:  sec.RateLimitRequests,
		RateLimitWindow:    sec.RateLimitWindow,
		RateLimitDisabled:  sec.RateLimitDisabled,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(middleware.PrometheusMetrics)
	r.Use(h.perf.Middleware(h.pipeline, h.sessionUser, h.config.Performance.SlowThreshold))
	r.Use(SecurityHeaders)

	r.Get("/", h.Index)
	r.Get("/dashboard", h.Dashboard)
	r.Get("/recommendations", h.Recommendations)
	r.Get("/logout", h.Logout)

	// Endpoints that write events share one per-IP limiter.
	limit := mw.RateLimit()
	r.With(limit).Post("/login", h.Login)
	r.With(limit).Post("/click", h.Click)
	r.With(limit).Post("/rate", h.Rate)

	r.Route("/api", func(r chi.Router) {
		r.With(limit).Post("/engagement", h.Engagement)
		r.Get("/metrics", h.Metrics)
		r.Get("/recent-events", h.RecentEvents)
		r.Get("/health/queue", h.HealthQueue)
		r.Get("/health/live", h.HealthLive)
		if h.hub != nil {
			r.Handle("/events/stream", websocket.NewHandler(h.hub, sec.CORSOrigins))
		}

		r.Route("/admin", func(r chi.Router) {
			if h.admin == nil || h.enforcer == nil {
				r.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
					NewResponseWriter(w, r).ServiceUnavailable("Admin access is not configured")
				})
				return
			}
			r.Use(h.admin.Middleware)
			r.Use(authz.NewMiddleware(h.enforcer).Authorize)
			r.Get("/deadletter", h.DeadLetterList)
			r.Post("/deadletter/replay", h.DeadLetterReplayAll)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
