// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/marquee/internal/analytics"
	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/authz"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/deadletter"
	"github.com/tomtom215/marquee/internal/experiment"
	"github.com/tomtom215/marquee/internal/ingest"
	"github.com/tomtom215/marquee/internal/middleware"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/websocket"
)

// Deps are the collaborators a Handler needs. DeadLetter, Admin and
// Enforcer may be nil; the admin routes then answer 503.
type Deps struct {
	Config      *config.Config
	Pipeline    *ingest.Pipeline
	Sessions    *auth.SessionManager
	Assigner    *experiment.Assigner
	Recommender *recommend.Engine
	Analytics   *analytics.Service
	Hub         *websocket.Hub
	DeadLetter  *deadletter.Store
	Admin       *auth.BasicAuthManager
	Enforcer    *authz.Enforcer
	Performance *middleware.PerformanceMonitor
}

// Handler serves every route.
type Handler struct {
	config      *config.Config
	pipeline    *ingest.Pipeline
	sessions    *auth.SessionManager
	assigner    *experiment.Assigner
	recommender *recommend.Engine
	analytics   *analytics.Service
	hub         *websocket.Hub
	deadletter  *deadletter.Store
	admin       *auth.BasicAuthManager
	enforcer    *authz.Enforcer
	perf        *middleware.PerformanceMonitor
}

// NewHandler returns a Handler for deps.
func NewHandler(deps Deps) (*Handler, error) {
	switch {
	case deps.Config == nil:
		return nil, errors.New("api: config is required")
	case deps.Pipeline == nil:
		return nil, errors.New("api: pipeline is required")
	case deps.Sessions == nil:
		return nil, errors.New("api: session manager is required")
	case deps.Assigner == nil:
		return nil, errors.New("api: assigner is required")
	case deps.Recommender == nil:
		return nil, errors.New("api: recommender is required")
	case deps.Analytics == nil:
		return nil, errors.New("api: analytics service is required")
	}
	if deps.Performance == nil {
		deps.Performance = middleware.NewPerformanceMonitor(1000)
	}
	return &Handler{
		config:      deps.Config,
		pipeline:    deps.Pipeline,
		sessions:    deps.Sessions,
		assigner:    deps.Assigner,
		recommender: deps.Recommender,
		analytics:   deps.Analytics,
		hub:         deps.Hub,
		deadletter:  deps.DeadLetter,
		admin:       deps.Admin,
		enforcer:    deps.Enforcer,
		perf:        deps.Performance,
	}, nil
}

// session returns the visitor's session or ErrNotLoggedIn.
func (h *Handler) session(r *http.Request) (auth.Session, error) {
	s, err := h.sessions.Read(r)
	if err != nil || s.UserID == "" || !s.Variant.Valid() {
		return auth.Session{}, ErrNotLoggedIn
	}
	return s, nil
}

// sessionUser resolves the user for performance events.
func (h *Handler) sessionUser(r *http.Request) string {
	s, err := h.session(r)
	if err != nil {
		return ""
	}
	return s.UserID
}
