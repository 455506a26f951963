// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/validation"
)

// EngagementResponse is returned by POST /api/engagement.
type EngagementResponse struct {
	DwellTimeMs int64  `json:"dwell_time_ms"`
	Action      string `json:"action"`
}

// Metrics returns per-variant metrics with the SRM check and lift.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	summary, err := h.analytics.Summary(r.Context())
	if err != nil {
		rw.InternalError(msgAnalyticsFailed, err)
		return
	}
	rw.Success(summary)
}

// RecentEvents returns the activity feed.
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	recent, err := h.analytics.Recent(r.Context())
	if err != nil {
		rw.InternalError(msgRecentEventsFailed, err)
		return
	}
	rw.Success(recent)
}

// Engagement logs how long a visitor looked at a movie.
func (h *Handler) Engagement(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req EngagementRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(msgInvalidJSON)
		return
	}
	s, err := h.session(r)
	if err != nil {
		rw.Unauthorized(msgNotLoggedIn)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		msg := msgEngagementRequired
		if !isRequired(verr, "movie_id") && !isRequired(verr, "dwell_time_ms") {
			msg = verr.Error()
		}
		rw.ValidationError(msg, verr)
		return
	}
	if *req.DwellTimeMs < 0 {
		rw.BadRequest(msgDwellTimeNegative)
		return
	}

	action := req.Action
	if action == "" {
		action = events.DefaultEngagementAction
	}
	dwell := int64(*req.DwellTimeMs)
	h.pipeline.Engagement(s.UserID, s.Variant, string(req.MovieID), dwell, action)

	rw.Success(EngagementResponse{DwellTimeMs: dwell, Action: action})
}
