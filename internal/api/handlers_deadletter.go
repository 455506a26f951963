// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tomtom215/marquee/internal/deadletter"
	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/ingest"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/validation"
)

const (
	defaultDeadLetterLimit = 100
	maxDeadLetterLimit     = 1000
)

var errReplayLimit = errors.New("replay limit reached")

// DeadLetterList is returned by GET /api/admin/deadletter.
type DeadLetterList struct {
	Entries []deadletter.Entry `json:"entries"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
}

// DeadLetterReplay is returned by POST /api/admin/deadletter/replay.
type DeadLetterReplay struct {
	Replayed  int    `json:"replayed"`
	Remaining int    `json:"remaining"`
	Stopped   string `json:"stopped,omitempty"`
}

// DeadLetterList lists failed events, oldest first.
func (h *Handler) DeadLetterList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deadletter == nil {
		rw.ServiceUnavailable(msgDeadLetterDisabled)
		return
	}

	limit := defaultDeadLetterLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxDeadLetterLimit {
			rw.BadRequest("limit must be between 1 and " + strconv.Itoa(maxDeadLetterLimit))
			return
		}
		limit = n
	}

	entries, err := h.deadletter.List(r.Context(), limit)
	if err != nil {
		rw.InternalError("Failed to list dead-letter entries", err)
		return
	}
	if entries == nil {
		entries = []deadletter.Entry{}
	}
	rw.Success(DeadLetterList{Entries: entries, Total: h.deadletter.Count(), Limit: limit})
}

// DeadLetterReplayAll re-enqueues failed events, oldest first. Entries are
// removed from the store once the queue accepts them; replay stops early
// when the queue is full or the optional limit is reached.
func (h *Handler) DeadLetterReplayAll(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.deadletter == nil {
		rw.ServiceUnavailable(msgDeadLetterDisabled)
		return
	}

	var req ReplayRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(msgInvalidJSON)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr)
		return
	}

	accepted := 0
	replayed, err := h.deadletter.Replay(r.Context(), func(e events.Event) error {
		if req.Limit > 0 && accepted >= req.Limit {
			return errReplayLimit
		}
		if !h.pipeline.Enqueue(e) {
			return ingest.ErrQueueFull
		}
		accepted++
		return nil
	})

	resp := DeadLetterReplay{Replayed: replayed, Remaining: h.deadletter.Count()}
	switch {
	case err == nil:
	case errors.Is(err, errReplayLimit):
		resp.Stopped = "limit"
	case errors.Is(err, ingest.ErrQueueFull):
		resp.Stopped = "queue_full"
	default:
		rw.InternalError("Dead-letter replay failed", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("replayed", resp.Replayed).
		Int("remaining", resp.Remaining).
		Str("stopped", resp.Stopped).
		Msg("dead-letter replay requested")
	rw.Success(resp)
}
