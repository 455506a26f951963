// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/validation"
)

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	UserID  string `json:"user_id"`
	Variant string `json:"variant"`
}

// RecommendationsResponse is returned by GET /recommendations.
type RecommendationsResponse struct {
	Recommendations []recommend.Movie `json:"recommendations"`
	Variant         string            `json:"variant"`
	Algorithm       string            `json:"algorithm"`
	Personalized    bool              `json:"personalized"`
	NumRatings      int               `json:"num_ratings"`
}

// ClickResponse is returned by POST /click. Movie is null for an ID
// missing from the catalog.
type ClickResponse struct {
	Movie *recommend.Movie `json:"movie"`
}

// RateResponse is returned by POST /rate.
type RateResponse struct {
	Message       string `json:"message"`
	ShouldRefresh bool   `json:"should_refresh"`
	NumRatings    int    `json:"num_ratings"`
}

// Login assigns a variant and starts a session with no ratings.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(msgInvalidJSON)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(msgUserIDRequired, verr)
		return
	}

	userID := string(req.UserID)
	variant := h.assigner.Assign(userID)
	if err := h.sessions.Write(w, auth.Session{UserID: userID, Variant: variant, Ratings: map[string]int{}}); err != nil {
		rw.InternalError(msgSessionWriteFailure, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("user_id", userID).Str("variant", string(variant)).Msg("user logged in")
	rw.Success(LoginResponse{UserID: userID, Variant: string(variant)})
}

// Recommendations returns the variant's recommendations and logs an
// impression listing them.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	s, err := h.session(r)
	if err != nil {
		rw.Unauthorized(msgPleaseLogin)
		return
	}

	ratings := s.RatingsByID()
	recs := h.recommender.Recommend(s.Variant, h.config.Recommend.Count, ratings)

	ids := make([]string, len(recs))
	for i, m := range recs {
		ids[i] = strconv.Itoa(m.ID)
	}
	h.pipeline.Impression(s.UserID, s.Variant, ids)

	rw.Success(RecommendationsResponse{
		Recommendations: recs,
		Variant:         string(s.Variant),
		Algorithm:       h.recommender.Algorithm(s.Variant).Name(),
		Personalized:    len(s.Ratings) > 0,
		NumRatings:      len(s.Ratings),
	})
}

// Click logs a click and returns the movie's details.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ClickRequest
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
		msg := msgMovieIDRequired
		if !isRequired(verr, "movie_id") {
			msg = verr.Error()
		}
		rw.ValidationError(msg, verr)
		return
	}

	movieID := string(req.MovieID)
	h.pipeline.Click(s.UserID, s.Variant, movieID)

	resp := ClickResponse{}
	if m, ok := h.recommender.Catalog().Lookup(movieID); ok {
		resp.Movie = &m
	}
	rw.Success(resp)
}

// Rate stores a 1-5 rating in the session, logs a conversion and tells
// the client to refresh its recommendations.
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RateRequest
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
		msg := msgMovieAndRating
		if !isRequired(verr, "movie_id") && !isRequired(verr, "rating") {
			msg = verr.Error()
		}
		rw.ValidationError(msg, verr)
		return
	}
	rating, err := parseRating(req.Rating)
	if err != nil || rating < 1 || rating > 5 {
		rw.BadRequest(msgRatingRange)
		return
	}

	movieID := string(req.MovieID)
	if s.Ratings == nil {
		s.Ratings = make(map[string]int)
	}
	s.Ratings[movieID] = rating
	if err := h.sessions.Write(w, s); err != nil {
		rw.InternalError(msgSessionWriteFailure, err)
		return
	}

	h.pipeline.Conversion(s.UserID, s.Variant, movieID, rating)

	rw.Success(RateResponse{
		Message:       fmt.Sprintf("Rated movie %s with %d stars", movieID, rating),
		ShouldRefresh: true,
		NumRatings:    len(s.Ratings),
	})
}

// Logout clears the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	NewResponseWriter(w, r).Success(nil)
}

// isRequired reports whether field failed because it was missing.
func isRequired(verr *validation.RequestValidationError, field string) bool {
	for _, f := range verr.Fields {
		if f.Field == field && f.Tag == "required" {
			return true
		}
	}
	return false
}
