// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import "errors"

var (
	// ErrNotLoggedIn means the request has no valid session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrInvalidBody means the request body was not the expected JSON.
	ErrInvalidBody = errors.New("invalid JSON body")
)

// Visitor-facing error messages.
const (
	msgUserIDRequired      = "User ID required"
	msgPleaseLogin         = "Please login first"
	msgNotLoggedIn         = "Not logged in"
	msgMovieIDRequired     = "Movie ID required"
	msgMovieAndRating      = "Movie ID and rating required"
	msgRatingRange         = "Rating must be 1-5"
	msgEngagementRequired  = "movie_id and dwell_time_ms required"
	msgDwellTimeNegative   = "dwell_time_ms must not be negative"
	msgInvalidJSON         = "Invalid JSON body"
	msgDeadLetterDisabled  = "Dead-letter store is disabled"
	msgAnalyticsFailed     = "Failed to compute metrics"
	msgRecentEventsFailed  = "Failed to read recent events"
	msgSessionWriteFailure = "Failed to store session"
)
