// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const maxBodyBytes = 64 << 10

// flexString accepts a JSON string or number, so {"movie_id": 7} and
// {"movie_id": "7"} decode alike.
type flexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		*f = flexString(b)
	case bytes.Equal(b, []byte("false")):
		*f = ""
	default:
		return fmt.Errorf("expected string or number, got %s", b)
	}
	return nil
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	UserID flexString `json:"user_id" validate:"required,max=128"`
}

// ClickRequest is the body of POST /click.
type ClickRequest struct {
	MovieID flexString `json:"movie_id" validate:"required,movieid"`
}

// RateRequest is the body of POST /rate.
type RateRequest struct {
	MovieID flexString `json:"movie_id" validate:"required,movieid"`
	Rating  flexString `json:"rating" validate:"required"`
}

// EngagementRequest is the body of POST /api/engagement.
type EngagementRequest struct {
	MovieID     flexString `json:"movie_id" validate:"required,movieid"`
	DwellTimeMs *float64   `json:"dwell_time_ms" validate:"required"`
	Action      string     `json:"action" validate:"omitempty,max=32"`
}

// ReplayRequest is the optional body of POST /api/admin/deadletter/replay.
type ReplayRequest struct {
	Limit int `json:"limit" validate:"gte=0,lte=10000"`
}

// parseRating converts a rating to an int. Fractional numbers truncate;
// anything non-numeric fails.
func parseRating(s flexString) (int, error) {
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("rating %q is not a number", string(s))
	}
	return int(f), nil
}

// decodeJSON decodes the request body into v. An empty body leaves v at
// its zero value.
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}
