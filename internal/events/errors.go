// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind      = errors.New("unknown event kind")
	ErrUnknownVariant   = errors.New("unknown variant")
	ErrInvalidRating    = errors.New("invalid rating")
	ErrMissingTimestamp = errors.New("missing timestamp")
	ErrMalformedRow     = errors.New("malformed event row")
)

// ValidationError describes which field of an Event is invalid.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
