// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of interaction an Event records.
type Kind string

const (
	KindImpression  Kind = "impression"
	KindClick       Kind = "click"
	KindConversion  Kind = "conversion"
	KindEngagement  Kind = "engagement"
	KindPerformance Kind = "performance"
)

var allKinds = []Kind{KindImpression, KindClick, KindConversion, KindEngagement, KindPerformance}

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// LogName is the file stem of the log holding events of this kind.
func (k Kind) LogName() string {
	return string(k) + "s"
}

// Variant is the experiment arm an Event belongs to.
type Variant string

const (
	VariantControl   Variant = "control"
	VariantTreatment Variant = "treatment"
	// VariantSystem marks events not tied to an experiment arm.
	VariantSystem Variant = "system"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantControl || v == VariantTreatment || v == VariantSystem
}

// AnonymousUser replaces an empty user ID.
const AnonymousUser = "anonymous"

// Rating bounds for conversion events.
const (
	MinRating = 1
	MaxRating = 5
)

// Header is the column row shared by every event log.
var Header = []string{"timestamp", "user_id", "variant", "movie_id", "rating", "metadata"}

// Event is one recorded interaction. Rating is zero when absent.
type Event struct {
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Variant   Variant   `json:"variant"`
	MovieID   string    `json:"movie_id,omitempty"`
	Rating    int       `json:"rating,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
}

// New builds a validated Event stamped with the current time.
func New(kind Kind, userID string, variant Variant, movieID string, rating int, metadata string) (Event, error) {
	return NewAt(time.Now(), kind, userID, variant, movieID, rating, metadata)
}

// NewAt is New with an explicit timestamp.
func NewAt(ts time.Time, kind Kind, userID string, variant Variant, movieID string, rating int, metadata string) (Event, error) {
	e := Event{
		Kind:      kind,
		Timestamp: ts.UTC(),
		UserID:    normalizeUser(userID),
		Variant:   variant,
		MovieID:   singleLine(movieID),
		Rating:    rating,
		Metadata:  singleLine(metadata),
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Validate checks the invariants New enforces.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", e.Kind), Err: ErrUnknownKind}
	}
	if !e.Variant.Valid() {
		return &ValidationError{Field: "variant", Message: fmt.Sprintf("unknown variant %q", e.Variant), Err: ErrUnknownVariant}
	}
	if e.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "timestamp is required", Err: ErrMissingTimestamp}
	}
	if e.Rating != 0 {
		if e.Kind != KindConversion {
			return &ValidationError{Field: "rating", Message: "rating is only valid on conversions", Err: ErrInvalidRating}
		}
		if e.Rating < MinRating || e.Rating > MaxRating {
			return &ValidationError{Field: "rating", Message: fmt.Sprintf("rating must be %d-%d, got %d", MinRating, MaxRating, e.Rating), Err: ErrInvalidRating}
		}
	}
	return nil
}

// Row renders the Event as a log row in Header order.
func (e Event) Row() []string {
	rating := ""
	if e.Rating != 0 {
		rating = strconv.Itoa(e.Rating)
	}
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.UserID,
		string(e.Variant),
		e.MovieID,
		rating,
		e.Metadata,
	}
}

// legacyTimestampLayouts accept logs written without a zone offset.
var legacyTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// FromRow parses a log row of the given kind. Variants outside the known
// set are kept as-is so that historical logs remain readable.
func FromRow(kind Kind, row []string) (Event, error) {
	if len(row) != len(Header) {
		return Event{}, fmt.Errorf("%w: want %d columns, got %d", ErrMalformedRow, len(Header), len(row))
	}

	var ts time.Time
	var err error
	for _, layout := range legacyTimestampLayouts {
		if ts, err = time.Parse(layout, row[0]); err == nil {
			break
		}
	}
	if err != nil {
		return Event{}, fmt.Errorf("%w: timestamp %q", ErrMalformedRow, row[0])
	}

	rating := 0
	if r := strings.TrimSpace(row[4]); r != "" {
		f, perr := strconv.ParseFloat(r, 64)
		if perr != nil {
			return Event{}, fmt.Errorf("%w: rating %q", ErrMalformedRow, r)
		}
		rating = int(f)
	}

	return Event{
		Kind:      kind,
		Timestamp: ts.UTC(),
		UserID:    row[1],
		Variant:   Variant(row[2]),
		MovieID:   row[3],
		Rating:    rating,
		Metadata:  row[5],
	}, nil
}

func normalizeUser(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return AnonymousUser
	}
	return singleLine(id)
}

// singleLine keeps every row on one physical line.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
