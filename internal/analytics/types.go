// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package analytics

import (
	"context"

	"github.com/tomtom215/marquee/internal/events"
)

// ExperimentVariants are the variants results are reported for.
var ExperimentVariants = []events.Variant{events.VariantControl, events.VariantTreatment}

// Counts are raw per-variant totals.
type Counts struct {
	Impressions int
	Clicks      int
	Conversions int
	Users       int
}

// Engine reads raw counts and recent rows from the event logs.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string

	// Counts returns totals for each experiment variant. Variants without
	// events are absent.
	Counts(ctx context.Context) (map[events.Variant]Counts, error)

	// Recent returns the last n events of kind, oldest first.
	Recent(ctx context.Context, kind events.Kind, n int) ([]events.Event, error)

	Close() error
}

// VariantMetrics are the reported figures for one variant.
type VariantMetrics struct {
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	CTR         float64 `json:"ctr"`
	CVR         float64 `json:"cvr"`
	Users       int     `json:"users"`
}

// Metrics holds both variants.
type Metrics struct {
	Control   VariantMetrics `json:"control"`
	Treatment VariantMetrics `json:"treatment"`
}

// For returns the metrics of v. Anything but treatment returns control.
func (m Metrics) For(v events.Variant) VariantMetrics {
	if v == events.VariantTreatment {
		return m.Treatment
	}
	return m.Control
}

// TotalUsers sums users over both variants.
func (m Metrics) TotalUsers() int { return m.Control.Users + m.Treatment.Users }

// TotalImpressions sums impressions over both variants.
func (m Metrics) TotalImpressions() int { return m.Control.Impressions + m.Treatment.Impressions }

// TotalClicks sums clicks over both variants.
func (m Metrics) TotalClicks() int { return m.Control.Clicks + m.Treatment.Clicks }

// TotalConversions sums conversions over both variants.
func (m Metrics) TotalConversions() int { return m.Control.Conversions + m.Treatment.Conversions }

// SRM is the result of a sample ratio mismatch check.
type SRM struct {
	HasSRM         bool    `json:"has_srm"`
	Message        string  `json:"message"`
	ControlRatio   float64 `json:"control_ratio"`
	TreatmentRatio float64 `json:"treatment_ratio"`
	ExpectedRatio  float64 `json:"expected_ratio,omitempty"`
}

// Lift is the relative change of treatment over control, in percent.
type Lift struct {
	CTR float64 `json:"ctr"`
	CVR float64 `json:"cvr"`
}

// Summary is everything the dashboard and report show.
type Summary struct {
	Metrics Metrics `json:"metrics"`
	SRM     SRM     `json:"srm"`
	Lift    Lift    `json:"lift"`
}

// RecentEvents is the activity feed.
type RecentEvents struct {
	Impressions []events.Event `json:"impressions"`
	Clicks      []events.Event `json:"clicks"`
	Conversions []events.Event `json:"conversions"`
}
