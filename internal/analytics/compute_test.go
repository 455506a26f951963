// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/events"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFromCounts(t *testing.T) {
	t.Parallel()

	m := FromCounts(map[events.Variant]Counts{
		events.VariantControl:   {Impressions: 10, Clicks: 2, Conversions: 1, Users: 4},
		events.VariantTreatment: {Impressions: 0, Clicks: 0, Conversions: 0, Users: 0},
	})

	if !almostEqual(m.Control.CTR, 0.2) || !almostEqual(m.Control.CVR, 0.5) {
		t.Errorf("control rates = %v / %v, want 0.2 / 0.5", m.Control.CTR, m.Control.CVR)
	}
	if m.Treatment.CTR != 0 || m.Treatment.CVR != 0 {
		t.Errorf("treatment rates with zero denominators = %v / %v, want 0", m.Treatment.CTR, m.Treatment.CVR)
	}
	if m.Control.Users != 4 || m.Control.Impressions != 10 {
		t.Errorf("control = %+v", m.Control)
	}
}

func TestFromCountsClicksWithoutImpressions(t *testing.T) {
	t.Parallel()

	m := FromCounts(map[events.Variant]Counts{
		events.VariantTreatment: {Clicks: 3, Conversions: 3},
	})
	if m.Treatment.CTR != 0 {
		t.Errorf("CTR = %v, want 0", m.Treatment.CTR)
	}
	if !almostEqual(m.Treatment.CVR, 1) {
		t.Errorf("CVR = %v, want 1", m.Treatment.CVR)
	}
}

func TestCheckSRM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		control, treat int
		want           SRM
	}{
		{
			name: "no users",
			want: SRM{Message: MsgNoUsers},
		},
		{
			name: "balanced", control: 50, treat: 50,
			want: SRM{Message: MsgNoSRM, ControlRatio: 0.5, TreatmentRatio: 0.5, ExpectedRatio: 0.5},
		},
		{
			name: "within tolerance", control: 54, treat: 46,
			want: SRM{Message: MsgNoSRM, ControlRatio: 0.54, TreatmentRatio: 0.46, ExpectedRatio: 0.5},
		},
		{
			// 0.55-0.5 is a hair above 0.05 in float64, so the boundary flags.
			name: "at tolerance", control: 55, treat: 45,
			want: SRM{HasSRM: true, Message: MsgSRMDetected, ControlRatio: 0.55, TreatmentRatio: 0.45, ExpectedRatio: 0.5},
		},
		{
			name: "mismatch", control: 2, treat: 1,
			want: SRM{HasSRM: true, Message: MsgSRMDetected, ControlRatio: 0.667, TreatmentRatio: 0.333, ExpectedRatio: 0.5},
		},
		{
			name: "one sided", control: 0, treat: 7,
			want: SRM{HasSRM: true, Message: MsgSRMDetected, ControlRatio: 0, TreatmentRatio: 1, ExpectedRatio: 0.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := Metrics{
				Control:   VariantMetrics{Users: tt.control},
				Treatment: VariantMetrics{Users: tt.treat},
			}
			if got := CheckSRM(m); got != tt.want {
				t.Errorf("CheckSRM() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateLift(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		control VariantMetrics
		treat   VariantMetrics
		want    Lift
	}{
		{"zero control", VariantMetrics{}, VariantMetrics{CTR: 0.5, CVR: 0.5}, Lift{}},
		{"positive", VariantMetrics{CTR: 0.1, CVR: 0.2}, VariantMetrics{CTR: 0.15, CVR: 0.3}, Lift{CTR: 50, CVR: 50}},
		{"negative", VariantMetrics{CTR: 0.2, CVR: 0.5}, VariantMetrics{CTR: 0.1, CVR: 0.25}, Lift{CTR: -50, CVR: -50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CalculateLift(Metrics{Control: tt.control, Treatment: tt.treat})
			if !almostEqual(got.CTR, tt.want.CTR) || !almostEqual(got.CVR, tt.want.CVR) {
				t.Errorf("CalculateLift() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMetricsTotals(t *testing.T) {
	t.Parallel()

	m := Metrics{
		Control:   VariantMetrics{Users: 1, Impressions: 2, Clicks: 3, Conversions: 4},
		Treatment: VariantMetrics{Users: 10, Impressions: 20, Clicks: 30, Conversions: 40},
	}
	if m.TotalUsers() != 11 || m.TotalImpressions() != 22 || m.TotalClicks() != 33 || m.TotalConversions() != 44 {
		t.Errorf("totals wrong for %+v", m)
	}
	if m.For(events.VariantTreatment).Users != 10 || m.For(events.VariantControl).Users != 1 {
		t.Error("For() returned the wrong variant")
	}
}

// countingEngine counts Counts calls.
type countingEngine struct {
	calls int
	users int
}

func (e *countingEngine) Name() string { return "counting" }

func (e *countingEngine) Counts(context.Context) (map[events.Variant]Counts, error) {
	e.calls++
	return map[events.Variant]Counts{events.VariantControl: {Users: e.users}}, nil
}

func (e *countingEngine) Recent(context.Context, events.Kind, int) ([]events.Event, error) {
	return nil, nil
}

func (e *countingEngine) Close() error { return nil }

func TestServiceSummaryCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("uncached recomputes", func(t *testing.T) {
		e := &countingEngine{}
		s := NewService(e, 0)
		defer s.Close()
		for i := 0; i < 3; i++ {
			if _, err := s.Summary(ctx); err != nil {
				t.Fatal(err)
			}
		}
		if e.calls != 3 {
			t.Errorf("engine calls = %d, want 3", e.calls)
		}
		if _, ok := s.CacheStats(); ok {
			t.Error("CacheStats should report caching off")
		}
	})

	t.Run("cached within ttl", func(t *testing.T) {
		e := &countingEngine{users: 2}
		s := NewService(e, 0, WithCacheTTL(time.Minute))
		defer s.Close()
		for i := 0; i < 3; i++ {
			sum, err := s.Summary(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if sum.Metrics.Control.Users != 2 {
				t.Errorf("users = %d", sum.Metrics.Control.Users)
			}
		}
		if e.calls != 1 {
			t.Errorf("engine calls = %d, want 1", e.calls)
		}
		stats, ok := s.CacheStats()
		if !ok || stats.Hits != 2 || stats.Misses != 1 {
			t.Errorf("cache stats = %+v, ok %v", stats, ok)
		}
	})
}
