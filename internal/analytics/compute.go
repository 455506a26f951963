// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/events"
)

// SRM thresholds.
const (
	ExpectedRatio = 0.5
	SRMTolerance  = 0.05
)

// SRM messages.
const (
	MsgNoUsers     = "No users yet"
	MsgSRMDetected = "SRM detected! Check assignment logic."
	MsgNoSRM       = "No SRM detected"
)

// DefaultRecentLimit is the activity feed length per kind.
const DefaultRecentLimit = 5

const (
	summaryKey = "summary"
	recentKey  = "recent"
)

// Service computes experiment results from an Engine.
type Service struct {
	engine      Engine
	recentLimit int
	summaries   *cache.Cache[Summary]
	recent      *cache.Cache[RecentEvents]
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithCacheTTL keeps Summary and Recent results for ttl. Results may then
// lag the logs by up to ttl. Call Close to stop the cache sweepers.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl <= 0 {
			return
		}
		s.summaries = cache.New[Summary](ttl)
		s.recent = cache.New[RecentEvents](ttl)
	}
}

// NewService returns a Service over engine. recentLimit <= 0 uses
// DefaultRecentLimit.
func NewService(engine Engine, recentLimit int, opts ...ServiceOption) *Service {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	s := &Service{engine: engine, recentLimit: recentLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the result caches. The engine is left open.
func (s *Service) Close() {
	if s.summaries != nil {
		s.summaries.Close()
		s.recent.Close()
	}
}

// CacheStats reports summary cache activity; ok is false when caching is
// off.
func (s *Service) CacheStats() (stats cache.Stats, ok bool) {
	if s.summaries == nil {
		return cache.Stats{}, false
	}
	return s.summaries.Stats(), true
}

// Engine returns the underlying engine.
func (s *Service) Engine() Engine {
	return s.engine
}

// Compute returns per-variant metrics.
func (s *Service) Compute(ctx context.Context) (Metrics, error) {
	counts, err := s.engine.Counts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("%s engine: %w", s.engine.Name(), err)
	}
	return FromCounts(counts), nil
}

// Summary returns metrics, the SRM check and lift together.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if s.summaries != nil {
		if sum, ok := s.summaries.Get(summaryKey); ok {
			return sum, nil
		}
	}
	m, err := s.Compute(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Metrics: m, SRM: CheckSRM(m), Lift: CalculateLift(m)}
	if s.summaries != nil {
		s.summaries.Set(summaryKey, sum)
	}
	return sum, nil
}

// Recent returns the last rows of the impression, click and conversion
// logs.
func (s *Service) Recent(ctx context.Context) (RecentEvents, error) {
	if s.recent != nil {
		if out, ok := s.recent.Get(recentKey); ok {
			return out, nil
		}
	}
	var out RecentEvents
	targets := []struct {
		kind events.Kind
		dst  *[]events.Event
	}{
		{events.KindImpression, &out.Impressions},
		{events.KindClick, &out.Clicks},
		{events.KindConversion, &out.Conversions},
	}
	for _, t := range targets {
		rows, err := s.engine.Recent(ctx, t.kind, s.recentLimit)
		if err != nil {
			return RecentEvents{}, fmt.Errorf("recent %s: %w", t.kind.LogName(), err)
		}
		if rows == nil {
			rows = []events.Event{}
		}
		*t.dst = rows
	}
	if s.recent != nil {
		s.recent.Set(recentKey, out)
	}
	return out, nil
}

// FromCounts derives rates from raw counts.
func FromCounts(counts map[events.Variant]Counts) Metrics {
	return Metrics{
		Control:   rates(counts[events.VariantControl]),
		Treatment: rates(counts[events.VariantTreatment]),
	}
}

func rates(c Counts) VariantMetrics {
	return VariantMetrics{
		Impressions: c.Impressions,
		Clicks:      c.Clicks,
		Conversions: c.Conversions,
		Users:       c.Users,
		CTR:         ratio(c.Clicks, c.Impressions),
		CVR:         ratio(c.Conversions, c.Clicks),
	}
}

func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// CheckSRM compares each variant's share of users to ExpectedRatio.
func CheckSRM(m Metrics) SRM {
	total := m.TotalUsers()
	if total == 0 {
		return SRM{Message: MsgNoUsers}
	}

	control := float64(m.Control.Users) / float64(total)
	treatment := float64(m.Treatment.Users) / float64(total)
	has := math.Abs(control-ExpectedRatio) > SRMTolerance ||
		math.Abs(treatment-ExpectedRatio) > SRMTolerance

	msg := MsgNoSRM
	if has {
		msg = MsgSRMDetected
	}
	return SRM{
		HasSRM:         has,
		Message:        msg,
		ControlRatio:   round3(control),
		TreatmentRatio: round3(treatment),
		ExpectedRatio:  ExpectedRatio,
	}
}

// CalculateLift returns treatment over control lift for CTR and CVR.
func CalculateLift(m Metrics) Lift {
	return Lift{
		CTR: lift(m.Control.CTR, m.Treatment.CTR),
		CVR: lift(m.Control.CVR, m.Treatment.CVR),
	}
}

func lift(control, treatment float64) float64 {
	if control <= 0 {
		return 0
	}
	return (treatment - control) / control * 100
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
