// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ingest

import (
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// BreakerConfig configures NewBreakerAppender.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures before opening
	Timeout          time.Duration // open duration before a half-open probe
}

// BreakerAppender guards an Appender with one circuit breaker per event
// kind. While a kind's breaker is open, Append for that kind fails fast
// with gobreaker.ErrOpenState; other kinds keep reaching next.
type BreakerAppender struct {
	next     Appender
	breakers map[events.Kind]*gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerAppender wraps next.
func NewBreakerAppender(next Appender, cfg BreakerConfig) *BreakerAppender {
	if cfg.Name == "" {
		cfg.Name = "event-log"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	log := logging.WithComponent("ingest-breaker")

	b := &BreakerAppender{
		next:     next,
		breakers: make(map[events.Kind]*gobreaker.CircuitBreaker[struct{}], len(events.Kinds())),
	}
	for _, kind := range events.Kinds() {
		kind := kind
		metrics.EventBreakerState.WithLabelValues(string(kind)).Set(0)
		b.breakers[kind] = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        fmt.Sprintf("%s-%s", cfg.Name, kind),
			MaxRequests: 1,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.EventBreakerState.WithLabelValues(string(kind)).Set(breakerStateValue(to))
				log.Warn().
					Str("breaker", name).
					Str("kind", string(kind)).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("event log circuit breaker state changed")
			},
		})
	}
	return b
}

// Append implements Appender.
func (b *BreakerAppender) Append(e events.Event) error {
	cb, ok := b.breakers[e.Kind]
	if !ok {
		return b.next.Append(e)
	}
	_, err := cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Append(e)
	})
	return err
}

// State returns the breaker state name for kind.
func (b *BreakerAppender) State(kind events.Kind) string {
	cb, ok := b.breakers[kind]
	if !ok {
		return gobreaker.StateClosed.String()
	}
	return cb.State().String()
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
