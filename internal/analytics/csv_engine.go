// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package analytics

import (
	"context"

	"github.com/tomtom215/marquee/internal/eventlog"
	"github.com/tomtom215/marquee/internal/events"
)

// CSVEngine counts by streaming the event logs.
type CSVEngine struct {
	reader *eventlog.Reader
}

// NewCSVEngine reads logs from dir.
func NewCSVEngine(dir string) *CSVEngine {
	return &CSVEngine{reader: eventlog.NewReader(dir)}
}

// Name implements Engine.
func (e *CSVEngine) Name() string { return "csv" }

// Counts implements Engine.
func (e *CSVEngine) Counts(ctx context.Context) (map[events.Variant]Counts, error) {
	counts := map[events.Variant]Counts{}
	users := map[events.Variant]map[string]struct{}{}

	tally := func(kind events.Kind, add func(*Counts, events.Event)) error {
		return e.reader.Each(kind, func(ev events.Event) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !isExperimentVariant(ev.Variant) {
				return nil
			}
			c := counts[ev.Variant]
			add(&c, ev)
			counts[ev.Variant] = c
			return nil
		})
	}

	err := tally(events.KindImpression, func(c *Counts, ev events.Event) {
		c.Impressions++
		seen := users[ev.Variant]
		if seen == nil {
			seen = map[string]struct{}{}
			users[ev.Variant] = seen
		}
		if _, ok := seen[ev.UserID]; !ok {
			seen[ev.UserID] = struct{}{}
			c.Users++
		}
	})
	if err != nil {
		return nil, err
	}
	if err := tally(events.KindClick, func(c *Counts, _ events.Event) { c.Clicks++ }); err != nil {
		return nil, err
	}
	if err := tally(events.KindConversion, func(c *Counts, _ events.Event) { c.Conversions++ }); err != nil {
		return nil, err
	}
	return counts, nil
}

// Recent implements Engine.
func (e *CSVEngine) Recent(_ context.Context, kind events.Kind, n int) ([]events.Event, error) {
	return e.reader.Tail(kind, n)
}

// Close implements Engine.
func (e *CSVEngine) Close() error { return nil }

func isExperimentVariant(v events.Variant) bool {
	return v == events.VariantControl || v == events.VariantTreatment
}
