// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package eventlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
)

// Reader reads per-kind CSV logs.
type Reader struct {
	dir string
}

// NewReader returns a Reader for logs under dir.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Dir returns the log directory.
func (r *Reader) Dir() string {
	return r.dir
}

// Each calls fn for every parseable row of kind in file order. A missing
// log is treated as empty. Iteration stops at the first error from fn.
func (r *Reader) Each(kind events.Kind, fn func(events.Event) error) error {
	path := Path(r.dir, kind)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			logging.Warn().Err(err).Str("file", path).Int("line", line).Msg("skipping unreadable event row")
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		e, err := events.FromRow(kind, rec)
		if err != nil {
			logging.Warn().Err(err).Str("file", path).Int("line", line).Msg("skipping malformed event row")
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

// ReadAll returns every event of kind.
func (r *Reader) ReadAll(kind events.Kind) ([]events.Event, error) {
	var out []events.Event
	err := r.Each(kind, func(e events.Event) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

// Tail returns the last n events of kind, oldest first.
func (r *Reader) Tail(kind events.Kind, n int) ([]events.Event, error) {
	if n <= 0 {
		return nil, nil
	}
	ring := newRing(n)
	if err := r.Each(kind, func(e events.Event) error {
		ring.push(e)
		return nil
	}); err != nil {
		return nil, err
	}
	return ring.items(), nil
}

func isHeader(rec []string) bool {
	if len(rec) != len(events.Header) {
		return false
	}
	for i, col := range events.Header {
		if rec[i] != col {
			return false
		}
	}
	return true
}

// ring keeps the last cap events pushed.
type ring struct {
	buf   []events.Event
	start int
	full  bool
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]events.Event, 0, capacity)}
}

func (r *ring) push(e events.Event) {
	if !r.full {
		r.buf = append(r.buf, e)
		r.full = len(r.buf) == cap(r.buf)
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) items() []events.Event {
	out := make([]events.Event, 0, len(r.buf))
	out = append(out, r.buf[r.start:]...)
	out = append(out, r.buf[:r.start]...)
	return out
}
