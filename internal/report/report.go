// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/marquee/internal/analytics"
)

//go:embed report.html.tmpl
var reportTemplate string

// Lift thresholds, in percent, behind the recommendations section.
const (
	LaunchCTRLift  = 10.0
	IterateBand    = 10.0
	KeepControlCTR = -5.0
)

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":    func(f float64) string { return fmt.Sprintf("%.2f%%", f*100) },
	"pct1":   func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
	"signed": signed,
	"liftClass": func(f float64) string {
		if f > 0 {
			return "lift-positive"
		}
		return "lift-negative"
	},
}).Parse(reportTemplate))

// Data is the template input.
type Data struct {
	GeneratedAt time.Time
	analytics.Summary

	Users       int
	Impressions int
	Clicks      int
	Conversions int

	Launch      bool
	Iterate     bool
	KeepControl bool
}

// NewData derives the totals and recommendations from s.
func NewData(s analytics.Summary, now time.Time) Data {
	ctr, cvr := s.Lift.CTR, s.Lift.CVR
	return Data{
		GeneratedAt: now,
		Summary:     s,
		Users:       s.Metrics.TotalUsers(),
		Impressions: s.Metrics.TotalImpressions(),
		Clicks:      s.Metrics.TotalClicks(),
		Conversions: s.Metrics.TotalConversions(),
		Launch:      ctr > LaunchCTRLift && cvr > 0,
		Iterate:     ctr < IterateBand && ctr > -IterateBand,
		KeepControl: ctr < KeepControlCTR,
	}
}

// Render writes the HTML report for s to w.
func Render(w io.Writer, s analytics.Summary, now time.Time) error {
	if err := tmpl.Execute(w, NewData(s, now)); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// WriteFile renders the report to path, replacing any previous report
// only once rendering succeeded.
func WriteFile(path string, s analytics.Summary, now time.Time) error {
	var buf bytes.Buffer
	if err := Render(&buf, s, now); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.html")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // report is meant to be shared
		return fmt.Errorf("chmod report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// signed formats a lift with an explicit plus sign. It returns
// template.HTML because html/template would otherwise escape the '+'.
func signed(f float64) template.HTML {
	if f > 0 {
		return template.HTML(fmt.Sprintf("+%.2f%%", f)) //nolint:gosec // formatted number
	}
	return template.HTML(fmt.Sprintf("%.2f%%", f)) //nolint:gosec // formatted number
}
