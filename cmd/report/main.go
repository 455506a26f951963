// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package main renders a static HTML report of the experiment from the
// event logs.
//
//	report                       # uses events.log_dir and analytics.engine from config
//	report -logs ./logs -out reports/ab_test_report.html -engine duckdb
package main

import (
	"context"
	"flag"
	"time"

	"github.com/tomtom215/marquee/internal/analytics"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/report"
)

const defaultOutput = "reports/ab_test_report.html"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console", Timestamp: true})

	logDir := flag.String("logs", cfg.Events.LogDir, "directory holding the event CSV logs")
	out := flag.String("out", defaultOutput, "path of the HTML report to write")
	engineName := flag.String("engine", cfg.Analytics.Engine, "analytics engine: csv or duckdb")
	flag.Parse()

	engine, err := analytics.NewEngine(*engineName, *logDir)
	if err != nil {
		logging.Fatal().Err(err).Str("engine", *engineName).Msg("Failed to open analytics engine")
	}
	defer func() { _ = engine.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	summary, err := analytics.NewService(engine, cfg.Analytics.RecentLimit).Summary(ctx)
	if err != nil {
		logging.Fatal().Err(err).Str("logs", *logDir).Msg("Failed to compute metrics")
	}
	if err := report.WriteFile(*out, summary, time.Now()); err != nil {
		logging.Fatal().Err(err).Msg("Failed to write report")
	}

	logging.Info().
		Str("path", *out).
		Int("users", summary.Metrics.TotalUsers()).
		Bool("srm", summary.SRM.HasSRM).
		Float64("ctr_lift", summary.Lift.CTR).
		Msg("Report generated")
}
