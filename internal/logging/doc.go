// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package logging provides the process-wide zerolog logger used by every
// Marquee component.
//
// # Overview
//
// A single global logger is configured once from main and is safe for
// concurrent use. Components obtain child loggers with WithComponent, and
// request-scoped code uses Ctx to pick up request and correlation IDs that
// the HTTP middleware placed in the context.
//
// # Usage
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//	logging.Ctx(r.Context()).Warn().Msg("slow request")
//
//	log := logging.WithComponent("ingest")
//	log.Error().Err(err).Str("kind", "click").Msg("persist failed")
//
// # Formats
//
//   - json: one JSON object per line (default, production)
//   - console: human readable output for local development
//
// # slog Bridge
//
// The suture supervisor reports through log/slog. NewSlogLogger returns an
// *slog.Logger whose records are written by the zerolog backend so that
// supervisor events land in the same stream as application logs.
package logging
