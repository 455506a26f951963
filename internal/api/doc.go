// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package api is the HTTP surface of the recommender.

Routes:

	GET  /                         landing page
	GET  /dashboard                experiment dashboard
	POST /login                    {user_id} -> assigns a variant, sets the session cookie
	GET  /recommendations          12 movies for the session's variant, logs an impression
	POST /click                    {movie_id} -> logs a click
	POST /rate                     {movie_id, rating} -> logs a conversion, personalizes
	GET  /logout                   clears the session
	GET  /api/metrics              per-variant metrics, SRM check, lift
	GET  /api/recent-events        latest impressions, clicks and conversions
	POST /api/engagement           {movie_id, dwell_time_ms, action} -> logs dwell time
	GET  /api/health/queue         ingestion queue and worker state
	GET  /api/health/live          liveness
	GET  /api/events/stream        websocket feed of persisted events
	GET  /api/admin/deadletter     failed events (admin or analyst)
	POST /api/admin/deadletter/replay  re-enqueue failed events (admin)
	GET  /metrics                  Prometheus

Handlers never touch the event logs directly. Every event goes through
ingest.Pipeline, whose Record call never blocks; a full queue is logged and
otherwise invisible to the visitor.

JSON responses share one envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "UNAUTHORIZED", "message": "Please login first"}}
*/
package api
