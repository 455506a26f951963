// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package websocket streams persisted experiment events to dashboard clients.

The ingest worker hands each event it has written to Hub.Publish, which
never blocks: when the broadcast buffer is full the event is dropped from
the live feed (it is already on disk). The hub fans messages out to every
connected Client; a client whose send buffer is full is disconnected.

Each client runs two goroutines:
  - readPump: reads control messages and answers {"type":"ping"} with a pong
  - writePump: writes queued messages and keeps the connection alive with pings

Messages are JSON objects of the form:

	{"type": "event", "data": {"kind": "click", "user_id": "alice", ...}}

The hub is a suture service; Serve returns when its context is canceled and
closes every client on the way out.
*/
package websocket
