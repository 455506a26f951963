// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package events

import (
	"fmt"
	"strings"
)

// DefaultEngagementAction is used when a client reports no action.
const DefaultEngagementAction = "view"

// EngagementMetadata renders dwell_time_ms=<ms>,action=<action>.
func EngagementMetadata(dwellMs int64, action string) string {
	if action == "" {
		action = DefaultEngagementAction
	}
	return fmt.Sprintf("dwell_time_ms=%d,action=%s", dwellMs, action)
}

// PerformanceMetadata renders endpoint=<e>,latency_ms=<0.00>,method=<m>,status=<s>.
func PerformanceMetadata(endpoint string, latencyMs float64, method string, status int) string {
	return fmt.Sprintf("endpoint=%s,latency_ms=%.2f,method=%s,status=%d", endpoint, latencyMs, method, status)
}

// ParseMetadata splits a key=value,key=value string. Pairs without '=' are
// ignored; later duplicates win.
func ParseMetadata(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// JoinMovieIDs renders an impression's movie list.
func JoinMovieIDs(ids []string) string {
	return strings.Join(ids, ",")
}
