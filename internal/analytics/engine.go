// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package analytics

import "fmt"

// Engine names accepted by NewEngine.
const (
	EngineCSV    = "csv"
	EngineDuckDB = "duckdb"
)

// NewEngine returns the named engine reading logs from dir.
func NewEngine(name, dir string) (Engine, error) {
	switch name {
	case "", EngineCSV:
		return NewCSVEngine(dir), nil
	case EngineDuckDB:
		return NewDuckDBEngine(dir)
	default:
		return nil, fmt.Errorf("unknown analytics engine %q", name)
	}
}
