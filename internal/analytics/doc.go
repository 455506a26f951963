// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package analytics turns the event logs into experiment results.

An Engine counts impressions, clicks, conversions and distinct users per
variant. Two engines read the same CSV logs:

  - CSVEngine streams the files with the event log reader.
  - DuckDBEngine runs SQL over the files with DuckDB's read_csv, which
    scales to logs that no longer fit comfortably in a single pass.

Service derives the reported figures from those counts:

	CTR  = clicks / impressions
	CVR  = conversions / clicks
	Lift = (treatment - control) / control * 100

Every rate is zero when its denominator is zero. CheckSRM flags a sample
ratio mismatch when either variant's share of users deviates from 0.5 by
more than 0.05.
*/
package analytics
