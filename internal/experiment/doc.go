// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package experiment assigns users to the control or treatment variant.
//
// Assignment is a pure function of the user ID, so a user keeps their
// variant across sessions and restarts without any stored state. The md5
// hash reproduces the assignment of previously collected event logs; the
// murmur3 hash is faster and takes a salt so a new experiment can
// reshuffle users.
package experiment
