// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package experiment

import (
	"crypto/md5" //nolint:gosec // bucketing only, not security
	"fmt"

	"github.com/spaolacci/murmur3"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/metrics"
)

// Supported hash names.
const (
	HashMD5     = "md5"
	HashMurmur3 = "murmur3"
)

// Assigner maps user IDs to variants.
type Assigner struct {
	hash string
	salt string
}

// NewAssigner returns an Assigner using the named hash. salt is ignored by
// md5.
func NewAssigner(hash, salt string) (*Assigner, error) {
	switch hash {
	case "", HashMD5:
		return &Assigner{hash: HashMD5}, nil
	case HashMurmur3:
		return &Assigner{hash: HashMurmur3, salt: salt}, nil
	default:
		return nil, fmt.Errorf("unknown assignment hash %q", hash)
	}
}

// Hash returns the hash name in use.
func (a *Assigner) Hash() string {
	return a.hash
}

// Assign returns the variant for userID. An empty ID is always control.
func (a *Assigner) Assign(userID string) events.Variant {
	v := a.variant(userID)
	metrics.VariantAssignments.WithLabelValues(string(v)).Inc()
	return v
}

func (a *Assigner) variant(userID string) events.Variant {
	if userID == "" {
		return events.VariantControl
	}
	if a.even(userID) {
		return events.VariantTreatment
	}
	return events.VariantControl
}

// even reports whether the hash of userID, read as an unsigned integer,
// is even.
func (a *Assigner) even(userID string) bool {
	if a.hash == HashMurmur3 {
		return murmur3.Sum32([]byte(a.salt+userID))%2 == 0
	}
	// The parity of a big-endian integer is the parity of its last byte.
	sum := md5.Sum([]byte(userID)) //nolint:gosec
	return sum[len(sum)-1]&1 == 0
}
