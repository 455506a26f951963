// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import "math"

// GenrePreferences maps a genre to the user's accumulated affinity for it.
type GenrePreferences map[string]float64

// Ratings maps a movie ID to the user's 1-5 rating.
type Ratings map[int]int

// Preferences builds genre preferences from ratings. Ratings of unknown
// movies are ignored.
func (c *Catalog) Preferences(ratings Ratings) GenrePreferences {
	prefs := GenrePreferences{}
	for id, rating := range ratings {
		m, ok := c.Get(id)
		if !ok {
			continue
		}
		weight := float64(rating) / 5.0
		for _, g := range m.GenreList() {
			prefs[g] += weight
		}
	}
	return prefs
}

// Match returns how well m fits prefs, in [0, 1].
func (p GenrePreferences) Match(m Movie) float64 {
	sum := 0.0
	for _, g := range m.GenreList() {
		sum += p[g]
	}
	return math.Min(sum/5.0, 1.0)
}

// Algorithm scores candidate movies for one variant.
type Algorithm interface {
	// Name identifies the algorithm in logs and responses.
	Name() string

	// Cold orders the catalog for a user without ratings.
	Cold(c *Catalog, n int, rnd Rand) []Movie

	// Score rates m for a user with prefs. Higher is better.
	Score(m Movie, prefs GenrePreferences, rnd Rand) float64
}

// Rand is the subset of *rand.Rand the algorithms use.
type Rand interface {
	Float64() float64
	Perm(n int) []int
}

// MatrixFactorization is the control algorithm: mostly noise with a
// slight genre bias.
type MatrixFactorization struct{}

// Name implements Algorithm.
func (MatrixFactorization) Name() string { return "matrix_factorization" }

// Cold implements Algorithm with a uniform random sample.
func (MatrixFactorization) Cold(c *Catalog, n int, rnd Rand) []Movie {
	all := c.All()
	if n > len(all) {
		n = len(all)
	}
	out := make([]Movie, 0, n)
	for _, i := range rnd.Perm(len(all))[:n] {
		out = append(out, all[i])
	}
	return out
}

// Score implements Algorithm.
func (MatrixFactorization) Score(m Movie, prefs GenrePreferences, rnd Rand) float64 {
	if len(prefs) == 0 {
		return rnd.Float64()
	}
	return 0.3*prefs.Match(m) + 0.7*rnd.Float64()
}

// LightGCN is the treatment algorithm: genre match blended with
// popularity.
type LightGCN struct{}

// Name implements Algorithm.
func (LightGCN) Name() string { return "lightgcn" }

// Cold implements Algorithm with the most popular movies.
func (LightGCN) Cold(c *Catalog, n int, _ Rand) []Movie {
	out := c.ByPopularity()
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// Score implements Algorithm.
func (LightGCN) Score(m Movie, prefs GenrePreferences, _ Rand) float64 {
	popularity := m.AvgRating / 5.0
	if len(prefs) == 0 {
		return popularity
	}
	return 0.6*prefs.Match(m) + 0.4*popularity
}
