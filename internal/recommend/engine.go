// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/events"
)

// DefaultCount is the list length when a request does not set one.
const DefaultCount = 12

// Engine picks the algorithm for a variant and ranks the catalog with it.
// It is safe for concurrent use.
type Engine struct {
	catalog    *Catalog
	algorithms map[events.Variant]Algorithm
	logger     zerolog.Logger

	// rng is not safe for concurrent use on its own.
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewEngine returns an engine over catalog. A zero seed seeds from the
// clock.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(catalog *Catalog, seed int64, logger zerolog.Logger) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		catalog: catalog,
		algorithms: map[events.Variant]Algorithm{
			events.VariantControl:   MatrixFactorization{},
			events.VariantTreatment: LightGCN{},
		},
		logger: logger.With().Str("component", "recommend").Logger(),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for recommendation shuffling
	}
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Algorithm returns the algorithm serving variant. Unknown variants get
// the control algorithm.
func (e *Engine) Algorithm(variant events.Variant) Algorithm {
	if alg, ok := e.algorithms[variant]; ok {
		return alg
	}
	return e.algorithms[events.VariantControl]
}

// Recommend returns up to n movies for a user in variant who has given
// ratings. n <= 0 means DefaultCount.
func (e *Engine) Recommend(variant events.Variant, n int, ratings Ratings) []Movie {
	if n <= 0 {
		n = DefaultCount
	}
	alg := e.Algorithm(variant)

	e.rngMu.Lock()
	defer e.rngMu.Unlock()

	if len(ratings) == 0 {
		return alg.Cold(e.catalog, n, e.rng)
	}

	prefs := e.catalog.Preferences(ratings)
	type scored struct {
		movie Movie
		score float64
	}
	candidates := make([]scored, 0, e.catalog.Len())
	for _, m := range e.catalog.movies {
		if _, rated := ratings[m.ID]; rated {
			continue
		}
		candidates = append(candidates, scored{movie: m, score: alg.Score(m, prefs, e.rng)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]Movie, n)
	for i := range out {
		out[i] = candidates[i].movie
	}

	e.logger.Debug().
		Str("algorithm", alg.Name()).
		Int("ratings", len(ratings)).
		Int("genres", len(prefs)).
		Int("returned", len(out)).
		Msg("personalized recommendations")
	return out
}
