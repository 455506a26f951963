// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/events"
)

func newTestEngine(seed int64) *Engine {
	return NewEngine(BuiltinCatalog(), seed, zerolog.Nop())
}

func ids(movies []Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func TestPreferences(t *testing.T) {
	t.Parallel()

	c := BuiltinCatalog()
	// 2 = Crime|Drama, 9 = Drama|Thriller, 999 unknown.
	prefs := c.Preferences(Ratings{2: 5, 9: 3, 999: 5})

	want := GenrePreferences{"Crime": 1.0, "Drama": 1.6, "Thriller": 0.6}
	if len(prefs) != len(want) {
		t.Fatalf("Preferences() = %v, want %v", prefs, want)
	}
	for g, w := range want {
		if math.Abs(prefs[g]-w) > 1e-9 {
			t.Errorf("prefs[%s] = %v, want %v", g, prefs[g], w)
		}
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		prefs GenrePreferences
		movie Movie
		want  float64
	}{
		{"no overlap", GenrePreferences{"Horror": 1}, Movie{Genres: "Drama"}, 0},
		{"single genre", GenrePreferences{"Drama": 1}, Movie{Genres: "Drama"}, 0.2},
		{"sums genres", GenrePreferences{"Drama": 1, "Crime": 1.5}, Movie{Genres: "Crime|Drama"}, 0.5},
		{"capped at one", GenrePreferences{"Drama": 10}, Movie{Genres: "Drama"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.prefs.Match(tt.movie); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTreatmentColdStartIsPopularity(t *testing.T) {
	t.Parallel()

	got := ids(newTestEngine(1).Recommend(events.VariantTreatment, 12, nil))
	want := []int{1, 2, 3, 4, 21, 5, 6, 22, 31, 7, 8, 25}
	if len(got) != len(want) {
		t.Fatalf("Recommend() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Recommend() = %v, want %v", got, want)
		}
	}
}

func TestControlColdStartIsRandomSample(t *testing.T) {
	t.Parallel()

	e := newTestEngine(1)
	got := e.Recommend(events.VariantControl, 12, nil)
	if len(got) != 12 {
		t.Fatalf("Recommend() returned %d movies, want 12", len(got))
	}
	seen := map[int]bool{}
	for _, m := range got {
		if seen[m.ID] {
			t.Fatalf("duplicate movie %d in %v", m.ID, ids(got))
		}
		seen[m.ID] = true
	}

	// Same seed, same sample.
	again := ids(newTestEngine(1).Recommend(events.VariantControl, 12, nil))
	for i, id := range ids(got) {
		if again[i] != id {
			t.Fatalf("seeded engines disagree: %v vs %v", ids(got), again)
		}
	}
}

func TestRecommendExcludesRated(t *testing.T) {
	t.Parallel()

	ratings := Ratings{1: 5, 2: 4, 3: 1}
	for _, v := range []events.Variant{events.VariantControl, events.VariantTreatment} {
		t.Run(string(v), func(t *testing.T) {
			t.Parallel()
			got := newTestEngine(3).Recommend(v, 40, ratings)
			if len(got) != 37 {
				t.Errorf("Recommend() returned %d movies, want 37", len(got))
			}
			for _, m := range got {
				if _, rated := ratings[m.ID]; rated {
					t.Errorf("rated movie %d recommended", m.ID)
				}
			}
		})
	}
}

func TestTreatmentPersonalized(t *testing.T) {
	t.Parallel()

	// A 5-star Drama rating lifts every Drama by 0.12, so the best
	// remaining Drama (The Godfather, 4.4) wins.
	got := newTestEngine(1).Recommend(events.VariantTreatment, 12, Ratings{1: 5})
	if len(got) != 12 {
		t.Fatalf("Recommend() returned %d movies", len(got))
	}
	if got[0].ID != 2 {
		t.Errorf("top pick = %d (%s), want 2", got[0].ID, got[0].Title)
	}
}

func TestRecommendDefaultsAndUnknownVariant(t *testing.T) {
	t.Parallel()

	e := newTestEngine(1)
	if got := len(e.Recommend(events.VariantTreatment, 0, nil)); got != DefaultCount {
		t.Errorf("Recommend(n=0) returned %d, want %d", got, DefaultCount)
	}
	if got := len(e.Recommend(events.VariantTreatment, 100, nil)); got != 40 {
		t.Errorf("Recommend(n=100) returned %d, want 40", got)
	}
	if got := e.Algorithm(events.VariantSystem).Name(); got != "matrix_factorization" {
		t.Errorf("Algorithm(system) = %s, want control algorithm", got)
	}
}

func TestScores(t *testing.T) {
	t.Parallel()

	m := Movie{Genres: "Drama", AvgRating: 4.0}
	prefs := GenrePreferences{"Drama": 5}
	fixed := fixedRand(0.5)

	tests := []struct {
		name  string
		alg   Algorithm
		prefs GenrePreferences
		want  float64
	}{
		{"lightgcn cold", LightGCN{}, nil, 0.8},
		{"lightgcn warm", LightGCN{}, prefs, 0.6*1 + 0.4*0.8},
		{"mf cold", MatrixFactorization{}, nil, 0.5},
		{"mf warm", MatrixFactorization{}, prefs, 0.3*1 + 0.7*0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.alg.Score(m, tt.prefs, fixed); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineConcurrentUse(t *testing.T) {
	t.Parallel()

	e := newTestEngine(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := events.VariantControl
			if i%2 == 0 {
				v = events.VariantTreatment
			}
			if got := e.Recommend(v, 12, Ratings{i%40 + 1: 4}); len(got) != 12 {
				t.Errorf("Recommend() returned %d movies", len(got))
			}
		}(i)
	}
	wg.Wait()
}

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func (fixedRand) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
