// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/marquee/internal/logging"
)

//go:embed movies.csv
var builtinCatalog []byte

// DefaultAvgRating is used for catalog rows without a rating.
const DefaultAvgRating = 3.0

// Movie is one catalog entry. Genres is pipe separated.
type Movie struct {
	ID        int     `json:"movieId"`
	Title     string  `json:"title"`
	Genres    string  `json:"genres"`
	AvgRating float64 `json:"avg_rating"`
	PosterURL string  `json:"poster_url,omitempty"`
}

// GenreList splits Genres, dropping empty entries.
func (m Movie) GenreList() []string {
	parts := strings.Split(m.Genres, "|")
	out := parts[:0]
	for _, g := range parts {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Catalog is an immutable set of movies.
type Catalog struct {
	movies []Movie
	byID   map[int]int
}

// NewCatalog builds a catalog from movies. Later duplicates of an ID are
// ignored.
func NewCatalog(movies []Movie) *Catalog {
	c := &Catalog{byID: make(map[int]int, len(movies))}
	for _, m := range movies {
		if _, dup := c.byID[m.ID]; dup {
			continue
		}
		c.byID[m.ID] = len(c.movies)
		c.movies = append(c.movies, m)
	}
	return c
}

// BuiltinCatalog returns the embedded 40-film catalog.
func BuiltinCatalog() *Catalog {
	movies, err := ParseCatalog(bytes.NewReader(builtinCatalog))
	if err != nil {
		panic(fmt.Sprintf("recommend: embedded catalog is invalid: %v", err))
	}
	return NewCatalog(movies)
}

// LoadCatalog reads the CSV at path, falling back to the builtin catalog
// when path is empty or does not exist.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return BuiltinCatalog(), nil
	}
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if errors.Is(err, fs.ErrNotExist) {
		logging.Debug().Str("path", path).Msg("catalog file not found, using builtin catalog")
		return BuiltinCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	movies, err := ParseCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("catalog %s has no movies", path)
	}
	logging.Info().Str("path", path).Int("movies", len(movies)).Msg("loaded movie catalog")
	return NewCatalog(movies), nil
}

// ParseCatalog reads movieId,title,genres,avg_rating,poster_url rows. The
// header row is required; columns are matched by name and avg_rating and
// poster_url are optional.
func ParseCatalog(r io.Reader) ([]Movie, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{"movieId", "title", "genres"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var movies []Movie
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.Atoi(field(rec, "movieId"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid movieId: %w", line, err)
		}
		m := Movie{
			ID:        id,
			Title:     field(rec, "title"),
			Genres:    field(rec, "genres"),
			AvgRating: DefaultAvgRating,
			PosterURL: field(rec, "poster_url"),
		}
		if s := field(rec, "avg_rating"); s != "" {
			if m.AvgRating, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("line %d: invalid avg_rating: %w", line, err)
			}
		}
		movies = append(movies, m)
	}
	return movies, nil
}

// Len returns the number of movies.
func (c *Catalog) Len() int {
	return len(c.movies)
}

// All returns a copy of every movie in catalog order.
func (c *Catalog) All() []Movie {
	out := make([]Movie, len(c.movies))
	copy(out, c.movies)
	return out
}

// Get returns the movie with the given ID.
func (c *Catalog) Get(id int) (Movie, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Movie{}, false
	}
	return c.movies[i], true
}

// Lookup resolves a movie ID as it arrives from a request or event log.
func (c *Catalog) Lookup(movieID string) (Movie, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(movieID))
	if err != nil {
		return Movie{}, false
	}
	return c.Get(id)
}

// ByPopularity returns every movie sorted by avg_rating, highest first.
// Ties keep catalog order.
func (c *Catalog) ByPopularity() []Movie {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgRating > out[j].AvgRating
	})
	return out
}
