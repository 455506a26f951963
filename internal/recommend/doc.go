// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package recommend produces the movie lists shown to each experiment variant.

Two mock algorithms stand in for real models:

  - Control ("matrix_factorization"): a random sample for new users, and
    0.3*genre_match + 0.7*noise once the user has rated something.
  - Treatment ("lightgcn"): the highest rated movies for new users, and
    0.6*genre_match + 0.4*avg_rating/5 once the user has rated something.

Genre preferences are built from the user's ratings: each genre of a rated
movie gains rating/5. A movie's genre match is the sum of its genres'
preferences divided by five, capped at one. Movies the user already rated
are never recommended.

The catalog is embedded (40 films) and can be replaced by a CSV file with
the columns movieId,title,genres,avg_rating,poster_url.

Engine is safe for concurrent use. Its random source is seeded once; pass a
fixed seed for reproducible output in tests.
*/
package recommend
