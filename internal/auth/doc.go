// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package auth identifies visitors and administrators.

Visitors log in with nothing but a user ID. Their session (user ID,
assigned variant and the ratings they have given) travels in an HS256
signed JWT stored in an HTTP-only cookie, so the server keeps no session
state and any instance can serve any request.

Administrators authenticate with HTTP Basic credentials checked against a
bcrypt hash from the configuration. A successful check stores a Subject in
the request context for the authz package to authorize.
*/
package auth
