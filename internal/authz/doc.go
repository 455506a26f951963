// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package authz authorizes administrative requests with Casbin RBAC.
//
// The model and default policy are embedded. Subjects come from the auth
// package; a subject is allowed when its ID or any of its roles matches a
// policy line for the request path and action. Paths are matched with
// keyMatch2, so "/api/admin/*" covers every admin route.
package authz
