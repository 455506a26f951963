// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package authz

import (
	"net/http"

	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/logging"
)

// Middleware enforces policy on requests authenticated by the auth package.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware returns middleware backed by enforcer.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Authorize allows the request when the subject may perform the action
// implied by the HTTP method on the request path.
func (m *Middleware) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := auth.GetSubject(r.Context())
		if subject == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		object := r.URL.Path
		action := methodToAction(r.Method)
		allowed, err := m.enforcer.EnforceWithRoles(subject.ID, subject.Roles, object, action)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Str("subject", subject.ID).Msg("authorization check failed")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			logging.Ctx(r.Context()).Warn().
				Str("subject", subject.ID).
				Str("object", object).
				Str("action", action).
				Msg("authorization denied")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	default:
		return ActionWrite
	}
}
