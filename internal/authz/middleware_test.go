// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/marquee/internal/auth"
)

func TestMiddlewareAuthorize(t *testing.T) {
	t.Parallel()

	m := NewMiddleware(newTestEnforcer(t))
	tests := []struct {
		name    string
		method  string
		path    string
		subject *auth.Subject
		want    int
	}{
		{"no subject", http.MethodGet, "/api/admin/deadletter", nil, http.StatusUnauthorized},
		{"admin read", http.MethodGet, "/api/admin/deadletter", &auth.Subject{ID: "root", Roles: []string{"admin"}}, http.StatusOK},
		{"admin replay", http.MethodPost, "/api/admin/deadletter/replay", &auth.Subject{ID: "root", Roles: []string{"admin"}}, http.StatusOK},
		{"analyst read", http.MethodGet, "/api/admin/deadletter", &auth.Subject{ID: "ann", Roles: []string{"analyst"}}, http.StatusOK},
		{"analyst replay", http.MethodPost, "/api/admin/deadletter/replay", &auth.Subject{ID: "ann", Roles: []string{"analyst"}}, http.StatusForbidden},
		{"no roles", http.MethodGet, "/api/admin/deadletter", &auth.Subject{ID: "guest"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := m.Authorize(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.subject != nil {
				req = req.WithContext(auth.WithSubject(req.Context(), tt.subject))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMethodToAction(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		http.MethodGet:    ActionRead,
		http.MethodHead:   ActionRead,
		http.MethodPost:   ActionWrite,
		http.MethodDelete: ActionWrite,
	}
	for method, want := range tests {
		if got := methodToAction(method); got != want {
			t.Errorf("methodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}
