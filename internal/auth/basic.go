// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/marquee/internal/logging"
)

// RoleAdmin is the role granted to the configured administrator.
const RoleAdmin = "admin"

var (
	// ErrNoCredentials means the request carried no Basic credentials.
	ErrNoCredentials = errors.New("no credentials")

	// ErrInvalidCredentials means the credentials did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Subject is an authenticated administrator.
type Subject struct {
	ID    string
	Roles []string
}

type subjectKey struct{}

// WithSubject returns ctx carrying s.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, s)
}

// GetSubject returns the subject stored by WithSubject, or nil.
func GetSubject(ctx context.Context) *Subject {
	s, _ := ctx.Value(subjectKey{}).(*Subject)
	return s
}

// BasicAuthManager checks HTTP Basic credentials against one bcrypt hash.
type BasicAuthManager struct {
	username     string
	passwordHash []byte
	realm        string
}

// NewBasicAuthManager returns a manager for username with the given
// bcrypt password hash.
func NewBasicAuthManager(username, passwordHash string) (*BasicAuthManager, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("password hash is not a bcrypt hash: %w", err)
	}
	return &BasicAuthManager{
		username:     username,
		passwordHash: []byte(passwordHash),
		realm:        "Marquee Admin",
	}, nil
}

// Authenticate validates the Basic credentials of r.
func (m *BasicAuthManager) Authenticate(r *http.Request) (*Subject, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrNoCredentials
	}

	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
	if !usernameMatch || !passwordMatch {
		return nil, ErrInvalidCredentials
	}
	return &Subject{ID: username, Roles: []string{RoleAdmin}}, nil
}

// Middleware rejects requests without valid credentials and stores the
// Subject for the rest.
func (m *BasicAuthManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.Authenticate(r)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				logging.Ctx(r.Context()).Warn().Str("remote_addr", r.RemoteAddr).Msg("admin authentication failed")
			}
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, m.realm))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
