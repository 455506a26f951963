// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
)

// ErrNoSession is returned when the request carries no valid session.
var ErrNoSession = errors.New("no session")

// Session is the per-visitor state kept in the cookie.
type Session struct {
	UserID  string         `json:"uid"`
	Variant events.Variant `json:"var"`
	// Ratings maps movie ID to a 1-5 rating.
	Ratings map[string]int `json:"rat,omitempty"`
}

// RatingsByID returns the ratings keyed by numeric movie ID. Non-numeric
// keys are skipped.
func (s Session) RatingsByID() map[int]int {
	out := make(map[int]int, len(s.Ratings))
	for k, v := range s.Ratings {
		if id, err := strconv.Atoi(k); err == nil {
			out[id] = v
		}
	}
	return out
}

// Claims are the JWT claims carrying a Session.
type Claims struct {
	Session
	jwt.RegisteredClaims
}

// SessionConfig configures NewSessionManager.
type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// SessionManager signs and verifies session cookies.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	cookie string
	secure bool
}

// NewSessionManager returns a manager for cfg. An empty secret is replaced
// by a random one, which invalidates sessions on every restart. A zero TTL
// means 24h; a negative TTL is an error.
func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("session ttl must not be negative, got %s", cfg.TTL)
	}
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		logging.Warn().Msg("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "marquee_session"
	}
	return &SessionManager{
		secret: secret,
		ttl:    cfg.TTL,
		cookie: cfg.CookieName,
		secure: cfg.Secure,
	}, nil
}

// Sign returns a signed token for s.
func (m *SessionManager) Sign(s Session) (string, error) {
	now := time.Now()
	claims := &Claims{
		Session: s,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Verify parses a token produced by Sign.
func (m *SessionManager) Verify(tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("failed to parse session: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return Session{}, fmt.Errorf("invalid session claims")
	}
	return claims.Session, nil
}

// Read returns the session of r, or ErrNoSession.
func (m *SessionManager) Read(r *http.Request) (Session, error) {
	c, err := r.Cookie(m.cookie)
	if err != nil || c.Value == "" {
		return Session{}, ErrNoSession
	}
	s, err := m.Verify(c.Value)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("rejected session cookie")
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Write stores s in the response cookie.
func (m *SessionManager) Write(w http.ResponseWriter, s Session) error {
	token, err := m.Sign(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName returns the session cookie name.
func (m *SessionManager) CookieName() string {
	return m.cookie
}
