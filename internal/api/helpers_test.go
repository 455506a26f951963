// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/marquee/internal/analytics"
	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/authz"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/deadletter"
	"github.com/tomtom215/marquee/internal/eventlog"
	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/experiment"
	"github.com/tomtom215/marquee/internal/ingest"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/websocket"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "correct horse battery"
)

type testEnv struct {
	t          *testing.T
	router     http.Handler
	handler    *Handler
	pipeline   *ingest.Pipeline
	reader     *eventlog.Reader
	deadletter *deadletter.Store
}

type envOptions struct {
	admin     bool
	rateLimit int
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Recommend.Count = recommend.DefaultCount
	cfg.Performance.SlowThreshold = time.Second
	cfg.Security.RateLimitDisabled = opts.rateLimit == 0
	cfg.Security.RateLimitRequests = opts.rateLimit
	cfg.Security.RateLimitWindow = time.Minute

	pipeline := ingest.New(ingest.Config{
		QueueCapacity:   1000,
		DequeueTimeout:  10 * time.Millisecond,
		DropLogInterval: time.Second,
	}, eventlog.NewStore(dir))
	pipeline.Start()
	t.Cleanup(func() { pipeline.Stop(2 * time.Second) })

	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:     "api-test-secret-with-at-least-32-chars",
		TTL:        time.Hour,
		CookieName: "marquee_session",
	})
	if err != nil {
		t.Fatal(err)
	}
	assigner, err := experiment.NewAssigner(experiment.HashMD5, "")
	if err != nil {
		t.Fatal(err)
	}
	engine, err := analytics.NewEngine("csv", dir)
	if err != nil {
		t.Fatal(err)
	}

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Serve(ctx) }()
	t.Cleanup(cancel)

	deps := Deps{
		Config:      cfg,
		Pipeline:    pipeline,
		Sessions:    sessions,
		Assigner:    assigner,
		Recommender: recommend.NewEngine(recommend.BuiltinCatalog(), 42, zerolog.Nop()),
		Analytics:   analytics.NewService(engine, 5),
		Hub:         hub,
	}

	env := &testEnv{t: t, pipeline: pipeline, reader: eventlog.NewReader(dir)}
	if opts.admin {
		hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		admin, err := auth.NewBasicAuthManager(testAdminUser, string(hash))
		if err != nil {
			t.Fatal(err)
		}
		enforcer, err := authz.NewEnforcer()
		if err != nil {
			t.Fatal(err)
		}
		store, err := deadletter.Open(deadletter.Config{InMemory: true})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = store.Close() })
		deps.Admin, deps.Enforcer, deps.DeadLetter = admin, enforcer, store
		env.deadletter = store
	}

	h, err := NewHandler(deps)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	env.handler = h
	env.router = NewRouter(h)
	return env
}

// client carries cookies between requests like a browser.
type client struct {
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (e *testEnv) client() *client {
	return &client{env: e, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, path string, body interface{}, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	c.env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				c.env.t.Fatal(err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	for _, m := range mutate {
		m(req)
	}

	rec := httptest.NewRecorder()
	c.env.router.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) login(userID string) {
	c.env.t.Helper()
	rec := c.do(http.MethodPost, "/login", map[string]string{"user_id": userID})
	if rec.Code != http.StatusOK {
		c.env.t.Fatalf("login(%q) status = %d, body %s", userID, rec.Code, rec.Body)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body)
	}
	env := decode(t, rec, nil)
	if env.Success || env.Error == nil {
		t.Fatalf("expected an error envelope, got %s", rec.Body)
	}
	if message != "" && env.Error.Message != message {
		t.Errorf("error message = %q, want %q", env.Error.Message, message)
	}
}

// flush waits until every enqueued event has been handled by the worker.
func (e *testEnv) flush() {
	e.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		s := e.pipeline.Stats()
		if s.QueueSize == 0 && s.Persisted+s.Failed >= s.Enqueued {
			return
		}
		if time.Now().After(deadline) {
			e.t.Fatalf("pipeline did not drain: %+v", s)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (e *testEnv) logged(kind events.Kind) []events.Event {
	e.t.Helper()
	e.flush()
	rows, err := e.reader.ReadAll(kind)
	if err != nil {
		e.t.Fatalf("ReadAll(%s) error = %v", kind, err)
	}
	return rows
}
