// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/marquee/internal/events"
)

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func TestHandlerStreamsEvents(t *testing.T) {
	t.Parallel()

	hub, _, _ := startHub(t)
	srv := httptest.NewServer(NewHandler(hub, []string{"http://localhost:5000"}))
	defer srv.Close()

	conn, _, err := dial(t, srv, "http://localhost:5000")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Publish(mustEvent(t, events.KindConversion, "carol", events.VariantControl, "3", 4, ""))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg struct {
		Type string       `json:"type"`
		Data events.Event `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	if msg.Type != MessageTypeEvent || msg.Data.UserID != "carol" || msg.Data.Rating != 4 {
		t.Errorf("message = %+v", msg)
	}
}

func TestHandlerAnswersPing(t *testing.T) {
	t.Parallel()

	hub, _, _ := startHub(t)
	srv := httptest.NewServer(NewHandler(hub, []string{"*"}))
	defer srv.Close()

	conn, _, err := dial(t, srv, "http://example.test")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != MessageTypePong {
		t.Errorf("Type = %q, want pong", msg.Type)
	}
}

func TestHandlerRejectsOrigin(t *testing.T) {
	t.Parallel()

	hub, _, _ := startHub(t)
	srv := httptest.NewServer(NewHandler(hub, []string{"http://localhost:5000"}))
	defer srv.Close()

	tests := map[string]string{
		"missing origin": "",
		"foreign origin": "http://evil.test",
	}
	for name, origin := range tests {
		t.Run(name, func(t *testing.T) {
			conn, resp, err := dial(t, srv, origin)
			if err == nil {
				conn.Close()
				t.Fatal("Dial() succeeded")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("response = %v, want 403", resp)
			}
		})
	}
}

func TestHandlerAllowsSameHost(t *testing.T) {
	t.Parallel()

	hub, _, _ := startHub(t)
	srv := httptest.NewServer(NewHandler(hub, nil))
	defer srv.Close()

	conn, _, err := dial(t, srv, srv.URL)
	if err != nil {
		t.Fatalf("Dial() from same host error = %v", err)
	}
	conn.Close()
}
