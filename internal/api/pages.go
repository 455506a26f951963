// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"embed"
	"net/http"

	"github.com/tomtom215/marquee/internal/logging"
)

//go:embed web/index.html web/dashboard.html
var pages embed.FS

// Index serves the browsing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, "web/index.html")
}

// Dashboard serves the experiment dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, "web/dashboard.html")
}

func servePage(w http.ResponseWriter, r *http.Request, name string) {
	body, err := pages.ReadFile(name)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("embedded page missing")
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(body)
}
