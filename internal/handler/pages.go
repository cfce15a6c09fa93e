// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/eventdesk-go/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type loginPageData struct {
	Flash string
}

func renderLoginPage(w http.ResponseWriter, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "login.html", data); err != nil {
		slog.Error("failed to render login page", "error", err)
	}
}

type adminPageData struct {
	Email     string
	Role      string
	ExpiresAt string
}

// AdminShell serves the admin single-page shell. The page drives the
// section editors and the session countdown against the JSON API.
type AdminShell struct {
	manager         *session.Manager
	sessionDuration time.Duration
}

// NewAdminShell creates the admin shell handler.
func NewAdminShell(mgr *session.Manager, duration time.Duration) *AdminShell {
	return &AdminShell{manager: mgr, sessionDuration: duration}
}

func (h *AdminShell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.manager.Current()
	if !ok {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplates.ExecuteTemplate(w, "admin.html", adminPageData{
		Email:     sess.User.Email,
		Role:      sess.Role,
		ExpiresAt: sess.LoginAt.Add(h.sessionDuration).UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("failed to render admin shell", "error", err)
	}
}
