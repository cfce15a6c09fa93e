// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication gating,
// CSRF protection, and login abuse protection.
package middleware

import (
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/eventdesk-go/internal/session"
)

// Session keys for the HTTP session.
const (
	SessionKeyEmail = "user_email"
	SessionKeyFlash = "flash"
)

// Routes used by the gate.
const (
	RouteLogin = "/login"
	RouteAdmin = "/admin"
)

// RequireAuth gates the admin page set: requests without an authenticated
// session are redirected to the login surface. Both the browser session and
// the session manager must agree; an expired manager session tears down the
// browser session too.
func RequireAuth(sm *scs.SessionManager, mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := sm.GetString(r.Context(), SessionKeyEmail)
			if email == "" {
				http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
				return
			}
			if !mgr.IsAuthenticated() {
				// The desk session expired underneath the browser session.
				_ = sm.Destroy(r.Context())
				http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectAuthenticated sends already-authenticated users away from the
// login surface.
func RedirectAuthenticated(sm *scs.SessionManager, mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sm.GetString(r.Context(), SessionKeyEmail) != "" && mgr.IsAuthenticated() {
				http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
