// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/eventdesk-go/internal/middleware"
	"github.com/olegiv/eventdesk-go/internal/model"
	"github.com/olegiv/eventdesk-go/internal/session"
)

// Route constants used by the auth flow.
const (
	redirectLogin = "/login"
	redirectAdmin = "/admin"
)

// AuthHandler handles the login and logout routes and exposes the current
// session state for the expiry countdown.
type AuthHandler struct {
	sessionManager  *scs.SessionManager
	manager         *session.Manager
	loginProtection *middleware.LoginProtection
	sessionDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sm *scs.SessionManager, mgr *session.Manager, lp *middleware.LoginProtection, duration time.Duration) *AuthHandler {
	return &AuthHandler{
		sessionManager:  sm,
		manager:         mgr,
		loginProtection: lp,
		sessionDuration: duration,
	}
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	flash := h.sessionManager.PopString(r.Context(), middleware.SessionKeyFlash)
	renderLoginPage(w, loginPageData{Flash: flash})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashAndRedirect(w, r, redirectLogin, "Invalid form data")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	clientIP := clientIP(r)
	if h.loginProtection != nil && !h.loginProtection.CheckIPRateLimit(clientIP) {
		h.flashAndRedirect(w, r, redirectLogin, "Too many requests, slow down")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			h.flashAndRedirect(w, r, redirectLogin,
				fmt.Sprintf("Account locked, try again in %s", formatDuration(remaining)))
			return
		}
	}

	sess, err := h.manager.Login(r.Context(), email, password)
	if err != nil {
		h.loginFailed(w, r, email, err)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Rotate the session token on privilege change.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("failed to renew session token", "error", err)
		h.manager.Logout(r.Context())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyEmail, sess.User.Email)

	slog.Info("user logged in", "email", sess.User.Email, "role", sess.Role)
	http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, email string, err error) {
	var ve model.ValidationError
	switch {
	case errors.As(err, &ve):
		h.flashAndRedirect(w, r, redirectLogin, "Email and password are required")
		return
	case errors.Is(err, session.ErrNotAuthorized):
		slog.Warn("login attempt by unauthorized email", "email", email)
	default:
		slog.Debug("login failed", "email", email, "error", err)
	}

	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			h.flashAndRedirect(w, r, redirectLogin,
				fmt.Sprintf("Too many failed attempts, account locked for %s", formatDuration(lockDuration)))
			return
		}
	}

	// One message for bad credentials and unauthorized emails alike.
	h.flashAndRedirect(w, r, redirectLogin, "Invalid email or password")
}

// Logout ends both the desk session and the browser session. Safe to call
// when already logged out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.manager.Logout(r.Context())
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("failed to destroy session", "error", err)
	}
	http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
}

// Session reports the authenticated session and its expiry instant. The
// admin shell polls this to drive the countdown.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.manager.Current()
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	// Remaining comes from the manager so it ticks on the same clock that
	// expires the session.
	remaining, _ := h.manager.Remaining()
	expiresAt := sess.LoginAt.Add(h.sessionDuration)
	writeJSONSuccess(w, map[string]any{
		"email":     sess.User.Email,
		"role":      sess.Role,
		"loginAt":   sess.LoginAt.UTC().Format(time.RFC3339),
		"expiresAt": expiresAt.UTC().Format(time.RFC3339),
		"remaining": int(remaining.Seconds()),
	})
}

func (h *AuthHandler) flashAndRedirect(w http.ResponseWriter, r *http.Request, url, message string) {
	h.sessionManager.Put(r.Context(), middleware.SessionKeyFlash, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// clientIP returns the remote IP, preferring the standard proxy header.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// formatDuration renders a duration as whole minutes for user messages.
func formatDuration(d time.Duration) string {
	mins := int(d.Round(time.Minute).Minutes())
	if mins <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}
