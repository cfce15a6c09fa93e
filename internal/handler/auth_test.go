// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/eventdesk-go/internal/auth"
	"github.com/olegiv/eventdesk-go/internal/keyval"
	"github.com/olegiv/eventdesk-go/internal/middleware"
	"github.com/olegiv/eventdesk-go/internal/session"
)

type stubVerifier struct {
	password string
}

func (v stubVerifier) Verify(_ context.Context, email, password string) (session.Identity, error) {
	if password != v.password {
		return session.Identity{}, auth.ErrInvalidCredentials
	}
	return session.Identity{ID: "acc-1", Email: email}, nil
}

type stubAllowList struct{ emails map[string]bool }

func (a stubAllowList) Allowed(_ context.Context, email string) (bool, error) {
	return a.emails[email], nil
}

func newAuthServer(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()
	mgr, err := session.NewManager(session.Config{
		KV:        keyval.NewMemoryStore(),
		Verifier:  stubVerifier{password: "hunter22"},
		AllowList: stubAllowList{emails: map[string]bool{"admin@example.com": true}},
		Duration:  20 * time.Minute,
	})
	require.NoError(t, err)

	sm := scs.New()
	h := NewAuthHandler(sm, mgr, nil, 20*time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /api/session", h.Session)
	return sm.LoadAndSave(mux), mgr
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	srv, mgr := newAuthServer(t)

	rec := postForm(t, srv, "/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"hunter22"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, redirectAdmin, rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Result().Cookies(), "login must set a session cookie")

	sess, ok := mgr.Current()
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", sess.User.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	srv, mgr := newAuthServer(t)

	rec := postForm(t, srv, "/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"wrong"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, redirectLogin, rec.Header().Get("Location"))
	_, ok := mgr.Current()
	assert.False(t, ok, "failed login must leave the manager anonymous")
}

func TestLoginUnlistedEmail(t *testing.T) {
	srv, mgr := newAuthServer(t)

	rec := postForm(t, srv, "/login", url.Values{
		"email":    {"stranger@example.com"},
		"password": {"hunter22"},
	})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, redirectLogin, rec.Header().Get("Location"))
	_, ok := mgr.Current()
	assert.False(t, ok)
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	mgr, err := session.NewManager(session.Config{
		KV:       keyval.NewMemoryStore(),
		Verifier: stubVerifier{password: "hunter22"},
		Duration: 20 * time.Minute,
	})
	require.NoError(t, err)

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: 2,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	sm := scs.New()
	h := NewAuthHandler(sm, mgr, lp, 20*time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", h.Login)
	srv := sm.LoadAndSave(mux)

	form := url.Values{"email": {"admin@example.com"}, "password": {"wrong"}}
	postForm(t, srv, "/login", form)
	postForm(t, srv, "/login", form)

	locked, _ := lp.IsAccountLocked("admin@example.com")
	require.True(t, locked, "second failure should lock the account")

	// Even the right password is refused while locked.
	rec := postForm(t, srv, "/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"hunter22"},
	})
	assert.Equal(t, redirectLogin, rec.Header().Get("Location"))
	_, ok := mgr.Current()
	assert.False(t, ok)
}

func TestLogoutIsIdempotent(t *testing.T) {
	srv, mgr := newAuthServer(t)

	postForm(t, srv, "/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"hunter22"},
	})
	require.True(t, mgr.IsAuthenticated())

	rec := postForm(t, srv, "/logout", url.Values{})
	assert.Equal(t, redirectLogin, rec.Header().Get("Location"))
	assert.False(t, mgr.IsAuthenticated())

	// A second logout is a no-op, not an error.
	rec = postForm(t, srv, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSessionEndpoint(t *testing.T) {
	srv, mgr := newAuthServer(t)

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err := mgr.Login(context.Background(), "admin@example.com", "hunter22")
	require.NoError(t, err)

	rec, payload := doJSON(t, srv, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@example.com", payload["email"])
	assert.NotEmpty(t, payload["expiresAt"])
	remaining := payload["remaining"].(float64)
	assert.Greater(t, remaining, float64(19*60))
}

func TestSessionEndpointRemainingUsesManagerClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr, err := session.NewManager(session.Config{
		KV:       keyval.NewMemoryStore(),
		Verifier: stubVerifier{password: "hunter22"},
		Duration: 20 * time.Minute,
		Now:      func() time.Time { return now },
		Schedule: func(time.Duration, func()) func() { return func() {} },
	})
	require.NoError(t, err)

	sm := scs.New()
	h := NewAuthHandler(sm, mgr, nil, 20*time.Minute)

	_, err = mgr.Login(context.Background(), "admin@example.com", "hunter22")
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)

	rec, payload := doJSON(t, http.HandlerFunc(h.Session), http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(15*60), payload["remaining"].(float64),
		"remaining ticks on the clock the manager expires with")
}
