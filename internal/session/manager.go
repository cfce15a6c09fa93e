// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session owns the authenticated admin session: login, persistence
// across restarts, the expiry countdown, and logout. It gates the rest of
// the application; everything it talks to is injected.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/eventdesk-go/internal/keyval"
	"github.com/olegiv/eventdesk-go/internal/model"
)

// Persisted session keys in the durable key-value store. The manager is the
// sole reader and writer of these keys.
const (
	KeyAuthUser     = "authUser"         // serialized Identity
	KeyAuthRole     = "authRole"         // plain role string
	KeySessionStart = "sessionStartTime" // RFC 3339 instant
)

// ErrNotAuthorized is returned when the submitted email is not on the
// allow-list. The verifier is never consulted in that case.
var ErrNotAuthorized = errors.New("email is not authorized to sign in")

// Identity is the opaque identity record produced by the verifier.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an established authenticated session. A session is valid only
// when both the user and the role are present.
type Session struct {
	User    Identity
	Role    string
	LoginAt time.Time
}

// Verifier is the external identity-verification service.
type Verifier interface {
	Verify(ctx context.Context, email, password string) (Identity, error)
}

// AllowList is the remote source of authorized emails.
type AllowList interface {
	Allowed(ctx context.Context, email string) (bool, error)
}

// Config configures a Manager. KV, Verifier, and Duration are required.
type Config struct {
	KV        keyval.Store
	Verifier  Verifier
	AllowList AllowList // optional; nil disables the allow-list gate
	Duration  time.Duration

	// Role is assigned to every successful login. Defaults to model.RoleAdmin;
	// the system has exactly one role in practice.
	Role string

	// Now and Schedule exist for tests. Schedule runs f after d on its own
	// goroutine and returns a cancel function; cancellation is best effort,
	// a late callback must detect staleness and no-op.
	Now      func() time.Time
	Schedule func(d time.Duration, f func()) (cancel func())
}

// Manager is the session state machine. The zero state is anonymous.
type Manager struct {
	mu       sync.Mutex
	kv       keyval.Store
	verifier Verifier
	allow    AllowList
	duration time.Duration
	role     string
	now      func() time.Time
	schedule func(d time.Duration, f func()) func()

	cur         *Session
	cancelTimer func()
	epoch       uint64 // bumped on every transition; stale timers compare it
}

// NewManager creates an anonymous Manager. Call Restore to pick up a
// persisted session.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.KV == nil || cfg.Verifier == nil {
		return nil, errors.New("session: KV and Verifier are required")
	}
	if cfg.Duration <= 0 {
		return nil, errors.New("session: Duration must be positive")
	}
	m := &Manager{
		kv:       cfg.KV,
		verifier: cfg.Verifier,
		allow:    cfg.AllowList,
		duration: cfg.Duration,
		role:     cfg.Role,
		now:      cfg.Now,
		schedule: cfg.Schedule,
	}
	if m.role == "" {
		m.role = model.RoleAdmin
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.schedule == nil {
		m.schedule = func(d time.Duration, f func()) func() {
			t := time.AfterFunc(d, f)
			return func() { t.Stop() }
		}
	}
	return m, nil
}

// Login verifies credentials and establishes an authenticated session.
// On any failure the manager's state is unchanged and nothing is persisted.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	ve := model.ValidationError{}
	if email == "" {
		ve["email"] = "is required"
	}
	if password == "" {
		ve["password"] = "is required"
	}
	if len(ve) > 0 {
		return Session{}, ve
	}

	if m.allow != nil {
		ok, err := m.allow.Allowed(ctx, email)
		if err != nil {
			return Session{}, fmt.Errorf("checking allow-list: %w", err)
		}
		if !ok {
			slog.Warn("login refused: email not on allow-list", "email", email)
			return Session{}, ErrNotAuthorized
		}
	}

	identity, err := m.verifier.Verify(ctx, email, password)
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := Session{User: identity, Role: m.role, LoginAt: m.now()}
	if err := m.persist(ctx, s); err != nil {
		// Roll back any partial writes so a half-persisted session can never
		// be restored.
		m.clearKeys(ctx)
		return Session{}, fmt.Errorf("persisting session: %w", err)
	}

	m.setLocked(s, m.duration)

	slog.Info("user logged in", "user_id", identity.ID, "email", identity.Email)
	return s, nil
}

// Logout tears the session down. It is idempotent: from any prior state it
// ends anonymous with no persisted keys.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked(ctx, "user logged out")
}

// Restore loads a persisted session on process start. Expired sessions are
// discarded lazily; malformed data is treated as absent, cleared, and
// logged. Restore never fails the caller.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rawUser, userOK, err := m.kv.Get(ctx, KeyAuthUser)
	if err != nil {
		slog.Error("session restore: reading persisted user", "error", err)
		return
	}
	role, roleOK, err := m.kv.Get(ctx, KeyAuthRole)
	if err != nil {
		slog.Error("session restore: reading persisted role", "error", err)
		return
	}
	rawStart, startOK, err := m.kv.Get(ctx, KeySessionStart)
	if err != nil {
		slog.Error("session restore: reading persisted start time", "error", err)
		return
	}

	if !userOK && !roleOK && !startOK {
		return // nothing persisted
	}

	// A session with only some of its keys is invalid and treated as
	// logged-out.
	if !userOK || !roleOK || !startOK || role == "" {
		slog.Warn("session restore: partial session data, discarding")
		m.clearKeys(ctx)
		return
	}

	var identity Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		slog.Warn("session restore: unparseable user record, discarding", "error", err)
		m.clearKeys(ctx)
		return
	}
	loginAt, err := time.Parse(time.RFC3339Nano, rawStart)
	if err != nil {
		slog.Warn("session restore: unparseable start time, discarding", "error", err)
		m.clearKeys(ctx)
		return
	}

	elapsed := m.now().Sub(loginAt)
	if elapsed >= m.duration {
		slog.Info("session restore: persisted session expired", "elapsed", elapsed)
		m.clearKeys(ctx)
		return
	}

	m.setLocked(Session{User: identity, Role: role, LoginAt: loginAt}, m.duration-elapsed)
	slog.Info("session restored", "user_id", identity.ID, "remaining", m.duration-elapsed)
}

// Current returns the active session, or false when anonymous. Expiry is
// re-checked on every call, so a session past its deadline reads as
// anonymous even if the deferred timer has not fired yet.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return Session{}, false
	}
	if m.now().Sub(m.cur.LoginAt) >= m.duration {
		m.teardownLocked(context.Background(), "session expired")
		return Session{}, false
	}
	return *m.cur, true
}

// IsAuthenticated reports whether a non-expired session is active.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}

// Remaining reports how long the active session has left, measured on the
// manager's clock. Like Current it re-checks the deadline, so a session
// past it reads as anonymous.
func (m *Manager) Remaining() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return 0, false
	}
	left := m.duration - m.now().Sub(m.cur.LoginAt)
	if left <= 0 {
		m.teardownLocked(context.Background(), "session expired")
		return 0, false
	}
	return left, true
}

// setLocked installs s and schedules the deferred expiry after remaining.
func (m *Manager) setLocked(s Session, remaining time.Duration) {
	if m.cancelTimer != nil {
		m.cancelTimer()
	}
	m.epoch++
	m.cur = &s

	epoch := m.epoch
	m.cancelTimer = m.schedule(remaining, func() {
		m.expire(epoch)
	})
}

// expire is the deferred timer callback. A timer that outlived its session
// (logout raced it, or a newer login replaced it) detects the stale epoch
// and no-ops.
func (m *Manager) expire(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil || m.epoch != epoch {
		return
	}
	m.teardownLocked(context.Background(), "session expired")
}

func (m *Manager) teardownLocked(ctx context.Context, reason string) {
	if m.cancelTimer != nil {
		m.cancelTimer()
		m.cancelTimer = nil
	}
	m.epoch++
	if m.cur != nil {
		slog.Info(reason, "user_id", m.cur.User.ID)
	}
	m.cur = nil
	m.clearKeys(ctx)
}

func (m *Manager) persist(ctx context.Context, s Session) error {
	rawUser, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("serializing identity: %w", err)
	}
	if err := m.kv.Set(ctx, KeyAuthUser, string(rawUser)); err != nil {
		return err
	}
	if err := m.kv.Set(ctx, KeyAuthRole, s.Role); err != nil {
		return err
	}
	return m.kv.Set(ctx, KeySessionStart, s.LoginAt.Format(time.RFC3339Nano))
}

// clearKeys removes every persisted session key, even if only some exist.
func (m *Manager) clearKeys(ctx context.Context) {
	for _, key := range []string{KeyAuthUser, KeyAuthRole, KeySessionStart} {
		if err := m.kv.Delete(ctx, key); err != nil {
			slog.Error("failed to clear session key", "key", key, "error", err)
		}
	}
}
