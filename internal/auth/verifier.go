// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/eventdesk-go/internal/session"
)

// ErrInvalidCredentials is returned when the email/password pair does not
// match a stored account.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AccountVerifier verifies credentials against the accounts table.
type AccountVerifier struct {
	db *sql.DB
}

// NewAccountVerifier returns a verifier backed by db.
func NewAccountVerifier(db *sql.DB) *AccountVerifier {
	return &AccountVerifier{db: db}
}

// Verify looks up the account by email and checks the password.
// Returns ErrInvalidCredentials for unknown emails and bad passwords alike
// so callers cannot distinguish the two.
func (v *AccountVerifier) Verify(ctx context.Context, email, password string) (session.Identity, error) {
	var (
		id   string
		hash string
	)
	err := v.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM accounts WHERE email = ?`, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return session.Identity{}, fmt.Errorf("looking up account: %w", err)
	}

	ok, err := CheckPassword(password, hash)
	if err != nil {
		return session.Identity{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		return session.Identity{}, ErrInvalidCredentials
	}

	if _, err := v.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at = ? WHERE id = ?`, time.Now(), id); err != nil {
		// Login still succeeds when the timestamp update fails.
		return session.Identity{ID: id, Email: email}, nil
	}

	return session.Identity{ID: id, Email: email}, nil
}

// UpdatePassword rewrites the stored hash for the account with the given
// email.
func UpdatePassword(ctx context.Context, db *sql.DB, email, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ? WHERE email = ?`, hash, email)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating password: no account for %s", email)
	}
	return nil
}

// CreateAccount inserts a new login account with a hashed password.
func CreateAccount(ctx context.Context, db *sql.DB, id, email, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, email, hash, time.Now())
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}
