// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/olegiv/eventdesk-go/internal/auth"
)

// SeedAdmin creates the initial admin login account and puts its email on
// the allow-list. It is a no-op when any account already exists.
func SeedAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return fmt.Errorf("counting accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	if err := auth.CreateAccount(ctx, db, uuid.NewString(), email, password); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}
	if err := auth.NewStoreAllowList(db).Add(ctx, email); err != nil {
		return fmt.Errorf("seeding allow-list: %w", err)
	}

	slog.Info("seeded initial admin account", "email", email)
	return nil
}
