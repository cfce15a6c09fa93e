// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package keyval

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	_, err = db.Exec(`CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	if err != nil {
		t.Fatalf("failed to create kv table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := s.Set(ctx, "authRole", "admin"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	v, ok, err := s.Get(ctx, "authRole")
	if err != nil || !ok || v != "admin" {
		t.Fatalf("Get(authRole) = %q ok=%v err=%v, want admin", v, ok, err)
	}

	// Overwrite
	if err := s.Set(ctx, "authRole", "editor"); err != nil {
		t.Fatalf("Set() overwrite error: %v", err)
	}
	v, _, _ = s.Get(ctx, "authRole")
	if v != "editor" {
		t.Fatalf("Get(authRole) after overwrite = %q, want editor", v)
	}

	if err := s.Delete(ctx, "authRole"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "authRole"); ok {
		t.Fatal("key still present after Delete()")
	}

	// Deleting an absent key is not an error
	if err := s.Delete(ctx, "authRole"); err != nil {
		t.Fatalf("Delete() of absent key error: %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	testStore(t, NewSQLiteStore(setupTestDB(t)))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}
