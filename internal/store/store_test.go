// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/olegiv/eventdesk-go/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A single connection keeps the in-memory database alive across queries.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func receiveSnapshot[T any](t *testing.T, ch <-chan []T) []T {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestCollection_CreateAssignsUniqueIDs(t *testing.T) {
	db := setupTestDB(t)
	col := NewCollection[model.Inspiration](db, model.CollectionInspirations)
	ctx := context.Background()

	first, err := col.Create(ctx, &model.Inspiration{Title: "a", Link: "https://youtu.be/dQw4w9WgXcQ", Description: "x"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	second, err := col.Create(ctx, &model.Inspiration{Title: "b", Link: "https://youtu.be/kJQP7kiw5Fk", Description: "y"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if first == "" || first == second {
		t.Errorf("ids not unique: %q, %q", first, second)
	}

	snap, err := col.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("snapshot length = %d, want 2", len(snap))
	}
	// Store order is insertion order.
	if snap[0].Title != "a" || snap[1].Title != "b" {
		t.Errorf("snapshot order = %q, %q; want a, b", snap[0].Title, snap[1].Title)
	}
}

func TestCollection_UpdateReplacesFullRecord(t *testing.T) {
	db := setupTestDB(t)
	col := NewCollection[model.Feature](db, model.CollectionFeatures)
	ctx := context.Background()

	id, err := col.Create(ctx, &model.Feature{Author: "John", Link: "https://example.com/a", Image: model.MediaRef{URL: "https://cdn/a.png"}})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	err = col.Update(ctx, id, &model.Feature{Author: "Jane", Link: "https://example.com/b", Image: model.MediaRef{URL: "https://cdn/b.png"}})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	snap, _ := col.Snapshot(ctx)
	if len(snap) != 1 || snap[0].Author != "Jane" || snap[0].RecordID() != id {
		t.Errorf("unexpected snapshot after update: %+v", snap)
	}
}

func TestCollection_UpdateMissingID(t *testing.T) {
	db := setupTestDB(t)
	col := NewCollection[model.Feature](db, model.CollectionFeatures)

	err := col.Update(context.Background(), "nope", &model.Feature{Author: "x"})
	if err != ErrNotFound {
		t.Fatalf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCollection_SubscribePushesSnapshots(t *testing.T) {
	db := setupTestDB(t)
	col := NewCollection[model.PastEvent](db, model.CollectionPastEvents)
	ctx := context.Background()

	ch, cancel := col.Subscribe(ctx)
	defer cancel()

	// Initial snapshot of an empty collection is an empty list, not an error.
	if snap := receiveSnapshot(t, ch); len(snap) != 0 {
		t.Fatalf("initial snapshot length = %d, want 0", len(snap))
	}

	id, err := col.Create(ctx, &model.PastEvent{Title: "Finals", Link: "https://youtu.be/dQw4w9WgXcQ", Description: "d"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	snap := receiveSnapshot(t, ch)
	if len(snap) != 1 || snap[0].RecordID() != id {
		t.Fatalf("snapshot after create = %+v", snap)
	}

	if err := col.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if snap := receiveSnapshot(t, ch); len(snap) != 0 {
		t.Fatalf("snapshot after delete length = %d, want 0", len(snap))
	}
}

func TestCollection_SeparateCollectionsDoNotMix(t *testing.T) {
	db := setupTestDB(t)
	events := NewCollection[model.PastEvent](db, model.CollectionPastEvents)
	insp := NewCollection[model.Inspiration](db, model.CollectionInspirations)
	ctx := context.Background()

	if _, err := events.Create(ctx, &model.PastEvent{Title: "e"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	snap, err := insp.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("inspirations snapshot length = %d, want 0", len(snap))
	}
}

func TestMemoryCollection_TimestampIDsMonotonic(t *testing.T) {
	col := NewMemoryCollection[model.Inspiration](model.CollectionInspirations)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		id, err := col.Create(ctx, &model.Inspiration{Title: "t"})
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			t.Fatalf("id %q is not numeric: %v", id, err)
		}
		if n <= prev {
			t.Fatalf("id %d not greater than previous %d", n, prev)
		}
		prev = n
	}
}

func TestMemoryCollection_SnapshotIsolation(t *testing.T) {
	col := NewMemoryCollection[model.Event](model.CollectionEvents)
	ctx := context.Background()

	id, err := col.Create(ctx, &model.Event{Title: "Expo", Highlights: []model.Highlight{{Title: "Opening"}}})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	snap, _ := col.Snapshot(ctx)
	snap[0].Title = "Mutated"
	snap[0].Highlights[0].Title = "Mutated"

	fresh, _ := col.Snapshot(ctx)
	if fresh[0].Title != "Expo" || fresh[0].Highlights[0].Title != "Opening" {
		t.Error("snapshot mutation leaked into stored record")
	}
	if fresh[0].RecordID() != id {
		t.Errorf("RecordID() = %q, want %q", fresh[0].RecordID(), id)
	}
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := SeedAdmin(ctx, db, "admin@x.com", "pw-long-enough"); err != nil {
		t.Fatalf("SeedAdmin() error: %v", err)
	}
	if err := SeedAdmin(ctx, db, "other@x.com", "pw-long-enough"); err != nil {
		t.Fatalf("second SeedAdmin() error: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		t.Fatalf("counting accounts: %v", err)
	}
	if count != 1 {
		t.Errorf("accounts = %d, want 1 (seed must not run twice)", count)
	}
}
