package logging

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		t.Fatalf("failed to create audit_log table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func auditCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&n); err != nil {
		t.Fatalf("counting audit rows: %v", err)
	}
	return n
}

func newTestLogger(db *sql.DB) *slog.Logger {
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewAuditHandler(inner, db))
}

func TestAuditHandler_WarnIsMirrored(t *testing.T) {
	db := setupTestDB(t)
	logger := newTestLogger(db)

	logger.Warn("session restore: partial session data, discarding", "key", "authRole")

	if got := auditCount(t, db); got != 1 {
		t.Fatalf("audit rows = %d, want 1", got)
	}

	var level, message, metadata string
	err := db.QueryRow(`SELECT level, message, metadata FROM audit_log`).Scan(&level, &message, &metadata)
	if err != nil {
		t.Fatalf("reading audit row: %v", err)
	}
	if level != "warning" {
		t.Errorf("level = %q, want warning", level)
	}
	if message != "session restore: partial session data, discarding" {
		t.Errorf("unexpected message %q", message)
	}
}

func TestAuditHandler_InfoIsNotMirrored(t *testing.T) {
	db := setupTestDB(t)
	logger := newTestLogger(db)

	logger.Info("user logged in", "email", "admin@x.com")

	if got := auditCount(t, db); got != 0 {
		t.Fatalf("audit rows = %d, want 0 for info level", got)
	}
}

func TestAuditHandler_ErrorLevelTag(t *testing.T) {
	db := setupTestDB(t)
	logger := newTestLogger(db)

	logger.Error("remote delete failed", "collection", "events")

	var level string
	if err := db.QueryRow(`SELECT level FROM audit_log`).Scan(&level); err != nil {
		t.Fatalf("reading audit row: %v", err)
	}
	if level != "error" {
		t.Errorf("level = %q, want error", level)
	}
}

func TestPurgeBefore(t *testing.T) {
	db := setupTestDB(t)
	logger := newTestLogger(db)

	logger.Warn("old entry")

	deleted, err := PurgeBefore(context.Background(), db, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("PurgeBefore() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("PurgeBefore() = %d, want 1", deleted)
	}
	if got := auditCount(t, db); got != 0 {
		t.Errorf("audit rows after purge = %d, want 0", got)
	}
}

func TestRecent(t *testing.T) {
	db := setupTestDB(t)
	logger := newTestLogger(db)

	logger.Warn("first")
	logger.Error("second")

	entries, err := Recent(context.Background(), db, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Message != "second" || entries[1].Message != "first" {
		t.Errorf("unexpected order: %q, %q", entries[0].Message, entries[1].Message)
	}

	entries, err = Recent(context.Background(), db, 1)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Recent(limit=1) returned %d entries", len(entries))
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
