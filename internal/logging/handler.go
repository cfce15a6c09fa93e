// Package logging provides a custom slog handler that mirrors WARN and
// ERROR level records into the audit_log table for later review.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/olegiv/eventdesk-go/internal/model"
)

// AuditHandler is a slog.Handler that wraps another handler and also writes
// WARN level and above to the audit log database.
type AuditHandler struct {
	inner slog.Handler
	db    *sql.DB
	level slog.Level
}

// NewAuditHandler creates an AuditHandler that wraps inner. Records at WARN
// level and above are written to both the wrapped handler and the audit log.
func NewAuditHandler(inner slog.Handler, db *sql.DB) *AuditHandler {
	return &AuditHandler{inner: inner, db: db, level: slog.LevelWarn}
}

// Enabled implements slog.Handler.
func (h *AuditHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *AuditHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeAudit(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *AuditHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AuditHandler{inner: h.inner.WithAttrs(attrs), db: h.db, level: h.level}
}

// WithGroup implements slog.Handler.
func (h *AuditHandler) WithGroup(name string) slog.Handler {
	return &AuditHandler{inner: h.inner.WithGroup(name), db: h.db, level: h.level}
}

func (h *AuditHandler) writeAudit(ctx context.Context, r slog.Record) {
	meta := map[string]any{}
	r.Attrs(func(a slog.Attr) bool {
		meta[a.Key] = a.Value.String()
		return true
	})
	raw, err := json.Marshal(meta)
	if err != nil {
		raw = []byte("{}")
	}

	level := model.AuditLevelWarning
	if r.Level >= slog.LevelError {
		level = model.AuditLevelError
	}

	// Audit writes must never recurse into logging or fail the caller.
	_, _ = h.db.ExecContext(ctx,
		`INSERT INTO audit_log (level, message, metadata, created_at) VALUES (?, ?, ?, ?)`,
		level, r.Message, string(raw), time.Now())
}

// Recent returns the newest audit entries, capped at limit.
func Recent(ctx context.Context, db *sql.DB, limit int) ([]model.AuditEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, level, message, metadata, created_at FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.AuditEntry{}
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.Level, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurgeBefore removes audit entries older than cutoff and returns how many
// were deleted.
func PurgeBefore(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ParseLevel maps a config string to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the default slog logger: text output to stderr wrapped by
// the audit handler.
func Setup(db *sql.DB, level slog.Level) *slog.Logger {
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(NewAuditHandler(inner, db))
	slog.SetDefault(logger)
	return logger
}
