// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/eventdesk-go/internal/cache"
)

const allowlistCacheKey = "allowlist"

// StoreAllowList reads the set of authorized emails from the allowlist table.
type StoreAllowList struct {
	db *sql.DB
}

// NewStoreAllowList returns an allow-list backed by db.
func NewStoreAllowList(db *sql.DB) *StoreAllowList {
	return &StoreAllowList{db: db}
}

// Allowed reports whether email is on the allow-list. The comparison is
// case-insensitive.
func (a *StoreAllowList) Allowed(ctx context.Context, email string) (bool, error) {
	emails, err := a.Emails(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range emails {
		if strings.EqualFold(e, email) {
			return true, nil
		}
	}
	return false, nil
}

// Emails returns every authorized email.
func (a *StoreAllowList) Emails(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT email FROM allowlist ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("fetching allow-list: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scanning allow-list row: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading allow-list: %w", err)
	}
	return emails, nil
}

// Add puts email on the allow-list. Adding an existing email is a no-op.
func (a *StoreAllowList) Add(ctx context.Context, email string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO allowlist (email, created_at) VALUES (?, ?)
		 ON CONFLICT (email) DO NOTHING`, strings.ToLower(email), time.Now())
	if err != nil {
		return fmt.Errorf("adding allow-list entry: %w", err)
	}
	return nil
}

// CachedAllowList wraps an allow-list source with a TTL cache so a login
// attempt does not always hit the store.
type CachedAllowList struct {
	source *StoreAllowList
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedAllowList wraps source with c. Entries expire after ttl.
func NewCachedAllowList(source *StoreAllowList, c cache.Cache, ttl time.Duration) *CachedAllowList {
	return &CachedAllowList{source: source, cache: c, ttl: ttl}
}

func (a *CachedAllowList) Allowed(ctx context.Context, email string) (bool, error) {
	emails, err := a.emails(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range emails {
		if strings.EqualFold(e, email) {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate drops the cached list, e.g. after an allow-list edit.
func (a *CachedAllowList) Invalidate(ctx context.Context) {
	if err := a.cache.Delete(ctx, allowlistCacheKey); err != nil {
		slog.Warn("failed to invalidate allow-list cache", "error", err)
	}
}

func (a *CachedAllowList) emails(ctx context.Context) ([]string, error) {
	if raw, err := a.cache.Get(ctx, allowlistCacheKey); err == nil {
		var emails []string
		if err := json.Unmarshal(raw, &emails); err == nil {
			return emails, nil
		}
		// Unparseable cache entry: fall through to the source.
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		slog.Warn("allow-list cache read failed", "error", err)
	}

	emails, err := a.source.Emails(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(emails); err == nil {
		if err := a.cache.Set(ctx, allowlistCacheKey, raw, a.ttl); err != nil {
			slog.Warn("allow-list cache write failed", "error", err)
		}
	}
	return emails, nil
}
