// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an update or delete targets an id that is
// not in the collection.
var ErrNotFound = errors.New("record not found")

// Record is the store-side contract of a stored document.
type Record interface {
	RecordID() string
	SetID(id string)
}

// Collection is a live view over one logical collection of records. Every
// mutation pushes a fresh full snapshot to all subscribers; snapshots are
// wholesale replacements, never incremental patches.
type Collection[T any, PT interface {
	*T
	Record
}] struct {
	db   *sql.DB
	name string

	mu   sync.Mutex
	subs map[int]chan []PT
	next int
}

// NewCollection returns the collection named name backed by db.
func NewCollection[T any, PT interface {
	*T
	Record
}](db *sql.DB, name string) *Collection[T, PT] {
	return &Collection[T, PT]{
		db:   db,
		name: name,
		subs: make(map[int]chan []PT),
	}
}

// Name returns the collection path.
func (c *Collection[T, PT]) Name() string { return c.name }

// Create stores rec under a freshly assigned id and returns it.
func (c *Collection[T, PT]) Create(ctx context.Context, rec PT) (string, error) {
	id := uuid.NewString()
	rec.SetID(id)

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("serializing record: %w", err)
	}

	now := time.Now()
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, seq, data, created_at, updated_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM documents WHERE collection = ?), ?, ?, ?)`,
		c.name, id, c.name, string(data), now, now)
	if err != nil {
		return "", fmt.Errorf("creating record in %s: %w", c.name, err)
	}

	c.notify(ctx)
	return id, nil
}

// Update replaces the full record stored under id.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, rec PT) error {
	rec.SetID(id)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serializing record: %w", err)
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(data), time.Now(), c.name, id)
	if err != nil {
		return fmt.Errorf("updating record %s/%s: %w", c.name, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	c.notify(ctx)
	return nil
}

// Delete removes the record stored under id.
func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	if err != nil {
		return fmt.Errorf("deleting record %s/%s: %w", c.name, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	c.notify(ctx)
	return nil
}

// Snapshot reads the full current set of records in store order. An empty
// collection yields an empty slice, never an error.
func (c *Collection[T, PT]) Snapshot(ctx context.Context) ([]PT, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT data FROM documents WHERE collection = ? ORDER BY seq`, c.name)
	if err != nil {
		return nil, fmt.Errorf("reading %s snapshot: %w", c.name, err)
	}
	defer rows.Close()

	snap := []PT{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", c.name, err)
		}
		rec := PT(new(T))
		if err := json.Unmarshal([]byte(data), rec); err != nil {
			return nil, fmt.Errorf("decoding %s record: %w", c.name, err)
		}
		snap = append(snap, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s snapshot: %w", c.name, err)
	}
	return snap, nil
}

// Subscribe registers a snapshot channel. The current snapshot is delivered
// immediately; afterwards a fresh one arrives after every mutation. The
// channel coalesces: a slow reader only ever sees the latest snapshot.
// The returned function cancels the subscription.
func (c *Collection[T, PT]) Subscribe(ctx context.Context) (<-chan []PT, func()) {
	ch := make(chan []PT, 1)

	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = ch
	c.mu.Unlock()

	if snap, err := c.Snapshot(ctx); err == nil {
		ch <- snap
	} else {
		slog.Error("initial snapshot failed", "collection", c.name, "error", err)
	}

	return ch, func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// notify pushes the current snapshot to every subscriber.
func (c *Collection[T, PT]) notify(ctx context.Context) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		slog.Error("snapshot after mutation failed", "collection", c.name, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale pending snapshot with the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
