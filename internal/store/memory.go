// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// MemoryCollection is the purely local fallback collection: records live in
// process memory in insertion order and ids are monotonically increasing
// millisecond timestamps. It serves tests and the no-remote-store mode.
type MemoryCollection[T any, PT interface {
	*T
	Record
}] struct {
	mu     sync.Mutex
	name   string
	items  []PT
	lastID int64
	subs   map[int]chan []PT
	next   int
	now    func() time.Time
}

// NewMemoryCollection returns an empty in-memory collection named name.
func NewMemoryCollection[T any, PT interface {
	*T
	Record
}](name string) *MemoryCollection[T, PT] {
	return &MemoryCollection[T, PT]{
		name: name,
		subs: make(map[int]chan []PT),
		now:  time.Now,
	}
}

func (c *MemoryCollection[T, PT]) Name() string { return c.name }

func (c *MemoryCollection[T, PT]) Create(_ context.Context, rec PT) (string, error) {
	c.mu.Lock()

	id := c.now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id

	stored, err := copyRecord[T, PT](rec)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	idStr := strconv.FormatInt(id, 10)
	stored.SetID(idStr)
	rec.SetID(idStr)
	c.items = append(c.items, stored)

	c.mu.Unlock()
	c.notify()
	return idStr, nil
}

func (c *MemoryCollection[T, PT]) Update(_ context.Context, id string, rec PT) error {
	c.mu.Lock()

	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	stored, err := copyRecord[T, PT](rec)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	stored.SetID(id)
	c.items[idx] = stored

	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *MemoryCollection[T, PT]) Delete(_ context.Context, id string) error {
	c.mu.Lock()

	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)

	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *MemoryCollection[T, PT]) Snapshot(context.Context) ([]PT, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *MemoryCollection[T, PT]) Subscribe(ctx context.Context) (<-chan []PT, func()) {
	ch := make(chan []PT, 1)

	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = ch
	snap, _ := c.snapshotLocked()
	c.mu.Unlock()

	ch <- snap

	return ch, func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *MemoryCollection[T, PT]) indexOf(id string) int {
	for i, item := range c.items {
		if item.RecordID() == id {
			return i
		}
	}
	return -1
}

func (c *MemoryCollection[T, PT]) snapshotLocked() ([]PT, error) {
	snap := make([]PT, 0, len(c.items))
	for _, item := range c.items {
		cp, err := copyRecord[T, PT](item)
		if err != nil {
			return nil, err
		}
		snap = append(snap, cp)
	}
	return snap, nil
}

func (c *MemoryCollection[T, PT]) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.snapshotLocked()
	if err != nil {
		return
	}
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
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

// copyRecord deep-copies a record through its JSON form, the same shape it
// has at rest in the document store.
func copyRecord[T any, PT interface {
	*T
	Record
}](rec PT) (PT, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("copying record: %w", err)
	}
	cp := PT(new(T))
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("copying record: %w", err)
	}
	return cp, nil
}
