// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(Options{DefaultTTL: time.Minute})
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get(missing) error = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, "allowlist", []byte(`["admin@x.com"]`), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := c.Get(ctx, "allowlist")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != `["admin@x.com"]` {
		t.Errorf("Get() = %q, want stored value", got)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(Options{DefaultTTL: time.Minute})
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(Options{DefaultTTL: time.Minute})
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() after delete error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c := NewMemoryCache(Options{DefaultTTL: time.Minute})
	_ = c.Close()

	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, ErrCacheClosed) {
		t.Fatalf("Get() on closed cache error = %v, want ErrCacheClosed", err)
	}
	if err := c.Set(context.Background(), "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Fatalf("Set() on closed cache error = %v, want ErrCacheClosed", err)
	}
}

func TestMemoryCache_MaxSizeEviction(t *testing.T) {
	c := NewMemoryCache(Options{DefaultTTL: time.Minute, MaxSize: 2})
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	if err := c.Set(ctx, "c", []byte("3"), 0); err != nil {
		t.Fatalf("Set() beyond max size error: %v", err)
	}

	if _, err := c.Get(ctx, "c"); err != nil {
		t.Errorf("newest entry evicted: %v", err)
	}
}
