// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the content record kinds managed by the admin desk
// (events, past events, features, inspirations, users) and the shared value
// types they are built from.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Collection paths in the content store, one logical collection per kind.
const (
	CollectionEvents       = "events"
	CollectionPastEvents   = "pastEvents"
	CollectionFeatures     = "features"
	CollectionInspirations = "inspirations"
	CollectionUsers        = "users"
)

// MediaRef is a reference to an image or other media asset. It is either an
// already durable URL or a pending local file that must be uploaded before
// the owning record is written to the store.
type MediaRef struct {
	URL  string      `json:"url"`
	File *FileSource `json:"-"`
}

// FileSource is raw file content selected on the form, not yet uploaded.
type FileSource struct {
	Name string
	Data []byte
}

// Pending reports whether the reference still points at a local file.
func (m *MediaRef) Pending() bool {
	return m != nil && m.File != nil
}

// ValidationError reports missing or malformed required fields, keyed by
// field name. It is surfaced inline on the form; no remote call is made
// when validation fails.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// requireNonEmpty records a "required" validation message for every named
// field whose value is blank.
func requireNonEmpty(ve ValidationError, fields map[string]string) {
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			ve[name] = "is required"
		}
	}
}
