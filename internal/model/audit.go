// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Audit levels.
const (
	AuditLevelInfo    = "info"
	AuditLevelWarning = "warning"
	AuditLevelError   = "error"
)

// AuditEntry is a persisted audit log row. WARN and ERROR application logs
// are mirrored here for later review.
type AuditEntry struct {
	ID        int64
	Level     string
	Message   string
	Metadata  string // JSON string
	CreatedAt time.Time
}
