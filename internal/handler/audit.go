// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/olegiv/eventdesk-go/internal/logging"
)

const defaultAuditLimit = 100

// AuditHandler exposes the recent audit log entries to the admin shell.
type AuditHandler struct {
	db *sql.DB
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(db *sql.DB) *AuditHandler {
	return &AuditHandler{db: db}
}

// List returns the newest audit entries. An optional limit query parameter
// caps the result, defaulting to 100.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 1000 {
			writeJSONError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := logging.Recent(r.Context(), h.db, limit)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"entries": entries,
	})
}
