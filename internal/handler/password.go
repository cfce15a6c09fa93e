// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/eventdesk-go/internal/auth"
	"github.com/olegiv/eventdesk-go/internal/model"
	"github.com/olegiv/eventdesk-go/internal/session"
)

// minPasswordLength mirrors the weak-password floor of the original
// hosted-auth backend.
const minPasswordLength = 6

// PasswordHandler lets the signed-in admin change their own password.
// The current password is re-verified before anything is written.
type PasswordHandler struct {
	db      *sql.DB
	manager *session.Manager
}

// NewPasswordHandler creates the password-change handler.
func NewPasswordHandler(db *sql.DB, manager *session.Manager) *PasswordHandler {
	return &PasswordHandler{db: db, manager: manager}
}

// Change verifies the current password and replaces the stored hash.
func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.manager.Current()
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ve := model.ValidationError{}
	if req.CurrentPassword == "" {
		ve["currentPassword"] = "is required"
	}
	if len(req.NewPassword) < minPasswordLength {
		ve["newPassword"] = "must be at least 6 characters"
	}
	if req.NewPassword != req.ConfirmPassword {
		ve["confirmPassword"] = "does not match the new password"
	}
	if len(ve) > 0 {
		writeJSONValidationError(w, ve)
		return
	}

	verifier := auth.NewAccountVerifier(h.db)
	if _, err := verifier.Verify(r.Context(), sess.User.Email, req.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSONError(w, http.StatusForbidden, "current password is incorrect")
			return
		}
		slog.Error("password change: reauthentication failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := auth.UpdatePassword(r.Context(), h.db, sess.User.Email, req.NewPassword); err != nil {
		slog.Error("password change failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slog.Info("password changed", "email", sess.User.Email)
	writeJSONSuccess(w, nil)
}
