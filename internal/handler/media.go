// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io"
	"net/http"

	"github.com/olegiv/eventdesk-go/internal/blob"
)

// maxUploadSize bounds a single media upload.
const maxUploadSize = 10 << 20 // 10 MB

// MediaHandler accepts image uploads for event and feature media.
type MediaHandler struct {
	store *blob.DiskStore
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(store *blob.DiskStore) *MediaHandler {
	return &MediaHandler{store: store}
}

// Upload stores a multipart file upload and returns its durable URL.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	url, err := h.store.Upload(r.Context(), header.Filename, data)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "could not store upload: "+err.Error())
		return
	}

	writeJSONSuccess(w, map[string]any{
		"url": url,
	})
}
