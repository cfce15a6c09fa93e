// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler wires the HTTP surface: authentication routes, the JSON
// resource API over the collection editors, and small admin pages.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/eventdesk-go/internal/editor"
	"github.com/olegiv/eventdesk-go/internal/render"
)

// Resource exposes one collection editor as a JSON CRUD surface.
// All admin sections share the same route shape; only the record type and
// the editor behind it differ.
type Resource[T any, PT interface {
	*T
	editor.Record[T]
}] struct {
	name   string
	editor *editor.Editor[T, PT]
}

// NewResource creates a resource handler for the named collection.
func NewResource[T any, PT interface {
	*T
	editor.Record[T]
}](name string, ed *editor.Editor[T, PT]) *Resource[T, PT] {
	return &Resource[T, PT]{name: name, editor: ed}
}

// Routes mounts the resource routes on a chi router.
func (res *Resource[T, PT]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", res.List)
	r.Post("/", res.Create)
	r.Put("/{id}", res.Update)
	r.Delete("/{id}", res.Delete)
	return r
}

// List returns the editor's current snapshot of the collection.
func (res *Resource[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, map[string]any{
		"items": res.editor.Items(),
	})
}

// Create validates a new record and writes it to the collection. The
// response carries the store-assigned id. Each request submits its own
// decoded record; the editor's shared form state is never involved, so
// concurrent requests cannot clobber one another's draft.
func (res *Resource[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	draft := PT(new(T))
	if err := decodeJSON(r, draft); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	draft.SetID("")

	if err := res.editor.SubmitDraft(r.Context(), draft, ""); err != nil {
		writeEditorError(w, err)
		return
	}

	writeJSONSuccess(w, map[string]any{
		"id": draft.RecordID(),
	})
}

// Update replaces an existing record wholesale. Missing and protected
// targets are refused before anything is written.
func (res *Resource[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	draft := PT(new(T))
	if err := decodeJSON(r, draft); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	draft.SetID(id)

	if err := res.editor.SubmitDraft(r.Context(), draft, id); err != nil {
		writeEditorError(w, err)
		return
	}

	writeJSONSuccess(w, map[string]any{
		"id": id,
	})
}

// Delete removes a record. Protected records are refused before any store
// call is made.
func (res *Resource[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := res.editor.Delete(r.Context(), id); err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSONSuccess(w, nil)
}

// Preview renders submitted Markdown to sanitized HTML for the description
// preview pane.
func Preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	html, err := render.Markdown(req.Source)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "could not render markdown")
		return
	}
	writeJSONSuccess(w, map[string]any{
		"html": string(html),
	})
}
