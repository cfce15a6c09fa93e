// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package editor implements the collection editing pattern shared by every
// content kind: a live mirror of a remote collection, a draft record bound
// to the create/edit form, and create/update/delete mediation.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/olegiv/eventdesk-go/internal/model"
)

// ErrProtectedRecord is returned when a mutation targets a record the UI
// treats as read-only, such as an admin user.
var ErrProtectedRecord = errors.New("this record is protected and cannot be changed")

// ErrRecordNotFound is returned when a mutation targets an id that is not
// in the mirrored collection.
var ErrRecordNotFound = errors.New("record not found")

// Store is the remote collection the editor mirrors. PT is a pointer to the
// record type.
type Store[PT any] interface {
	Create(ctx context.Context, rec PT) (string, error)
	Update(ctx context.Context, id string, rec PT) error
	Delete(ctx context.Context, id string) error
	Snapshot(ctx context.Context) ([]PT, error)
	Subscribe(ctx context.Context) (<-chan []PT, func())
}

// Uploader moves pending file content to the blob store and returns the
// durable URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// ConfirmFunc is the destructive-action confirmation gate. It is injected
// so tests can substitute a stub.
type ConfirmFunc func(prompt string) bool

// Record is the editor-side contract of an editable record.
type Record[T any] interface {
	RecordID() string
	SetID(id string)
	Clone() *T
	Validate() error
	MediaRefs() []*model.MediaRef
}

// Editor manages one content collection. All exported methods are safe for
// concurrent use; items, draft, and form state are owned exclusively by the
// editor instance.
type Editor[T any, PT interface {
	*T
	Record[T]
}] struct {
	store     Store[PT]
	uploader  Uploader
	confirm   ConfirmFunc
	protected func(PT) bool

	mu         sync.Mutex
	items      []PT
	draft      PT
	editingID  string
	formShown  bool
	submitting bool
	live       bool
	unsub      func()
}

// Options configures an Editor. Store is required; the rest are optional.
type Options[T any, PT interface {
	*T
	Record[T]
}] struct {
	Store    Store[PT]
	Uploader Uploader

	// Confirm gates Delete. A nil Confirm approves everything.
	Confirm ConfirmFunc

	// Protected marks records that refuse BeginEdit and Delete.
	Protected func(PT) bool
}

// New creates an editor over opts.Store with an empty draft.
func New[T any, PT interface {
	*T
	Record[T]
}](opts Options[T, PT]) *Editor[T, PT] {
	return &Editor[T, PT]{
		store:     opts.Store,
		uploader:  opts.Uploader,
		confirm:   opts.Confirm,
		protected: opts.Protected,
		draft:     PT(new(T)),
	}
}

// Subscribe establishes the live subscription. Every snapshot pushed by the
// store wholesale-replaces items; an absent or empty snapshot produces an
// empty list, never an error state. The subscription ends when ctx is
// cancelled.
func (e *Editor[T, PT]) Subscribe(ctx context.Context) {
	ch, cancel := e.store.Subscribe(ctx)

	e.mu.Lock()
	e.live = true
	e.unsub = cancel
	e.mu.Unlock()

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				e.mu.Lock()
				e.live = false
				e.unsub = nil
				e.mu.Unlock()
				return
			case snap, ok := <-ch:
				if !ok {
					e.mu.Lock()
					e.live = false
					e.unsub = nil
					e.mu.Unlock()
					return
				}
				if snap == nil {
					snap = []PT{}
				}
				e.mu.Lock()
				e.items = snap
				e.mu.Unlock()
			}
		}
	}()
}

// Refresh replaces items with the store's current snapshot. It is the
// non-subscribing way to populate the editor.
func (e *Editor[T, PT]) Refresh(ctx context.Context) error {
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("refreshing items: %w", err)
	}
	e.mu.Lock()
	e.items = snap
	e.mu.Unlock()
	return nil
}

// BeginCreate resets the draft to the kind's empty shape and opens the form.
func (e *Editor[T, PT]) BeginCreate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = PT(new(T))
	e.editingID = ""
	e.formShown = true
}

// BeginEdit copies the record with the given id into the draft and opens
// the form. It is a silent no-op when the id is not present (the record may
// have been deleted remotely since it was rendered) or when the record is
// protected.
func (e *Editor[T, PT]) BeginEdit(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := e.findLocked(id)
	if rec == nil {
		return
	}
	if e.protected != nil && e.protected(rec) {
		return
	}

	e.draft = rec.Clone()
	e.editingID = id
	e.formShown = true
}

// Cancel discards the draft and hides the form.
func (e *Editor[T, PT]) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = PT(new(T))
	e.editingID = ""
	e.formShown = false
}

// Submit validates the draft, uploads any pending files, and writes the
// record: an update when a record is being edited, a creation otherwise.
// On success the draft is reset and the form hidden; items reconcile
// through the live subscription, or directly when no subscription is
// active. On any failure the editor's state is unchanged apart from the
// submitting flag.
func (e *Editor[T, PT]) Submit(ctx context.Context) error {
	e.mu.Lock()
	draft := e.draft
	editingID := e.editingID
	e.submitting = true
	e.mu.Unlock()

	err := e.submit(ctx, draft, editingID)

	e.mu.Lock()
	e.submitting = false
	if err == nil {
		e.draft = PT(new(T))
		e.editingID = ""
		e.formShown = false
	}
	e.mu.Unlock()
	return err
}

// SubmitDraft validates and writes rec without going through the shared
// form state. Requests arriving over HTTP each carry their own decoded
// record, and two in-flight submissions must not observe each other's
// draft. An empty editingID creates a record; otherwise the identified
// record is replaced after the same existence and protection checks
// BeginEdit applies.
func (e *Editor[T, PT]) SubmitDraft(ctx context.Context, rec PT, editingID string) error {
	if editingID != "" {
		e.mu.Lock()
		target := e.findLocked(editingID)
		if target == nil {
			e.mu.Unlock()
			return ErrRecordNotFound
		}
		if e.protected != nil && e.protected(target) {
			e.mu.Unlock()
			return ErrProtectedRecord
		}
		e.mu.Unlock()
	}
	return e.submit(ctx, rec, editingID)
}

func (e *Editor[T, PT]) submit(ctx context.Context, draft PT, editingID string) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	if err := e.resolveUploads(ctx, draft); err != nil {
		return err
	}

	if editingID != "" {
		if err := e.store.Update(ctx, editingID, draft); err != nil {
			return fmt.Errorf("updating record: %w", err)
		}
		e.reconcileLocal(func() {
			if i := e.indexLocked(editingID); i >= 0 {
				e.items[i] = draft.Clone()
			}
		})
		return nil
	}

	id, err := e.store.Create(ctx, draft)
	if err != nil {
		return fmt.Errorf("creating record: %w", err)
	}
	draft.SetID(id)
	e.reconcileLocal(func() {
		e.items = append(e.items, draft.Clone())
	})
	return nil
}

// resolveUploads uploads every pending file-sourced media reference of the
// draft, including those of nested sub-entries, rewriting each to the
// returned durable URL. Uploads run concurrently and are all awaited before
// the record write; any upload failure fails the whole submit.
func (e *Editor[T, PT]) resolveUploads(ctx context.Context, draft PT) error {
	var pending []*model.MediaRef
	for _, ref := range draft.MediaRefs() {
		if ref.Pending() {
			pending = append(pending, ref)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if e.uploader == nil {
		return errors.New("no uploader configured for file-sourced fields")
	}

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for _, ref := range pending {
		wg.Add(1)
		go func(ref *model.MediaRef) {
			defer wg.Done()
			url, err := e.uploader.Upload(ctx, ref.File.Name, ref.File.Data)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				return
			}
			ref.URL = url
			ref.File = nil
		}(ref)
	}
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("uploading media: %w", firstErr)
	}
	return nil
}

// Delete removes the record with the given id after the confirmation gate
// approves. Protected records are refused, as are ids not present in the
// mirror: a record the mirror has not seen yet cannot have had its
// protection predicate checked. When the remote delete fails the error is
// returned and items are left unchanged.
func (e *Editor[T, PT]) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	rec := e.findLocked(id)
	if rec == nil {
		e.mu.Unlock()
		return ErrRecordNotFound
	}
	if e.protected != nil && e.protected(rec) {
		e.mu.Unlock()
		return ErrProtectedRecord
	}
	e.mu.Unlock()

	if e.confirm != nil && !e.confirm("Are you sure you want to delete this record?") {
		return nil
	}

	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	e.reconcileLocal(func() {
		if i := e.indexLocked(id); i >= 0 {
			e.items = append(e.items[:i], e.items[i+1:]...)
		}
	})
	return nil
}

// Items returns the current snapshot mirror.
func (e *Editor[T, PT]) Items() []PT {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]PT, len(e.items))
	copy(out, e.items)
	return out
}

// Draft returns the record bound to the active form. Callers mutate it in
// place, the way form inputs would.
func (e *Editor[T, PT]) Draft() PT {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// SetDraft replaces the form draft, e.g. from a decoded request body.
func (e *Editor[T, PT]) SetDraft(draft PT) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = draft
}

// EditingID returns the id of the record being edited, or "" when the form
// is composing a new record.
func (e *Editor[T, PT]) EditingID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editingID
}

// FormVisible reports whether the create/edit form is open.
func (e *Editor[T, PT]) FormVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.formShown
}

// Submitting reports whether a submit is in flight; the UI disables the
// submit control while it is.
func (e *Editor[T, PT]) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitting
}

// reconcileLocal applies fn to items only when no live subscription is
// active. With a subscription the store's next snapshot is authoritative.
func (e *Editor[T, PT]) reconcileLocal(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live {
		return
	}
	fn()
}

func (e *Editor[T, PT]) findLocked(id string) PT {
	if i := e.indexLocked(id); i >= 0 {
		return e.items[i]
	}
	return nil
}

func (e *Editor[T, PT]) indexLocked(id string) int {
	for i, item := range e.items {
		if item.RecordID() == id {
			return i
		}
	}
	return -1
}
