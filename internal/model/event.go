// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"github.com/olegiv/eventdesk-go/internal/video"
)

// Event is an upcoming community event.
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Image       MediaRef    `json:"image"`
	Description string      `json:"description"` // Markdown source
	DiscordLink string      `json:"discordLink"`
	VenueLink   string      `json:"venueLink"`
	Time        string      `json:"time"`
	Highlights  []Highlight `json:"highlights,omitempty"`
}

// Highlight is an ordered sub-entry of an event: a piece of related media
// with a link. Sub-list order is meaningful and preserved.
type Highlight struct {
	Title string   `json:"title"`
	Image MediaRef `json:"image"`
	Link  string   `json:"link"`
}

// RecordID returns the store-assigned identifier.
func (e *Event) RecordID() string { return e.ID }

// SetID stamps the store-assigned identifier onto the record.
func (e *Event) SetID(id string) { e.ID = id }

// Clone returns a deep copy suitable for use as a form draft.
func (e *Event) Clone() *Event {
	cp := *e
	if e.Highlights != nil {
		cp.Highlights = make([]Highlight, len(e.Highlights))
		copy(cp.Highlights, e.Highlights)
	}
	return &cp
}

// MediaRefs returns every media reference held by the record, including
// those of the ordered highlight sub-entries.
func (e *Event) MediaRefs() []*MediaRef {
	refs := []*MediaRef{&e.Image}
	for i := range e.Highlights {
		refs = append(refs, &e.Highlights[i].Image)
	}
	return refs
}

// Validate checks the required fields of an event draft.
func (e *Event) Validate() error {
	ve := ValidationError{}
	requireNonEmpty(ve, map[string]string{
		"title":       e.Title,
		"description": e.Description,
		"time":        e.Time,
	})
	if !e.Image.Pending() && e.Image.URL == "" {
		ve["image"] = "is required"
	}
	if len(ve) > 0 {
		return ve
	}
	return nil
}

// PastEvent is a concluded event kept as an embedded video with a blurb.
type PastEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"` // hosted-video URL
	Description string `json:"description"`
}

func (p *PastEvent) RecordID() string { return p.ID }

func (p *PastEvent) SetID(id string) { p.ID = id }

func (p *PastEvent) Clone() *PastEvent {
	cp := *p
	return &cp
}

func (p *PastEvent) MediaRefs() []*MediaRef { return nil }

// Validate checks required fields and that the link resolves to a hosted
// video identifier.
func (p *PastEvent) Validate() error {
	ve := ValidationError{}
	requireNonEmpty(ve, map[string]string{
		"title":       p.Title,
		"link":        p.Link,
		"description": p.Description,
	})
	if _, ok := ve["link"]; !ok {
		if _, ok := video.ExtractID(p.Link); !ok {
			ve["link"] = "is not a valid video link"
		}
	}
	if len(ve) > 0 {
		return ve
	}
	return nil
}
