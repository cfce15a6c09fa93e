// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"github.com/olegiv/eventdesk-go/internal/video"
)

// Feature is a piece of community art shown on the landing page.
type Feature struct {
	ID     string   `json:"id"`
	Image  MediaRef `json:"image"`
	Author string   `json:"author"`
	Link   string   `json:"link"`
}

func (f *Feature) RecordID() string { return f.ID }

func (f *Feature) SetID(id string) { f.ID = id }

func (f *Feature) Clone() *Feature {
	cp := *f
	return &cp
}

func (f *Feature) MediaRefs() []*MediaRef { return []*MediaRef{&f.Image} }

func (f *Feature) Validate() error {
	ve := ValidationError{}
	requireNonEmpty(ve, map[string]string{
		"author": f.Author,
		"link":   f.Link,
	})
	if !f.Image.Pending() && f.Image.URL == "" {
		ve["image"] = "is required"
	}
	if len(ve) > 0 {
		return ve
	}
	return nil
}

// Inspiration is a curated piece of hosted-video content.
type Inspiration struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"` // hosted-video URL
	Description string `json:"description"`
}

func (i *Inspiration) RecordID() string { return i.ID }

func (i *Inspiration) SetID(id string) { i.ID = id }

func (i *Inspiration) Clone() *Inspiration {
	cp := *i
	return &cp
}

func (i *Inspiration) MediaRefs() []*MediaRef { return nil }

func (i *Inspiration) Validate() error {
	ve := ValidationError{}
	requireNonEmpty(ve, map[string]string{
		"title":       i.Title,
		"link":        i.Link,
		"description": i.Description,
	})
	if _, ok := ve["link"]; !ok {
		if _, ok := video.ExtractID(i.Link); !ok {
			ve["link"] = "is not a valid video link"
		}
	}
	if len(ve) > 0 {
		return ve
	}
	return nil
}
