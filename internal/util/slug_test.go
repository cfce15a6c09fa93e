// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple title", input: "Game Tournament 2026", want: "game-tournament-2026"},
		{name: "accents", input: "Café Après-Midi", want: "cafe-apres-midi"},
		{name: "punctuation", input: "What?! A... Title", want: "what-a-title"},
		{name: "cyrillic", input: "Привет", want: "privet"},
		{name: "leading and trailing junk", input: "  --Hello--  ", want: "hello"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"game-tournament-2026", true},
		{"a", true},
		{"", false},
		{"-leading", false},
		{"trailing-", false},
		{"Upper", false},
		{"with space", false},
	}

	for _, tt := range tests {
		if got := IsValidSlug(tt.slug); got != tt.want {
			t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
		}
	}
}
