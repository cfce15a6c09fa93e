// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package video

import "testing"

func TestExtractID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{
			name:   "watch page",
			url:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
			wantOK: true,
		},
		{
			name:   "short link",
			url:    "https://youtu.be/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
			wantOK: true,
		},
		{
			name:   "embed form",
			url:    "https://www.youtube.com/embed/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
			wantOK: true,
		},
		{
			name:   "watch page with extra params",
			url:    "https://www.youtube.com/watch?feature=shared&v=kJQP7kiw5Fk",
			wantID: "kJQP7kiw5Fk",
			wantOK: true,
		},
		{
			name:   "legacy v path",
			url:    "https://www.youtube.com/v/dQw4w9WgXcQ",
			wantID: "dQw4w9WgXcQ",
			wantOK: true,
		},
		{
			name:   "unrelated host",
			url:    "https://example.com/video",
			wantOK: false,
		},
		{
			name:   "short link with truncated id",
			url:    "https://youtu.be/short",
			wantOK: false,
		},
		{
			name:   "empty string",
			url:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractID(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ExtractID(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("ExtractID(%q) = %q, want %q", tt.url, id, tt.wantID)
			}
		})
	}
}

func TestExtractID_Deterministic(t *testing.T) {
	const url = "https://youtu.be/dQw4w9WgXcQ"
	first, _ := ExtractID(url)
	second, _ := ExtractID(url)
	if first != second {
		t.Errorf("ExtractID is not deterministic: %q != %q", first, second)
	}
}
