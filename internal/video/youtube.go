// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package video extracts hosted-video identifiers from user-supplied URLs.
package video

import "regexp"

// idPattern matches the accepted YouTube URL shapes: the canonical watch
// page, the embed form, and the youtu.be short link. The capture group is
// the 11-character video identifier.
var idPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ExtractID returns the 11-character YouTube video identifier embedded in
// url, or false if the URL does not match any accepted shape. It is a pure
// function with no side effects.
func ExtractID(url string) (string, bool) {
	m := idPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}
