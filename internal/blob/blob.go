// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blob stores uploaded files on disk and hands back durable URLs.
// Image uploads are decoded, validated, and thumbnailed.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/eventdesk-go/internal/util"
)

// ThumbnailWidth is the bounding width of generated thumbnails.
const ThumbnailWidth = 320

// imageExtensions are the upload extensions treated as images.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// DiskStore writes uploads under a directory and serves them from a base
// URL path.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates a DiskStore rooted at dir. Uploaded files become
// reachable under baseURL (e.g. "/uploads").
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload stores data under a collision-free name and returns its durable
// URL. Image content must decode cleanly; a thumbnail is written next to
// the original.
func (s *DiskStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("upload %q is empty", name)
	}

	ext := strings.ToLower(filepath.Ext(name))
	base := util.Slugify(strings.TrimSuffix(filepath.Base(name), ext))
	if base == "" {
		base = "file"
	}
	id := uuid.NewString()
	stored := fmt.Sprintf("%s-%s%s", base, id[:8], ext)

	if imageExtensions[ext] {
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("decoding image %q: %w", name, err)
		}
		thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
		thumbName := stored
		if ext == ".webp" {
			// No pure-Go webp encoder; thumbnails fall back to PNG.
			thumbName = strings.TrimSuffix(stored, ext) + ".png"
		}
		thumbPath := filepath.Join(s.dir, "thumbs", thumbName)
		if err := os.MkdirAll(filepath.Dir(thumbPath), 0o755); err != nil {
			return "", fmt.Errorf("creating thumbs directory: %w", err)
		}
		if err := imaging.Save(thumb, thumbPath); err != nil {
			return "", fmt.Errorf("saving thumbnail: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(s.dir, stored), data, 0o644); err != nil {
		return "", fmt.Errorf("saving upload %q: %w", name, err)
	}

	return path.Join(s.baseURL, stored), nil
}
