// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ariaorch/core/internal/model"
)

// ResourceStorage is an in-memory blob store keyed by
// (kind, entryID, relative path within the entry).
type ResourceStorage struct {
	mu      sync.RWMutex
	entries map[model.ResourceKind]map[string]map[string][]byte
}

// NewResourceStorage constructs an empty ResourceStorage.
func NewResourceStorage() *ResourceStorage {
	return &ResourceStorage{entries: make(map[model.ResourceKind]map[string]map[string][]byte)}
}

func (r *ResourceStorage) Upload(_ context.Context, kind model.ResourceKind, entryID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("memory resource upload: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byEntry, ok := r.entries[kind]
	if !ok {
		byEntry = make(map[string]map[string][]byte)
		r.entries[kind] = byEntry
	}
	files, ok := byEntry[entryID]
	if !ok {
		files = make(map[string][]byte)
		byEntry[entryID] = files
	}
	files[filepath.Base(path)] = data
	return nil
}

func (r *ResourceStorage) Download(_ context.Context, kind model.ResourceKind, entryID, path string) error {
	r.mu.RLock()
	files, ok := r.entries[kind][entryID]
	r.mu.RUnlock()
	if !ok || len(files) == 0 {
		return fmt.Errorf("memory resource download: no entry %s/%v", entryID, kind)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// A single-entry download writes that one file directly to path;
	// multi-file entries are out of scope for this reference backend.
	for _, data := range files {
		return os.WriteFile(path, data, 0o644)
	}
	return nil
}

func (r *ResourceStorage) Read(_ context.Context, kind model.ResourceKind, entryID, relativePath string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.entries[kind][entryID][relativePath]
	if !ok {
		return nil, fmt.Errorf("memory resource read: no file %q in entry %s", relativePath, entryID)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (r *ResourceStorage) Delete(_ context.Context, kind model.ResourceKind, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if byEntry, ok := r.entries[kind]; ok {
		delete(byEntry, entryID)
	}
	return nil
}
