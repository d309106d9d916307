// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package sql

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ariaorch/core/internal/model"
)

// ResourceStorage is a PostgreSQL-backed blob store, sharing the same
// connection as Storage.
type ResourceStorage Storage

func (r *ResourceStorage) asStorage() *Storage { return (*Storage)(r) }

func (r *ResourceStorage) Upload(ctx context.Context, kind model.ResourceKind, entryID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = r.asStorage().db.ExecContext(ctx, `
		INSERT INTO aria_resources (kind, entry_id, relative_path, data) VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, entry_id, relative_path) DO UPDATE SET data = EXCLUDED.data`,
		int(kind), entryID, filepath.Base(path), data)
	return err
}

func (r *ResourceStorage) Download(ctx context.Context, kind model.ResourceKind, entryID, path string) error {
	var data []byte
	if err := r.asStorage().db.GetContext(ctx, &data, `
		SELECT data FROM aria_resources WHERE kind = $1 AND entry_id = $2 ORDER BY relative_path LIMIT 1`,
		int(kind), entryID); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (r *ResourceStorage) Read(ctx context.Context, kind model.ResourceKind, entryID, relativePath string) ([]byte, error) {
	var data []byte
	err := r.asStorage().db.GetContext(ctx, &data, `
		SELECT data FROM aria_resources WHERE kind = $1 AND entry_id = $2 AND relative_path = $3`,
		int(kind), entryID, relativePath)
	return data, err
}

func (r *ResourceStorage) Delete(ctx context.Context, kind model.ResourceKind, entryID string) error {
	_, err := r.asStorage().db.ExecContext(ctx, `DELETE FROM aria_resources WHERE kind = $1 AND entry_id = $2`, int(kind), entryID)
	return err
}

// SerializeConfig implements model.Serializable, same dsn a ModelStorage
// of this package would report.
func (r *ResourceStorage) SerializeConfig() (string, map[string]string) {
	return "sql.ResourceStorage", map[string]string{"dsn": r.dsn}
}
