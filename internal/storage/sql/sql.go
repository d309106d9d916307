// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package sql implements the ModelStorage contract and the
// process-pool-serializable half of model.Serializable against
// PostgreSQL, using jmoiron/sqlx for query execution and the pgx/v5
// stdlib driver for the connection.
//
// Each entity is persisted as one row keyed by its id with the rest of
// the entity JSON-encoded into a single payload column — this core has
// no migration tooling of its own (schema management is the
// integrator's job), so the schema stays deliberately narrow rather
// than modeling every nested field relationally.
package sql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/ariaorch/core/internal/model"
)

// Storage is a PostgreSQL-backed model.ModelStorage.
type Storage struct {
	db  *sqlx.DB
	dsn string
}

// Open connects to PostgreSQL at dsn and ensures the core tables exist.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql storage: connect: %w", err)
	}
	s := &Storage{db: db, dsn: dsn}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) Close() error { return s.db.Close() }

func (s *Storage) migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS aria_services (id UUID PRIMARY KEY, name TEXT NOT NULL, payload JSONB NOT NULL);
CREATE TABLE IF NOT EXISTS aria_nodes (id UUID PRIMARY KEY, service_id UUID NOT NULL, template_name TEXT NOT NULL, type_name TEXT NOT NULL, payload JSONB NOT NULL);
CREATE TABLE IF NOT EXISTS aria_relationships (id UUID PRIMARY KEY, service_id UUID NOT NULL, source_id UUID NOT NULL, target_id UUID NOT NULL, payload JSONB NOT NULL);
CREATE TABLE IF NOT EXISTS aria_executions (id UUID PRIMARY KEY, service_id UUID NOT NULL, status INT NOT NULL, payload JSONB NOT NULL);
CREATE TABLE IF NOT EXISTS aria_tasks (id UUID PRIMARY KEY, execution_id UUID NOT NULL, api_id TEXT NOT NULL, status INT NOT NULL, payload JSONB NOT NULL);
CREATE TABLE IF NOT EXISTS aria_resources (kind INT NOT NULL, entry_id TEXT NOT NULL, relative_path TEXT NOT NULL, data BYTEA NOT NULL, PRIMARY KEY (kind, entry_id, relative_path));
`
	_, err := s.db.ExecContext(ctx, ddl)
	if err != nil {
		return fmt.Errorf("sql storage: migrate: %w", err)
	}
	return nil
}

func (s *Storage) Services() model.ServiceStorage           { return (*serviceStorage)(s) }
func (s *Storage) Nodes() model.NodeStorage                 { return (*nodeStorage)(s) }
func (s *Storage) Relationships() model.RelationshipStorage { return (*relationshipStorage)(s) }
func (s *Storage) Executions() model.ExecutionStorage       { return (*executionStorage)(s) }
func (s *Storage) Tasks() model.TaskStorage                 { return (*taskStorage)(s) }
func (s *Storage) Resources() *ResourceStorage              { return (*ResourceStorage)(s) }

// SerializeConfig implements model.Serializable: a process-pool or
// remote worker reconnects to the same database by dsn rather than
// inheriting an open connection.
func (s *Storage) SerializeConfig() (string, map[string]string) {
	return "sql.Storage", map[string]string{"dsn": s.dsn}
}

func marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("sql storage: marshal: %w", err)
	}
	return b, nil
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("sql storage: unmarshal: %w", err)
	}
	return nil
}

// queryClause appends an "AND col = $n" fragment for a List filter built
// up one optional predicate at a time.
func queryClause(column string, argPosition int) string {
	return fmt.Sprintf(" AND %s = $%d", column, argPosition)
}
