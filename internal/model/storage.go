// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import (
	"context"

	"github.com/google/uuid"
)

// EntityFilter is an opaque set of equality constraints evaluated by a
// ModelStorage backend's List; the in-memory and SQL backends agree on
// the same field names per entity kind (documented alongside each
// backend), so callers can switch backends without a query language to
// port.
type EntityFilter map[string]any

// ModelStorage is the common contract every backend satisfies:
// get/get_by_name/list/put/update/delete, implemented once per entity
// kind. Each entity kind gets its own narrow accessor interface below
// rather than one interface with an `any`-typed entity parameter, so
// backends remain type-safe; a concrete ModelStorage implementation
// satisfies all of them.
type ModelStorage interface {
	Services() ServiceStorage
	Nodes() NodeStorage
	Relationships() RelationshipStorage
	Executions() ExecutionStorage
	Tasks() TaskStorage
}

type ServiceStorage interface {
	Get(ctx context.Context, id uuid.UUID) (*Service, error)
	GetByName(ctx context.Context, name string) (*Service, error)
	List(ctx context.Context, filter EntityFilter) ([]*Service, error)
	Put(ctx context.Context, s *Service) error
	Update(ctx context.Context, s *Service) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type NodeStorage interface {
	Get(ctx context.Context, id uuid.UUID) (*Node, error)
	GetByName(ctx context.Context, templateName string) (*Node, error)
	List(ctx context.Context, filter EntityFilter) ([]*Node, error)
	Put(ctx context.Context, n *Node) error
	Update(ctx context.Context, n *Node) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RelationshipStorage interface {
	Get(ctx context.Context, id uuid.UUID) (*Relationship, error)
	List(ctx context.Context, filter EntityFilter) ([]*Relationship, error)
	Put(ctx context.Context, r *Relationship) error
	Update(ctx context.Context, r *Relationship) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ExecutionStorage interface {
	Get(ctx context.Context, id uuid.UUID) (*Execution, error)
	List(ctx context.Context, filter EntityFilter) ([]*Execution, error)
	Put(ctx context.Context, e *Execution) error
	Update(ctx context.Context, e *Execution) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TaskStorage interface {
	Get(ctx context.Context, id uuid.UUID) (*Task, error)
	GetByAPIID(ctx context.Context, executionID uuid.UUID, apiID string) (*Task, error)
	List(ctx context.Context, filter EntityFilter) ([]*Task, error)
	Put(ctx context.Context, t *Task) error
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ResourceKind enumerates the resource kinds a ResourceStorage serves.
type ResourceKind int

const (
	ResourceBlueprint ResourceKind = iota
	ResourceDeployment
	ResourcePlugin
	ResourceSnapshot
)

// ResourceStorage is the contract for the binary blob store backing
// artifacts, blueprints, deployments, plugins and snapshots. Content-
// addressing is explicitly not required.
type ResourceStorage interface {
	Upload(ctx context.Context, kind ResourceKind, entryID, path string) error
	Download(ctx context.Context, kind ResourceKind, entryID, path string) error
	Read(ctx context.Context, kind ResourceKind, entryID, relativePath string) ([]byte, error)
	Delete(ctx context.Context, kind ResourceKind, entryID string) error
}

// Serializable is implemented by a ResourceStorage/ModelStorage backend
// that can describe itself as an api-class/keyword-args pair a child
// process can reconstruct, for process-pool IPC. An in-memory backend
// does not implement this. The check happens per task, not when an
// executor is constructed: opctx.Encode rejects a backend without it,
// so the process-pool and remote executors' Execute returns that error.
type Serializable interface {
	SerializeConfig() (apiClass string, apiKwargs map[string]string)
}
