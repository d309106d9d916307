// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package memory implements ModelStorage and ResourceStorage entirely
// in process memory, for tests and single-node development runs. It
// deliberately does not implement model.Serializable: there is nothing
// for a process-pool or remote worker to reconnect to, so combining it
// with either backend is rejected up front rather than silently losing
// writes.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/diagnostics"
	"github.com/ariaorch/core/internal/model"
)

// ErrNotFound is returned by Get/GetByName/GetByAPIID when no entity
// matches.
var ErrNotFound = diagnostics.New(diagnostics.KindInvalidValue, "entity not found", "")

// Storage is a mutex-guarded, in-memory model.ModelStorage.
type Storage struct {
	mu sync.RWMutex

	services      map[uuid.UUID]*model.Service
	nodes         map[uuid.UUID]*model.Node
	relationships map[uuid.UUID]*model.Relationship
	executions    map[uuid.UUID]*model.Execution
	tasks         map[uuid.UUID]*model.Task
}

// New constructs an empty Storage.
func New() *Storage {
	return &Storage{
		services:      make(map[uuid.UUID]*model.Service),
		nodes:         make(map[uuid.UUID]*model.Node),
		relationships: make(map[uuid.UUID]*model.Relationship),
		executions:    make(map[uuid.UUID]*model.Execution),
		tasks:         make(map[uuid.UUID]*model.Task),
	}
}

func (s *Storage) Services() model.ServiceStorage           { return (*serviceStorage)(s) }
func (s *Storage) Nodes() model.NodeStorage                 { return (*nodeStorage)(s) }
func (s *Storage) Relationships() model.RelationshipStorage { return (*relationshipStorage)(s) }
func (s *Storage) Executions() model.ExecutionStorage       { return (*executionStorage)(s) }
func (s *Storage) Tasks() model.TaskStorage                 { return (*taskStorage)(s) }

func matchesFilter(filter model.EntityFilter, candidate map[string]any) bool {
	for k, want := range filter {
		got, ok := candidate[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}
