// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package taskgraph implements the API-level DAG: the user-facing task
// variants a workflow function populates (OperationTask, StubTask,
// WorkflowTask) plus the dependency-edge and sequencing helpers, and a
// deterministic topological sort consumed by the compiler.
package taskgraph

import (
	"time"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/model/functions"
)

// Kind distinguishes the three task variants a Graph node can be.
type Kind int

const (
	OperationKind Kind = iota
	StubKind
	WorkflowKind
)

// Task is the common interface of every node addable to a Graph.
type Task interface {
	ID() string
	Kind() Kind
}

// OperationTask references an actor (node or relationship) and one of
// its interface operations, carrying already function-resolved inputs.
type OperationTask struct {
	TaskID string

	ActorKind model.ActorKind
	ActorID   string // stringified uuid.UUID; kept as string so stub actors (none) need no sentinel

	Implementation string
	Inputs         map[string]functions.Parameter

	MaxRetries    int
	RetryInterval time.Duration
	Executor      string
}

func (t *OperationTask) ID() string { return t.TaskID }
func (t *OperationTask) Kind() Kind { return OperationKind }

// StubTask carries no implementation; it exists purely so dependency
// edges stay expressible across a logical unit with no work of its own
// (a join or fan-out anchor).
type StubTask struct {
	TaskID string
}

func (t *StubTask) ID() string { return t.TaskID }
func (t *StubTask) Kind() Kind { return StubKind }

// WorkflowTask nests another Graph, compiled by the compiler into its
// own start/end-marker subgraph.
type WorkflowTask struct {
	TaskID string
	Graph  *Graph
}

func (t *WorkflowTask) ID() string { return t.TaskID }
func (t *WorkflowTask) Kind() Kind { return WorkflowKind }
