// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package opctx implements the operation-context objects passed to an
// operation implementation: WorkflowContext (workflow-scoped) and
// OperationContext's node/relationship variants, plus the
// serialization envelope used by the process-pool and remote executors.
package opctx

import (
	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

// WorkflowContext is handed to a built-in or custom workflow function
// alongside an empty taskgraph.Graph; it exposes read access to the
// model the workflow walks while constructing the graph.
type WorkflowContext struct {
	Execution *model.Execution
	Service   *model.Service
	Storage   model.ModelStorage
}

// ActorKind mirrors model.ActorKind for the subset an operation context
// cares about (never ActorNone: a context always has an actor).
type ActorKind = model.ActorKind

// OperationContext is passed to a resolved operation implementation. Node
// is set when ActorKind == model.ActorNode, Relationship when
// model.ActorRelationship; exactly one is non-nil.
type OperationContext struct {
	Name         string
	ExecutionID  uuid.UUID
	TaskID       uuid.UUID
	ActorID      uuid.UUID
	ActorKind    ActorKind

	Node         *model.Node
	Relationship *model.Relationship

	ModelStorage    model.ModelStorage
	ResourceStorage model.ResourceStorage
}

// NodeOperationContext constructs a context scoped to a node actor.
func NodeOperationContext(name string, executionID uuid.UUID, taskID uuid.UUID, n *model.Node, ms model.ModelStorage, rs model.ResourceStorage) *OperationContext {
	return &OperationContext{
		Name:            name,
		ExecutionID:     executionID,
		TaskID:          taskID,
		ActorID:         n.ID,
		ActorKind:       model.ActorNode,
		Node:            n,
		ModelStorage:    ms,
		ResourceStorage: rs,
	}
}

// RelationshipOperationContext constructs a context scoped to a
// relationship actor.
func RelationshipOperationContext(name string, executionID uuid.UUID, taskID uuid.UUID, r *model.Relationship, ms model.ModelStorage, rs model.ResourceStorage) *OperationContext {
	return &OperationContext{
		Name:            name,
		ExecutionID:     executionID,
		TaskID:          taskID,
		ActorID:         r.ID,
		ActorKind:       model.ActorRelationship,
		Relationship:    r,
		ModelStorage:    ms,
		ResourceStorage: rs,
	}
}
