// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package workflows implements the built-in graph constructors:
// install, uninstall, heal, scale, and execute_operation. Each is a pure
// function (ctx, graph) -> graph: it reads the model and adds tasks and
// dependency edges, never touching storage directly (the compiler does
// that afterwards).
package workflows

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

// Context bundles the model state a workflow constructor walks. Log may
// be left nil; workflowLog always returns a usable logger.
type Context struct {
	Service *model.Service
	Log     hclog.Logger
}

// workflowLog returns c.Log named for the given builtin workflow,
// falling back to a null logger so callers needn't nil-check.
func (c *Context) workflowLog(name string) hclog.Logger {
	if c.Log == nil {
		return hclog.NewNullLogger()
	}
	return c.Log.Named(name)
}

// operationTaskFor builds a taskgraph.OperationTask for the named
// interface.operation on a node, using a deterministic id derived from
// the node id, interface and operation name so repeated calls over the
// same node/operation produce the same task id (AddTask is idempotent
// on id).
func operationTaskFor(actorID uuid.UUID, actorKind model.ActorKind, iface *model.Interface, opName string) (*taskgraph.OperationTask, bool) {
	op, ok := iface.Operation(opName)
	if !ok {
		return nil, false
	}
	return &taskgraph.OperationTask{
		TaskID:         fmt.Sprintf("%s-%s-%s-%s", actorID, actorKindLabel(actorKind), iface.Name, opName),
		ActorKind:      actorKind,
		ActorID:        actorID.String(),
		Implementation: op.Implementation,
		Inputs:         op.Inputs,
		MaxRetries:     op.MaxRetries,
		RetryInterval:  op.RetryInterval,
		Executor:       op.Executor,
	}, true
}

func actorKindLabel(k model.ActorKind) string {
	if k == model.ActorRelationship {
		return "relationship"
	}
	return "node"
}

// stubTaskFor builds a StubTask under a caller-chosen id, used both as a
// no-op substitute for a missing interface operation and as explicit
// join/fan-out anchors.
func stubTaskFor(id string) *taskgraph.StubTask {
	return &taskgraph.StubTask{TaskID: id}
}
