// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package compiler translates an API-level taskgraph.Graph into a
// persisted execution graph of model.Task rows: injecting a start/end
// marker pair for every (sub)workflow and recursing into nested
// WorkflowTask graphs.
package compiler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ariaorch/core/internal/diagnostics"
	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

var tracer = otel.Tracer("compiler")

// Compile compiles root against execution, persisting every produced
// Task through storage, and returns the persisted end marker's id. log
// may be nil, in which case compilation proceeds silently.
func Compile(ctx context.Context, storage model.TaskStorage, execution *model.Execution, root *taskgraph.Graph, log hclog.Logger) (uuid.UUID, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	ctx, span := tracer.Start(ctx, "compiler.compile", trace.WithAttributes(attribute.String("graph", root.ID())))
	defer span.End()

	c := &compilation{ctx: ctx, storage: storage, execution: execution, log: log}
	start := model.NewTask(execution.ID, root.ID()+"-Start", model.StubStartWorkflow)
	if err := c.storage.Put(ctx, start); err != nil {
		return uuid.Nil, err
	}
	log.Debug("compiling workflow graph", "execution_id", execution.ID, "graph", root.ID())
	end, err := c.compileLevel(root, start, model.StubEndWorkflow)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}
	log.Info("compiled workflow graph", "execution_id", execution.ID, "graph", root.ID(), "end_task", end)
	return end, nil
}

type compilation struct {
	ctx       context.Context
	storage   model.TaskStorage
	execution *model.Execution
	log       hclog.Logger
}

// compileLevel compiles one (sub)workflow level given its
// already-persisted start marker, returning the persisted id of the
// level's end marker.
func (c *compilation) compileLevel(g *taskgraph.Graph, start *model.Task, endStub model.StubType) (uuid.UUID, error) {
	// Dependencies-first order: resolveDeps looks up each task's API-graph
	// predecessors in the compiled map, which only has entries for ids
	// already visited, so a dependency must always be compiled before its
	// dependents.
	order, err := g.TopologicalOrder(false)
	if err != nil {
		return uuid.Nil, err
	}

	// compiled maps an API-graph task id to its persisted representative
	// (the task itself for Operation/Stub, or the recursive call's end
	// marker for a WorkflowTask). dependedUpon tracks, scoped to THIS
	// call only, which persisted ids are depended upon by some other
	// task compiled in this same call: sinks must be computed per
	// workflow level, not over the entire execution's task list, since a
	// sibling workflow's internal tasks must never leak into this
	// level's sink computation.
	compiled := make(map[string]uuid.UUID, len(order))
	dependedUpon := make(map[uuid.UUID]bool, len(order))

	for _, id := range order {
		t, ok := g.Task(id)
		if !ok {
			return uuid.Nil, diagnostics.New(diagnostics.KindInvalidGraph, fmt.Sprintf("topological order referenced unknown task %q", id), "")
		}

		deps := c.resolveDeps(g, compiled, id, start.ID)
		for _, d := range deps {
			dependedUpon[d] = true
		}

		persistedID, err := c.compileOne(t, deps)
		if err != nil {
			return uuid.Nil, err
		}
		compiled[id] = persistedID
	}

	sinks := make([]uuid.UUID, 0, len(compiled))
	for _, persistedID := range compiled {
		if !dependedUpon[persistedID] {
			sinks = append(sinks, persistedID)
		}
	}
	if len(sinks) == 0 {
		sinks = []uuid.UUID{start.ID}
	}

	end := model.NewTask(c.execution.ID, g.ID()+"-End", endStub)
	end.Dependencies = sinks
	if err := c.storage.Put(c.ctx, end); err != nil {
		return uuid.Nil, err
	}
	return end.ID, nil
}

// compileOne persists the single task produced for one API-graph node,
// recursing via compileLevel for a WorkflowTask.
func (c *compilation) compileOne(t taskgraph.Task, deps []uuid.UUID) (uuid.UUID, error) {
	switch tt := t.(type) {
	case *taskgraph.OperationTask:
		task := model.NewTask(c.execution.ID, tt.TaskID, model.StubNone)
		task.Dependencies = deps
		task.Inputs = tt.Inputs
		task.OperationMapping = tt.Implementation
		task.MaxAttempts = tt.MaxRetries + 1
		task.RetryInterval = tt.RetryInterval
		if tt.ActorID != "" {
			actorID, err := uuid.Parse(tt.ActorID)
			if err != nil {
				return uuid.Nil, diagnostics.New(diagnostics.KindInvalidGraph, fmt.Sprintf("task %q has a malformed actor id", tt.TaskID), err.Error())
			}
			task.ActorID = &actorID
			task.ActorKind = tt.ActorKind
		}
		if err := c.storage.Put(c.ctx, task); err != nil {
			return uuid.Nil, err
		}
		return task.ID, nil

	case *taskgraph.StubTask:
		task := model.NewTask(c.execution.ID, tt.TaskID, model.StubPlain)
		task.Dependencies = deps
		if err := c.storage.Put(c.ctx, task); err != nil {
			return uuid.Nil, err
		}
		return task.ID, nil

	case *taskgraph.WorkflowTask:
		start := model.NewTask(c.execution.ID, tt.Graph.ID()+"-Start", model.StubStartSubworkflow)
		start.Dependencies = deps
		if err := c.storage.Put(c.ctx, start); err != nil {
			return uuid.Nil, err
		}
		return c.compileLevel(tt.Graph, start, model.StubEndSubworkflow)

	default:
		return uuid.Nil, diagnostics.New(diagnostics.KindInvalidGraph, fmt.Sprintf("unrecognized task variant for %q", t.ID()), "")
	}
}

// resolveDeps maps id's API-graph predecessors to their already-
// compiled persisted ids, falling back to the level's start marker when
// it has none.
func (c *compilation) resolveDeps(g *taskgraph.Graph, compiled map[string]uuid.UUID, id string, startID uuid.UUID) []uuid.UUID {
	apiDeps := g.Dependencies(id)
	if len(apiDeps) == 0 {
		return []uuid.UUID{startID}
	}
	deps := make([]uuid.UUID, 0, len(apiDeps))
	for _, d := range apiDeps {
		if pid, ok := compiled[d]; ok {
			deps = append(deps, pid)
		}
	}
	if len(deps) == 0 {
		return []uuid.UUID{startID}
	}
	return deps
}
