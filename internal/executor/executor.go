// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package executor implements the executor abstraction and its
// reference backends: in-thread, thread-pool, process-pool, and a
// remote/broker-backed executor. Every backend publishes task lifecycle
// signals onto an engine-owned signalbus.Bus handed to it at
// construction.
package executor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/opctx"
	"github.com/ariaorch/core/internal/signalbus"
)

var tracer = otel.Tracer("executor")

// Registry resolves an operation's dotted implementation string to a
// callable: a process-wide registry keyed by fully-qualified name.
// Operation is what every backend ultimately invokes.
type Operation func(ctx context.Context, opCtx *opctx.OperationContext, inputs map[string]any) error

type Registry struct {
	ops map[string]Operation
}

func NewRegistry() *Registry { return &Registry{ops: make(map[string]Operation)} }

// Register adds op under name, overwriting any previous registration —
// extension-discovery re-runs (e.g. in a process-pool child) are
// expected to re-register the same names idempotently.
func (r *Registry) Register(name string, op Operation) { r.ops[name] = op }

func (r *Registry) Resolve(name string) (Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Executor is the contract every backend implements.
type Executor interface {
	// Execute schedules task's operation, non-blocking. It must publish
	// exactly one TaskStarted followed by exactly one of TaskSucceeded /
	// TaskFailed onto the bus this executor was constructed with.
	Execute(ctx context.Context, task *model.Task, opCtx *opctx.OperationContext, inputs map[string]any) error
	// Close is idempotent and blocks until every in-flight task has
	// drained and no further signals will fire.
	Close() error
}

func publishStarted(bus *signalbus.Bus, task *model.Task) {
	bus.Publish(signalbus.TaskStartedSignal(task.ID))
}

func publishResult(bus *signalbus.Bus, task *model.Task, err error) {
	if err != nil {
		bus.Publish(signalbus.TaskFailedSignal(task.ID, err))
		return
	}
	bus.Publish(signalbus.TaskSucceededSignal(task.ID))
}

// runTraced invokes op inside a span named after task's implementation,
// so a single dispatch is visible end-to-end regardless of which
// backend ran it.
func runTraced(ctx context.Context, task *model.Task, op Operation, opCtx *opctx.OperationContext, inputs map[string]any) error {
	ctx, span := tracer.Start(ctx, "executor.operation", trace.WithAttributes(
		attribute.String("task_id", task.APIID),
		attribute.String("operation", task.OperationMapping),
	))
	defer span.End()
	err := op(ctx, opCtx, inputs)
	if err != nil {
		span.RecordError(err)
	}
	return err
}
