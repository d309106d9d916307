// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package engine implements the cooperative driver: it repeatedly
// selects ready tasks, dispatches them to an executor, consumes
// completion signals, and terminates on DAG exhaustion or fatal
// failure.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ariaorch/core/internal/diagnostics"
	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/opctx"
	"github.com/ariaorch/core/internal/signalbus"
)

// pollInterval is the engine's suspension point between loop
// iterations.
const pollInterval = 100 * time.Millisecond

// Dispatcher is the subset of executor.Executor the engine needs,
// narrowed so this package doesn't import internal/executor (which in
// turn would create no cycle here, but keeping the dependency this
// direction mirrors how the rest of this core treats the engine as
// backend-agnostic).
type Dispatcher interface {
	Execute(ctx context.Context, task *model.Task, opCtx *opctx.OperationContext, inputs map[string]any) error
	Close() error
}

// ContextBuilder resolves a Task to the OperationContext and raw input
// map its operation implementation should receive; built-in workflows
// populate Task.Inputs as functions.Parameter values, which must already
// be evaluated to concrete inputs by the time the engine dispatches
// (evaluation happens during compile/plan — the engine itself never
// evaluates intrinsic functions).
type ContextBuilder func(task *model.Task) (*opctx.OperationContext, map[string]any, error)

// Engine drives one Execution to completion.
type Engine struct {
	execution *model.Execution
	storage   model.TaskStorage
	executor  Dispatcher
	bus       *signalbus.Bus
	buildCtx  ContextBuilder

	graph *mirror
	tasks map[uuid.UUID]*model.Task

	fatalOriginAPIID string

	log    hclog.Logger
	tracer trace.Tracer
}

// Option configures an Engine beyond its required constructor arguments.
type Option func(*Engine)

// WithLogger overrides the default discarding logger.
func WithLogger(l hclog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(execution *model.Execution, storage model.TaskStorage, ex Dispatcher, bus *signalbus.Bus, buildCtx ContextBuilder, opts ...Option) *Engine {
	e := &Engine{
		execution: execution,
		storage:   storage,
		executor:  ex,
		bus:       bus,
		buildCtx:  buildCtx,
		graph:     newMirror(),
		tasks:     make(map[uuid.UUID]*model.Task),
		log:       hclog.NewNullLogger(),
		tracer:    otel.Tracer("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run loads every Task for the execution into the in-memory mirror and
// drives the main loop until the graph empties or a fatal failure
// aborts it. ctx cancellation is the caller's cooperative-cancellation
// trigger: Run sets the execution to cancelling, stops dispatching new
// work, drains in-flight tasks, and returns context.Canceled.
func (e *Engine) Run(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "engine.run",
		trace.WithAttributes(attribute.String("execution_id", e.execution.ID.String())))
	defer span.End()

	if err := e.load(ctx); err != nil {
		return err
	}

	e.log.Info("execution started", "execution_id", e.execution.ID, "workflow", e.execution.WorkflowName, "tasks", len(e.tasks))
	e.bus.Publish(signalbus.Signal{Kind: signalbus.WorkflowStarted})

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var fatal error
	cancelling := false

	for {
		select {
		case <-ctx.Done():
			cancelling = true
			e.execution.Status = model.ExecutionCancelling
		default:
		}

		// Drain every signal already queued before deciding whether the
		// graph is empty this tick, so a burst of same-tick completions
		// doesn't make us sleep needlessly.
		e.drainQueued(ctx, &fatal)

		if fatal != nil {
			break
		}

		if !cancelling {
			for _, id := range e.graph.ready() {
				task := e.tasks[id]
				if !task.Ready(time.Now()) {
					continue
				}
				e.dispatch(ctx, task)
				// A synchronous backend (e.g. InThread) publishes its
				// signals for this task inline above; drain immediately
				// so a tick that dispatches many ready tasks can't queue
				// more signals than the bus can hold.
				e.drainQueued(ctx, &fatal)
				if fatal != nil {
					break
				}
			}
		}

		if e.graph.empty() {
			break
		}
		if cancelling && e.noneInFlight() {
			break
		}

		select {
		case <-ticker.C:
		case sig := <-e.bus.Receive():
			e.handleSignal(ctx, sig, &fatal)
		}
	}

	_ = e.executor.Close()

	switch {
	case cancelling:
		e.execution.Status = model.ExecutionCancelled
		now := time.Now()
		e.execution.EndedAt = &now
		e.log.Warn("execution cancelled", "execution_id", e.execution.ID)
		e.bus.Publish(signalbus.Signal{Kind: signalbus.WorkflowFailed, Err: context.Canceled})
		return context.Canceled
	case fatal != nil:
		e.execution.Status = model.ExecutionFailed
		e.execution.Error = &model.ExecutionError{Message: fatal.Error(), OriginTaskID: e.fatalOriginAPIID}
		now := time.Now()
		e.execution.EndedAt = &now
		e.log.Error("execution aborted", "execution_id", e.execution.ID, "origin_task", e.fatalOriginAPIID, "error", fatal)
		span.RecordError(fatal)
		e.bus.Publish(signalbus.Signal{Kind: signalbus.WorkflowFailed, Err: fatal})
		return fatal
	default:
		e.execution.Status = model.ExecutionSucceeded
		now := time.Now()
		e.execution.EndedAt = &now
		e.log.Info("execution succeeded", "execution_id", e.execution.ID)
		e.bus.Publish(signalbus.Signal{Kind: signalbus.WorkflowSucceeded})
		return nil
	}
}

// drainQueued consumes every signal already queued on the bus without
// blocking, applying each through handleSignal.
func (e *Engine) drainQueued(ctx context.Context, fatal *error) {
	for {
		select {
		case sig := <-e.bus.Receive():
			e.handleSignal(ctx, sig, fatal)
		default:
			return
		}
	}
}

func (e *Engine) load(ctx context.Context) error {
	rows, err := e.storage.List(ctx, model.EntityFilter{"execution_id": e.execution.ID})
	if err != nil {
		return err
	}
	for _, t := range rows {
		e.tasks[t.ID] = t
		if !t.Status.EndState() {
			e.graph.addNode(t.ID, t.Dependencies)
		}
	}
	return nil
}

// noneInFlight reports whether no task is currently dispatched
// (sent/started), so cancellation can wait for them to drain without
// the engine itself blocking on a channel per task.
func (e *Engine) noneInFlight() bool {
	for _, t := range e.tasks {
		if t.Status == model.TaskSent || t.Status == model.TaskStarted {
			return false
		}
	}
	return true
}

func (e *Engine) dispatch(ctx context.Context, task *model.Task) {
	ctx, span := e.tracer.Start(ctx, "engine.dispatch",
		trace.WithAttributes(attribute.String("task_id", task.APIID)))
	defer span.End()

	if task.StubType != model.StubNone {
		e.completeStub(ctx, task)
		return
	}

	opCtx, inputs, err := e.buildCtx(task)
	if err != nil {
		e.log.Error("failed to build operation context", "task", task.APIID, "error", err)
		task.Status = model.TaskFailed
		_ = e.storage.Update(ctx, task)
		e.graph.remove(task.ID)
		return
	}
	task.Status = model.TaskSent
	_ = e.storage.Update(ctx, task)
	e.log.Debug("task dispatched", "task", task.APIID)
	if err := e.executor.Execute(ctx, task, opCtx, inputs); err != nil {
		task.Status = model.TaskStarted // the signal bus is still the source of truth for the terminal outcome
		_ = e.storage.Update(ctx, task)
		span.RecordError(err)
		e.bus.Publish(signalbus.TaskFailedSignal(task.ID, err))
	}
}

// completeStub resolves a marker or stub task inline instead of
// dispatching it to the executor: start/end-workflow markers and join
// anchors carry no OperationMapping, so there is no registry entry an
// executor could resolve for them — they exist only to carry
// dependency edges and succeed the instant they're ready.
func (e *Engine) completeStub(ctx context.Context, task *model.Task) {
	task.Status = model.TaskSucceeded
	_ = e.storage.Update(ctx, task)
	e.graph.remove(task.ID)
	e.log.Debug("stub task resolved", "task", task.APIID, "stub_type", task.StubType)
}

// handleSignal applies the terminal-signal transitions a dispatched
// operation reports back on the bus, plus the started transition for
// TaskStarted.
func (e *Engine) handleSignal(ctx context.Context, sig signalbus.Signal, fatal *error) {
	task, ok := e.tasks[sig.TaskID]
	if !ok {
		return
	}
	switch sig.Kind {
	case signalbus.TaskStarted:
		task.Status = model.TaskStarted
		_ = e.storage.Update(ctx, task)
	case signalbus.TaskSucceeded:
		task.Status = model.TaskSucceeded
		task.Attempts++
		_ = e.storage.Update(ctx, task)
		e.graph.remove(task.ID)
		e.log.Debug("task succeeded", "task", task.APIID)
	case signalbus.TaskFailed:
		task.RecordFailure(time.Now())
		_ = e.storage.Update(ctx, task)
		e.log.Warn("task failed", "task", task.APIID, "attempts", task.Attempts, "max_attempts", task.MaxAttempts, "error", sig.Err)
		if task.Status == model.TaskFailed && *fatal == nil {
			*fatal = diagnostics.New(diagnostics.KindWorkflowAborted, fmt.Sprintf("task %q failed after exhausting retries", task.APIID), errString(sig.Err))
			e.fatalOriginAPIID = task.APIID
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
