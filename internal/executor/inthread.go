// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"fmt"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/opctx"
	"github.com/ariaorch/core/internal/signalbus"
)

// InThread runs every operation synchronously inside Execute: the
// simplest reference backend, used for tests and single-task
// workflows. Emits start -> (success|failure) before Execute returns.
type InThread struct {
	bus      *signalbus.Bus
	registry *Registry
	closed   bool
}

func NewInThread(bus *signalbus.Bus, registry *Registry) *InThread {
	return &InThread{bus: bus, registry: registry}
}

func (e *InThread) Execute(ctx context.Context, task *model.Task, opCtx *opctx.OperationContext, inputs map[string]any) error {
	if e.closed {
		return fmt.Errorf("executor closed")
	}
	publishStarted(e.bus, task)
	op, ok := e.registry.Resolve(task.OperationMapping)
	if !ok {
		err := fmt.Errorf("no registered operation implementation for %q", task.OperationMapping)
		publishResult(e.bus, task, err)
		return nil
	}
	err := runTraced(ctx, task, op, opCtx, inputs)
	publishResult(e.bus, task, err)
	return nil
}

// Close is a no-op beyond marking the executor closed: InThread has no
// in-flight work by the time Execute returns.
func (e *InThread) Close() error {
	e.closed = true
	return nil
}
