// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/opctx"
	"github.com/ariaorch/core/internal/signalbus"
)

// ThreadPool is a fixed-size worker pool: Execute enqueues by acquiring
// a slot from a semaphore.Weighted sized to the pool, then runs the
// operation on its own goroutine. Retries are the engine's
// responsibility — a worker never retries on its own.
type ThreadPool struct {
	bus      *signalbus.Bus
	registry *Registry
	sem      *semaphore.Weighted
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewThreadPool constructs a pool of size workers (must be ≥ 1).
func NewThreadPool(bus *signalbus.Bus, registry *Registry, size int) *ThreadPool {
	if size < 1 {
		size = 1
	}
	return &ThreadPool{bus: bus, registry: registry, sem: semaphore.NewWeighted(int64(size))}
}

func (e *ThreadPool) Execute(ctx context.Context, task *model.Task, opCtx *opctx.OperationContext, inputs map[string]any) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("executor closed")
	}
	e.wg.Add(1)
	e.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.wg.Done()
		return err
	}

	go func() {
		defer e.wg.Done()
		defer e.sem.Release(1)

		publishStarted(e.bus, task)
		op, ok := e.registry.Resolve(task.OperationMapping)
		if !ok {
			publishResult(e.bus, task, fmt.Errorf("no registered operation implementation for %q", task.OperationMapping))
			return
		}
		publishResult(e.bus, task, runTraced(ctx, task, op, opCtx, inputs))
	}()
	return nil
}

// Close marks the pool closed to new work and blocks until every
// dispatched task has published its terminal signal.
func (e *ThreadPool) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
	return nil
}
