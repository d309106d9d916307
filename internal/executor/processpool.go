// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/semaphore"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/opctx"
	"github.com/ariaorch/core/internal/signalbus"
)

// ProcessPool runs each task's operation in a separate worker process,
// reached via WorkerCommand. The operation context is JSON-encoded as
// an Envelope and written to the child's stdin; the child is expected
// to write a single line of JSON back: {"ok": true} on success, or
// {"ok": false, "exception": <msgpack bytes, base64>} on failure. A
// line that fails to decode, or an exception payload that fails to
// msgpack-decode, is reported as ErrDeserializeFailed's synthetic
// RuntimeError.
//
// WorkerCommand returning a *exec.Cmd per invocation (rather than a
// long-lived child) keeps a one-process-per-task discipline.
type ProcessPool struct {
	bus           *signalbus.Bus
	sem           *semaphore.Weighted
	wg            sync.WaitGroup
	workerCommand func(ctx context.Context) *exec.Cmd

	mu     sync.Mutex
	closed bool

	log hclog.Logger
}

func NewProcessPool(bus *signalbus.Bus, size int, workerCommand func(ctx context.Context) *exec.Cmd, log hclog.Logger) *ProcessPool {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &ProcessPool{bus: bus, sem: semaphore.NewWeighted(int64(size)), workerCommand: workerCommand, log: log}
}

type workerResult struct {
	OK        bool   `json:"ok"`
	Exception []byte `json:"exception,omitempty"`
}

func (e *ProcessPool) Execute(ctx context.Context, task *model.Task, opCtx *opctx.OperationContext, _ map[string]any) error {
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

	envelope, err := opctx.Encode(opCtx)
	if err != nil {
		e.sem.Release(1)
		e.wg.Done()
		return err
	}

	go func() {
		defer e.wg.Done()
		defer e.sem.Release(1)
		publishStarted(e.bus, task)
		publishResult(e.bus, task, e.runChild(ctx, envelope))
	}()
	return nil
}

func (e *ProcessPool) runChild(ctx context.Context, envelope *opctx.Envelope) error {
	cmd := e.workerCommand(ctx)
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshaling operation context: %w", err)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("opening worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("opening worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting worker process: %w", err)
	}

	if _, err := stdin.Write(append(payload, '\n')); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("writing operation context: %w", err)
	}
	_ = stdin.Close()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var result workerResult
	decoded := false
	if scanner.Scan() {
		if jsonErr := json.Unmarshal(scanner.Bytes(), &result); jsonErr == nil {
			decoded = true
		}
	}

	waitErr := cmd.Wait()
	if !decoded {
		e.log.Error("worker process produced an undecodable result line")
		return opctx.ErrDeserializeFailed
	}
	if result.OK {
		return nil
	}
	exc, excErr := opctx.DecodeException(result.Exception)
	if excErr != nil {
		return excErr
	}
	if waitErr != nil && exc.Message == "" {
		return fmt.Errorf("%s: %w", exc.TypeName, waitErr)
	}
	return fmt.Errorf("%s: %s", exc.TypeName, exc.Message)
}

// Close blocks until every dispatched child has exited and published.
func (e *ProcessPool) Close() error {
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
