// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/opctx"
	"github.com/ariaorch/core/internal/signalbus"
)

// readyTimeout bounds how long New waits for the remote worker fleet to
// announce itself on the ready queue before giving up.
const readyTimeout = 30 * time.Second

// Remote schedules tasks on an external broker, using Redis pub/sub as
// the broker transport: a dispatch list plus a result pub/sub channel
// play the role an AMQP exchange would (see DESIGN.md).
type Remote struct {
	client       *redis.Client
	bus          *signalbus.Bus
	dispatchList string
	resultChan   string

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]bool
	closed  bool

	log hclog.Logger
}

// remoteDispatch is pushed to dispatchList for a worker to pop.
type remoteDispatch struct {
	TaskID   string         `json:"task_id"`
	Envelope *opctx.Envelope `json:"envelope"`
}

// remoteResult is published on resultChan by a worker.
type remoteResult struct {
	TaskID string `json:"task_id"`
	Event  string `json:"event"` // "started" | "succeeded" | "failed"
	Error  string `json:"error,omitempty"`
}

// NewRemote connects to client, waits on readyQueue for at least one
// worker to announce readiness (failing with an error after
// readyTimeout), and starts the background receiver that maps
// resultChan messages onto bus.
func NewRemote(ctx context.Context, client *redis.Client, bus *signalbus.Bus, dispatchList, resultChan, readyQueue string, log hclog.Logger) (*Remote, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	waitCtx, waitCancel := context.WithTimeout(ctx, readyTimeout)
	defer waitCancel()
	if err := client.BRPop(waitCtx, readyTimeout, readyQueue).Err(); err != nil {
		return nil, fmt.Errorf("waiting for remote worker readiness: %w", err)
	}
	log.Info("remote worker fleet ready", "ready_queue", readyQueue)

	runCtx, cancel := context.WithCancel(context.Background())
	r := &Remote{
		client:       client,
		bus:          bus,
		dispatchList: dispatchList,
		resultChan:   resultChan,
		cancel:       cancel,
		pending:      make(map[string]bool),
		log:          log,
	}
	r.wg.Add(1)
	go r.receive(runCtx)
	return r, nil
}

func (e *Remote) receive(ctx context.Context) {
	defer e.wg.Done()
	sub := e.client.Subscribe(ctx, e.resultChan)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var res remoteResult
			if err := json.Unmarshal([]byte(msg.Payload), &res); err != nil {
				e.log.Warn("dropping malformed remote result", "error", err)
				continue
			}
			e.deliver(res)
		}
	}
}

func (e *Remote) deliver(res remoteResult) {
	taskID, err := uuid.Parse(res.TaskID)
	if err != nil {
		return
	}
	switch res.Event {
	case "started":
		e.bus.Publish(signalbus.TaskStartedSignal(taskID))
	case "succeeded":
		e.mu.Lock()
		delete(e.pending, res.TaskID)
		e.mu.Unlock()
		e.bus.Publish(signalbus.TaskSucceededSignal(taskID))
	case "failed":
		e.mu.Lock()
		delete(e.pending, res.TaskID)
		e.mu.Unlock()
		e.bus.Publish(signalbus.TaskFailedSignal(taskID, fmt.Errorf("%s", res.Error)))
	}
}

func (e *Remote) Execute(ctx context.Context, task *model.Task, opCtx *opctx.OperationContext, _ map[string]any) error {
	envelope, err := opctx.Encode(opCtx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("executor closed")
	}
	e.pending[task.ID.String()] = true
	e.mu.Unlock()

	payload, err := json.Marshal(remoteDispatch{TaskID: task.ID.String(), Envelope: envelope})
	if err != nil {
		return fmt.Errorf("marshaling dispatch: %w", err)
	}
	e.log.Debug("dispatching task to remote broker", "task", task.APIID, "list", e.dispatchList)
	return e.client.LPush(ctx, e.dispatchList, payload).Err()
}

// Close stops the receiver once every dispatched task's terminal result
// has arrived. It takes no context and has no timeout: it keeps waiting
// for as long as any dispatched task is still pending.
func (e *Remote) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	for {
		e.mu.Lock()
		n := len(e.pending)
		e.mu.Unlock()
		if n == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	e.cancel()
	e.wg.Wait()
	return nil
}
