// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package signalbus implements the engine's task-lifecycle event bus:
// an explicit, engine-owned bus passed to executors at construction.
// Backends publish; the engine is the sole subscriber.
package signalbus

import "github.com/google/uuid"

// Kind identifies which lifecycle event a Signal carries.
type Kind int

const (
	TaskStarted Kind = iota
	TaskSucceeded
	TaskFailed
	WorkflowStarted
	WorkflowSucceeded
	WorkflowFailed
)

// Signal is one lifecycle event. Err is set only for TaskFailed and
// WorkflowFailed.
type Signal struct {
	Kind   Kind
	TaskID uuid.UUID
	Err    error
}

// Bus is a bounded, buffered channel of Signals. A generous buffer
// keeps Publish non-blocking for the overwhelmingly common case of the
// engine keeping up with its poll loop; Publish still blocks rather
// than drop a signal if the buffer is genuinely full, since a dropped
// terminal signal would break the exactly-one-terminal-signal-per-
// attempt guarantee every backend is expected to uphold. The engine
// drains the bus between dispatches (not just once per tick) so a
// synchronous backend publishing multiple signals per dispatch can't
// fill the buffer while the engine itself is the only consumer.
type Bus struct {
	ch chan Signal
}

// New constructs a Bus with the given buffer size.
func New(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{ch: make(chan Signal, buffer)}
}

// Publish enqueues a signal, blocking if the buffer is full.
func (b *Bus) Publish(s Signal) { b.ch <- s }

// Receive returns the channel the engine drains signals from.
func (b *Bus) Receive() <-chan Signal { return b.ch }

func TaskStartedSignal(id uuid.UUID) Signal   { return Signal{Kind: TaskStarted, TaskID: id} }
func TaskSucceededSignal(id uuid.UUID) Signal { return Signal{Kind: TaskSucceeded, TaskID: id} }
func TaskFailedSignal(id uuid.UUID, err error) Signal {
	return Signal{Kind: TaskFailed, TaskID: id, Err: err}
}
