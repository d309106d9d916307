// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model/functions"
)

// TaskStatus is the persisted lifecycle state of a compiled Task.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRetrying
	TaskSent
	TaskStarted
	TaskSucceeded
	TaskFailed
)

func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRetrying:
		return "retrying"
	case TaskSent:
		return "sent"
	case TaskStarted:
		return "started"
	case TaskSucceeded:
		return "succeeded"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EndState reports whether s is one of the two end states a Task may
// finish an attempt in.
func (s TaskStatus) EndState() bool { return s == TaskSucceeded || s == TaskFailed }

// StubType distinguishes marker tasks injected by the compiler from
// ordinary operation/stub tasks carried over from the API graph.
type StubType int

const (
	StubNone StubType = iota
	StubStartWorkflow
	StubEndWorkflow
	StubStartSubworkflow
	StubEndSubworkflow
	StubPlain
)

func (t StubType) String() string {
	switch t {
	case StubNone:
		return "none"
	case StubStartWorkflow:
		return "start_workflow"
	case StubEndWorkflow:
		return "end_workflow"
	case StubStartSubworkflow:
		return "start_subworkflow"
	case StubEndSubworkflow:
		return "end_subworkflow"
	case StubPlain:
		return "stub"
	default:
		return "unknown"
	}
}

// ActorKind distinguishes the two kinds of model entity a Task's actor
// can reference; the zero value (none) applies to stub and marker tasks.
type ActorKind int

const (
	ActorNone ActorKind = iota
	ActorNode
	ActorRelationship
)

// Task is one row per execution-graph node. Dependencies holds the ids
// of tasks this task waits on (out-edges, following the engine's
// out-degree convention — see DESIGN.md for the dependency-edge
// direction decision).
type Task struct {
	ID    uuid.UUID
	// APIID is the stable user-facing id, carrying the "-Start"/"-End"
	// suffixes for markers.
	APIID       string
	ExecutionID uuid.UUID

	ActorID   *uuid.UUID
	ActorKind ActorKind

	OperationMapping string
	Inputs           map[string]functions.Parameter

	Status TaskStatus

	Attempts      int
	MaxAttempts   int
	RetryInterval time.Duration
	ETA           time.Time

	StubType     StubType
	Dependencies []uuid.UUID
}

// NewTask constructs a pending Task with Attempts=0 and ETA=now.
func NewTask(executionID uuid.UUID, apiID string, stub StubType) *Task {
	return &Task{
		ID:          uuid.New(),
		APIID:       apiID,
		ExecutionID: executionID,
		Status:      TaskPending,
		MaxAttempts: 1,
		ETA:         time.Now(),
		StubType:    stub,
		Inputs:      make(map[string]functions.Parameter),
	}
}

// Ready reports whether t may be dispatched now: pending and its eta has
// passed. Dependency satisfaction is not checked here — Dependencies
// holds the task's static, persisted dependency list and never shrinks;
// the engine's in-memory graph mirror is what tracks which dependencies
// remain outstanding, and only surfaces a task as a dispatch candidate
// once none do.
func (t *Task) Ready(now time.Time) bool {
	return t.Status == TaskPending && !t.ETA.After(now)
}

// RecordFailure applies the retry transition: failed, attempts<max ->
// retrying -> pending with a new eta; otherwise the task stays failed
// (a fatal, non-retryable end state).
func (t *Task) RecordFailure(now time.Time) {
	t.Attempts++
	if t.Attempts < t.MaxAttempts {
		t.Status = TaskPending
		t.ETA = now.Add(t.RetryInterval)
		return
	}
	t.Status = TaskFailed
}
