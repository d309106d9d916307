// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus mirrors the lowercase string forms every backend and
// caller agree on for cross-process consistency; String returns exactly
// that persisted form.
type ExecutionStatus int

const (
	ExecutionPending ExecutionStatus = iota
	ExecutionStarted
	ExecutionInProgress
	ExecutionSucceeded
	ExecutionFailed
	ExecutionCancelling
	ExecutionCancelled
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionPending:
		return "pending"
	case ExecutionStarted:
		return "started"
	case ExecutionInProgress:
		return "in-progress"
	case ExecutionSucceeded:
		return "succeeded"
	case ExecutionFailed:
		return "failed"
	case ExecutionCancelling:
		return "cancelling"
	case ExecutionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether this status ends the execution's lifecycle.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionSucceeded, ExecutionFailed, ExecutionCancelled:
		return true
	default:
		return false
	}
}

// Execution is one row per workflow invocation.
type Execution struct {
	ID           uuid.UUID
	ServiceID    uuid.UUID
	WorkflowName string
	Status       ExecutionStatus
	Inputs       map[string]string

	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time

	// Error carries the single user-visible failure summary: message plus
	// the originating task's api id. Nil unless Status == ExecutionFailed.
	Error *ExecutionError
}

// ExecutionError is the user-visible failure summary: one error message
// tied to the task that first exhausted retries or aborted the
// workflow.
type ExecutionError struct {
	Message       string
	OriginTaskID  string
}

func (e *ExecutionError) Error() string { return e.Message }

func NewExecution(serviceID uuid.UUID, workflowName string, inputs map[string]string) *Execution {
	return &Execution{
		ID:           uuid.New(),
		ServiceID:    serviceID,
		WorkflowName: workflowName,
		Status:       ExecutionPending,
		Inputs:       inputs,
		CreatedAt:    time.Now(),
	}
}
