// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import (
	"time"

	"github.com/ariaorch/core/internal/model/functions"
)

// Operation is a single named operation within an Interface: a dotted
// implementation path resolvable by an executor, its retry policy, and
// its declared inputs.
type Operation struct {
	Name           string
	Implementation string
	// Dependencies are opaque strings meaningful only to the executor
	// that eventually resolves Implementation (e.g. package
	// requirements for a process-pool worker).
	Dependencies  []string
	Executor      string
	MaxRetries    int
	RetryInterval time.Duration
	Inputs        map[string]functions.Parameter
	Plugin        *string
}

// Interface is a named bundle of operations attached to a node or
// relationship.
type Interface struct {
	Name       string
	Operations map[string]*Operation
}

func NewInterface(name string) *Interface {
	return &Interface{Name: name, Operations: make(map[string]*Operation)}
}

func (i *Interface) Operation(name string) (*Operation, bool) {
	op, ok := i.Operations[name]
	return op, ok
}

// OperationNames lists i's declared operations, for "did you mean"
// suggestions when a caller requests an unknown one.
func (i *Interface) OperationNames() []string {
	names := make([]string, 0, len(i.Operations))
	for name := range i.Operations {
		names = append(names, name)
	}
	return names
}
