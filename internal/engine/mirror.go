// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package engine

import "github.com/google/uuid"

// mirror is the engine's in-memory DiGraph of the execution-graph
// Tasks, keyed by id. It tracks each task's unresolved dependency count
// (its out-degree in the dependent->dependency convention) so the set
// of ready tasks is an O(ready) scan rather than a graph traversal
// every tick.
type mirror struct {
	pending    map[uuid.UUID]bool // present while the node hasn't reached an end state and is still tracked
	outDegree  map[uuid.UUID]int
	dependents map[uuid.UUID][]uuid.UUID // dependency -> dependents waiting on it
}

func newMirror() *mirror {
	return &mirror{
		pending:    make(map[uuid.UUID]bool),
		outDegree:  make(map[uuid.UUID]int),
		dependents: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mirror) addNode(id uuid.UUID, deps []uuid.UUID) {
	m.pending[id] = true
	m.outDegree[id] = len(deps)
	for _, d := range deps {
		m.dependents[d] = append(m.dependents[d], id)
	}
}

// remove drops id from the graph, decrementing every dependent's
// out-degree — a dependent reaching zero becomes executable next tick.
func (m *mirror) remove(id uuid.UUID) {
	delete(m.pending, id)
	for _, dep := range m.dependents[id] {
		m.outDegree[dep]--
	}
	delete(m.dependents, id)
}

func (m *mirror) empty() bool { return len(m.pending) == 0 }

func (m *mirror) ready() []uuid.UUID {
	var out []uuid.UUID
	for id := range m.pending {
		if m.outDegree[id] == 0 {
			out = append(out, id)
		}
	}
	return out
}
