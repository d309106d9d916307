// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ariaorch/core/internal/diagnostics"
)

// startSuffix and endSuffix name the reserved marker ids the compiler
// injects; a user task using either is rejected at AddTask time.
const (
	startSuffix = "-Start"
	endSuffix   = "-End"
)

// Graph is the API-level DAG a workflow function populates: tasks plus
// dependency edges, with an id namespace reserved for the compiler's
// start/end markers.
//
// Dependency direction convention (see DESIGN.md): an edge recorded as
// dependent -> dependency means "dependent waits for dependency to
// succeed first". This matches the engine's out-degree convention (a
// node is ready when its out-degree, i.e. its count of unresolved
// dependencies, is zero) and every built-in workflow in this core is
// written against it.
type Graph struct {
	id string

	mu          sync.Mutex
	tasks       map[string]Task
	order       []string            // insertion order, the topological sort's primary key
	position    map[string]int      // id -> index into order, the sort key TopologicalOrder uses
	dependsOn   map[string]map[string]bool // dependent -> set of dependency ids
}

// NewGraph constructs an empty graph identified by id; id seeds the
// "{id}-Start"/"{id}-End" marker names the compiler will generate.
func NewGraph(id string) *Graph {
	return &Graph{
		id:        id,
		tasks:     make(map[string]Task),
		position:  make(map[string]int),
		dependsOn: make(map[string]map[string]bool),
	}
}

func (g *Graph) ID() string { return g.id }

func isReservedMarkerID(id string) bool {
	return len(id) >= len(startSuffix) && id[len(id)-len(startSuffix):] == startSuffix ||
		len(id) >= len(endSuffix) && id[len(id)-len(endSuffix):] == endSuffix
}

// AddTask registers t, idempotent on t.ID(): adding a task whose id is
// already registered is a no-op (the first task is kept), but IDs ending in the reserved
// "-Start"/"-End" suffixes are rejected outright since the compiler
// owns that namespace.
func (g *Graph) AddTask(t Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addTaskLocked(t)
}

func (g *Graph) addTaskLocked(t Task) error {
	id := t.ID()
	if isReservedMarkerID(id) {
		return diagnostics.New(diagnostics.KindInvalidGraph, fmt.Sprintf("task id %q uses the reserved marker suffix -Start/-End", id), "")
	}
	if _, ok := g.tasks[id]; ok {
		return nil
	}
	g.tasks[id] = t
	g.position[id] = len(g.order)
	g.order = append(g.order, id)
	g.dependsOn[id] = make(map[string]bool)
	return nil
}

// AddDependency records that dependent waits for dependency, rejecting
// the edge with InvalidGraph if it would create a cycle.
func (g *Graph) AddDependency(dependent, dependency string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addDependencyLocked(dependent, dependency)
}

func (g *Graph) addDependencyLocked(dependent, dependency string) error {
	if _, ok := g.tasks[dependent]; !ok {
		return diagnostics.New(diagnostics.KindInvalidGraph, fmt.Sprintf("unknown dependent task %q", dependent), "")
	}
	if _, ok := g.tasks[dependency]; !ok {
		return diagnostics.New(diagnostics.KindInvalidGraph, fmt.Sprintf("unknown dependency task %q", dependency), "")
	}
	if dependent == dependency {
		return diagnostics.New(diagnostics.KindInvalidGraph, fmt.Sprintf("task %q cannot depend on itself", dependent), "")
	}
	if g.dependsOn[dependent][dependency] {
		return nil
	}
	if g.reaches(dependency, dependent) {
		return diagnostics.New(diagnostics.KindInvalidGraph, fmt.Sprintf("adding dependency %q -> %q would create a cycle", dependent, dependency), "")
	}
	g.dependsOn[dependent][dependency] = true
	return nil
}

// reaches reports whether a DFS from start can reach target following
// dependency edges (dependent -> dependency).
func (g *Graph) reaches(start, target string) bool {
	if start == target {
		return true
	}
	visited := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for dep := range g.dependsOn[n] {
			if dep == target {
				return true
			}
			if !visited[dep] {
				visited[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	return false
}

// Sequence adds dependency edges t1<-t2<-...: each t_{i+1} depends on
// t_i, i.e. edges t_i -> t_{i+1} in the "dependent -> dependency"
// convention are added in reverse — t_{i+1} is the dependent.
func (g *Graph) Sequence(ids ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i+1 < len(ids); i++ {
		if err := g.addDependencyLocked(ids[i+1], ids[i]); err != nil {
			return err
		}
	}
	return nil
}

// FanOut adds an edge from -> t_i for every t_i (every t_i depends on
// from).
func (g *Graph) FanOut(from string, ids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		if err := g.addDependencyLocked(id, from); err != nil {
			return err
		}
	}
	return nil
}

// Dependency adds a -> source for each a in after (source depends on
// every task in after).
func (g *Graph) Dependency(source string, after []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range after {
		if err := g.addDependencyLocked(source, a); err != nil {
			return err
		}
	}
	return nil
}

// Task looks up a registered task by id.
func (g *Graph) Task(id string) (Task, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tasks[id]
	return t, ok
}

// Dependencies returns the (unordered) set of ids dependent directly
// waits on.
func (g *Graph) Dependencies(dependent string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.dependsOn[dependent]))
	for id := range g.dependsOn[dependent] {
		out = append(out, id)
	}
	return out
}

// TopologicalOrder returns every task id in a deterministic topological
// order: primary key is insertion order, secondary is the id itself, so
// two graphs built identically (same tasks added in the same order,
// same edges) always produce the same sequence. reverse walks
// dependencies-first-to-last when false, and last-to-first (a valid
// topological order of the transposed graph) when true.
func (g *Graph) TopologicalOrder(reverse bool) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Kahn's algorithm over the transpose (dependency -> dependents),
	// since dependsOn stores dependent -> dependency.
	dependents := make(map[string]map[string]bool, len(g.tasks))
	inDegree := make(map[string]int, len(g.tasks))
	for id := range g.tasks {
		dependents[id] = make(map[string]bool)
	}
	for dependent, deps := range g.dependsOn {
		inDegree[dependent] = len(deps)
		for dep := range deps {
			dependents[dep][dependent] = true
		}
	}

	ready := make([]string, 0, len(g.tasks))
	for id := range g.tasks {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sortByInsertionThenID(ready, g.position)

	var out []string
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)
		var newlyReady []string
		for successor := range dependents[n] {
			inDegree[successor]--
			if inDegree[successor] == 0 {
				newlyReady = append(newlyReady, successor)
			}
		}
		sortByInsertionThenID(newlyReady, g.position)
		ready = mergeByInsertionThenID(ready, newlyReady, g.position)
	}

	if len(out) != len(g.tasks) {
		return nil, diagnostics.New(diagnostics.KindInvalidGraph, "dependency graph contains a cycle", "")
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func sortByInsertionThenID(ids []string, position map[string]int) {
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := position[ids[i]], position[ids[j]]
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
}

// mergeByInsertionThenID merges two already-sorted-by-(insertion,id)
// slices, keeping the combined ready-queue deterministic at every step
// of the Kahn's-algorithm walk regardless of map iteration order
// anywhere in this function.
func mergeByInsertionThenID(a, b []string, position map[string]int) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	less := func(x, y string) bool {
		pi, pj := position[x], position[y]
		if pi != pj {
			return pi < pj
		}
		return x < y
	}
	for i < len(a) && j < len(b) {
		if less(a[i], b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
