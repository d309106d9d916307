// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package graphdebug renders a taskgraph.Graph or a compiled execution's
// persisted tasks as an indented tree, for operators inspecting what a
// workflow constructor produced before (or instead of) running it.
package graphdebug

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

// RenderGraph renders g in topological order, recursing into any nested
// WorkflowTask as a branch.
func RenderGraph(g *taskgraph.Graph) (string, error) {
	root := treeprint.New()
	root.SetValue(g.ID())
	if err := populate(root, g); err != nil {
		return "", err
	}
	return root.String(), nil
}

func populate(tree treeprint.Tree, g *taskgraph.Graph) error {
	order, err := g.TopologicalOrder(false)
	if err != nil {
		return err
	}
	for _, id := range order {
		t, ok := g.Task(id)
		if !ok {
			continue
		}
		if err := populateTask(tree, g, t); err != nil {
			return err
		}
	}
	return nil
}

func populateTask(tree treeprint.Tree, g *taskgraph.Graph, t taskgraph.Task) error {
	label := taskLabel(t)
	if deps := g.Dependencies(t.ID()); len(deps) > 0 {
		label = fmt.Sprintf("%s (after %s)", label, strings.Join(deps, ", "))
	}
	wt, ok := t.(*taskgraph.WorkflowTask)
	if !ok {
		tree.AddNode(label)
		return nil
	}
	branch := tree.AddBranch(label)
	return populate(branch, wt.Graph)
}

func taskLabel(t taskgraph.Task) string {
	switch tt := t.(type) {
	case *taskgraph.OperationTask:
		return fmt.Sprintf("%s [%s]", t.ID(), tt.Implementation)
	case *taskgraph.StubTask:
		return fmt.Sprintf("%s (stub)", t.ID())
	default:
		return t.ID()
	}
}

// RenderExecution renders a compiled execution's persisted tasks as a
// flat tree, one node per task, annotated with its Dependencies (the
// ids it waits on — see model.Task's doc comment on the dependency-edge
// direction convention).
func RenderExecution(executionID string, tasks []*model.Task) string {
	root := treeprint.New()
	root.SetValue(fmt.Sprintf("execution %s", executionID))
	for _, t := range tasks {
		label := fmt.Sprintf("%s [%s] %s", t.APIID, t.Status, t.StubType)
		if len(t.Dependencies) > 0 {
			ids := make([]string, len(t.Dependencies))
			for i, d := range t.Dependencies {
				ids[i] = d.String()
			}
			label = fmt.Sprintf("%s (after %s)", label, strings.Join(ids, ", "))
		}
		root.AddNode(label)
	}
	return root.String()
}
