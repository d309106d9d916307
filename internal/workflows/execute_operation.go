// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/zclconf/go-cty/cty"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/model/functions"
	"github.com/ariaorch/core/internal/taskgraph"
)

// ExecuteOperationParams bundles execute_operation(operation, kwargs,
// allow_override, in_dep_order, type_filter, node_ids,
// node_instance_ids) arguments.
type ExecuteOperationParams struct {
	// Operation is "InterfaceName.operation_name".
	Operation string
	Kwargs    map[string]string
	// AllowOverride permits Kwargs to replace an input already declared
	// on the matched operation; otherwise a name collision is an error.
	AllowOverride bool
	// InDepOrder, when true, adds a dependency from every node's task
	// (or stub) to each of its relationship targets' task (or stub),
	// mirroring the relationship graph so a caller can rely on the same
	// ordering install/uninstall use.
	InDepOrder bool
	// TypeFilter, NodeIDs and NodeInstanceIDs are ANDed together; an
	// empty slice means "no constraint" for that dimension.
	TypeFilter      []string
	NodeIDs         []string // matched against Node.TemplateName()
	NodeInstanceIDs []string // matched against Node.ID.String()
}

// ExecuteOperation implements the execute_operation workflow: filter
// node instances by ids and type (every non-empty filter must match,
// see ExecuteOperationParams), add an OperationTask for
// each match, and — for non-matching instances, only when InDepOrder is
// set — a StubTask standing in for it so relationship-order dependencies
// stay expressible without doing any work on unselected instances.
//
// This core has no TOSCA type-derivation graph (template parsing is out
// of scope), so TypeFilter matches a node's single TypeName directly
// rather than an inherited type hierarchy.
func ExecuteOperation(c *Context, g *taskgraph.Graph, p ExecuteOperationParams) error {
	ifaceName, opName, err := splitOperation(p.Operation)
	if err != nil {
		return err
	}
	c.workflowLog("execute_operation").Debug("building execute_operation graph", "service", c.Service.Name, "operation", p.Operation)

	allNodes := c.Service.Nodes()
	matched := make(map[string]bool, len(allNodes))
	taskID := make(map[string]string, len(allNodes))

	for _, n := range allNodes {
		if !matchesFilter(n, p) {
			continue
		}
		matched[n.ID.String()] = true

		iface, ok := n.Interfaces[ifaceName]
		if !ok {
			return fmt.Errorf("execute_operation: node %s has no interface %q%s", n.ID, ifaceName, suggestSuffix(ifaceName, interfaceNames(n)))
		}
		ot, found := operationTaskFor(n.ID, model.ActorNode, iface, opName)
		if !found {
			return fmt.Errorf("execute_operation: node %s interface %q has no operation %q%s", n.ID, ifaceName, opName, suggestSuffix(opName, iface.OperationNames()))
		}
		ot.TaskID = fmt.Sprintf("execute-operation-%s", n.ID)
		if err := mergeKwargs(ot, p.Kwargs, p.AllowOverride); err != nil {
			return err
		}
		if err := g.AddTask(ot); err != nil {
			return err
		}
		taskID[n.ID.String()] = ot.ID()
	}

	if p.InDepOrder {
		for _, n := range allNodes {
			if _, ok := taskID[n.ID.String()]; !ok {
				stub := stubTaskFor(fmt.Sprintf("execute-operation-stub-%s", n.ID))
				if err := g.AddTask(stub); err != nil {
					return err
				}
				taskID[n.ID.String()] = stub.ID()
			}
		}
		for _, n := range allNodes {
			for _, rel := range n.Relationships {
				depID, ok := taskID[rel.TargetID.String()]
				if !ok {
					continue
				}
				if err := g.AddDependency(taskID[n.ID.String()], depID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func splitOperation(operation string) (iface, op string, err error) {
	idx := strings.LastIndex(operation, ".")
	if idx < 0 {
		return "", "", fmt.Errorf("execute_operation: operation %q must be \"Interface.operation\"", operation)
	}
	return operation[:idx], operation[idx+1:], nil
}

func matchesFilter(n *model.Node, p ExecuteOperationParams) bool {
	if len(p.NodeIDs) > 0 && !containsStr(p.NodeIDs, n.TemplateName()) {
		return false
	}
	if len(p.NodeInstanceIDs) > 0 && !containsStr(p.NodeInstanceIDs, n.ID.String()) {
		return false
	}
	if len(p.TypeFilter) > 0 && !containsStr(p.TypeFilter, n.TypeName) {
		return false
	}
	return true
}

func interfaceNames(n *model.Node) []string {
	names := make([]string, 0, len(n.Interfaces))
	for name := range n.Interfaces {
		names = append(names, name)
	}
	return names
}

// suggestSuffix returns " - did you mean X?" when candidates contains a
// name close enough to got to plausibly be a typo, or "" otherwise.
func suggestSuffix(got string, candidates []string) string {
	const threshold = 0.4
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := levenshtein.Similarity(got, c, nil)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if bestScore < threshold {
		return ""
	}
	return fmt.Sprintf(" - did you mean %q?", best)
}

func containsStr(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func mergeKwargs(ot *taskgraph.OperationTask, kwargs map[string]string, allowOverride bool) error {
	if len(kwargs) == 0 {
		return nil
	}
	if ot.Inputs == nil {
		ot.Inputs = make(map[string]functions.Parameter, len(kwargs))
	}
	for k, v := range kwargs {
		if _, exists := ot.Inputs[k]; exists && !allowOverride {
			return fmt.Errorf("execute_operation: kwarg %q collides with a declared input and allow_override is false", k)
		}
		ot.Inputs[k] = functions.LiteralParameter(cty.StringVal(v))
	}
	return nil
}
