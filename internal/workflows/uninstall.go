// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"fmt"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

// Uninstall implements the uninstall workflow: for each node, the
// reverse lifecycle stop -> unlink(relationships) -> delete. Dependency
// edges are reversed relative to Install — a node that other nodes
// depend on (targets of an outbound relationship) is uninstalled only
// after every node that depends on it has already been uninstalled.
func Uninstall(c *Context, g *taskgraph.Graph) error {
	nodes := c.Service.Nodes()
	c.workflowLog("uninstall").Debug("building uninstall graph", "service", c.Service.Name, "nodes", len(nodes))
	nodeWorkflowID := make(map[string]string, len(nodes))

	for _, n := range nodes {
		sub, err := uninstallNodeLifecycle(n)
		if err != nil {
			return err
		}
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("uninstall-%s", n.ID), Graph: sub}
		if err := g.AddTask(wt); err != nil {
			return err
		}
		nodeWorkflowID[n.ID.String()] = wt.ID()
	}

	// Install adds A -> B (A waits for B) whenever A has an outbound
	// relationship to B; uninstall reverses that to B -> A (B, the
	// target, waits for A, the dependent, to be torn down first).
	for _, n := range nodes {
		for _, rel := range n.Relationships {
			depID, ok := nodeWorkflowID[rel.TargetID.String()]
			if !ok {
				continue
			}
			if err := g.AddDependency(depID, nodeWorkflowID[n.ID.String()]); err != nil {
				return err
			}
		}
	}
	return nil
}

func uninstallNodeLifecycle(n *model.Node) (*taskgraph.Graph, error) {
	g := taskgraph.NewGraph(fmt.Sprintf("uninstall-node-%s", n.ID))

	addStandardOp := func(opName string) (string, error) {
		iface, ok := n.Interfaces[standardInterfaceName]
		var t taskgraph.Task
		if ok {
			if ot, found := operationTaskFor(n.ID, model.ActorNode, iface, opName); found {
				t = ot
			}
		}
		if t == nil {
			t = stubTaskFor(fmt.Sprintf("uninstall-%s-%s", n.ID, opName))
		}
		if err := g.AddTask(t); err != nil {
			return "", err
		}
		return t.ID(), nil
	}

	addRelationshipBatch := func(step string) (string, error) {
		batch, leaves := relationshipsTasks(
			fmt.Sprintf("uninstall-%s-%s-rel", n.ID, step),
			n.Relationships,
			standardInterfaceName,
			step,
			func(r *model.Relationship) (*model.Interface, *model.Interface) {
				return r.SourceInterfaces[standardInterfaceName], r.TargetInterfaces[standardInterfaceName]
			},
		)
		if len(leaves) == 0 {
			return "", nil
		}
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("uninstall-%s-%s-wf", n.ID, step), Graph: batch}
		if err := g.AddTask(wt); err != nil {
			return "", err
		}
		return wt.ID(), nil
	}

	stopID, err := addStandardOp("stop")
	if err != nil {
		return nil, err
	}
	unlinkID, err := addRelationshipBatch("unlink")
	if err != nil {
		return nil, err
	}
	deleteID, err := addStandardOp("delete")
	if err != nil {
		return nil, err
	}

	sequence := []string{stopID}
	if unlinkID != "" {
		sequence = append(sequence, unlinkID)
	}
	sequence = append(sequence, deleteID)
	if err := g.Sequence(sequence...); err != nil {
		return nil, err
	}
	return g, nil
}
