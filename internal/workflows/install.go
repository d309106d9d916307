// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"fmt"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

const standardInterfaceName = "Standard"

// Install implements the install workflow: for each node, a lifecycle
// sub-workflow create -> preconfigure(relationships) -> configure ->
// postconfigure(relationships) -> start -> establish(relationships). A
// dependency runs from node A's sub-workflow to node B's whenever A has
// an outbound relationship to B (A must be fully installed after B).
func Install(c *Context, g *taskgraph.Graph) error {
	nodes := c.Service.Nodes()
	c.workflowLog("install").Debug("building install graph", "service", c.Service.Name, "nodes", len(nodes))
	nodeWorkflowID := make(map[string]string, len(nodes))

	for _, n := range nodes {
		sub, err := installNodeLifecycle(n)
		if err != nil {
			return err
		}
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("install-%s", n.ID), Graph: sub}
		if err := g.AddTask(wt); err != nil {
			return err
		}
		nodeWorkflowID[n.ID.String()] = wt.ID()
	}

	for _, n := range nodes {
		for _, rel := range n.Relationships {
			depID, ok := nodeWorkflowID[rel.TargetID.String()]
			if !ok {
				continue
			}
			if err := g.AddDependency(nodeWorkflowID[n.ID.String()], depID); err != nil {
				return err
			}
		}
	}
	return nil
}

// installNodeLifecycle builds one node's create -> preconfigure ->
// configure -> postconfigure -> start -> establish sequence. The
// relationship-bearing steps (preconfigure/postconfigure/establish) fan
// in the node's outbound relationshipsTasks batch for that step.
func installNodeLifecycle(n *model.Node) (*taskgraph.Graph, error) {
	g := taskgraph.NewGraph(fmt.Sprintf("install-node-%s", n.ID))

	lifecycleOps := []string{"create"}
	stepIDs := map[string]string{}

	addStandardOp := func(opName string) (string, error) {
		iface, ok := n.Interfaces[standardInterfaceName]
		var t taskgraph.Task
		if ok {
			if ot, found := operationTaskFor(n.ID, model.ActorNode, iface, opName); found {
				t = ot
			}
		}
		if t == nil {
			t = stubTaskFor(fmt.Sprintf("install-%s-%s", n.ID, opName))
		}
		if err := g.AddTask(t); err != nil {
			return "", err
		}
		return t.ID(), nil
	}

	addRelationshipBatch := func(step string) (string, error) {
		batch, leaves := relationshipsTasks(
			fmt.Sprintf("install-%s-%s-rel", n.ID, step),
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
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("install-%s-%s-wf", n.ID, step), Graph: batch}
		if err := g.AddTask(wt); err != nil {
			return "", err
		}
		return wt.ID(), nil
	}

	for _, op := range lifecycleOps {
		id, err := addStandardOp(op)
		if err != nil {
			return nil, err
		}
		stepIDs[op] = id
	}

	preID, err := addRelationshipBatch("preconfigure")
	if err != nil {
		return nil, err
	}
	configureID, err := addStandardOp("configure")
	if err != nil {
		return nil, err
	}
	postID, err := addRelationshipBatch("postconfigure")
	if err != nil {
		return nil, err
	}
	startID, err := addStandardOp("start")
	if err != nil {
		return nil, err
	}
	establishID, err := addRelationshipBatch("establish")
	if err != nil {
		return nil, err
	}

	sequence := []string{stepIDs["create"]}
	if preID != "" {
		sequence = append(sequence, preID)
	}
	sequence = append(sequence, configureID)
	if postID != "" {
		sequence = append(sequence, postID)
	}
	sequence = append(sequence, startID)
	if establishID != "" {
		sequence = append(sequence, establishID)
	}
	if err := g.Sequence(sequence...); err != nil {
		return nil, err
	}
	return g, nil
}
