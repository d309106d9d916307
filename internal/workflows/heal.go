// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

// Heal implements the heal workflow. It identifies the failing
// node's containment subgraph (itself plus every node whose host chain
// transitively reaches it — e.g. the software stack hosted on a failed
// compute node), computes the peer nodes outside that subgraph
// reachable via the subgraph's outbound relationships, and chains
// heal_uninstall then heal_install over the subgraph, emitting
// unlink/establish relationship operations against the targeted peers
// (relationships wholly inside the subgraph are rebuilt by the ordinary
// install/uninstall lifecycle of each member node and don't need a
// second pass here).
func Heal(c *Context, g *taskgraph.Graph, failingNodeID uuid.UUID) error {
	c.workflowLog("heal").Info("building heal graph", "service", c.Service.Name, "failing_node", failingNodeID)
	subgraph, err := containmentSubgraph(c.Service, failingNodeID)
	if err != nil {
		return err
	}
	peers := targetedPeers(subgraph)

	healUninstall, err := healUninstallGraph(subgraph, peers)
	if err != nil {
		return err
	}
	healInstall, err := healInstallGraph(subgraph, peers)
	if err != nil {
		return err
	}

	uninstallTask := &taskgraph.WorkflowTask{TaskID: "heal-uninstall", Graph: healUninstall}
	installTask := &taskgraph.WorkflowTask{TaskID: "heal-install", Graph: healInstall}
	if err := g.AddTask(uninstallTask); err != nil {
		return err
	}
	if err := g.AddTask(installTask); err != nil {
		return err
	}
	return g.Sequence(uninstallTask.ID(), installTask.ID())
}

// containmentSubgraph returns failingNodeID plus every node whose host
// chain transitively reaches it (e.g. the software stack hosted on a
// failed compute node), ordered by a BFS from the failing node.
func containmentSubgraph(svc *model.Service, failingNodeID uuid.UUID) ([]*model.Node, error) {
	failing, ok := svc.NodeByID(failingNodeID)
	if !ok {
		return nil, fmt.Errorf("heal: unknown node %s", failingNodeID)
	}

	hostedBy := make(map[uuid.UUID][]*model.Node) // host id -> nodes immediately hosted on it
	for _, n := range svc.Nodes() {
		hostID, ok := n.ImmediateHostID()
		if !ok || n.IsCompute() {
			continue
		}
		hostedBy[hostID] = append(hostedBy[hostID], n)
	}

	subgraph := []*model.Node{failing}
	inSubgraph := map[uuid.UUID]bool{failing.ID: true}
	queue := []*model.Node{failing}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, hosted := range hostedBy[cur.ID] {
			if inSubgraph[hosted.ID] {
				continue
			}
			inSubgraph[hosted.ID] = true
			subgraph = append(subgraph, hosted)
			queue = append(queue, hosted)
		}
	}
	return subgraph, nil
}

// targetedPeers returns, in first-seen order, every node outside
// subgraph referenced by an outbound relationship from a node inside it.
func targetedPeers(subgraph []*model.Node) []*model.Node {
	inSubgraph := make(map[uuid.UUID]bool, len(subgraph))
	for _, n := range subgraph {
		inSubgraph[n.ID] = true
	}
	var peers []*model.Node
	seen := map[uuid.UUID]bool{}
	for _, n := range subgraph {
		for _, rel := range n.Relationships {
			if inSubgraph[rel.TargetID] || seen[rel.TargetID] {
				continue
			}
			if target, ok := rel.Target(); ok {
				if tn, isNode := target.(*model.Node); isNode {
					peers = append(peers, tn)
					seen[rel.TargetID] = true
				}
			}
		}
	}
	return peers
}

// healUninstallGraph walks subgraph nodes in reverse, stopping each and
// then unlinking it against the targeted peers; a node's delete
// operation is not run. Each node waits for the one visited before it,
// so the reverse walk (relative to healInstallGraph's forward walk)
// tears hosted nodes down before their hosts, the way uninstall undoes
// a dependency chain back-to-front.
func healUninstallGraph(subgraph []*model.Node, peers []*model.Node) (*taskgraph.Graph, error) {
	g := taskgraph.NewGraph("heal-uninstall-body")
	var prevID string
	for i := len(subgraph) - 1; i >= 0; i-- {
		n := subgraph[i]
		sub, err := healNodeUninstall(n, peers)
		if err != nil {
			return nil, err
		}
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("heal-uninstall-%s", n.ID), Graph: sub}
		if err := g.AddTask(wt); err != nil {
			return nil, err
		}
		if prevID != "" {
			if err := g.AddDependency(wt.ID(), prevID); err != nil {
				return nil, err
			}
		}
		prevID = wt.ID()
	}
	return g, nil
}

// healInstallGraph walks subgraph nodes forward, starting each and then
// re-establishing relationships to the targeted peers; a node's create
// and configure operations are not run.
func healInstallGraph(subgraph []*model.Node, peers []*model.Node) (*taskgraph.Graph, error) {
	g := taskgraph.NewGraph("heal-install-body")
	var prevID string
	for _, n := range subgraph {
		sub, err := healNodeInstall(n, peers)
		if err != nil {
			return nil, err
		}
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("heal-install-%s", n.ID), Graph: sub}
		if err := g.AddTask(wt); err != nil {
			return nil, err
		}
		if prevID != "" {
			if err := g.AddDependency(wt.ID(), prevID); err != nil {
				return nil, err
			}
		}
		prevID = wt.ID()
	}
	return g, nil
}

func isPeerRelationship(rel *model.Relationship, peers []*model.Node) bool {
	for _, p := range peers {
		if rel.TargetID == p.ID {
			return true
		}
	}
	return false
}

func peerRelationships(n *model.Node, peers []*model.Node) []*model.Relationship {
	var out []*model.Relationship
	for _, rel := range n.Relationships {
		if isPeerRelationship(rel, peers) {
			out = append(out, rel)
		}
	}
	return out
}

func healNodeUninstall(n *model.Node, peers []*model.Node) (*taskgraph.Graph, error) {
	g := taskgraph.NewGraph(fmt.Sprintf("heal-uninstall-node-%s", n.ID))

	stopTask, _ := operationTaskFor(n.ID, model.ActorNode, n.Interfaces[standardInterfaceName], "stop")
	var stop taskgraph.Task = stubTaskFor(fmt.Sprintf("heal-uninstall-%s-stop", n.ID))
	if stopTask != nil {
		stop = stopTask
	}
	if err := g.AddTask(stop); err != nil {
		return nil, err
	}

	rels := peerRelationships(n, peers)
	batch, leaves := relationshipsTasks(
		fmt.Sprintf("heal-uninstall-%s-unlink", n.ID), rels, standardInterfaceName, "unlink",
		func(r *model.Relationship) (*model.Interface, *model.Interface) {
			return r.SourceInterfaces[standardInterfaceName], r.TargetInterfaces[standardInterfaceName]
		},
	)
	if len(leaves) > 0 {
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("heal-uninstall-%s-unlink-wf", n.ID), Graph: batch}
		if err := g.AddTask(wt); err != nil {
			return nil, err
		}
		if err := g.AddDependency(wt.ID(), stop.ID()); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func healNodeInstall(n *model.Node, peers []*model.Node) (*taskgraph.Graph, error) {
	g := taskgraph.NewGraph(fmt.Sprintf("heal-install-node-%s", n.ID))

	startTask, _ := operationTaskFor(n.ID, model.ActorNode, n.Interfaces[standardInterfaceName], "start")
	var start taskgraph.Task = stubTaskFor(fmt.Sprintf("heal-install-%s-start", n.ID))
	if startTask != nil {
		start = startTask
	}
	if err := g.AddTask(start); err != nil {
		return nil, err
	}

	rels := peerRelationships(n, peers)
	batch, leaves := relationshipsTasks(
		fmt.Sprintf("heal-install-%s-establish", n.ID), rels, standardInterfaceName, "establish",
		func(r *model.Relationship) (*model.Interface, *model.Interface) {
			return r.SourceInterfaces[standardInterfaceName], r.TargetInterfaces[standardInterfaceName]
		},
	)
	if len(leaves) > 0 {
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("heal-install-%s-establish-wf", n.ID), Graph: batch}
		if err := g.AddTask(wt); err != nil {
			return nil, err
		}
		if err := g.AddDependency(wt.ID(), start.ID()); err != nil {
			return nil, err
		}
	}
	return g, nil
}
