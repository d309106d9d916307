// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

// relationshipTask builds the two-task sub-graph for a single
// relationship operation: one OperationTask on the relationship's
// source-side interface, one on its target-side interface. Neither
// depends on the other — both
// become the sub-graph's sinks, so the compiler's generated end marker
// (and therefore anything depending on the WorkflowTask wrapping this
// graph) waits on both, matching "both must complete before dependents
// may proceed" without this package needing its own join stub. Returns
// ok=false if neither side declares the named operation (nothing to
// do).
func relationshipTask(rel *model.Relationship, sourceIface, targetIface *model.Interface, ifaceName, opName string) (*taskgraph.Graph, bool) {
	var added []taskgraph.Task
	g := taskgraph.NewGraph(fmt.Sprintf("relationship-%s-%s-%s", rel.ID, ifaceName, opName))

	if sourceIface != nil {
		if t, ok := operationTaskFor(rel.SourceID, model.ActorRelationship, sourceIface, opName); ok {
			t.TaskID = fmt.Sprintf("%s-source", t.TaskID)
			added = append(added, t)
		}
	}
	if targetIface != nil {
		if t, ok := operationTaskFor(rel.TargetID, model.ActorRelationship, targetIface, opName); ok {
			t.TaskID = fmt.Sprintf("%s-target", t.TaskID)
			added = append(added, t)
		}
	}
	if len(added) == 0 {
		return nil, false
	}
	for _, t := range added {
		_ = g.AddTask(t)
	}
	return g, true
}

// relationshipsTasks groups rels by target node id, similar to Python's
// itertools.groupby(relationships, key=target_id), and builds one
// relationshipTask sub-graph per relationship, all fanned out from a
// shared stub anchor so the whole batch can be depended on as a unit.
// Relationships are walked in TargetPosition order within each target
// group for determinism: the same model state must produce the same
// API graph every time.
func relationshipsTasks(anchorID string, rels []*model.Relationship, ifaceName, opName string, interfaces func(*model.Relationship) (source, target *model.Interface)) (*taskgraph.Graph, []string) {
	grouped := make(map[uuid.UUID][]*model.Relationship)
	var targetOrder []uuid.UUID
	for _, r := range rels {
		if _, seen := grouped[r.TargetID]; !seen {
			targetOrder = append(targetOrder, r.TargetID)
		}
		grouped[r.TargetID] = append(grouped[r.TargetID], r)
	}

	g := taskgraph.NewGraph(anchorID)
	anchor := stubTaskFor(anchorID + "-anchor")
	_ = g.AddTask(anchor)

	var leafIDs []string
	for _, target := range targetOrder {
		group := grouped[target]
		sort.Slice(group, func(i, j int) bool { return group[i].TargetPosition < group[j].TargetPosition })
		for _, rel := range group {
			srcIface, tgtIface := interfaces(rel)
			sub, ok := relationshipTask(rel, srcIface, tgtIface, ifaceName, opName)
			if !ok {
				continue
			}
			wt := &taskgraph.WorkflowTask{TaskID: sub.ID() + "-wf", Graph: sub}
			_ = g.AddTask(wt)
			_ = g.AddDependency(wt.ID(), anchor.ID())
			leafIDs = append(leafIDs, wt.ID())
		}
	}
	return g, leafIDs
}
