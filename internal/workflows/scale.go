// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/diagnostics"
	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

// ModificationStatus tracks a DeploymentModification's lifecycle
// alongside a scale operation.
type ModificationStatus int

const (
	ModificationStarted ModificationStatus = iota
	ModificationFinished
	ModificationRolledBack
)

// DeploymentModification records one scale operation's bookkeeping: the
// instances it added or removed, and the peers it related or unlinked
// them against.
type DeploymentModification struct {
	ID        uuid.UUID
	ServiceID uuid.UUID
	Status    ModificationStatus
	Added     []uuid.UUID
	Removed   []uuid.UUID
	Related   []uuid.UUID
}

// ScaleParams bundles scale(entity_name, delta, scale_compute)
// arguments together with the caller-resolved set of instances to add
// or remove — this core's scope stops at an already-instantiated model,
// so synthesizing brand-new node instances from a template is the
// integrator's job; Scale consumes whatever instances it's handed and
// is responsible only for the install/uninstall sequencing and
// modification bookkeeping.
type ScaleParams struct {
	EntityName   string
	Delta        int
	ScaleCompute bool
	Added        []*model.Node
	Removed      []*model.Node
}

// Scale implements the scale workflow. It partitions the
// caller-supplied added/removed instances against their related peers,
// runs a scale-install or scale-uninstall sub-workflow accordingly, and
// returns the DeploymentModification record for the caller to persist.
//
// True runtime rollback-on-failure isn't expressible as a pure graph
// constructor the way install/uninstall are — it requires branching on
// an outcome the graph can't observe until execution — so this treats
// the engine's existing fatal-failure propagation (a failed execution
// aborts the workflow) as the rollback trigger: Status is left at
// ModificationStarted if the caller observes the execution fail, and
// the caller finishes or rolls back the modification record itself once
// the execution's terminal status is known (documented as a scope
// decision in DESIGN.md).
func Scale(c *Context, g *taskgraph.Graph, p ScaleParams) (*DeploymentModification, error) {
	c.workflowLog("scale").Info("building scale graph", "service", c.Service.Name, "entity", p.EntityName, "delta", p.Delta)
	if len(p.Added) > 0 && len(p.Removed) > 0 {
		return nil, diagnostics.New(diagnostics.KindInvalidGraph, "scale cannot add and remove instances in the same modification", "")
	}
	if p.Delta > 0 && len(p.Added) == 0 {
		return nil, diagnostics.New(diagnostics.KindInvalidGraph, "scale delta > 0 requires caller-supplied added instances", "")
	}
	if p.Delta < 0 && len(p.Removed) == 0 {
		return nil, diagnostics.New(diagnostics.KindInvalidGraph, "scale delta < 0 requires caller-supplied removed instances", "")
	}

	mod := &DeploymentModification{ID: uuid.New(), ServiceID: c.Service.ID, Status: ModificationStarted}

	if p.Delta > 0 {
		related := targetedPeers(p.Added)
		sub, err := scaleInstallGraph(p.Added)
		if err != nil {
			return nil, err
		}
		wt := &taskgraph.WorkflowTask{TaskID: "scale-install", Graph: sub}
		if err := g.AddTask(wt); err != nil {
			return nil, err
		}
		for _, n := range p.Added {
			mod.Added = append(mod.Added, n.ID)
		}
		for _, n := range related {
			mod.Related = append(mod.Related, n.ID)
		}
		return mod, nil
	}

	if p.Delta < 0 {
		related := targetedPeers(p.Removed)
		sub, err := scaleUninstallGraph(p.Removed)
		if err != nil {
			return nil, err
		}
		wt := &taskgraph.WorkflowTask{TaskID: "scale-uninstall", Graph: sub}
		if err := g.AddTask(wt); err != nil {
			return nil, err
		}
		for _, n := range p.Removed {
			mod.Removed = append(mod.Removed, n.ID)
		}
		for _, n := range related {
			mod.Related = append(mod.Related, n.ID)
		}
		return mod, nil
	}

	// delta == 0: nothing to do, but the modification is still opened
	// and immediately finishable by the caller.
	return mod, nil
}

// scaleInstallGraph installs each added node via its ordinary lifecycle;
// the related peers are already reachable through each added node's own
// relationshipsTasks establish batch, so they need no separate pass here.
func scaleInstallGraph(added []*model.Node) (*taskgraph.Graph, error) {
	g := taskgraph.NewGraph("scale-install-body")
	for _, n := range added {
		sub, err := installNodeLifecycle(n)
		if err != nil {
			return nil, err
		}
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("scale-install-%s", n.ID), Graph: sub}
		if err := g.AddTask(wt); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func scaleUninstallGraph(removed []*model.Node) (*taskgraph.Graph, error) {
	g := taskgraph.NewGraph("scale-uninstall-body")
	for _, n := range removed {
		sub, err := uninstallNodeLifecycle(n)
		if err != nil {
			return nil, err
		}
		wt := &taskgraph.WorkflowTask{TaskID: fmt.Sprintf("scale-uninstall-%s", n.ID), Graph: sub}
		if err := g.AddTask(wt); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// FinishModification and RollbackModification are best-effort,
// caller-invoked (not engine-scheduled) bookkeeping steps: failures are
// expected to be logged and re-raised by the caller, since this core
// has no logging sink of its own to log into at this layer (components
// higher up the stack hold the hclog.Logger instance).
func FinishModification(mod *DeploymentModification) {
	mod.Status = ModificationFinished
}

func RollbackModification(mod *DeploymentModification) {
	mod.Status = ModificationRolledBack
}
