// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"strings"
	"testing"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

// twoNodeService builds a minimal compute<-hosted pair with a single
// "uses" relationship from hosted to compute, each with a Standard
// interface exposing create/configure/start so install/uninstall walk a
// real (not all-stub) lifecycle.
func twoNodeService(t *testing.T) (*model.Service, *model.Node, *model.Node) {
	t.Helper()
	svc := model.NewService("fixture")

	compute := model.NewNode("compute_tpl", "Compute")
	compute.Interfaces[standardInterfaceName] = standardInterface()
	svc.AttachNode(compute)
	compute.SetHost(compute.ID)

	hosted := model.NewNode("app_tpl", "Application")
	hosted.Interfaces[standardInterfaceName] = standardInterface()
	svc.AttachNode(hosted)
	hosted.SetHost(compute.ID)

	rel := model.NewRelationship("Uses", hosted.ID, compute.ID)
	rel.SourcePosition = 0
	svc.AttachRelationship(rel)

	return svc, compute, hosted
}

func standardInterface() *model.Interface {
	iface := model.NewInterface(standardInterfaceName)
	for _, op := range []string{"create", "configure", "start", "stop", "delete"} {
		iface.Operations[op] = &model.Operation{Name: op, Implementation: "noop." + op}
	}
	return iface
}

func TestInstallOrdersHostedAfterCompute(t *testing.T) {
	svc, compute, hosted := twoNodeService(t)
	g := taskgraph.NewGraph("install")
	c := &Context{Service: svc}

	if err := Install(c, g); err != nil {
		t.Fatalf("Install: %v", err)
	}

	hostedTaskID := "install-" + hosted.ID.String()
	computeTaskID := "install-" + compute.ID.String()
	if _, ok := g.Task(hostedTaskID); !ok {
		t.Fatalf("expected task %q in install graph", hostedTaskID)
	}
	if _, ok := g.Task(computeTaskID); !ok {
		t.Fatalf("expected task %q in install graph", computeTaskID)
	}
	deps := g.Dependencies(hostedTaskID)
	if len(deps) != 1 || deps[0] != computeTaskID {
		t.Errorf("hosted node should depend on compute node's install sub-workflow, got deps=%v", deps)
	}
}

func TestUninstallReversesInstallOrder(t *testing.T) {
	svc, compute, hosted := twoNodeService(t)
	g := taskgraph.NewGraph("uninstall")
	c := &Context{Service: svc}

	if err := Uninstall(c, g); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}

	hostedTaskID := "uninstall-" + hosted.ID.String()
	computeTaskID := "uninstall-" + compute.ID.String()
	deps := g.Dependencies(computeTaskID)
	if len(deps) != 1 || deps[0] != hostedTaskID {
		t.Errorf("compute node should depend on hosted node's uninstall sub-workflow first, got deps=%v", deps)
	}
}

func TestExecuteOperationFiltersByNodeInstanceID(t *testing.T) {
	svc, compute, hosted := twoNodeService(t)
	g := taskgraph.NewGraph("exec")
	c := &Context{Service: svc}

	err := ExecuteOperation(c, g, ExecuteOperationParams{
		Operation:       "Standard.start",
		NodeInstanceIDs: []string{hosted.ID.String()},
	})
	if err != nil {
		t.Fatalf("ExecuteOperation: %v", err)
	}

	hostedTaskID := "execute-operation-" + hosted.ID.String()
	computeTaskID := "execute-operation-" + compute.ID.String()
	if _, ok := g.Task(hostedTaskID); !ok {
		t.Errorf("expected a task for the filtered-in hosted node")
	}
	if _, ok := g.Task(computeTaskID); ok {
		t.Errorf("compute node should have been excluded by the NodeInstanceIDs filter")
	}
}

func TestExecuteOperationUnknownInterfaceSuggestsClosestMatch(t *testing.T) {
	svc, _, _ := twoNodeService(t)
	g := taskgraph.NewGraph("exec")
	c := &Context{Service: svc}

	err := ExecuteOperation(c, g, ExecuteOperationParams{Operation: "Stadnard.start"})
	if err == nil {
		t.Fatal("expected an error for an unknown interface name")
	}
	if got := err.Error(); !strings.Contains(got, `did you mean "Standard"`) {
		t.Errorf("error = %q, want it to suggest the close interface name %q", got, standardInterfaceName)
	}
}

func TestScaleInstallBuildsInstallSubgraphForAddedInstance(t *testing.T) {
	svc, _, _ := twoNodeService(t)
	extra := model.NewNode("app_tpl", "Application")
	extra.Interfaces[standardInterfaceName] = standardInterface()
	svc.AttachNode(extra)

	g := taskgraph.NewGraph("scale")
	c := &Context{Service: svc}

	mod, err := Scale(c, g, ScaleParams{EntityName: "app_tpl", Delta: 1, Added: []*model.Node{extra}})
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if mod.Status != ModificationStarted {
		t.Errorf("mod.Status = %v, want ModificationStarted", mod.Status)
	}
	if len(mod.Added) != 1 || mod.Added[0] != extra.ID {
		t.Errorf("mod.Added = %v, want [%v]", mod.Added, extra.ID)
	}
	wrapper, ok := g.Task("scale-install")
	if !ok {
		t.Fatal("expected a scale-install workflow task")
	}
	if _, ok := wrapper.(*taskgraph.WorkflowTask).Graph.Task("scale-install-" + extra.ID.String()); !ok {
		t.Error("expected a scale-install task for the added instance")
	}
}

func TestScaleRejectsAddAndRemoveTogether(t *testing.T) {
	svc, compute, hosted := twoNodeService(t)
	g := taskgraph.NewGraph("scale")
	c := &Context{Service: svc}

	_, err := Scale(c, g, ScaleParams{Added: []*model.Node{compute}, Removed: []*model.Node{hosted}})
	if err == nil {
		t.Fatal("expected Scale to reject simultaneous Added and Removed")
	}
}
