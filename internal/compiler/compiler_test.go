// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	"testing"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/storage/memory"
	"github.com/ariaorch/core/internal/taskgraph"
)

func TestCompileLinearGraphWiresStartAndEnd(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	execution := model.NewExecution(model.NewService("svc").ID, "install", nil)

	g := taskgraph.NewGraph("wf")
	a := &taskgraph.OperationTask{TaskID: "a", Implementation: "noop.a"}
	b := &taskgraph.OperationTask{TaskID: "b", Implementation: "noop.b"}
	if err := g.AddTask(a); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTask(b); err != nil {
		t.Fatal(err)
	}
	if err := g.Dependency("b", []string{"a"}); err != nil {
		t.Fatal(err)
	}

	endID, err := Compile(ctx, storage.Tasks(), execution, g, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	rows, err := storage.Tasks().List(ctx, model.EntityFilter{"execution_id": execution.ID})
	if err != nil {
		t.Fatal(err)
	}
	byAPIID := make(map[string]*model.Task, len(rows))
	for _, r := range rows {
		byAPIID[r.APIID] = r
	}

	start, ok := byAPIID["wf-Start"]
	if !ok {
		t.Fatal("expected a wf-Start marker task")
	}
	taskA, ok := byAPIID["a"]
	if !ok {
		t.Fatal("expected task a to be persisted")
	}
	taskB, ok := byAPIID["b"]
	if !ok {
		t.Fatal("expected task b to be persisted")
	}
	end, ok := byAPIID["wf-End"]
	if !ok {
		t.Fatal("expected a wf-End marker task")
	}
	if end.ID != endID {
		t.Errorf("Compile returned %v, want the persisted wf-End task id %v", endID, end.ID)
	}

	if len(taskA.Dependencies) != 1 || taskA.Dependencies[0] != start.ID {
		t.Errorf("a.Dependencies = %v, want [start]", taskA.Dependencies)
	}
	if len(taskB.Dependencies) != 1 || taskB.Dependencies[0] != taskA.ID {
		t.Errorf("b.Dependencies = %v, want [a]", taskB.Dependencies)
	}
	// b depends on a, so only b (the sink) should feed the end marker —
	// a must not appear twice over.
	if len(end.Dependencies) != 1 || end.Dependencies[0] != taskB.ID {
		t.Errorf("end.Dependencies = %v, want exactly [b]", end.Dependencies)
	}
	if end.StubType != model.StubEndWorkflow {
		t.Errorf("end.StubType = %v, want StubEndWorkflow", end.StubType)
	}
	if start.StubType != model.StubStartWorkflow {
		t.Errorf("start.StubType = %v, want StubStartWorkflow", start.StubType)
	}
}

func TestCompileNestedWorkflowTaskScopesSinksPerLevel(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	execution := model.NewExecution(model.NewService("svc").ID, "install", nil)

	inner := taskgraph.NewGraph("inner")
	innerTask := &taskgraph.OperationTask{TaskID: "inner-op", Implementation: "noop.inner"}
	if err := inner.AddTask(innerTask); err != nil {
		t.Fatal(err)
	}

	outer := taskgraph.NewGraph("outer")
	sibling := &taskgraph.OperationTask{TaskID: "sibling", Implementation: "noop.sibling"}
	if err := outer.AddTask(sibling); err != nil {
		t.Fatal(err)
	}
	wf := &taskgraph.WorkflowTask{TaskID: "nested", Graph: inner}
	if err := outer.AddTask(wf); err != nil {
		t.Fatal(err)
	}

	if _, err := Compile(ctx, storage.Tasks(), execution, outer, nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	rows, err := storage.Tasks().List(ctx, model.EntityFilter{"execution_id": execution.ID})
	if err != nil {
		t.Fatal(err)
	}
	byAPIID := make(map[string]*model.Task, len(rows))
	for _, r := range rows {
		byAPIID[r.APIID] = r
	}

	outerEnd, ok := byAPIID["outer-End"]
	if !ok {
		t.Fatal("expected an outer-End marker")
	}
	siblingTask, ok := byAPIID["sibling"]
	if !ok {
		t.Fatal("expected the sibling task to be persisted")
	}
	innerEnd, ok := byAPIID["inner-End"]
	if !ok {
		t.Fatal("expected an inner-End marker for the nested sub-workflow")
	}

	// outer-End must depend on both the sibling task and the nested
	// sub-workflow's own end marker — the inner task must never leak
	// into the outer level's sink computation.
	deps := map[string]bool{}
	for _, d := range outerEnd.Dependencies {
		deps[d.String()] = true
	}
	if !deps[siblingTask.ID.String()] {
		t.Errorf("outer-End.Dependencies = %v, want it to include sibling %v", outerEnd.Dependencies, siblingTask.ID)
	}
	if !deps[innerEnd.ID.String()] {
		t.Errorf("outer-End.Dependencies = %v, want it to include the nested sub-workflow's end marker %v", outerEnd.Dependencies, innerEnd.ID)
	}
	if len(outerEnd.Dependencies) != 2 {
		t.Errorf("outer-End.Dependencies = %v, want exactly 2 entries (sibling + nested end)", outerEnd.Dependencies)
	}
	if innerEnd.StubType != model.StubEndSubworkflow {
		t.Errorf("innerEnd.StubType = %v, want StubEndSubworkflow", innerEnd.StubType)
	}
}

func TestCompileEmptyGraphEndDependsOnStart(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	execution := model.NewExecution(model.NewService("svc").ID, "install", nil)

	g := taskgraph.NewGraph("empty")
	if _, err := Compile(ctx, storage.Tasks(), execution, g, nil); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	rows, err := storage.Tasks().List(ctx, model.EntityFilter{"execution_id": execution.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected exactly a start and an end marker, got %d rows", len(rows))
	}
	var start, end *model.Task
	for _, r := range rows {
		switch r.APIID {
		case "empty-Start":
			start = r
		case "empty-End":
			end = r
		}
	}
	if start == nil || end == nil {
		t.Fatal("expected both empty-Start and empty-End markers")
	}
	if len(end.Dependencies) != 1 || end.Dependencies[0] != start.ID {
		t.Errorf("end.Dependencies = %v, want [start] for a graph with no tasks", end.Dependencies)
	}
}
