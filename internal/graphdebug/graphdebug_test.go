// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package graphdebug

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/taskgraph"
)

func TestRenderGraphIncludesDependencyAnnotationAndNestedBranch(t *testing.T) {
	inner := taskgraph.NewGraph("inner")
	if err := inner.AddTask(&taskgraph.OperationTask{TaskID: "inner-op", Implementation: "noop.inner"}); err != nil {
		t.Fatal(err)
	}

	g := taskgraph.NewGraph("outer")
	if err := g.AddTask(&taskgraph.OperationTask{TaskID: "a", Implementation: "noop.a"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTask(&taskgraph.StubTask{TaskID: "b"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Dependency("b", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTask(&taskgraph.WorkflowTask{TaskID: "nested", Graph: inner}); err != nil {
		t.Fatal(err)
	}

	out, err := RenderGraph(g)
	if err != nil {
		t.Fatalf("RenderGraph: %v", err)
	}

	if !strings.Contains(out, "outer") {
		t.Errorf("output missing root graph id:\n%s", out)
	}
	if !strings.Contains(out, "a [noop.a]") {
		t.Errorf("output missing operation task label:\n%s", out)
	}
	if !strings.Contains(out, "b (stub) (after a)") {
		t.Errorf("output missing stub task's dependency annotation:\n%s", out)
	}
	if !strings.Contains(out, "nested") || !strings.Contains(out, "inner-op [noop.inner]") {
		t.Errorf("output missing the nested sub-workflow's branch:\n%s", out)
	}
}

func TestRenderExecutionAnnotatesStatusAndDependencies(t *testing.T) {
	execID := uuid.New()
	first := model.NewTask(execID, "first", model.StubNone)
	first.Status = model.TaskSucceeded
	second := model.NewTask(execID, "second", model.StubNone)
	second.Status = model.TaskPending
	second.Dependencies = []uuid.UUID{first.ID}

	out := RenderExecution(execID.String(), []*model.Task{first, second})

	if !strings.Contains(out, execID.String()) {
		t.Errorf("output missing execution id:\n%s", out)
	}
	if !strings.Contains(out, "first [succeeded] none") {
		t.Errorf("output missing first task's status/stub annotation:\n%s", out)
	}
	if !strings.Contains(out, "second [pending] none (after "+first.ID.String()+")") {
		t.Errorf("output missing second task's dependency annotation:\n%s", out)
	}
}
