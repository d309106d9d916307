// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package sql

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/ariaorch/core/internal/model"
	"github.com/ariaorch/core/internal/model/functions"
)

// These tests exercise only the encode/decode and string-building pure
// functions in this package: the Get/List/Put/Delete methods all defer
// to a live *sqlx.DB and are left to integration testing against a real
// PostgreSQL instance.

func TestQueryClauseAppendsPositionalPredicate(t *testing.T) {
	got := queryClause("status", 2)
	want := " AND status = $2"
	if got != want {
		t.Errorf("queryClause = %q, want %q", got, want)
	}
}

type fakeFunction struct{}

func (fakeFunction) Evaluate(functions.Holder) (functions.Evaluation, error) {
	return functions.Evaluation{}, nil
}

func TestParamDTORoundTripsLiteralAndOmitsDeferred(t *testing.T) {
	params := map[string]functions.Parameter{
		"literal":  functions.LiteralParameter(cty.StringVal("hello")),
		"deferred": functions.FunctionParameter(fakeFunction{}),
	}
	dtos := paramDTOsFrom(params)
	if dtos["literal"].Literal == nil || dtos["literal"].Literal.Value != cty.StringVal("hello") {
		t.Errorf("literal param did not round-trip: %+v", dtos["literal"])
	}
	if dtos["deferred"].Literal != nil {
		t.Errorf("deferred param should encode with no literal, got %+v", dtos["deferred"])
	}

	back := parametersFrom(dtos)
	if back["literal"].IsFunction() || back["literal"].Literal != cty.StringVal("hello") {
		t.Errorf("literal param did not decode back: %+v", back["literal"])
	}
	if back["deferred"].IsFunction() {
		t.Errorf("deferred param should decode as an empty literal parameter, not a function: %+v", back["deferred"])
	}
}

func TestServiceEncodeDecodeRoundTrip(t *testing.T) {
	svc := model.NewService("fixture")
	svc.SetInput("replicas", cty.NumberIntVal(3))

	var store *serviceStorage
	row, err := store.encode(svc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if row.ID != svc.ID || row.Name != svc.Name {
		t.Errorf("row = %+v, want id %v name %q", row, svc.ID, svc.Name)
	}

	got, err := store.decode(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != svc.ID || got.Name != svc.Name {
		t.Errorf("decoded = %+v, want id %v name %q", got, svc.ID, svc.Name)
	}
	if !got.Inputs["replicas"].Literal.RawEquals(cty.NumberIntVal(3)) {
		t.Errorf("decoded replicas input = %v, want 3", got.Inputs["replicas"].Literal)
	}
}

func TestNodeEncodeDecodeRoundTrip(t *testing.T) {
	n := model.NewNode("app_tpl", "Application")
	hostID := uuid.New()
	n.SetHost(hostID)
	n.State = "started"
	n.SetAttribute("ip", cty.StringVal("10.0.0.1"))
	n.Artifacts["script"] = "entry-1"

	var store *nodeStorage
	serviceID := uuid.New()
	row, err := store.encode(serviceID, n)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if row.ServiceID != serviceID || row.TemplateName != "app_tpl" || row.TypeName != "Application" {
		t.Errorf("row = %+v", row)
	}

	got, err := store.decode(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TemplateName() != "app_tpl" || got.TypeName != "Application" {
		t.Errorf("decoded = %+v", got)
	}
	if got.State != "started" {
		t.Errorf("decoded State = %q, want started", got.State)
	}
	gotHost, ok := got.ImmediateHostID()
	if !ok || gotHost != hostID {
		t.Errorf("decoded host = %v, %v; want %v, true", gotHost, ok, hostID)
	}
	ip, ok := got.RuntimeAttribute("ip")
	if !ok || ip.Literal != cty.StringVal("10.0.0.1") {
		t.Errorf("decoded ip attribute = %+v, %v; want 10.0.0.1, true", ip, ok)
	}
	if got.Artifacts["script"] != "entry-1" {
		t.Errorf("decoded artifacts = %+v, want script -> entry-1", got.Artifacts)
	}
}

func TestRelationshipEncodeDecodeRoundTrip(t *testing.T) {
	rel := model.NewRelationship("Uses", uuid.New(), uuid.New())
	rel.SourcePosition = 2
	rel.TargetPosition = 1
	rel.SetAttribute("port", cty.NumberIntVal(5432))

	var store *relationshipStorage
	serviceID := uuid.New()
	row, err := store.encode(serviceID, rel)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if row.SourceID != rel.SourceID || row.TargetID != rel.TargetID {
		t.Errorf("row = %+v", row)
	}

	got, err := store.decode(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TypeName != "Uses" || got.SourcePosition != 2 || got.TargetPosition != 1 {
		t.Errorf("decoded = %+v", got)
	}
	port, ok := got.RuntimeAttribute("port")
	if !ok || !port.Literal.RawEquals(cty.NumberIntVal(5432)) {
		t.Errorf("decoded port attribute = %+v, %v; want 5432, true", port, ok)
	}
}

func TestExecutionEncodeDecodeRoundTrip(t *testing.T) {
	exec := model.NewExecution(uuid.New(), "install", map[string]string{"env": "prod"})
	exec.Status = model.ExecutionFailed
	started := time.Unix(1000, 0).UTC()
	exec.StartedAt = &started
	exec.Error = &model.ExecutionError{OriginTaskID: "t1", Message: "boom"}

	var store *executionStorage
	row, err := store.encode(exec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if row.Status != int(model.ExecutionFailed) {
		t.Errorf("row.Status = %d, want %d", row.Status, model.ExecutionFailed)
	}

	got, err := store.decode(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.WorkflowName != "install" || got.Status != model.ExecutionFailed {
		t.Errorf("decoded = %+v", got)
	}
	if got.Inputs["env"] != "prod" {
		t.Errorf("decoded inputs = %+v, want env -> prod", got.Inputs)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(started) {
		t.Errorf("decoded StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Error == nil || got.Error.OriginTaskID != "t1" || got.Error.Message != "boom" {
		t.Errorf("decoded Error = %+v", got.Error)
	}
}

func TestTaskEncodeDecodeRoundTrip(t *testing.T) {
	execID := uuid.New()
	task := model.NewTask(execID, "a", model.StubNone)
	task.OperationMapping = "noop.create"
	task.Inputs = map[string]functions.Parameter{"count": functions.LiteralParameter(cty.NumberIntVal(2))}
	task.MaxAttempts = 3
	task.RetryInterval = 5 * time.Second
	dep := uuid.New()
	task.Dependencies = []uuid.UUID{dep}

	var store *taskStorage
	row, err := store.encode(task)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if row.APIID != "a" || row.ExecutionID != execID {
		t.Errorf("row = %+v", row)
	}

	got, err := store.decode(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.OperationMapping != "noop.create" || got.MaxAttempts != 3 || got.RetryInterval != 5*time.Second {
		t.Errorf("decoded = %+v", got)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0] != dep {
		t.Errorf("decoded Dependencies = %v, want [%v]", got.Dependencies, dep)
	}
	if !got.Inputs["count"].Literal.RawEquals(cty.NumberIntVal(2)) {
		t.Errorf("decoded count input = %v, want 2", got.Inputs["count"].Literal)
	}
}
