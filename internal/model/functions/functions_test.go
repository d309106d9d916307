// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package functions

import (
	"errors"
	"testing"

	"github.com/zclconf/go-cty/cty"
)

// fakeEntity is a minimal Entity good enough to drive resolveEntity and
// the Property/Attribute-path functions without depending on the model
// package (which itself depends on this one).
type fakeEntity struct {
	kind       EntityKind
	name       string
	properties map[string]Parameter
	attributes map[string]Parameter
	host       *fakeEntity
	source     *fakeEntity
	target     *fakeEntity
}

func (f *fakeEntity) EntityKind() EntityKind { return f.kind }
func (f *fakeEntity) TemplateName() string   { return f.name }

func (f *fakeEntity) Property(path ...string) (Parameter, bool) {
	p, ok := f.properties[path[0]]
	return p, ok
}

func (f *fakeEntity) Attribute(path ...string) (Parameter, bool) {
	p, ok := f.attributes[path[0]]
	return p, ok
}

func (f *fakeEntity) Host() (Entity, bool) {
	if f.host == nil {
		return nil, false
	}
	return f.host, true
}

func (f *fakeEntity) Source() (Entity, bool) {
	if f.source == nil {
		return nil, false
	}
	return f.source, true
}

func (f *fakeEntity) Target() (Entity, bool) {
	if f.target == nil {
		return nil, false
	}
	return f.target, true
}

type fakeService struct {
	inputs    map[string]Parameter
	templates map[string]Entity
}

func (s *fakeService) Input(name string) (Parameter, bool) {
	p, ok := s.inputs[name]
	return p, ok
}

func (s *fakeService) EntityByTemplateName(name string) (Entity, bool) {
	e, ok := s.templates[name]
	return e, ok
}

func TestGetInputReturnsNonFinal(t *testing.T) {
	svc := &fakeService{inputs: map[string]Parameter{"region": LiteralParameter(cty.StringVal("us-east"))}}
	h := Holder{Service: svc}

	eval, err := (&GetInput{Name: "region"}).Evaluate(h)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Value.AsString() != "us-east" {
		t.Errorf("value = %v, want %q", eval.Value, "us-east")
	}
	if eval.Final {
		t.Error("get_input must never report Final, its value may be overridden at runtime")
	}
}

func TestGetInputUnknownName(t *testing.T) {
	svc := &fakeService{inputs: map[string]Parameter{}}
	if _, err := (&GetInput{Name: "missing"}).Evaluate(Holder{Service: svc}); err == nil {
		t.Fatal("expected an error for an unknown input name")
	}
}

func TestGetPropertyResolvesSelfAndPath(t *testing.T) {
	self := &fakeEntity{
		kind:       NodeEntity,
		name:       "compute",
		properties: map[string]Parameter{"size": LiteralParameter(cty.NumberIntVal(4))},
	}
	h := Holder{Container: self, Service: &fakeService{}}

	eval, err := (&GetProperty{EntityToken: TokenSelf, Path: []string{"size"}}).Evaluate(h)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got, _ := eval.Value.AsBigFloat().Int64()
	if got != 4 {
		t.Errorf("value = %v, want 4", eval.Value)
	}
}

func TestGetPropertyMissingPathErrors(t *testing.T) {
	self := &fakeEntity{kind: NodeEntity, name: "compute", properties: map[string]Parameter{}}
	h := Holder{Container: self, Service: &fakeService{}}
	if _, err := (&GetProperty{EntityToken: TokenSelf, Path: []string{"missing"}}).Evaluate(h); err == nil {
		t.Fatal("expected an error for a property that doesn't exist")
	}
}

func TestGetAttributeMissingIsCannotEvaluate(t *testing.T) {
	self := &fakeEntity{kind: NodeEntity, name: "compute", attributes: map[string]Parameter{}}
	h := Holder{Container: self, Service: &fakeService{}}

	_, err := (&GetAttribute{EntityToken: TokenSelf, Path: []string{"ip_address"}}).Evaluate(h)
	var cannotEval *CannotEvaluateError
	if !errors.As(err, &cannotEval) {
		t.Fatalf("err = %v, want a *CannotEvaluateError", err)
	}
}

func TestGetAttributeAlwaysNonFinal(t *testing.T) {
	self := &fakeEntity{
		kind:       NodeEntity,
		name:       "compute",
		attributes: map[string]Parameter{"ip_address": LiteralParameter(cty.StringVal("10.0.0.1"))},
	}
	h := Holder{Container: self, Service: &fakeService{}}

	eval, err := (&GetAttribute{EntityToken: TokenSelf, Path: []string{"ip_address"}}).Evaluate(h)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Final {
		t.Error("get_attribute must never report Final")
	}
}

func TestResolveEntityHostWalksHostReference(t *testing.T) {
	host := &fakeEntity{kind: NodeEntity, name: "compute", properties: map[string]Parameter{"size": LiteralParameter(cty.NumberIntVal(8))}}
	self := &fakeEntity{kind: NodeEntity, name: "app", host: host}
	h := Holder{Container: self, Service: &fakeService{}}

	eval, err := (&GetProperty{EntityToken: TokenHost, Path: []string{"size"}}).Evaluate(h)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got, _ := eval.Value.AsBigFloat().Int64()
	if got != 8 {
		t.Errorf("value = %v, want 8 (from the host's property)", eval.Value)
	}
}

func TestResolveEntityHostRejectsRelationshipContainer(t *testing.T) {
	self := &fakeEntity{kind: RelationshipEntity, name: "uses"}
	h := Holder{Container: self, Service: &fakeService{}}
	if _, err := (&GetProperty{EntityToken: TokenHost, Path: []string{"x"}}).Evaluate(h); err == nil {
		t.Fatal("expected HOST to be rejected on a relationship container")
	}
}

func TestResolveEntitySourceAndTarget(t *testing.T) {
	src := &fakeEntity{kind: NodeEntity, name: "app", properties: map[string]Parameter{"x": LiteralParameter(cty.StringVal("source-val"))}}
	tgt := &fakeEntity{kind: NodeEntity, name: "db", properties: map[string]Parameter{"x": LiteralParameter(cty.StringVal("target-val"))}}
	rel := &fakeEntity{kind: RelationshipEntity, name: "uses", source: src, target: tgt}
	h := Holder{Container: rel, Service: &fakeService{}}

	srcEval, err := (&GetProperty{EntityToken: TokenSource, Path: []string{"x"}}).Evaluate(h)
	if err != nil {
		t.Fatalf("SOURCE Evaluate: %v", err)
	}
	if srcEval.Value.AsString() != "source-val" {
		t.Errorf("SOURCE value = %v, want %q", srcEval.Value, "source-val")
	}

	tgtEval, err := (&GetProperty{EntityToken: TokenTarget, Path: []string{"x"}}).Evaluate(h)
	if err != nil {
		t.Fatalf("TARGET Evaluate: %v", err)
	}
	if tgtEval.Value.AsString() != "target-val" {
		t.Errorf("TARGET value = %v, want %q", tgtEval.Value, "target-val")
	}
}

func TestResolveEntityTemplateNameLookup(t *testing.T) {
	other := &fakeEntity{kind: NodeEntity, name: "db", properties: map[string]Parameter{"x": LiteralParameter(cty.StringVal("v"))}}
	svc := &fakeService{templates: map[string]Entity{"db_tpl": other}}
	h := Holder{Container: &fakeEntity{kind: NodeEntity, name: "app"}, Service: svc}

	eval, err := (&GetProperty{EntityToken: "db_tpl", Path: []string{"x"}}).Evaluate(h)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Value.AsString() != "v" {
		t.Errorf("value = %v, want %q", eval.Value, "v")
	}
}

func TestConcatJoinsAndPropagatesNonFinal(t *testing.T) {
	svc := &fakeService{inputs: map[string]Parameter{"suffix": LiteralParameter(cty.StringVal("bar"))}}
	h := Holder{Service: svc}

	c := &Concat{Args: []Parameter{
		LiteralParameter(cty.StringVal("foo-")),
		FunctionParameter(&GetInput{Name: "suffix"}),
	}}
	eval, err := c.Evaluate(h)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Value.AsString() != "foo-bar" {
		t.Errorf("value = %q, want %q", eval.Value.AsString(), "foo-bar")
	}
	if eval.Final {
		t.Error("concat of a non-final argument (get_input) must itself be non-final")
	}
}

func TestConcatRejectsNullArgument(t *testing.T) {
	c := &Concat{Args: []Parameter{LiteralParameter(cty.NullVal(cty.String))}}
	if _, err := c.Evaluate(Holder{Service: &fakeService{}}); err == nil {
		t.Fatal("expected concat to reject a null argument")
	}
}

func TestTokenSplitsAndIndexes(t *testing.T) {
	tok := &Token{
		String:     LiteralParameter(cty.StringVal("a,b;c")),
		Separators: LiteralParameter(cty.StringVal(",;")),
		Index:      LiteralParameter(cty.NumberIntVal(2)),
	}
	eval, err := tok.Evaluate(Holder{Service: &fakeService{}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Value.AsString() != "c" {
		t.Errorf("value = %q, want %q", eval.Value.AsString(), "c")
	}
	if !eval.Final {
		t.Error("token over purely literal arguments should be Final")
	}
}

func TestTokenIndexOutOfRangeIsCannotEvaluate(t *testing.T) {
	tok := &Token{
		String:     LiteralParameter(cty.StringVal("a,b")),
		Separators: LiteralParameter(cty.StringVal(",")),
		Index:      LiteralParameter(cty.NumberIntVal(5)),
	}
	_, err := tok.Evaluate(Holder{Service: &fakeService{}})
	var cannotEval *CannotEvaluateError
	if !errors.As(err, &cannotEval) {
		t.Fatalf("err = %v, want a *CannotEvaluateError", err)
	}
}

func TestPlaceholdersAlwaysCannotEvaluate(t *testing.T) {
	self := &fakeEntity{kind: NodeEntity, name: "app"}
	h := Holder{Container: self, Service: &fakeService{}}

	cases := []Function{
		&GetOperationOutput{EntityToken: TokenSelf, InterfaceName: "Standard", OperationName: "create", OutputName: "id"},
		&GetArtifact{EntityToken: TokenSelf, ArtifactName: "script"},
		&GetNodesOfType{TypeName: "Compute"},
	}
	for _, fn := range cases {
		_, err := fn.Evaluate(h)
		var cannotEval *CannotEvaluateError
		if !errors.As(err, &cannotEval) {
			t.Errorf("%T: err = %v, want a *CannotEvaluateError", fn, err)
		}
	}
}

func TestParameterEvaluateFollowsNestedFunctionToFixedPoint(t *testing.T) {
	svc := &fakeService{inputs: map[string]Parameter{"name": LiteralParameter(cty.StringVal("final-value"))}}
	self := &fakeEntity{
		kind: NodeEntity,
		name: "app",
		properties: map[string]Parameter{
			"alias": FunctionParameter(&GetInput{Name: "name"}),
		},
	}
	h := Holder{Container: self, Service: svc}

	p := FunctionParameter(&GetProperty{EntityToken: TokenSelf, Path: []string{"alias"}})
	eval, err := p.Evaluate(h)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Value.AsString() != "final-value" {
		t.Errorf("value = %v, want %q", eval.Value, "final-value")
	}
	if eval.Final {
		t.Error("chain resolving through get_input must remain non-final")
	}
}
