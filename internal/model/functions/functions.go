// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package functions implements the intrinsic-function evaluator: lazy
// resolution of deferred values (concat, token, get_input, get_property,
// get_attribute, and the declarative placeholders get_operation_output,
// get_artifact, get_nodes_of_type) against a container entity plus its
// owning service.
//
// Functions are modelled as a tagged variant (one struct per function,
// all implementing the Function interface) rather than as an
// interpreter over raw maps, following the "functions as a sum type"
// design note for this core. Parsing of a raw `{concat: [...]}`-shaped
// map into one of these variants is the model package's job, performed
// once at load time; this package only knows how to evaluate an already-
// parsed Function.
package functions

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// EntityKind distinguishes the two kinds of container a function can be
// evaluated against.
type EntityKind int

const (
	NodeEntity EntityKind = iota
	RelationshipEntity
)

// Entity is the minimal view of a model node or relationship that the
// evaluator needs in order to resolve get_property/get_attribute paths
// and HOST/SOURCE/TARGET entity references. The model package's Node and
// Relationship types implement this interface; this package never
// imports the model package, avoiding an import cycle between "the
// entities" and "the thing that evaluates functions embedded in them".
type Entity interface {
	EntityKind() EntityKind
	TemplateName() string

	Property(path ...string) (Parameter, bool)
	Attribute(path ...string) (Parameter, bool)

	// Host returns the entity that HOST resolves to for a node (walking
	// the host chain until reaching a self-referencing compute node), or
	// ok=false if it has no host yet. A relationship reports its source
	// node's host.
	Host() (Entity, bool)
	// Source and Target are only meaningful for a RelationshipEntity.
	Source() (Entity, bool)
	Target() (Entity, bool)
}

// ServiceAccessor is the minimal view of the owning service that the
// evaluator needs: input lookups and resolving an arbitrary template name
// to its entity.
type ServiceAccessor interface {
	Input(name string) (Parameter, bool)
	EntityByTemplateName(name string) (Entity, bool)
}

// Holder bundles the container entity and its service scope together,
// corresponding to a "container_holder" triple (the service-template is
// reachable from Service directly, since templates and instances are
// not modelled as separate trees here).
type Holder struct {
	Container Entity
	Service   ServiceAccessor
}

// Evaluation is the result of successfully evaluating a Function.
type Evaluation struct {
	// Value is the resolved value. It may itself still contain nested
	// function markers if Final is false and a caller chooses to
	// re-evaluate rather than treat this as terminal.
	Value cty.Value
	// Final indicates the value cannot change for the remainder of the
	// execution and may be memoized by the engine and its callers.
	Final bool
}

// Function is the common interface implemented by every intrinsic
// function variant.
type Function interface {
	// Evaluate resolves the function within the given holder.
	//
	// A *CannotEvaluateError may be returned to indicate the value isn't
	// available yet (e.g. get_operation_output before the operation has
	// run); callers must let this bubble up unmodified rather than
	// treating it like any other error.
	Evaluate(h Holder) (Evaluation, error)
}

// Parameter is a typed, possibly-deferred scalar: either a concrete
// literal cty.Value or an unevaluated Function.
type Parameter struct {
	Literal cty.Value
	Func    Function
}

// IsFunction reports whether this parameter holds a deferred function
// rather than a concrete literal.
func (p Parameter) IsFunction() bool { return p.Func != nil }

// LiteralParameter constructs a concrete-valued Parameter.
func LiteralParameter(v cty.Value) Parameter { return Parameter{Literal: v} }

// FunctionParameter constructs a deferred Parameter.
func FunctionParameter(fn Function) Parameter { return Parameter{Func: fn} }

// Evaluate resolves a Parameter to a final-or-not value. If the
// parameter is a concrete literal it evaluates trivially as final.
// Otherwise it recursively re-evaluates the function's result until a
// fixed point (a non-function value) is reached, per the "nested
// function values are re-evaluated until a fixed point" edge case; a
// non-final result anywhere in the chain does not stop the
// re-evaluation but makes the returned Evaluation non-final.
func (p Parameter) Evaluate(h Holder) (Evaluation, error) {
	if !p.IsFunction() {
		return Evaluation{Value: p.Literal, Final: true}, nil
	}
	return evaluateToFixedPoint(h, p.Func)
}

func evaluateToFixedPoint(h Holder, fn Function) (Evaluation, error) {
	seen := 0
	eval, err := fn.Evaluate(h)
	for {
		if err != nil {
			return Evaluation{}, err
		}
		seen++
		if seen > maxNestedEvaluations {
			return Evaluation{}, fmt.Errorf("intrinsic function evaluation did not converge after %d steps (likely a cyclic reference)", maxNestedEvaluations)
		}
		nested, ok := asNestedFunctionResult(eval.Value)
		if !ok {
			return eval, nil
		}
		nestedEval, nestedErr := nested.Evaluate(h)
		if !eval.Final {
			// A non-final intermediate forces the whole chain to
			// non-final even if the nested evaluation turns out final.
			nestedEval.Final = false
		}
		eval, err = nestedEval, nestedErr
	}
}

// maxNestedEvaluations bounds re-evaluation of function results that
// themselves evaluate to further function markers, guarding against a
// pathological cycle slipping past model-level cycle detection.
const maxNestedEvaluations = 256

// nestedFunctionMarker lets a Function's Evaluate implementation return
// "this resolves to another, not-yet-evaluated function" without
// requiring cty.Value itself to carry function values. In practice only
// get_property/get_attribute chains that resolve into another
// Parameter that happens to be a function make use of this.
type nestedFunctionMarker struct {
	fn Function
}

func asNestedFunctionResult(v cty.Value) (Function, bool) {
	if v == cty.NilVal || !v.Type().Equals(nestedMarkerType) {
		return nil, false
	}
	if m, ok := v.EncapsulatedValue().(*nestedFunctionMarker); ok {
		return m.fn, true
	}
	return nil, false
}

// WrapNested produces a cty.Value that Evaluate implementations can
// return to indicate "the real result is this other, unevaluated
// function", used when a get_property/get_attribute path resolves to a
// Parameter that is itself a Function.
func WrapNested(fn Function) cty.Value {
	return cty.CapsuleVal(nestedMarkerType, &nestedFunctionMarker{fn: fn})
}

var nestedMarkerType = cty.Capsule("nested-function-marker", reflect.TypeOf(nestedFunctionMarker{}))
