// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package functions

import (
	"fmt"
)

// GetAttribute implements get_attribute([entity, ...path]): identical
// resolution to GetProperty but over the entity's mutable attributes.
// Unlike properties, attributes may change during execution (operations
// write runtime_properties), so this is always non-final regardless of
// what the underlying Attribute lookup reports.
type GetAttribute struct {
	EntityToken string
	Path        []string
}

func (g *GetAttribute) Evaluate(h Holder) (Evaluation, error) {
	ent, err := resolveEntity(h, g.EntityToken)
	if err != nil {
		return Evaluation{}, err
	}
	if len(g.Path) == 0 {
		return Evaluation{}, invalidArgs("get_attribute", "at least one path segment is required")
	}
	param, ok := ent.Attribute(g.Path...)
	if !ok {
		// An attribute that doesn't exist yet is not an error at plan
		// time the way a missing property is: attributes are commonly
		// populated by operations that haven't run yet. Plan-time
		// callers should treat this as CannotEvaluate, not InvalidValue.
		return Evaluation{}, cannotEvaluate("get_attribute", fmt.Sprintf("no attribute at path %v on %q yet", g.Path, ent.TemplateName()))
	}
	eval, err := param.Evaluate(Holder{Container: ent, Service: h.Service})
	if err != nil {
		return Evaluation{}, err
	}
	eval.Final = false
	return eval, nil
}
