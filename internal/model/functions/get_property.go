// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package functions

import "fmt"

// GetProperty implements get_property([entity, ...path]): resolves entity
// per the SELF/HOST/SOURCE/TARGET/template-name rules and then walks path
// through that entity's properties (and, via the path, its requirements
// and capabilities — the model layer's Entity.Property implementation
// is responsible for that walk). The result is final exactly when the
// whole resolved parameter chain is final.
type GetProperty struct {
	EntityToken string
	Path        []string
}

func (g *GetProperty) Evaluate(h Holder) (Evaluation, error) {
	ent, err := resolveEntity(h, g.EntityToken)
	if err != nil {
		return Evaluation{}, err
	}
	if len(g.Path) == 0 {
		return Evaluation{}, invalidArgs("get_property", "at least one path segment is required")
	}
	param, ok := ent.Property(g.Path...)
	if !ok {
		return Evaluation{}, invalidArgs("get_property", fmt.Sprintf("no property at path %v on %q", g.Path, ent.TemplateName()))
	}
	return param.Evaluate(Holder{Container: ent, Service: h.Service})
}
