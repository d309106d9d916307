// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import "github.com/zclconf/go-cty/cty"

// indexIntoValue walks a concrete cty.Value through a sequence of object
// attribute / map key segments, used to resolve the tail of a
// get_property/get_attribute path once the head segment has already
// selected a top-level property or attribute.
//
// This only operates on already-evaluated (literal) values; a path that
// needs to descend through a still-deferred function value must
// evaluate that function first, which is the caller's responsibility.
func indexIntoValue(v cty.Value, path []string) (cty.Value, bool) {
	cur := v
	for _, seg := range path {
		if cur.IsNull() {
			return cty.NilVal, false
		}
		switch {
		case cur.Type().IsObjectType():
			if !cur.Type().HasAttribute(seg) {
				return cty.NilVal, false
			}
			cur = cur.GetAttr(seg)
		case cur.Type().IsMapType():
			if !cur.CanIterateElements() {
				return cty.NilVal, false
			}
			elemVal := cty.StringVal(seg)
			if !cur.HasIndex(elemVal).True() {
				return cty.NilVal, false
			}
			cur = cur.Index(elemVal)
		default:
			return cty.NilVal, false
		}
	}
	return cur, true
}
