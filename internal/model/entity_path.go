// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import "github.com/ariaorch/core/internal/model/functions"

// resolveEntityPath implements the property-path resolution shared by
// Node and Relationship: a path rooted at "capabilities" or
// "requirements" descends into that collection's properties, otherwise
// the head segment names a direct property and any remaining segments
// index into its evaluated literal value.
func resolveEntityPath(props map[string]functions.Parameter, caps map[string]*Capability, reqs map[string]*Requirement, path []string) (functions.Parameter, bool) {
	if len(path) == 0 {
		return functions.Parameter{}, false
	}
	switch path[0] {
	case "capabilities":
		if len(path) < 2 {
			return functions.Parameter{}, false
		}
		cap, ok := caps[path[1]]
		if !ok {
			return functions.Parameter{}, false
		}
		return propertyFromPath(cap.Properties, path[2:])
	case "requirements":
		if len(path) < 2 {
			return functions.Parameter{}, false
		}
		req, ok := reqs[path[1]]
		if !ok || req.Resolved == nil {
			return functions.Parameter{}, false
		}
		return propertyFromPath(req.Resolved.Properties, path[2:])
	default:
		return propertyFromPath(props, path)
	}
}

func propertyFromPath(props map[string]functions.Parameter, path []string) (functions.Parameter, bool) {
	if len(path) == 0 {
		return functions.Parameter{}, false
	}
	p, ok := props[path[0]]
	if !ok {
		return functions.Parameter{}, false
	}
	if len(path) == 1 {
		return p, true
	}
	if p.IsFunction() {
		// Tail indexing into a still-deferred function value isn't
		// resolvable here; the caller evaluates the function and this
		// core treats the remaining path as unavailable at plan time.
		return functions.Parameter{}, false
	}
	tail, ok := indexIntoValue(p.Literal, path[1:])
	if !ok {
		return functions.Parameter{}, false
	}
	return functions.LiteralParameter(tail), true
}

func resolveAttributePath(attrs map[string]functions.Parameter, path []string) (functions.Parameter, bool) {
	return propertyFromPath(attrs, path)
}
