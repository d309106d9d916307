// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package functions

import "fmt"

// Reserved entity-reference tokens recognized as the first argument of
// get_property/get_attribute, per the evaluator's entity resolution
// rules.
const (
	TokenSelf   = "SELF"
	TokenHost   = "HOST"
	TokenSource = "SOURCE"
	TokenTarget = "TARGET"
)

// resolveEntity implements the "first argument of get_property/
// get_attribute" resolution rules: SELF is the current container, HOST
// walks the host chain (nodes only), SOURCE/TARGET are valid only on a
// relationship container, and anything else is looked up as a template
// name against the service.
func resolveEntity(h Holder, token string) (Entity, error) {
	switch token {
	case TokenSelf:
		return h.Container, nil
	case TokenHost:
		if h.Container.EntityKind() != NodeEntity {
			return nil, invalidArgs("get_property/get_attribute", "HOST is only valid when the container is a node")
		}
		host, ok := h.Container.Host()
		if !ok {
			return nil, cannotEvaluate("get_property/get_attribute", "HOST has no resolvable anchor yet (node not instantiated)")
		}
		return host, nil
	case TokenSource:
		if h.Container.EntityKind() != RelationshipEntity {
			return nil, invalidArgs("get_property/get_attribute", "SOURCE is only valid when the container is a relationship")
		}
		src, ok := h.Container.Source()
		if !ok {
			return nil, invalidArgs("get_property/get_attribute", "relationship has no source entity")
		}
		return src, nil
	case TokenTarget:
		if h.Container.EntityKind() != RelationshipEntity {
			return nil, invalidArgs("get_property/get_attribute", "TARGET is only valid when the container is a relationship")
		}
		tgt, ok := h.Container.Target()
		if !ok {
			return nil, invalidArgs("get_property/get_attribute", "relationship has no target entity")
		}
		return tgt, nil
	default:
		ent, ok := h.Service.EntityByTemplateName(token)
		if !ok {
			return nil, invalidArgs("get_property/get_attribute", fmt.Sprintf("unknown entity %q", token))
		}
		return ent, nil
	}
}
