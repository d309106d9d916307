// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package sql

import (
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/ariaorch/core/internal/model/functions"
)

// paramDTO is the JSON shape one functions.Parameter round-trips
// through. A deferred (function-valued) parameter is not durable across
// a reload: its Func is re-derived from the blueprint source, which
// this core never persists (template parsing and storage stay the
// integrator's job) — only the already-evaluated literal form survives
// a reload, matching how runtime attributes are always set as literals
// via Node/Relationship.SetAttribute.
type paramDTO struct {
	Literal *ctyjson.SimpleJSONValue `json:"literal,omitempty"`
}

func paramDTOsFrom(params map[string]functions.Parameter) map[string]paramDTO {
	out := make(map[string]paramDTO, len(params))
	for k, p := range params {
		if p.IsFunction() {
			out[k] = paramDTO{} // deferred value: not persisted, see paramDTO's doc comment
			continue
		}
		out[k] = paramDTO{Literal: &ctyjson.SimpleJSONValue{Value: p.Literal}}
	}
	return out
}

func parametersFrom(dtos map[string]paramDTO) map[string]functions.Parameter {
	out := make(map[string]functions.Parameter, len(dtos))
	for k, dto := range dtos {
		if dto.Literal == nil {
			out[k] = functions.Parameter{}
			continue
		}
		out[k] = functions.LiteralParameter(dto.Literal.Value)
	}
	return out
}
