// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import (
	"sync"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/ariaorch/core/internal/model/functions"
)

// Relationship connects a source node to a target node, with its own
// properties and source-side/target-side interfaces. SourcePosition and
// TargetPosition record this relationship's index within the source's
// and target's respective relationship lists, for deterministic
// ordering of relationship_tasks.
type Relationship struct {
	ID       uuid.UUID
	TypeName string

	SourceID       uuid.UUID
	TargetID       uuid.UUID
	SourcePosition int
	TargetPosition int

	Properties       map[string]functions.Parameter
	SourceInterfaces map[string]*Interface
	TargetInterfaces map[string]*Interface

	mu         sync.RWMutex
	attributes map[string]functions.Parameter

	service *Service
}

func NewRelationship(typeName string, sourceID, targetID uuid.UUID) *Relationship {
	return &Relationship{
		ID:               uuid.New(),
		TypeName:         typeName,
		SourceID:         sourceID,
		TargetID:         targetID,
		Properties:       make(map[string]functions.Parameter),
		SourceInterfaces: make(map[string]*Interface),
		TargetInterfaces: make(map[string]*Interface),
		attributes:       make(map[string]functions.Parameter),
	}
}

func (r *Relationship) SetAttribute(name string, v cty.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attributes[name] = functions.LiteralParameter(v)
}

func (r *Relationship) RuntimeAttribute(name string) (functions.Parameter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.attributes[name]
	return p, ok
}

// Attributes returns a snapshot copy of every runtime attribute, for a
// storage backend persisting the whole entity.
func (r *Relationship) Attributes() map[string]functions.Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]functions.Parameter, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = v
	}
	return out
}

// LoadAttributes replaces the runtime attribute set wholesale, for a
// storage backend rehydrating a persisted entity.
func (r *Relationship) LoadAttributes(attrs map[string]functions.Parameter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attributes = attrs
}

// ServiceID returns the owning service's id, or ok=false if r hasn't
// been attached to a service yet.
func (r *Relationship) ServiceID() (uuid.UUID, bool) {
	if r.service == nil {
		return uuid.Nil, false
	}
	return r.service.ID, true
}

// --- functions.Entity implementation ---

func (r *Relationship) EntityKind() functions.EntityKind { return functions.RelationshipEntity }

// TemplateName for a relationship instance is its type name: relationship
// templates aren't separately named the way node templates are.
func (r *Relationship) TemplateName() string { return r.TypeName }

func (r *Relationship) Property(path ...string) (functions.Parameter, bool) {
	return resolveEntityPath(r.Properties, nil, nil, path)
}

func (r *Relationship) Attribute(path ...string) (functions.Parameter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return resolveAttributePath(r.attributes, path)
}

func (r *Relationship) Host() (functions.Entity, bool) {
	src, ok := r.Source()
	if !ok {
		return nil, false
	}
	return src.Host()
}

func (r *Relationship) Source() (functions.Entity, bool) {
	if r.service == nil {
		return nil, false
	}
	n, ok := r.service.NodeByID(r.SourceID)
	if !ok {
		return nil, false
	}
	return n, true
}

func (r *Relationship) Target() (functions.Entity, bool) {
	if r.service == nil {
		return nil, false
	}
	n, ok := r.service.NodeByID(r.TargetID)
	if !ok {
		return nil, false
	}
	return n, true
}
