// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import (
	"sync"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/ariaorch/core/internal/model/functions"
)

// Service is a deployed instance of a service template: the set of node
// and relationship instances plus the inputs supplied at deployment
// time. It implements functions.ServiceAccessor so that evaluation can
// resolve get_input and template-name entity tokens.
type Service struct {
	ID   uuid.UUID
	Name string

	Inputs map[string]functions.Parameter

	mu            sync.RWMutex
	nodesByID     map[uuid.UUID]*Node
	nodesByName   map[string][]*Node // template name -> instances
	relationships map[uuid.UUID]*Relationship
}

func NewService(name string) *Service {
	return &Service{
		ID:            uuid.New(),
		Name:          name,
		Inputs:        make(map[string]functions.Parameter),
		nodesByID:     make(map[uuid.UUID]*Node),
		nodesByName:   make(map[string][]*Node),
		relationships: make(map[uuid.UUID]*Relationship),
	}
}

// AttachNode registers a node instance with the service and wires its
// back-reference, used to resolve Host/template-name lookups.
func (s *Service) AttachNode(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.service = s
	s.nodesByID[n.ID] = n
	s.nodesByName[n.Template] = append(s.nodesByName[n.Template], n)
}

// AttachRelationship registers a relationship instance, wires its
// back-reference, and appends it to its source node's Relationships in
// SourcePosition order (callers are expected to set SourcePosition
// before calling, matching insertion order).
func (s *Service) AttachRelationship(r *Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.service = s
	s.relationships[r.ID] = r
	if src, ok := s.nodesByID[r.SourceID]; ok {
		src.Relationships = append(src.Relationships, r)
	}
}

func (s *Service) NodeByID(id uuid.UUID) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodesByID[id]
	return n, ok
}

func (s *Service) RelationshipByID(id uuid.UUID) (*Relationship, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.relationships[id]
	return r, ok
}

// Nodes returns a snapshot slice of every node instance, in an
// unspecified but stable-per-call order; callers that need determinism
// should sort by ID or Template themselves.
func (s *Service) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Node, 0, len(s.nodesByID))
	for _, n := range s.nodesByID {
		out = append(out, n)
	}
	return out
}

// NodesByTemplate returns the instances deployed from the named node
// template, in AttachNode call order.
func (s *Service) NodesByTemplate(templateName string) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Node(nil), s.nodesByName[templateName]...)
}

func (s *Service) SetInput(name string, v cty.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Inputs[name] = functions.LiteralParameter(v)
}

// --- functions.ServiceAccessor implementation ---

func (s *Service) Input(name string) (functions.Parameter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.Inputs[name]
	return p, ok
}

// EntityByTemplateName resolves a bare template-name token (used by
// get_property/get_attribute entity tokens that aren't SELF/HOST/SOURCE/
// TARGET) to the single node instance deployed from it. A template
// scaled to more than one instance has no unambiguous single-entity
// resolution here and is reported as unresolved.
func (s *Service) EntityByTemplateName(name string) (functions.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instances := s.nodesByName[name]
	if len(instances) != 1 {
		return nil, false
	}
	return instances[0], true
}
