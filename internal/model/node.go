// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import (
	"sync"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/ariaorch/core/internal/model/functions"
)

// Node is an instantiation of a node template.
//
// The host field is either a self-reference (marking a compute node),
// nil (not yet assigned), or another node reachable via outbound
// "HostedOn"-shaped relationships; it never forms a cycle other than
// that self-loop. Neither SetHost nor Service.AttachNode/
// AttachRelationship checks this; Host reports ok=false if it meets a
// cycle.
type Node struct {
	ID       uuid.UUID
	Name     string
	TypeName string
	Template string
	State    string

	Properties map[string]functions.Parameter
	Interfaces map[string]*Interface
	Capabilities map[string]*Capability
	Requirements map[string]*Requirement
	Artifacts    map[string]string // name -> resource storage entry id

	// Relationships holds this node's outbound relationships, ordered by
	// SourcePosition (a contiguous 0..N-1 sequence within this node).
	Relationships []*Relationship

	hostID *uuid.UUID

	mu         sync.RWMutex
	attributes map[string]functions.Parameter

	service *Service
}

// NewNode constructs a Node with empty collections ready to populate.
func NewNode(templateName, typeName string) *Node {
	return &Node{
		ID:           uuid.New(),
		Template:     templateName,
		TypeName:     typeName,
		State:        "initial",
		Properties:   make(map[string]functions.Parameter),
		Interfaces:   make(map[string]*Interface),
		Capabilities: make(map[string]*Capability),
		Requirements: make(map[string]*Requirement),
		Artifacts:    make(map[string]string),
		attributes:   make(map[string]functions.Parameter),
	}
}

// SetHost sets this node's host reference. Passing the node's own ID
// marks it as a compute node (the self-loop the model explicitly
// allows).
func (n *Node) SetHost(hostID uuid.UUID) { n.hostID = &hostID }

// IsCompute reports whether this node is its own host.
func (n *Node) IsCompute() bool { return n.hostID != nil && *n.hostID == n.ID }

// ServiceID returns the owning service's id, or ok=false if n hasn't
// been attached to a service yet.
func (n *Node) ServiceID() (uuid.UUID, bool) {
	if n.service == nil {
		return uuid.Nil, false
	}
	return n.service.ID, true
}

// ImmediateHostID returns the single next hop of n's host reference
// (not walked to the ultimate compute anchor, unlike Host()), or
// ok=false if n has no host assigned yet.
func (n *Node) ImmediateHostID() (uuid.UUID, bool) {
	if n.hostID == nil {
		return uuid.Nil, false
	}
	return *n.hostID, true
}

// SetAttribute stores a concrete literal runtime attribute value,
// guarded against concurrent operation implementations writing to the
// same node (callers remain responsible for not scheduling concurrent
// writers for one node, per the concurrency model; the mutex here only
// prevents a data race on the underlying map, not logical conflicts).
func (n *Node) SetAttribute(name string, v cty.Value) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attributes[name] = functions.LiteralParameter(v)
}

// RuntimeAttribute returns the raw Parameter stored for name, if any.
func (n *Node) RuntimeAttribute(name string) (functions.Parameter, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	p, ok := n.attributes[name]
	return p, ok
}

// Attributes returns a snapshot copy of every runtime attribute, for a
// storage backend persisting the whole entity.
func (n *Node) Attributes() map[string]functions.Parameter {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]functions.Parameter, len(n.attributes))
	for k, v := range n.attributes {
		out[k] = v
	}
	return out
}

// LoadAttributes replaces the runtime attribute set wholesale, for a
// storage backend rehydrating a persisted entity.
func (n *Node) LoadAttributes(attrs map[string]functions.Parameter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attributes = attrs
}

// --- functions.Entity implementation ---

func (n *Node) EntityKind() functions.EntityKind { return functions.NodeEntity }
func (n *Node) TemplateName() string             { return n.Template }

func (n *Node) Property(path ...string) (functions.Parameter, bool) {
	return resolveEntityPath(n.Properties, n.Capabilities, n.Requirements, path)
}

func (n *Node) Attribute(path ...string) (functions.Parameter, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return resolveAttributePath(n.attributes, path)
}

func (n *Node) Host() (functions.Entity, bool) {
	if n.hostID == nil || n.service == nil {
		return nil, false
	}
	visited := map[uuid.UUID]bool{}
	cur := n
	for {
		if visited[cur.ID] {
			return nil, false // cycle guard; should never legitimately happen
		}
		visited[cur.ID] = true
		if cur.hostID == nil {
			return nil, false
		}
		if *cur.hostID == cur.ID {
			return cur, true // reached the self-loop anchor
		}
		next, ok := n.service.NodeByID(*cur.hostID)
		if !ok {
			return nil, false
		}
		cur = next
	}
}

func (n *Node) Source() (functions.Entity, bool) { return nil, false }
func (n *Node) Target() (functions.Entity, bool) { return nil, false }
