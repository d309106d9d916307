// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package model

import "github.com/ariaorch/core/internal/model/functions"

// Capability carries an occurrence count and [min,max] bounds; relating
// a requirement to it increments Occurrences.
type Capability struct {
	Name       string
	TypeName   string
	MinOccur   int
	MaxOccur   int // <=0 means unbounded
	Occurrences int
	Properties map[string]functions.Parameter
}

// HasRoom reports whether another requirement may still relate to this
// capability without exceeding MaxOccur.
func (c *Capability) HasRoom() bool {
	if c.MaxOccur <= 0 {
		return true
	}
	return c.Occurrences < c.MaxOccur
}

// Requirement is satisfied iff its resolved capability's occurrences is
// below its max; Relate increments the resolved capability's count.
type Requirement struct {
	Name                    string
	CapabilityTypeName      string
	TargetNodeTemplateName  string
	Resolved                *Capability
}

// Satisfied reports whether this requirement currently has room to
// relate to its resolved capability.
func (r *Requirement) Satisfied() bool {
	return r.Resolved != nil && r.Resolved.HasRoom()
}

// Relate increments the resolved capability's occurrence count,
// returning false (without mutating) if there's no room.
func (r *Requirement) Relate() bool {
	if r.Resolved == nil || !r.Resolved.HasRoom() {
		return false
	}
	r.Resolved.Occurrences++
	return true
}
