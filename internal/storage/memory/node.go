// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type nodeStorage Storage

func (s *nodeStorage) Get(_ context.Context, id uuid.UUID) (*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

func (s *nodeStorage) GetByName(_ context.Context, templateName string) (*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nodes {
		if n.TemplateName() == templateName {
			return n, nil
		}
	}
	return nil, ErrNotFound
}

// List supports filtering by "template_name" and "type_name".
func (s *nodeStorage) List(_ context.Context, filter model.EntityFilter) ([]*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Node
	for _, n := range s.nodes {
		candidate := map[string]any{
			"template_name": n.TemplateName(),
			"type_name":     n.TypeName,
		}
		if matchesFilter(filter, candidate) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *nodeStorage) Put(_ context.Context, n *model.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = n
	return nil
}

func (s *nodeStorage) Update(ctx context.Context, n *model.Node) error {
	return s.Put(ctx, n)
}

func (s *nodeStorage) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
	return nil
}
