// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type relationshipStorage Storage

func (s *relationshipStorage) Get(_ context.Context, id uuid.UUID) (*model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.relationships[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// List supports filtering by "source_id" and "target_id".
func (s *relationshipStorage) List(_ context.Context, filter model.EntityFilter) ([]*model.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Relationship
	for _, r := range s.relationships {
		candidate := map[string]any{
			"source_id": r.SourceID,
			"target_id": r.TargetID,
		}
		if matchesFilter(filter, candidate) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *relationshipStorage) Put(_ context.Context, r *model.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships[r.ID] = r
	return nil
}

func (s *relationshipStorage) Update(ctx context.Context, r *model.Relationship) error {
	return s.Put(ctx, r)
}

func (s *relationshipStorage) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.relationships, id)
	return nil
}
