// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type executionStorage Storage

func (s *executionStorage) Get(_ context.Context, id uuid.UUID) (*model.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// List supports filtering by "service_id" and "status".
func (s *executionStorage) List(_ context.Context, filter model.EntityFilter) ([]*model.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Execution
	for _, e := range s.executions {
		candidate := map[string]any{
			"service_id": e.ServiceID,
			"status":     e.Status,
		}
		if matchesFilter(filter, candidate) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *executionStorage) Put(_ context.Context, e *model.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[e.ID] = e
	return nil
}

func (s *executionStorage) Update(ctx context.Context, e *model.Execution) error {
	return s.Put(ctx, e)
}

func (s *executionStorage) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.executions, id)
	return nil
}
