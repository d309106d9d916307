// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type taskStorage Storage

func (s *taskStorage) Get(_ context.Context, id uuid.UUID) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *taskStorage) GetByAPIID(_ context.Context, executionID uuid.UUID, apiID string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ExecutionID == executionID && t.APIID == apiID {
			return t, nil
		}
	}
	return nil, ErrNotFound
}

// List supports filtering by "execution_id" and "status" — the engine's
// polling loop relies on the former to load one execution's tasks.
func (s *taskStorage) List(_ context.Context, filter model.EntityFilter) ([]*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Task
	for _, t := range s.tasks {
		candidate := map[string]any{
			"execution_id": t.ExecutionID,
			"status":       t.Status,
		}
		if matchesFilter(filter, candidate) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *taskStorage) Put(_ context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return nil
}

func (s *taskStorage) Update(ctx context.Context, t *model.Task) error {
	return s.Put(ctx, t)
}

func (s *taskStorage) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}
