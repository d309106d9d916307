// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type serviceStorage Storage

func (s *serviceStorage) Get(_ context.Context, id uuid.UUID) (*model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	return svc, nil
}

func (s *serviceStorage) GetByName(_ context.Context, name string) (*model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, svc := range s.services {
		if svc.Name == name {
			return svc, nil
		}
	}
	return nil, ErrNotFound
}

// List supports filtering by "name" (see EntityFilter's field-name
// contract, documented per backend since there is no shared query
// language).
func (s *serviceStorage) List(_ context.Context, filter model.EntityFilter) ([]*model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Service
	for _, svc := range s.services {
		if matchesFilter(filter, map[string]any{"name": svc.Name}) {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (s *serviceStorage) Put(_ context.Context, svc *model.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
	return nil
}

func (s *serviceStorage) Update(ctx context.Context, svc *model.Service) error {
	return s.Put(ctx, svc)
}

func (s *serviceStorage) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.services, id)
	return nil
}
