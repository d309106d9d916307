// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package sql

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type serviceStorage Storage

type serviceRow struct {
	ID      uuid.UUID `db:"id"`
	Name    string    `db:"name"`
	Payload []byte    `db:"payload"`
}

type servicePayload struct {
	Inputs map[string]paramDTO `json:"inputs"`
}

func (s *serviceStorage) encode(svc *model.Service) (serviceRow, error) {
	data, err := marshal(servicePayload{Inputs: paramDTOsFrom(svc.Inputs)})
	if err != nil {
		return serviceRow{}, err
	}
	return serviceRow{ID: svc.ID, Name: svc.Name, Payload: data}, nil
}

func (s *serviceStorage) decode(row serviceRow) (*model.Service, error) {
	var payload servicePayload
	if err := unmarshal(row.Payload, &payload); err != nil {
		return nil, err
	}
	svc := model.NewService(row.Name)
	svc.ID = row.ID
	for k, v := range parametersFrom(payload.Inputs) {
		svc.SetInput(k, v.Literal)
	}
	return svc, nil
}

func (s *serviceStorage) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var row serviceRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, name, payload FROM aria_services WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return s.decode(row)
}

func (s *serviceStorage) GetByName(ctx context.Context, name string) (*model.Service, error) {
	var row serviceRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, name, payload FROM aria_services WHERE name = $1`, name); err != nil {
		return nil, err
	}
	return s.decode(row)
}

func (s *serviceStorage) List(ctx context.Context, filter model.EntityFilter) ([]*model.Service, error) {
	query := `SELECT id, name, payload FROM aria_services WHERE true`
	var args []any
	if name, ok := filter["name"]; ok {
		args = append(args, name)
		query += queryClause("name", len(args))
	}
	var rows []serviceRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*model.Service, 0, len(rows))
	for _, row := range rows {
		svc, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}

func (s *serviceStorage) Put(ctx context.Context, svc *model.Service) error {
	row, err := s.encode(svc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO aria_services (id, name, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, payload = EXCLUDED.payload`,
		row.ID, row.Name, row.Payload)
	return err
}

func (s *serviceStorage) Update(ctx context.Context, svc *model.Service) error {
	return s.Put(ctx, svc)
}

func (s *serviceStorage) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM aria_services WHERE id = $1`, id)
	return err
}
