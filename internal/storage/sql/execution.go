// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package sql

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type executionStorage Storage

type executionRow struct {
	ID        uuid.UUID `db:"id"`
	ServiceID uuid.UUID `db:"service_id"`
	Status    int       `db:"status"`
	Payload   []byte    `db:"payload"`
}

type executionPayload struct {
	WorkflowName string                `json:"workflow_name"`
	Inputs       map[string]string     `json:"inputs"`
	CreatedAt    time.Time             `json:"created_at"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	EndedAt      *time.Time            `json:"ended_at,omitempty"`
	Error        *model.ExecutionError `json:"error,omitempty"`
}

func (s *executionStorage) encode(e *model.Execution) (executionRow, error) {
	data, err := marshal(executionPayload{
		WorkflowName: e.WorkflowName,
		Inputs:       e.Inputs,
		CreatedAt:    e.CreatedAt,
		StartedAt:    e.StartedAt,
		EndedAt:      e.EndedAt,
		Error:        e.Error,
	})
	if err != nil {
		return executionRow{}, err
	}
	return executionRow{ID: e.ID, ServiceID: e.ServiceID, Status: int(e.Status), Payload: data}, nil
}

func (s *executionStorage) decode(row executionRow) (*model.Execution, error) {
	var payload executionPayload
	if err := unmarshal(row.Payload, &payload); err != nil {
		return nil, err
	}
	e := model.NewExecution(row.ServiceID, payload.WorkflowName, payload.Inputs)
	e.ID = row.ID
	e.Status = model.ExecutionStatus(row.Status)
	e.CreatedAt = payload.CreatedAt
	e.StartedAt = payload.StartedAt
	e.EndedAt = payload.EndedAt
	e.Error = payload.Error
	return e, nil
}

func (s *executionStorage) Get(ctx context.Context, id uuid.UUID) (*model.Execution, error) {
	var row executionRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, service_id, status, payload FROM aria_executions WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return s.decode(row)
}

func (s *executionStorage) List(ctx context.Context, filter model.EntityFilter) ([]*model.Execution, error) {
	query := `SELECT id, service_id, status, payload FROM aria_executions WHERE true`
	var args []any
	if v, ok := filter["service_id"]; ok {
		args = append(args, v)
		query += queryClause("service_id", len(args))
	}
	if v, ok := filter["status"]; ok {
		args = append(args, v)
		query += queryClause("status", len(args))
	}
	var rows []executionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*model.Execution, 0, len(rows))
	for _, row := range rows {
		e, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *executionStorage) Put(ctx context.Context, e *model.Execution) error {
	row, err := s.encode(e)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO aria_executions (id, service_id, status, payload) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, payload = EXCLUDED.payload`,
		row.ID, row.ServiceID, row.Status, row.Payload)
	return err
}

func (s *executionStorage) Update(ctx context.Context, e *model.Execution) error {
	return s.Put(ctx, e)
}

func (s *executionStorage) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM aria_executions WHERE id = $1`, id)
	return err
}
