// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package sql

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type taskStorage Storage

type taskRow struct {
	ID          uuid.UUID `db:"id"`
	ExecutionID uuid.UUID `db:"execution_id"`
	APIID       string    `db:"api_id"`
	Status      int       `db:"status"`
	Payload     []byte    `db:"payload"`
}

type taskPayload struct {
	ActorID          *uuid.UUID          `json:"actor_id,omitempty"`
	ActorKind        int                 `json:"actor_kind"`
	OperationMapping string              `json:"operation_mapping"`
	Inputs           map[string]paramDTO `json:"inputs"`
	Attempts         int                 `json:"attempts"`
	MaxAttempts      int                 `json:"max_attempts"`
	RetryInterval    time.Duration       `json:"retry_interval"`
	ETA              time.Time           `json:"eta"`
	StubType         int                 `json:"stub_type"`
	Dependencies     []uuid.UUID         `json:"dependencies"`
}

func (s *taskStorage) encode(t *model.Task) (taskRow, error) {
	data, err := marshal(taskPayload{
		ActorID:          t.ActorID,
		ActorKind:        int(t.ActorKind),
		OperationMapping: t.OperationMapping,
		Inputs:           paramDTOsFrom(t.Inputs),
		Attempts:         t.Attempts,
		MaxAttempts:      t.MaxAttempts,
		RetryInterval:    t.RetryInterval,
		ETA:              t.ETA,
		StubType:         int(t.StubType),
		Dependencies:     t.Dependencies,
	})
	if err != nil {
		return taskRow{}, err
	}
	return taskRow{ID: t.ID, ExecutionID: t.ExecutionID, APIID: t.APIID, Status: int(t.Status), Payload: data}, nil
}

func (s *taskStorage) decode(row taskRow) (*model.Task, error) {
	var payload taskPayload
	if err := unmarshal(row.Payload, &payload); err != nil {
		return nil, err
	}
	t := model.NewTask(row.ExecutionID, row.APIID, model.StubType(payload.StubType))
	t.ID = row.ID
	t.ActorID = payload.ActorID
	t.ActorKind = model.ActorKind(payload.ActorKind)
	t.OperationMapping = payload.OperationMapping
	t.Inputs = parametersFrom(payload.Inputs)
	t.Status = model.TaskStatus(row.Status)
	t.Attempts = payload.Attempts
	t.MaxAttempts = payload.MaxAttempts
	t.RetryInterval = payload.RetryInterval
	t.ETA = payload.ETA
	t.Dependencies = payload.Dependencies
	return t, nil
}

func (s *taskStorage) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var row taskRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, execution_id, api_id, status, payload FROM aria_tasks WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return s.decode(row)
}

func (s *taskStorage) GetByAPIID(ctx context.Context, executionID uuid.UUID, apiID string) (*model.Task, error) {
	var row taskRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, execution_id, api_id, status, payload FROM aria_tasks WHERE execution_id = $1 AND api_id = $2`, executionID, apiID); err != nil {
		return nil, err
	}
	return s.decode(row)
}

func (s *taskStorage) List(ctx context.Context, filter model.EntityFilter) ([]*model.Task, error) {
	query := `SELECT id, execution_id, api_id, status, payload FROM aria_tasks WHERE true`
	var args []any
	if v, ok := filter["execution_id"]; ok {
		args = append(args, v)
		query += queryClause("execution_id", len(args))
	}
	if v, ok := filter["status"]; ok {
		args = append(args, v)
		query += queryClause("status", len(args))
	}
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*model.Task, 0, len(rows))
	for _, row := range rows {
		t, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *taskStorage) Put(ctx context.Context, t *model.Task) error {
	row, err := s.encode(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO aria_tasks (id, execution_id, api_id, status, payload) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, payload = EXCLUDED.payload`,
		row.ID, row.ExecutionID, row.APIID, row.Status, row.Payload)
	return err
}

func (s *taskStorage) Update(ctx context.Context, t *model.Task) error {
	return s.Put(ctx, t)
}

func (s *taskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM aria_tasks WHERE id = $1`, id)
	return err
}
