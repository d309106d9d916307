// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package sql

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type relationshipStorage Storage

type relationshipRow struct {
	ID        uuid.UUID `db:"id"`
	ServiceID uuid.UUID `db:"service_id"`
	SourceID  uuid.UUID `db:"source_id"`
	TargetID  uuid.UUID `db:"target_id"`
	Payload   []byte    `db:"payload"`
}

// relationshipPayload carries the runtime-mutable subset, mirroring
// nodePayload's scope decision: SourceInterfaces/TargetInterfaces are
// blueprint-owned and re-attached by the loader.
type relationshipPayload struct {
	TypeName       string              `json:"type_name"`
	SourcePosition int                 `json:"source_position"`
	TargetPosition int                 `json:"target_position"`
	Attributes     map[string]paramDTO `json:"attributes"`
}

func (s *relationshipStorage) encode(serviceID uuid.UUID, r *model.Relationship) (relationshipRow, error) {
	data, err := marshal(relationshipPayload{
		TypeName:       r.TypeName,
		SourcePosition: r.SourcePosition,
		TargetPosition: r.TargetPosition,
		Attributes:     paramDTOsFrom(r.Attributes()),
	})
	if err != nil {
		return relationshipRow{}, err
	}
	return relationshipRow{ID: r.ID, ServiceID: serviceID, SourceID: r.SourceID, TargetID: r.TargetID, Payload: data}, nil
}

func (s *relationshipStorage) decode(row relationshipRow) (*model.Relationship, error) {
	var payload relationshipPayload
	if err := unmarshal(row.Payload, &payload); err != nil {
		return nil, err
	}
	r := model.NewRelationship(payload.TypeName, row.SourceID, row.TargetID)
	r.ID = row.ID
	r.SourcePosition = payload.SourcePosition
	r.TargetPosition = payload.TargetPosition
	r.LoadAttributes(parametersFrom(payload.Attributes))
	return r, nil
}

func (s *relationshipStorage) Get(ctx context.Context, id uuid.UUID) (*model.Relationship, error) {
	var row relationshipRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, service_id, source_id, target_id, payload FROM aria_relationships WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return s.decode(row)
}

func (s *relationshipStorage) List(ctx context.Context, filter model.EntityFilter) ([]*model.Relationship, error) {
	query := `SELECT id, service_id, source_id, target_id, payload FROM aria_relationships WHERE true`
	var args []any
	if v, ok := filter["source_id"]; ok {
		args = append(args, v)
		query += queryClause("source_id", len(args))
	}
	if v, ok := filter["target_id"]; ok {
		args = append(args, v)
		query += queryClause("target_id", len(args))
	}
	var rows []relationshipRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*model.Relationship, 0, len(rows))
	for _, row := range rows {
		r, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *relationshipStorage) Put(ctx context.Context, r *model.Relationship) error {
	serviceID, _ := r.ServiceID()
	row, err := s.encode(serviceID, r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO aria_relationships (id, service_id, source_id, target_id, payload) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET source_id = EXCLUDED.source_id, target_id = EXCLUDED.target_id, payload = EXCLUDED.payload`,
		row.ID, row.ServiceID, row.SourceID, row.TargetID, row.Payload)
	return err
}

func (s *relationshipStorage) Update(ctx context.Context, r *model.Relationship) error {
	return s.Put(ctx, r)
}

func (s *relationshipStorage) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM aria_relationships WHERE id = $1`, id)
	return err
}
