// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package sql

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariaorch/core/internal/model"
)

type nodeStorage Storage

type nodeRow struct {
	ID           uuid.UUID `db:"id"`
	ServiceID    uuid.UUID `db:"service_id"`
	TemplateName string    `db:"template_name"`
	TypeName     string    `db:"type_name"`
	Payload      []byte    `db:"payload"`
}

// nodePayload carries the runtime-mutable subset of a Node: the
// structural fields (Interfaces, Capabilities, Requirements,
// Relationships) are populated by the blueprint loader on every run and
// aren't this backend's job to persist, mirroring how Properties that
// hold a deferred function aren't durable either (see paramDTO).
type nodePayload struct {
	State      string              `json:"state"`
	HostID     *uuid.UUID          `json:"host_id,omitempty"`
	Attributes map[string]paramDTO `json:"attributes"`
	Artifacts  map[string]string   `json:"artifacts"`
}

func (s *nodeStorage) encode(serviceID uuid.UUID, n *model.Node) (nodeRow, error) {
	var hostID *uuid.UUID
	if id, ok := n.ImmediateHostID(); ok {
		hostID = &id
	}
	data, err := marshal(nodePayload{
		State:      n.State,
		HostID:     hostID,
		Attributes: paramDTOsFrom(n.Attributes()),
		Artifacts:  n.Artifacts,
	})
	if err != nil {
		return nodeRow{}, err
	}
	return nodeRow{ID: n.ID, ServiceID: serviceID, TemplateName: n.TemplateName(), TypeName: n.TypeName, Payload: data}, nil
}

func (s *nodeStorage) decode(row nodeRow) (*model.Node, error) {
	var payload nodePayload
	if err := unmarshal(row.Payload, &payload); err != nil {
		return nil, err
	}
	n := model.NewNode(row.TemplateName, row.TypeName)
	n.ID = row.ID
	n.State = payload.State
	if payload.HostID != nil {
		n.SetHost(*payload.HostID)
	}
	n.LoadAttributes(parametersFrom(payload.Attributes))
	if payload.Artifacts != nil {
		n.Artifacts = payload.Artifacts
	}
	return n, nil
}

func (s *nodeStorage) Get(ctx context.Context, id uuid.UUID) (*model.Node, error) {
	var row nodeRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, service_id, template_name, type_name, payload FROM aria_nodes WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return s.decode(row)
}

func (s *nodeStorage) GetByName(ctx context.Context, templateName string) (*model.Node, error) {
	var row nodeRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, service_id, template_name, type_name, payload FROM aria_nodes WHERE template_name = $1`, templateName); err != nil {
		return nil, err
	}
	return s.decode(row)
}

func (s *nodeStorage) List(ctx context.Context, filter model.EntityFilter) ([]*model.Node, error) {
	query := `SELECT id, service_id, template_name, type_name, payload FROM aria_nodes WHERE true`
	var args []any
	if v, ok := filter["template_name"]; ok {
		args = append(args, v)
		query += queryClause("template_name", len(args))
	}
	if v, ok := filter["type_name"]; ok {
		args = append(args, v)
		query += queryClause("type_name", len(args))
	}
	var rows []nodeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*model.Node, 0, len(rows))
	for _, row := range rows {
		n, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *nodeStorage) Put(ctx context.Context, n *model.Node) error {
	serviceID, _ := n.ServiceID()
	row, err := s.encode(serviceID, n)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO aria_nodes (id, service_id, template_name, type_name, payload) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET template_name = EXCLUDED.template_name, type_name = EXCLUDED.type_name, payload = EXCLUDED.payload`,
		row.ID, row.ServiceID, row.TemplateName, row.TypeName, row.Payload)
	return err
}

func (s *nodeStorage) Update(ctx context.Context, n *model.Node) error {
	return s.Put(ctx, n)
}

func (s *nodeStorage) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM aria_nodes WHERE id = $1`, id)
	return err
}
