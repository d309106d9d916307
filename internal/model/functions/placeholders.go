// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package functions

import "fmt"

// GetOperationOutput, GetArtifact and GetNodesOfType are specified only
// as declarative placeholders for this core: they validate their
// argument shape (so a malformed call is caught at plan time) but always
// report CannotEvaluate, since producing their real values requires
// state this core's scope doesn't own (operation output capture storage,
// artifact resolution against ResourceStorage, and a live node-instance
// index respectively).

type GetOperationOutput struct {
	EntityToken   string
	InterfaceName string
	OperationName string
	OutputName    string
}

func (g *GetOperationOutput) Evaluate(h Holder) (Evaluation, error) {
	if _, err := resolveEntity(h, g.EntityToken); err != nil {
		return Evaluation{}, err
	}
	if g.InterfaceName == "" || g.OperationName == "" || g.OutputName == "" {
		return Evaluation{}, invalidArgs("get_operation_output", "interface, operation and output name are all required")
	}
	return Evaluation{}, cannotEvaluate("get_operation_output", fmt.Sprintf("output %q of %s.%s not yet captured", g.OutputName, g.InterfaceName, g.OperationName))
}

type GetArtifact struct {
	EntityToken  string
	ArtifactName string
}

func (g *GetArtifact) Evaluate(h Holder) (Evaluation, error) {
	if _, err := resolveEntity(h, g.EntityToken); err != nil {
		return Evaluation{}, err
	}
	if g.ArtifactName == "" {
		return Evaluation{}, invalidArgs("get_artifact", "artifact name is required")
	}
	return Evaluation{}, cannotEvaluate("get_artifact", fmt.Sprintf("artifact %q not resolvable without resource storage", g.ArtifactName))
}

type GetNodesOfType struct {
	TypeName string
}

func (g *GetNodesOfType) Evaluate(h Holder) (Evaluation, error) {
	if g.TypeName == "" {
		return Evaluation{}, invalidArgs("get_nodes_of_type", "type name is required")
	}
	return Evaluation{}, cannotEvaluate("get_nodes_of_type", fmt.Sprintf("no live node-instance index available to resolve type %q", g.TypeName))
}
