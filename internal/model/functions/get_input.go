// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package functions

import "fmt"

// GetInput implements get_input(name): looks up service.inputs[name].
// Always non-final, since inputs may be overridden at runtime (e.g. by
// execute_operation's kwargs or a re-run with different execution
// inputs).
type GetInput struct {
	Name string
}

func (g *GetInput) Evaluate(h Holder) (Evaluation, error) {
	param, ok := h.Service.Input(g.Name)
	if !ok {
		return Evaluation{}, invalidArgs("get_input", fmt.Sprintf("unknown input %q", g.Name))
	}
	eval, err := param.Evaluate(h)
	if err != nil {
		return Evaluation{}, err
	}
	eval.Final = false
	return eval, nil
}
