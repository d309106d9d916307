// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package functions

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Token implements the token(string, separators, index) intrinsic:
// splits String by any rune in Separators and returns the Index-th
// resulting token.
type Token struct {
	String     Parameter
	Separators Parameter
	Index      Parameter
}

func (t *Token) Evaluate(h Holder) (Evaluation, error) {
	strEval, err := t.String.Evaluate(h)
	if err != nil {
		return Evaluation{}, err
	}
	sepEval, err := t.Separators.Evaluate(h)
	if err != nil {
		return Evaluation{}, err
	}
	idxEval, err := t.Index.Evaluate(h)
	if err != nil {
		return Evaluation{}, err
	}

	str, err := convert.Convert(strEval.Value, cty.String)
	if err != nil {
		return Evaluation{}, invalidArgs("token", "string argument is not convertible to a string")
	}
	sep, err := convert.Convert(sepEval.Value, cty.String)
	if err != nil {
		return Evaluation{}, invalidArgs("token", "separators argument is not convertible to a string")
	}
	idxVal, err := convert.Convert(idxEval.Value, cty.Number)
	if err != nil {
		return Evaluation{}, invalidArgs("token", "index argument is not convertible to a number")
	}
	idx, _ := idxVal.AsBigFloat().Int64()

	parts := strings.FieldsFunc(str.AsString(), func(r rune) bool {
		return strings.ContainsRune(sep.AsString(), r)
	})
	if idx < 0 || int(idx) >= len(parts) {
		return Evaluation{}, cannotEvaluate("token", fmt.Sprintf("index %d out of range for %d token(s)", idx, len(parts)))
	}

	final := strEval.Final && sepEval.Final && idxEval.Final
	return Evaluation{Value: cty.StringVal(parts[idx]), Final: final}, nil
}
