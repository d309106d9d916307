// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package functions

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Concat implements the concat(list-of-string-expressions) intrinsic:
// evaluates each argument and joins the results as strings. The overall
// result is non-final if any argument's evaluation is non-final.
type Concat struct {
	Args []Parameter
}

func (c *Concat) Evaluate(h Holder) (Evaluation, error) {
	final := true
	out := ""
	for i, arg := range c.Args {
		eval, err := arg.Evaluate(h)
		if err != nil {
			return Evaluation{}, err
		}
		if !eval.Final {
			final = false
		}
		v, err := convert.Convert(eval.Value, cty.String)
		if err != nil {
			return Evaluation{}, invalidArgs("concat", fmt.Sprintf("argument %d is not convertible to a string: %s", i, err))
		}
		if v.IsNull() {
			return Evaluation{}, invalidArgs("concat", fmt.Sprintf("argument %d is null", i))
		}
		out += v.AsString()
	}
	return Evaluation{Value: cty.StringVal(out), Final: final}, nil
}
