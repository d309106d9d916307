// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package diagnostics provides the collected-error vocabulary used
// across the orchestrator core: validation failures accumulate into a
// Diagnostics value instead of aborting on the first problem, so
// plan-time validation can report every problem in one pass.
package diagnostics

import (
	"fmt"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
)

// Severity distinguishes diagnostics that abort planning from those that
// are merely informative.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Kind identifies which error-taxonomy bucket a Diagnostic belongs to.
// It is informational only: callers that need to branch on kind should
// use errors.As against the Go error types in this package's sibling
// packages (e.g. executor.ExecutorError) rather than switching on Kind,
// since Kind is for display/grouping purposes in reports.
type Kind string

const (
	KindInvalidGraph    Kind = "InvalidGraph"
	KindInvalidValue    Kind = "InvalidValue"
	KindCannotEvaluate  Kind = "CannotEvaluate"
	KindExecutorError   Kind = "ExecutorError"
	KindTaskFailed      Kind = "TaskFailed"
	KindCancelled       Kind = "Cancelled"
	KindWorkflowAborted Kind = "WorkflowAborted"
)

// SourceLocator optionally pinpoints where in a YAML-derived source
// document a diagnostic originated, when that information is available
// from the model (it usually isn't once a node has been mutated at
// runtime, only at plan time against the instantiated template).
type SourceLocator struct {
	Line   int
	Column int
}

func (l SourceLocator) String() string {
	if l.Line == 0 {
		return ""
	}
	return fmt.Sprintf(" (line %d, column %d)", l.Line, l.Column)
}

// Diagnostic is a single collected problem.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Summary  string
	Detail   string
	Locator  *SourceLocator
}

func (d *Diagnostic) Error() string {
	var loc string
	if d.Locator != nil {
		loc = d.Locator.String()
	}
	if d.Detail == "" {
		return fmt.Sprintf("%s: %s%s", d.Kind, d.Summary, loc)
	}
	return fmt.Sprintf("%s: %s: %s%s", d.Kind, d.Summary, d.Detail, loc)
}

// New builds an error-severity Diagnostic.
func New(kind Kind, summary, detail string) *Diagnostic {
	return &Diagnostic{Severity: Error, Kind: kind, Summary: summary, Detail: detail}
}

// NewAt builds an error-severity Diagnostic with a source locator.
func NewAt(kind Kind, summary, detail string, loc SourceLocator) *Diagnostic {
	return &Diagnostic{Severity: Error, Kind: kind, Summary: summary, Detail: detail, Locator: &loc}
}

// Diagnostics is an ordered collection of Diagnostic values. The zero
// value is usable (an empty report).
type Diagnostics []*Diagnostic

// Append adds one or more diagnostics, flattening anything that already
// looks like a Diagnostics collection or a plain error so that callers can
// freely pass around whichever shape is convenient, matching the
// reference corpus' tfdiags.Diagnostics.Append usage pattern.
func (d Diagnostics) Append(items ...any) Diagnostics {
	for _, item := range items {
		switch v := item.(type) {
		case nil:
			continue
		case Diagnostics:
			d = append(d, v...)
		case *Diagnostic:
			if v != nil {
				d = append(d, v)
			}
		case error:
			d = append(d, New(KindInvalidValue, v.Error(), ""))
		default:
			d = append(d, New(KindInvalidValue, fmt.Sprintf("%v", v), ""))
		}
	}
	return d
}

// HasErrors reports whether any collected diagnostic is error severity.
func (d Diagnostics) HasErrors() bool {
	for _, diag := range d {
		if diag.Severity == Error {
			return true
		}
	}
	return false
}

// Err collapses the collected diagnostics into a single error suitable for
// returning from a Go function signature, using go-multierror so each
// underlying diagnostic remains individually inspectable via
// (*multierror.Error).Errors / errors.As.
func (d Diagnostics) Err() error {
	if !d.HasErrors() {
		return nil
	}
	merr := &multierror.Error{}
	for _, diag := range d {
		if diag.Severity == Error {
			merr = multierror.Append(merr, diag)
		}
	}
	merr.ErrorFormat = listFormatFunc
	return merr
}

func listFormatFunc(es []error) string {
	if len(es) == 1 {
		return fmt.Sprintf("1 error occurred:\n\t* %s\n", es[0])
	}
	points := make([]string, len(es))
	for i, err := range es {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(es), strings.Join(points, "\n\t"))
}
