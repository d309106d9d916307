// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package diagnostics

import (
	"errors"
	"strings"
	"testing"
)

func TestAppendFlattensHeterogeneousInputs(t *testing.T) {
	var d Diagnostics
	d = d.Append(
		nil,
		New(KindInvalidValue, "bad value", ""),
		Diagnostics{New(KindInvalidGraph, "bad graph", "")},
		errors.New("plain error"),
	)
	if len(d) != 3 {
		t.Fatalf("expected 3 collected diagnostics, got %d: %v", len(d), d)
	}
	if d[0].Kind != KindInvalidValue {
		t.Errorf("d[0].Kind = %v, want %v", d[0].Kind, KindInvalidValue)
	}
	if d[1].Kind != KindInvalidGraph {
		t.Errorf("d[1].Kind = %v, want %v", d[1].Kind, KindInvalidGraph)
	}
	if d[2].Kind != KindInvalidValue || d[2].Summary != "plain error" {
		t.Errorf("d[2] = %+v, want a wrapped plain error", d[2])
	}
}

func TestHasErrorsIgnoresWarnings(t *testing.T) {
	d := Diagnostics{{Severity: Warning, Kind: KindInvalidValue, Summary: "just a warning"}}
	if d.HasErrors() {
		t.Error("a warning-only collection should not report HasErrors")
	}
	d = d.Append(New(KindInvalidValue, "an actual error", ""))
	if !d.HasErrors() {
		t.Error("expected HasErrors after appending an error-severity diagnostic")
	}
}

func TestErrCollapsesToMultierror(t *testing.T) {
	var d Diagnostics
	if err := d.Err(); err != nil {
		t.Errorf("Err() on an empty collection should be nil, got %v", err)
	}

	d = d.Append(New(KindInvalidValue, "first problem", ""), New(KindInvalidGraph, "second problem", ""))
	err := d.Err()
	if err == nil {
		t.Fatal("expected a non-nil error from a collection with errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "first problem") || !strings.Contains(msg, "second problem") {
		t.Errorf("collapsed error message missing a diagnostic: %s", msg)
	}
}

func TestDiagnosticErrorIncludesLocator(t *testing.T) {
	d := NewAt(KindInvalidValue, "bad input", "wrong type", SourceLocator{Line: 4, Column: 2})
	got := d.Error()
	if !strings.Contains(got, "line 4, column 2") {
		t.Errorf("Error() = %q, want it to mention the source location", got)
	}
}
