package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"mercator-hq/tailsim/pkg/cli"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		output   string
		wantExit bool
		wantOut  []string
	}{
		{
			name:    "configured file",
			args:    nil,
			output:  "text",
			wantOut: []string{"✓ testdata/policies.yaml: 2 policies", "errors", "status_code", "latency"},
		},
		{
			name:    "composite allocations",
			args:    []string{"testdata/composite.yaml"},
			output:  "text",
			wantOut: []string{"budget", "composite", "errors=500 spans/s", "everything=250 spans/s"},
		},
		{
			name:     "duplicate names",
			args:     []string{"testdata/duplicate.yaml"},
			output:   "text",
			wantExit: true,
			wantOut:  []string{"✗ testdata/duplicate.yaml", "duplicate policy name"},
		},
		{
			name:     "missing file",
			args:     []string{"testdata/missing.yaml"},
			output:   "json",
			wantExit: true,
			wantOut:  []string{`"valid": false`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, "testdata/policies.yaml", false)
			validateFlags.output = tt.output

			var buf bytes.Buffer
			err := runValidate(newTestCommand(context.Background(), &buf), tt.args)

			var exitErr *cli.ExitError
			if tt.wantExit {
				if !errors.As(err, &exitErr) || exitErr.Code != 1 {
					t.Errorf("runValidate() error = %v, want exit status 1", err)
				}
			} else if err != nil {
				t.Errorf("runValidate() error = %v", err)
			}

			for _, want := range tt.wantOut {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output does not contain %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestValidate_JSON(t *testing.T) {
	writeConfig(t, "testdata/policies.yaml", false)
	validateFlags.output = "json"
	defer func() { validateFlags.output = "text" }()

	var buf bytes.Buffer
	if err := runValidate(newTestCommand(context.Background(), &buf), []string{"testdata/composite.yaml"}); err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}

	var report validationReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if !report.Valid || len(report.Policies) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if got := report.Policies[0].Allocations["errors"]; got != 500 {
		t.Errorf("errors allocation = %d, want 500", got)
	}
}
