package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/tailsim/pkg/cli"
	"mercator-hq/tailsim/pkg/sampling"
	"mercator-hq/tailsim/pkg/sampling/engine"
	"mercator-hq/tailsim/pkg/sampling/source"
)

var validateFlags struct {
	output string
}

var validateCmd = &cobra.Command{
	Use:   "validate [policy-file|dir]",
	Short: "Validate sampling policies",
	Long: `Load and build the sampling policies without evaluating any trace.

The command exits with status 1 when the policies cannot be decoded or built,
for example on duplicate names, unknown status codes, missing sub-policies or
more policies than engine.max_policies allows.

Examples:
  # Validate the configured policy file
  tailsim validate

  # Validate a specific file with JSON output
  tailsim validate policies.yaml -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format: text, json")
	validateCmd.ValidArgsFunction = completePolicyFiles
}

// validationReport describes a validated policy file.
type validationReport struct {
	Path     string          `json:"path"`
	Valid    bool            `json:"valid"`
	Policies []policySummary `json:"policies,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type policySummary struct {
	Name        string              `json:"name"`
	Type        sampling.PolicyType `json:"type"`
	Allocations map[string]int64    `json:"allocations,omitempty"`
}

// allocator is implemented by composite evaluators.
type allocator interface {
	Allocations() map[string]int64
}

// RenderText implements cli.TextRenderer.
func (r *validationReport) RenderText(w io.Writer) error {
	if !r.Valid {
		_, err := fmt.Fprintf(w, "✗ %s: %s\n", r.Path, r.Error)
		return err
	}

	fmt.Fprintf(w, "✓ %s: %d policies\n", r.Path, len(r.Policies))
	for _, p := range r.Policies {
		fmt.Fprintf(w, "  %-24s %s", p.Name, p.Type)
		if len(p.Allocations) > 0 {
			fmt.Fprintf(w, " (%s)", formatAllocations(p.Allocations))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func formatAllocations(allocs map[string]int64) string {
	names := make([]string, 0, len(allocs))
	for name := range allocs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d spans/s", name, allocs[name]))
	}
	return strings.Join(parts, ", ")
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.output)
	if err != nil {
		return err
	}

	c, err := newComponents(cmd)
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	path := c.cfg.Engine.PoliciesFile
	if len(args) == 1 {
		path = args[0]
	}

	report := validatePolicies(cmd.Context(), c, path)
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Valid {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

func validatePolicies(ctx context.Context, c *components, path string) *validationReport {
	report := &validationReport{Path: path}

	cfgs, err := source.LoadNonEmpty(ctx, source.NewFileSource(path, c.logger))
	if err != nil {
		report.Error = err.Error()
		return report
	}

	eng, err := engine.New(c.engineConfig(), c.logger)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	defer eng.Close()

	if err := eng.LoadPolicyConfigs(cfgs); err != nil {
		report.Error = err.Error()
		return report
	}

	report.Valid = true
	for _, p := range eng.Policies() {
		summary := policySummary{Name: p.Name, Type: p.Type}
		if a, ok := p.Evaluator.(allocator); ok {
			summary.Allocations = a.Allocations()
		}
		report.Policies = append(report.Policies, summary)
	}
	return report
}
