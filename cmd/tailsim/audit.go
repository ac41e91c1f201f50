package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/tailsim/pkg/audit"
	"mercator-hq/tailsim/pkg/cli"
)

var auditFlags struct {
	since      string
	until      string
	traceID    string
	runID      string
	decision   string
	policy     string
	errorsOnly bool
	limit      int
	offset     int
	sort       string
	format     string
	output     string
	olderThan  time.Duration
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the decision log",
	Long: `Query and maintain the decision log written by simulate.

Subcommands:
  list    - List recorded decisions with filters
  prune   - Remove old decisions`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded decisions",
	Long: `List recorded decisions, newest first.

Time Flags:
  --since and --until accept an RFC3339 timestamp or a duration that is
  subtracted from the current time, e.g. "24h".

Examples:
  # Dropped traces from the last day
  tailsim audit list --decision dropped --since 24h

  # Decisions where a policy failed
  tailsim audit list --errors-only

  # Export everything a policy touched as CSV
  tailsim audit list --policy errors --format csv -o errors.csv`,
	Args: cobra.NoArgs,
	RunE: listDecisions,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old decisions",
	Long: `Remove decisions from the audit log.

Without --older-than the configured retention (audit.retention_days and
audit.max_records) is applied.

Examples:
  # Apply configured retention
  tailsim audit prune

  # Remove decisions older than a week
  tailsim audit prune --older-than 168h`,
	Args: cobra.NoArgs,
	RunE: pruneDecisions,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditPruneCmd)

	auditListCmd.Flags().StringVar(&auditFlags.since, "since", "", "only decisions evaluated at or after this time")
	auditListCmd.Flags().StringVar(&auditFlags.until, "until", "", "only decisions evaluated at or before this time")
	auditListCmd.Flags().StringVar(&auditFlags.traceID, "trace-id", "", "filter by trace ID")
	auditListCmd.Flags().StringVar(&auditFlags.runID, "run-id", "", "filter by decision run ID")
	auditListCmd.Flags().StringVar(&auditFlags.decision, "decision", "", "filter by final decision (sampled, not_sampled, dropped)")
	auditListCmd.Flags().StringVar(&auditFlags.policy, "policy", "", "filter by evaluated policy name")
	auditListCmd.Flags().BoolVar(&auditFlags.errorsOnly, "errors-only", false, "only decisions with a failed policy")
	auditListCmd.Flags().IntVar(&auditFlags.limit, "limit", audit.DefaultQueryLimit, "max results")
	auditListCmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	auditListCmd.Flags().StringVar(&auditFlags.sort, "sort", "desc", "sort order on evaluation time: asc, desc")
	auditListCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")
	auditListCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")

	_ = auditListCmd.RegisterFlagCompletionFunc("decision", completeDecisions)

	auditPruneCmd.Flags().DurationVar(&auditFlags.olderThan, "older-than", 0, "remove decisions evaluated before now minus this duration")
}

// parseTimeFlag accepts an RFC3339 timestamp or a duration before now.
func parseTimeFlag(name, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return nil, cli.NewConfigError(name, fmt.Sprintf("%q is neither an RFC3339 time nor a duration", value))
	}
	t := now.Add(-d)
	return &t, nil
}

func buildAuditQuery(now time.Time) (*audit.Query, error) {
	start, err := parseTimeFlag("since", auditFlags.since, now)
	if err != nil {
		return nil, err
	}
	end, err := parseTimeFlag("until", auditFlags.until, now)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, cli.NewConfigError("since", "must not be after --until")
	}

	switch auditFlags.sort {
	case "asc", "desc":
	default:
		return nil, cli.NewConfigError("sort", fmt.Sprintf("unsupported sort order %q (want asc or desc)", auditFlags.sort))
	}

	return &audit.Query{
		StartTime:     start,
		EndTime:       end,
		RunID:         auditFlags.runID,
		TraceID:       auditFlags.traceID,
		FinalDecision: auditFlags.decision,
		Policy:        auditFlags.policy,
		ErrorsOnly:    auditFlags.errorsOnly,
		Limit:         auditFlags.limit,
		Offset:        auditFlags.offset,
		SortOrder:     auditFlags.sort,
	}, nil
}

// recordList is the text view of an audit query.
type recordList struct {
	Records []*audit.Record
	Total   int64
	Offset  int
}

// RenderText implements cli.TextRenderer.
func (l *recordList) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Total records: %d\n", l.Total)
	fmt.Fprintln(w)

	if len(l.Records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}

	for i, rec := range l.Records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Record ID: %s\n", rec.ID)
		fmt.Fprintf(w, "Evaluated: %s (%s)\n", rec.EvaluatedAt.Format(time.RFC3339), rec.Duration)
		fmt.Fprintf(w, "Trace ID: %s (%d spans)\n", rec.TraceID, rec.SpanCount)
		fmt.Fprintf(w, "Decision: %s\n", rec.FinalDecision)
		for _, name := range rec.EvaluatedPolicies {
			fmt.Fprintf(w, "  %-24s %s\n", name, rec.PolicyDecisions[name])
		}
		if rec.HasErrors() {
			names := make([]string, 0, len(rec.Errors))
			for name := range rec.Errors {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "  error in %s: %s\n", name, rec.Errors[name])
			}
		}
	}

	if remaining := l.Total - int64(l.Offset) - int64(len(l.Records)); remaining > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "... and %d more records\n", remaining)
		fmt.Fprintln(w, "Use --limit and --offset for pagination.")
	}
	return nil
}

func listDecisions(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(auditFlags.format)
	switch format {
	case "", "text", "json", "csv":
	default:
		return cli.NewConfigError("format", fmt.Sprintf("unsupported format %q (want text, json or csv)", auditFlags.format))
	}

	query, err := buildAuditQuery(time.Now().UTC())
	if err != nil {
		return err
	}

	c, err := newComponents(cmd)
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	store, err := c.openAuditStore()
	if err != nil {
		return cli.NewCommandError("audit list", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit list", err)
	}

	var output io.Writer = cmd.OutOrStdout()
	if auditFlags.output != "" {
		f, err := os.Create(auditFlags.output)
		if err != nil {
			return cli.NewCommandError("audit list", fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		output = f
	}

	if format == "" || format == "text" {
		total, err := store.Count(ctx, query)
		if err != nil {
			return cli.NewCommandError("audit list", err)
		}
		list := &recordList{Records: records, Total: total, Offset: query.Offset}
		return cli.NewFormatter(cli.FormatText).FormatTo(output, list)
	}

	exporter, err := audit.NewExporter(format, true)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	return exporter.Export(ctx, records, output)
}

func pruneDecisions(cmd *cobra.Command, args []string) error {
	if auditFlags.olderThan < 0 {
		return cli.NewConfigError("older-than", "must not be negative")
	}

	c, err := newComponents(cmd)
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	store, err := c.openAuditStore()
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}
	defer store.Close()

	pruner := audit.NewPruner(store, c.retention(), c.logger)

	var deleted int64
	if auditFlags.olderThan > 0 {
		deleted, err = pruner.PruneBefore(cmd.Context(), time.Now().Add(-auditFlags.olderThan))
	} else {
		deleted, err = pruner.Prune(cmd.Context())
	}
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d decision records\n", deleted)
	return err
}
