package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/tailsim/pkg/audit"
	"mercator-hq/tailsim/pkg/cli"
	"mercator-hq/tailsim/pkg/sampling/engine"
	"mercator-hq/tailsim/pkg/sampling/source"
	"mercator-hq/tailsim/pkg/telemetry/health"
	"mercator-hq/tailsim/pkg/telemetry/logging"
	"mercator-hq/tailsim/pkg/tracemodel"
)

var simulateFlags struct {
	policies string
	output   string
	watch    bool
	listen   string
	progress bool
	noAudit  bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <trace-file|dir>...",
	Short: "Run sampling policies against recorded traces",
	Long: `Run every sampling policy against each trace and print the per-policy and
final decisions.

Each argument is an OTLP JSON file holding one trace, or a directory whose
*.json files are read in name order. When the audit log is enabled every
decision is also written to it.

With --watch the policy file is watched and the simulation is repeated after
every successful reload until the process is interrupted.

Examples:
  # Simulate a directory of traces
  tailsim simulate --policies policies.yaml traces/

  # JSON output for scripting
  tailsim simulate -p policies.yaml -o json trace.json

  # Keep re-running while editing the policies
  tailsim simulate --watch --listen :9090 traces/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateFlags.policies, "policies", "p", "", "policy file or directory (default: engine.policies_file)")
	simulateCmd.Flags().StringVarP(&simulateFlags.output, "output", "o", "text", "output format: text, json")
	simulateCmd.Flags().BoolVarP(&simulateFlags.watch, "watch", "w", false, "re-run the simulation whenever the policies change")
	simulateCmd.Flags().StringVar(&simulateFlags.listen, "listen", "", "serve health and metrics on this address while watching (default: telemetry.metrics.listen)")
	simulateCmd.Flags().BoolVar(&simulateFlags.progress, "progress", false, "report progress on stderr")
	simulateCmd.Flags().BoolVar(&simulateFlags.noAudit, "no-audit", false, "do not write decisions to the audit log")

	_ = simulateCmd.RegisterFlagCompletionFunc("policies", completePolicyFiles)
}

// simulationReport is the output of one simulation pass.
type simulationReport struct {
	PoliciesFile string         `json:"policies_file"`
	Policies     int            `json:"policies"`
	Results      []*traceResult `json:"results"`
	Summary      map[string]int `json:"summary"`
}

// traceResult is the outcome for one trace file. DecisionResult is nil when
// the file could not be read.
type traceResult struct {
	File     string `json:"file"`
	RecordID string `json:"record_id,omitempty"`
	Error    string `json:"error,omitempty"`
	*engine.DecisionResult
}

// RenderText implements cli.TextRenderer.
func (r *simulationReport) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "Policies: %d (%s)\n", r.Policies, r.PoliciesFile)
	fmt.Fprintln(w)

	if len(r.Results) == 0 {
		fmt.Fprintln(w, "No traces simulated.")
		return nil
	}

	for _, res := range r.Results {
		if res.DecisionResult == nil {
			fmt.Fprintf(w, "%s: invalid trace: %s\n", res.File, res.Error)
			continue
		}

		fmt.Fprintf(w, "%s: %s (trace %s, %d spans)\n", res.File, res.FinalDecision, res.TraceID, res.SpanCount)
		for _, name := range res.EvaluatedPolicies {
			fmt.Fprintf(w, "  %-24s %-14s", name, res.PolicyDecisions[name])
			if msg, ok := res.Errors[name]; ok {
				fmt.Fprintf(w, " %s", msg)
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w)
	_, err := fmt.Fprintf(w, "Summary: %d traces, %s\n", len(r.Results), formatSummary(r.Summary))
	return err
}

func formatSummary(summary map[string]int) string {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d %s", summary[k], k))
	}
	return strings.Join(parts, ", ")
}

// simulator runs the loaded traces through an engine.
type simulator struct {
	policiesFile string
	files        []string
	engine       *engine.Engine
	store        *audit.SQLiteStore
	recorder     *audit.Recorder
	progress     cli.ProgressReporter
	formatter    cli.Formatter
	out          io.Writer
	logger       *slog.Logger
}

func runSimulate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(simulateFlags.output)
	if err != nil {
		return err
	}

	files, err := collectTraceFiles(args)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	c, err := newComponents(cmd)
	if err != nil {
		return err
	}
	defer c.Close(context.Background())

	sim := &simulator{
		policiesFile: c.cfg.Engine.PoliciesFile,
		files:        files,
		formatter:    cli.NewFormatter(format),
		out:          cmd.OutOrStdout(),
		logger:       c.logger,
	}
	if simulateFlags.policies != "" {
		sim.policiesFile = simulateFlags.policies
	}
	if simulateFlags.progress {
		sim.progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}

	if c.cfg.Audit.Enabled && !simulateFlags.noAudit {
		store, err := c.openAuditStore()
		if err != nil {
			return cli.NewCommandError("simulate", err)
		}
		defer store.Close()

		sim.store = store
		sim.recorder = audit.NewRecorder(store, nil, c.logger)
		defer sim.recorder.Close()
	}

	src := source.NewFileSource(sim.policiesFile, c.logger)
	ctx := cmd.Context()

	if simulateFlags.watch {
		sigCtx, stop := cli.SetupSignalHandler()
		defer stop()

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		context.AfterFunc(sigCtx, cancel)

		return sim.watch(watchCtx, c, src)
	}

	cfgs, err := source.LoadNonEmpty(ctx, src)
	if err != nil {
		return cli.NewCommandError("simulate", fmt.Errorf("failed to load policies from %s: %w", sim.policiesFile, err))
	}

	eng, err := engine.New(c.engineConfig(), c.logger)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	defer eng.Close()

	if err := eng.LoadPolicyConfigs(cfgs); err != nil {
		return cli.NewCommandError("simulate", err)
	}
	sim.engine = eng

	return sim.runOnce(ctx)
}

// watch simulates after the initial load and after every successful reload
// until ctx is cancelled.
func (s *simulator) watch(ctx context.Context, c *components, src *source.FileSource) error {
	reloaded := make(chan struct{}, 1)
	ecfg := c.engineConfig().WithOnReload(func(loaded int, err error) {
		if err != nil {
			return
		}
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	eng, err := engine.NewWithSource(ctx, ecfg, src, c.logger)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	defer eng.Close()
	s.engine = eng

	addr := c.cfg.Telemetry.Metrics.Listen
	if simulateFlags.listen != "" {
		addr = simulateFlags.listen
	}
	if addr != "" {
		srv := s.serveHealth(addr, c)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn("health server shutdown failed", "error", err)
			}
		}()
	}

	if s.store != nil {
		pruner := audit.NewPruner(s.store, c.retention(), s.logger)
		if err := pruner.Start(ctx); err != nil {
			return cli.NewCommandError("simulate", err)
		}
		defer pruner.Stop()
	}

	s.logger.Info("watching policies",
		"path", src.Path(),
		"trace_files", len(s.files),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watch stopped")
			return nil
		case <-reloaded:
			if err := s.runOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *simulator) serveHealth(addr string, c *components) *http.Server {
	checker := health.New(5 * time.Second)
	checker.RegisterCheck("policies", health.PoliciesLoaded(func() int {
		return len(s.engine.Policies())
	}))
	if s.store != nil {
		checker.RegisterCheck("audit", health.Reachable(s.store))
	}

	info := health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		GoVersion: runtime.Version(),
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           health.NewMux(checker, info, c.cfg.Telemetry.Metrics.Path, c.metrics.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("serving health and metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health server failed", "addr", addr, "error", err)
		}
	}()
	return srv
}

func (s *simulator) runOnce(ctx context.Context) error {
	report := s.simulate(ctx)
	return s.formatter.FormatTo(s.out, report)
}

func (s *simulator) simulate(ctx context.Context) *simulationReport {
	report := &simulationReport{
		PoliciesFile: s.policiesFile,
		Policies:     len(s.engine.Policies()),
		Summary:      make(map[string]int),
	}

	if s.progress != nil {
		s.progress.Start(len(s.files))
		defer s.progress.Finish()
	}

	for _, path := range s.files {
		if ctx.Err() != nil {
			break
		}

		res := s.simulateFile(ctx, path)
		report.Results = append(report.Results, res)

		outcome := "invalid"
		if res.DecisionResult != nil {
			outcome = res.FinalDecision.String()
		}
		report.Summary[outcome]++

		if s.progress != nil {
			s.progress.Observe(outcome)
		}
	}

	return report
}

func (s *simulator) simulateFile(ctx context.Context, path string) *traceResult {
	result := &traceResult{File: path}

	t, err := readTrace(path)
	if err != nil {
		s.logger.Warn("skipping unreadable trace file", "path", path, "error", err)
		result.Error = err.Error()
		return result
	}

	ctx = logging.WithTraceID(ctx, t.TraceID())
	res := s.engine.MakeDecision(ctx, t)
	result.DecisionResult = res

	if s.recorder != nil {
		id, err := s.recorder.Record(ctx, res)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to record decision", "error", err)
		} else {
			result.RecordID = id
		}
	}

	return result
}

func readTrace(path string) (*tracemodel.Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return tracemodel.UnmarshalJSON(data)
}

// collectTraceFiles expands directories into their *.json files.
func collectTraceFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no *.json trace files in %s", arg)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}
