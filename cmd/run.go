package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"bddkit/internal/runner"
)

// ErrScenariosFailed is returned by "bddkit run" when the suite did not pass.
var ErrScenariosFailed = errors.New("some scenarios failed")

type runOptions struct {
	project       string
	tags          string
	format        string
	concurrency   int
	strict        bool
	stopOnFailure bool
	noColors      bool
	timeout       time.Duration
	reportPath    string
	metricsOut    string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	defaults := runner.DefaultConfiguration()

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run feature files",
		Long: `Run executes Gherkin feature files with the built-in step catalog.

Scenarios are selected by the active project's tag, excluding @Skip and
@ignore. Extra tags narrow the selection further.

Example usage:
  bddkit run                                 # Run ./features for the configured project
  bddkit run features/teams.feature          # Run a single file
  bddkit run --project=ui                    # Run browser scenarios
  bddkit run --tags=smoke,critical           # Only @smoke or @critical scenarios
  bddkit run --tags="@smoke and not @slow"   # Any tag expression
  bddkit run --concurrency=4                 # Run 4 scenarios at once
  bddkit run --metrics-out=cleanup.prom      # Write teardown counters

Resources registered for cleanup are deleted after each scenario using an
admin token that is fetched once and shared by all scenarios.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatures(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.project, "project", "", "Project whose scenarios are run (default: configured project)")
	cmd.Flags().StringVar(&opts.tags, "tags", "", "Extra tags: a comma list or a tag expression")
	cmd.Flags().StringVar(&opts.format, "format", defaults.Format, "Output format (pretty, progress, cucumber, events, junit; name:path writes to a file)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", defaults.Concurrency, "Number of scenarios run concurrently")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on undefined or pending steps")
	cmd.Flags().BoolVar(&opts.stopOnFailure, "stop-on-failure", false, "Stop at the first failing scenario")
	cmd.Flags().BoolVar(&opts.noColors, "no-colors", false, "Disable colored output")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Overall run timeout")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Path to save a JSON run summary")
	cmd.Flags().StringVar(&opts.metricsOut, "metrics-out", "", "Path to write cleanup metrics in Prometheus text format")
	_ = cmd.RegisterFlagCompletionFunc("project", completeProjectFlag)

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if opts.concurrency < 1 || opts.concurrency > 64 {
			return fmt.Errorf("concurrency must be between 1 and 64, got %d", opts.concurrency)
		}
		return nil
	}

	return cmd
}

func runFeatures(cmd *cobra.Command, args []string, opts *runOptions) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupts gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt signal, stopping gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	c := runner.DefaultConfiguration()
	if len(args) > 0 {
		c.Paths = args
	}
	c.Project = opts.project
	c.Tags = opts.tags
	c.Format = opts.format
	c.Concurrency = opts.concurrency
	c.Strict = opts.strict
	c.StopOnFailure = opts.stopOnFailure
	c.NoColors = opts.noColors
	c.Timeout = opts.timeout
	c.ReportPath = opts.reportPath

	r := runner.New(loadedConfig, runner.WithOutput(cmd.OutOrStdout()))
	result, err := r.Run(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to run features: %w", err)
	}

	if opts.metricsOut != "" {
		if err := prometheus.WriteToTextfile(opts.metricsOut, r.Metrics().Registry()); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if !result.Passed() {
		return ErrScenariosFailed
	}
	return nil
}
