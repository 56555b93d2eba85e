package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"

	"bddkit/internal/cleanup"
	"bddkit/internal/config"
	"bddkit/internal/fixture"
	"bddkit/internal/steps"
	"bddkit/internal/tags"
	"bddkit/pkg/logging"
)

// Runner runs suites against one configuration. The orchestrator, and with
// it the admin credential cache, lives as long as the Runner.
type Runner struct {
	cfg          config.Config
	factories    fixture.Factories
	initializers []func(*godog.ScenarioContext)
	out          io.Writer
	orchestrator *fixture.Orchestrator
}

// Option configures a Runner.
type Option func(*Runner)

// WithFactories replaces fixture factories; nil fields keep the defaults.
func WithFactories(f fixture.Factories) Option {
	return func(r *Runner) {
		r.factories = f
	}
}

// WithSteps registers additional step definitions after the catalog.
func WithSteps(fns ...func(*godog.ScenarioContext)) Option {
	return func(r *Runner) {
		r.initializers = append(r.initializers, fns...)
	}
}

// WithOutput sets where formatter output and the summary go.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// New creates a Runner
func New(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}
	r.orchestrator = fixture.New(cfg, r.factories)
	return r
}

// Orchestrator returns the fixture orchestrator bound to every scenario.
func (r *Runner) Orchestrator() *fixture.Orchestrator {
	return r.orchestrator
}

// Metrics returns the teardown counters accumulated across runs.
func (r *Runner) Metrics() *cleanup.Metrics {
	return r.orchestrator.Engine().Metrics()
}

// TagExpression composes the godog tag filter for c. The project is looked
// up by name; a name starting with "@" is used as the tag directly.
func (r *Runner) TagExpression(c Configuration) (string, error) {
	project := c.Project
	if project == "" {
		project = r.cfg.Project
	}

	var projectTag string
	for _, p := range r.cfg.Projects {
		if p.Name == project {
			projectTag = p.Tag
			break
		}
	}
	if projectTag == "" {
		if !strings.HasPrefix(project, "@") {
			return "", fmt.Errorf("unknown project %q", project)
		}
		projectTag = project
	}

	extra := c.Tags
	if extra == "" {
		extra = r.cfg.Tags
	}
	return tags.ForProject(tags.Options{
		ProjectTag: projectTag,
		ExtraTags:  tags.ResolveExtraTags(extra),
	}), nil
}

// Run executes the suite. An error means the suite could not be started;
// scenario failures are reported through Result.Status.
func (r *Runner) Run(ctx context.Context, c Configuration) (*Result, error) {
	if err := ValidateConfiguration(c); err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}
	expr, err := r.TagExpression(c)
	if err != nil {
		return nil, err
	}
	filter, err := tags.ToGodog(expr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	reporter := NewReporter(r.out, c.ReportPath)
	reporter.ReportStart(c, expr)
	logging.Debug("Runner", "Running %v with tags %q (godog filter %q)", c.Paths, expr, filter)

	out := colors.Colored(r.out)
	if c.NoColors {
		out = colors.Uncolored(r.out)
	}

	var selected atomic.Int64
	suite := godog.TestSuite{
		Name: "bddkit",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				selected.Add(1)
				return ctx, nil
			})
			r.orchestrator.Bind(sc)
			steps.Register(sc)
			for _, fn := range r.initializers {
				fn(sc)
			}
		},
		Options: &godog.Options{
			Format:         c.Format,
			Paths:          c.Paths,
			Tags:           filter,
			Concurrency:    c.Concurrency,
			Strict:         c.Strict,
			StopOnFailure:  c.StopOnFailure,
			NoColors:       c.NoColors,
			Output:         out,
			DefaultContext: ctx,
		},
	}

	result := &Result{
		TagExpression: expr,
		Filter:        filter,
		StartTime:     time.Now(),
		Configuration: c,
	}
	result.Status = suite.Run()
	result.Duration = time.Since(result.StartTime)
	result.Scenarios = int(selected.Load())

	if result.Scenarios == 0 && result.Status == 0 {
		logging.Warn("Runner", "No scenarios in %v matched tags %q", c.Paths, expr)
		if c.Strict {
			result.Status = 1
		}
	}

	summary, err := r.Metrics().Summary()
	if err != nil {
		logging.WarnErr("Runner", err, "Failed to read cleanup metrics")
	}
	result.Cleanup = summary

	reporter.ReportResult(result)
	return result, nil
}
