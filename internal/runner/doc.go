// Package runner executes feature files as a godog suite.
//
// A Runner composes the scenario tag expression for the active project,
// binds the fixture orchestrator and the step catalog to every scenario,
// runs the suite and reports a summary including the teardown counters.
//
// # Usage
//
//	cfg, _ := config.LoadConfig("")
//	r := runner.New(cfg, runner.WithSteps(mysteps.Register))
//	result, err := r.Run(ctx, runner.DefaultConfiguration())
//	if err == nil && !result.Passed() {
//	    os.Exit(1)
//	}
package runner
