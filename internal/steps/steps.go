// Package steps is the built-in step catalog. Register binds every step to
// a godog scenario; steps reach the scenario's adapters through
// fixture.FromContext, so the orchestrator must be bound first.
//
// Quoted arguments are interpolated against the World's variables before
// use, so "/teams/{teamId}" resolves to the id saved earlier in the
// scenario.
package steps

import (
	"context"
	"errors"
	"strings"

	"github.com/cucumber/godog"

	"bddkit/internal/fixture"
	"bddkit/internal/vars"
)

var (
	ErrNoResponse = errors.New("no response recorded; send a request first")
	ErrNoUI       = errors.New("this scenario has no UI adapter")
	ErrNoTUI      = errors.New("this scenario has no terminal adapter; configure a TUI factory")
)

// Register adds the API, auth, cleanup, UI and TUI steps to sc.
func Register(sc *godog.ScenarioContext) {
	registerAPISteps(sc)
	registerAuthSteps(sc)
	registerCleanupSteps(sc)
	registerUISteps(sc)
	registerTUISteps(sc)
}

func fixtures(ctx context.Context) (*fixture.Fixtures, error) {
	return fixture.FromContext(ctx)
}

// expand interpolates s against the scenario's variables.
func expand(fx *fixture.Fixtures, s string) string {
	return vars.Interpolate(s, fx.World.Vars)
}

// splitList splits "a, b, c" into trimmed non-empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
