package steps

import (
	"context"
	"strings"

	"github.com/cucumber/godog"

	"bddkit/internal/world"
)

func registerAuthSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I am logged in as admin via the API$`, func(ctx context.Context) error {
		fx, err := fixtures(ctx)
		if err != nil {
			return err
		}
		return fx.Auth.APILoginAsAdmin(ctx, fx.World)
	})
	sc.Step(`^I am logged in as a user via the API$`, func(ctx context.Context) error {
		fx, err := fixtures(ctx)
		if err != nil {
			return err
		}
		return fx.Auth.APILoginAsUser(ctx, fx.World)
	})
	sc.Step(`^I am logged in as admin in the browser$`, func(ctx context.Context) error {
		fx, err := fixtures(ctx)
		if err != nil {
			return err
		}
		return fx.Auth.UILoginAsAdmin(ctx)
	})
}

func registerCleanupSteps(sc *godog.ScenarioContext) {
	sc.Step(`^cleanup is skipped$`, func(ctx context.Context) error {
		fx, err := fixtures(ctx)
		if err != nil {
			return err
		}
		fx.World.SkipCleanup = true
		return nil
	})
	sc.Step(`^I register cleanup (DELETE|POST|PATCH|PUT) "([^"]*)"$`, func(ctx context.Context, method, path string) error {
		fx, err := fixtures(ctx)
		if err != nil {
			return err
		}
		fx.Cleanup.Register(fx.World, world.CleanupItem{
			Method: strings.ToUpper(method),
			Path:   expand(fx, path),
		})
		return nil
	})
}
