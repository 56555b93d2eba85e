package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"bddkit/internal/fixture"
)

const defaultScreenTimeout = 5 * time.Second

func registerUISteps(sc *godog.ScenarioContext) {
	sc.Step(`^I open "([^"]*)"$`, func(ctx context.Context, path string) error {
		fx, err := uiFixtures(ctx)
		if err != nil {
			return err
		}
		return fx.UI.Goto(ctx, expand(fx, path))
	})
	sc.Step(`^I click "([^"]*)"$`, func(ctx context.Context, selector string) error {
		fx, err := uiFixtures(ctx)
		if err != nil {
			return err
		}
		return fx.UI.Click(ctx, expand(fx, selector))
	})
	sc.Step(`^I fill "([^"]*)" with "([^"]*)"$`, func(ctx context.Context, selector, value string) error {
		fx, err := uiFixtures(ctx)
		if err != nil {
			return err
		}
		return fx.UI.Fill(ctx, expand(fx, selector), expand(fx, value))
	})
	sc.Step(`^"([^"]*)" should be visible$`, func(ctx context.Context, selector string) error {
		fx, err := uiFixtures(ctx)
		if err != nil {
			return err
		}
		return fx.UI.WaitVisible(ctx, expand(fx, selector))
	})
	sc.Step(`^"([^"]*)" should contain the text "([^"]*)"$`, func(ctx context.Context, selector, text string) error {
		fx, err := uiFixtures(ctx)
		if err != nil {
			return err
		}
		got, err := fx.UI.Text(ctx, expand(fx, selector))
		if err != nil {
			return err
		}
		if want := expand(fx, text); !strings.Contains(got, want) {
			return fmt.Errorf("expected %q to contain %q, got %q", selector, want, got)
		}
		return nil
	})
	sc.Step(`^the page URL should contain "([^"]*)"$`, func(ctx context.Context, fragment string) error {
		fx, err := uiFixtures(ctx)
		if err != nil {
			return err
		}
		u, err := fx.UI.URL(ctx)
		if err != nil {
			return err
		}
		if want := expand(fx, fragment); !strings.Contains(u, want) {
			return fmt.Errorf("expected page URL to contain %q, got %q", want, u)
		}
		return nil
	})
}

func uiFixtures(ctx context.Context) (*fixture.Fixtures, error) {
	fx, err := fixtures(ctx)
	if err != nil {
		return nil, err
	}
	if fx.UI == nil {
		return nil, ErrNoUI
	}
	return fx, nil
}

func registerTUISteps(sc *godog.ScenarioContext) {
	sc.Step(`^the terminal app is running$`, func(ctx context.Context) error {
		fx, err := tuiFixtures(ctx)
		if err != nil {
			return err
		}
		if fx.TUI.IsRunning() {
			return nil
		}
		return fx.TUI.Start(ctx)
	})
	sc.Step(`^I press "([^"]*)"$`, func(ctx context.Context, keys string) error {
		fx, err := tuiFixtures(ctx)
		if err != nil {
			return err
		}
		return fx.TUI.Press(ctx, splitList(expand(fx, keys))...)
	})
	sc.Step(`^I type "([^"]*)"$`, func(ctx context.Context, text string) error {
		fx, err := tuiFixtures(ctx)
		if err != nil {
			return err
		}
		return fx.TUI.Type(ctx, expand(fx, text))
	})
	sc.Step(`^the screen should show "([^"]*)"$`, func(ctx context.Context, text string) error {
		fx, err := tuiFixtures(ctx)
		if err != nil {
			return err
		}
		return fx.TUI.WaitForText(ctx, expand(fx, text), defaultScreenTimeout)
	})
	sc.Step(`^the screen should show "([^"]*)" within (\d+) seconds?$`, func(ctx context.Context, text string, seconds int) error {
		fx, err := tuiFixtures(ctx)
		if err != nil {
			return err
		}
		return fx.TUI.WaitForText(ctx, expand(fx, text), time.Duration(seconds)*time.Second)
	})
	sc.Step(`^I stop the terminal app$`, func(ctx context.Context) error {
		fx, err := tuiFixtures(ctx)
		if err != nil {
			return err
		}
		return fx.TUI.Stop(ctx)
	})
}

func tuiFixtures(ctx context.Context) (*fixture.Fixtures, error) {
	fx, err := fixtures(ctx)
	if err != nil {
		return nil, err
	}
	if fx.TUI == nil {
		return nil, ErrNoTUI
	}
	return fx, nil
}
