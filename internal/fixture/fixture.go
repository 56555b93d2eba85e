// Package fixture builds the per-scenario adapter graph and tears it down.
//
// An Orchestrator is created once per process. For every scenario it builds
// Fixtures in dependency order (Transport, API, Cleanup, UI, Auth, World,
// TUI) from overridable factories, and after the scenario it runs the
// cleanup engine on the World's queue and stops what the scenario started.
// The admin credential cache behind cleanup is shared by all scenarios.
package fixture

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"time"

	"github.com/cucumber/godog"

	"bddkit/internal/adapters"
	"bddkit/internal/adapters/browser"
	"bddkit/internal/cleanup"
	"bddkit/internal/config"
	"bddkit/internal/ports"
	"bddkit/internal/transport"
	"bddkit/internal/world"
	"bddkit/pkg/logging"
)

const teardownTimeout = 30 * time.Second

// ErrNoFixtures is returned when a context carries no Fixtures.
var ErrNoFixtures = errors.New("no fixtures in context; is the orchestrator bound to this scenario?")

// Factories build each node of the graph. Nil fields use the defaults.
type Factories struct {
	Transport func(cfg config.Config) transport.Requester
	API       func(cfg config.Config, r transport.Requester) ports.API
	Cleanup   func(cfg config.Config, r transport.Requester) ports.Cleanup
	UI        func(cfg config.Config) ports.UI
	Auth      func(cfg config.Config, api ports.API, ui ports.UI) ports.Auth
	World     func(r transport.Requester) *world.World
	// TUI may return nil; the default does.
	TUI func(cfg config.Config) ports.TUI
}

// DefaultFactories returns the production graph: HTTP transport, rule-based
// cleanup, a lazily launched browser and no TUI.
func DefaultFactories() Factories {
	return Factories{
		Transport: func(cfg config.Config) transport.Requester {
			return transport.New(transport.ResolveBaseURL(cfg))
		},
		API: func(_ config.Config, r transport.Requester) ports.API {
			return adapters.NewAPIAdapter(r)
		},
		Cleanup: func(cfg config.Config, _ transport.Requester) ports.Cleanup {
			return adapters.NewRuleCleanup(cfg)
		},
		UI: func(cfg config.Config) ports.UI {
			return browser.New(cfg)
		},
		Auth: func(cfg config.Config, api ports.API, ui ports.UI) ports.Auth {
			return adapters.NewAuthAdapter(api, ui, cfg)
		},
		World: func(transport.Requester) *world.World {
			return world.New()
		},
		TUI: func(config.Config) ports.TUI {
			return nil
		},
	}
}

func (f Factories) withDefaults() Factories {
	d := DefaultFactories()
	if f.Transport == nil {
		f.Transport = d.Transport
	}
	if f.API == nil {
		f.API = d.API
	}
	if f.Cleanup == nil {
		f.Cleanup = d.Cleanup
	}
	if f.UI == nil {
		f.UI = d.UI
	}
	if f.Auth == nil {
		f.Auth = d.Auth
	}
	if f.World == nil {
		f.World = d.World
	}
	if f.TUI == nil {
		f.TUI = d.TUI
	}
	return f
}

// Orchestrator creates Fixtures for scenarios.
type Orchestrator struct {
	cfg       config.Config
	factories Factories
	engine    *cleanup.Engine
}

// New returns an Orchestrator with its own credential cache and cleanup
// engine.
func New(cfg config.Config, factories Factories) *Orchestrator {
	cache := cleanup.NewCredentialCache(cfg.LoginPath, cfg.Admin)
	return &Orchestrator{
		cfg:       cfg,
		factories: factories.withDefaults(),
		engine:    cleanup.NewEngine(cache),
	}
}

// Config returns the configuration fixtures are built from.
func (o *Orchestrator) Config() config.Config {
	return o.cfg
}

// Engine returns the shared cleanup engine.
func (o *Orchestrator) Engine() *cleanup.Engine {
	return o.engine
}

// Fixtures is the adapter graph for one scenario.
type Fixtures struct {
	Config    config.Config
	Transport transport.Requester
	API       ports.API
	Cleanup   ports.Cleanup
	UI        ports.UI
	Auth      ports.Auth
	World     *world.World
	// TUI is nil unless a TUI factory provided one.
	TUI ports.TUI

	engine       *cleanup.Engine
	teardownOnce sync.Once
	report       cleanup.Report
}

// Setup builds a fresh graph.
func (o *Orchestrator) Setup(ctx context.Context) (*Fixtures, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := o.factories
	fx := &Fixtures{Config: o.cfg, engine: o.engine}

	fx.Transport = f.Transport(o.cfg)
	if fx.Transport == nil {
		return nil, errors.New("transport factory returned nil")
	}
	fx.API = f.API(o.cfg, fx.Transport)
	fx.Cleanup = f.Cleanup(o.cfg, fx.Transport)
	if ui := f.UI(o.cfg); !isNil(ui) {
		fx.UI = ui
	}
	fx.Auth = f.Auth(o.cfg, fx.API, fx.UI)
	fx.World = f.World(fx.Transport)
	if fx.API == nil || fx.Cleanup == nil || fx.Auth == nil || fx.World == nil {
		return nil, errors.New("fixture factory returned nil")
	}
	if tui := f.TUI(o.cfg); !isNil(tui) {
		fx.TUI = tui
	}

	logging.Debug("Fixture", "Fixtures ready (run %s, tui=%t)", fx.World.RunID, fx.TUI != nil)
	return fx, nil
}

// isNil reports whether v is nil or an interface holding a nil pointer,
// such as a (*terminal.Adapter)(nil) returned as ports.TUI.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Teardown runs cleanup, stops a running TUI and closes the UI. It runs at
// most once; later calls return the first report. Failures are logged and
// never returned.
func (fx *Fixtures) Teardown(ctx context.Context) cleanup.Report {
	fx.teardownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()

		fx.report = fx.engine.Run(ctx, fx.Transport, fx.World)
		logReport(fx.report)

		if fx.TUI != nil && fx.TUI.IsRunning() {
			if err := fx.TUI.Stop(ctx); err != nil {
				logging.WarnErr("Fixture", err, "Failed to stop terminal program")
			}
		}

		if closer, ok := fx.UI.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logging.WarnErr("Fixture", err, "Failed to close browser")
			}
		}
	})
	return fx.report
}

func logReport(r cleanup.Report) {
	if r.Skipped || len(r.Items) == 0 {
		return
	}
	counts := map[cleanup.Outcome]int{}
	for _, item := range r.Items {
		counts[item.Outcome]++
	}
	logging.Debug("Fixture", "Cleanup finished: %d item(s), %d deleted, %d already gone, %d not removed",
		len(r.Items), counts[cleanup.OutcomeDeleted], counts[cleanup.OutcomeAlreadyGone],
		len(r.Items)-counts[cleanup.OutcomeDeleted]-counts[cleanup.OutcomeAlreadyGone])
}

type contextKey struct{}

// NewContext returns ctx carrying fx.
func NewContext(ctx context.Context, fx *Fixtures) context.Context {
	return context.WithValue(ctx, contextKey{}, fx)
}

// FromContext returns the Fixtures stored by Bind.
func FromContext(ctx context.Context) (*Fixtures, error) {
	fx, ok := ctx.Value(contextKey{}).(*Fixtures)
	if !ok || fx == nil {
		return nil, ErrNoFixtures
	}
	return fx, nil
}

// Bind sets fixtures up before each scenario of sc and tears them down
// after it, whether the scenario passed or not.
func (o *Orchestrator) Bind(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		fx, err := o.Setup(ctx)
		if err != nil {
			return ctx, err
		}
		logging.Debug("Fixture", "Scenario %q started (run %s)", s.Name, fx.World.RunID)
		return NewContext(ctx, fx), nil
	})

	sc.After(func(ctx context.Context, s *godog.Scenario, scenarioErr error) (context.Context, error) {
		fx, err := FromContext(ctx)
		if err != nil {
			return ctx, nil
		}
		fx.Teardown(ctx)
		if scenarioErr != nil {
			logging.Debug("Fixture", "Scenario %q failed: %v", s.Name, scenarioErr)
		}
		return ctx, nil
	})
}
