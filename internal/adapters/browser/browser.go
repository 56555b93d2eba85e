// Package browser implements ports.UI with go-rod.
//
// Chrome is not launched when the Adapter is created. The first UI call
// connects to Browser.ControlURL when set, or launches a local browser, and
// opens a single page that every later call reuses until Close.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"bddkit/internal/config"
	"bddkit/internal/transport"
	"bddkit/pkg/logging"
)

const defaultNavigationTimeout = 30 * time.Second

// ErrClosed is returned by UI calls after Close.
var ErrClosed = errors.New("browser adapter is closed")

// Adapter drives one browser page.
type Adapter struct {
	settings config.BrowserSettings
	baseURL  string

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
	owned   bool
	closed  bool
}

// New returns an adapter that launches its browser lazily.
func New(cfg config.Config) *Adapter {
	return &Adapter{
		settings: cfg.Browser,
		baseURL:  ResolveUIBaseURL(cfg),
		owned:    true,
	}
}

// NewWithPage wraps a page owned by the caller. Close leaves the page open.
func NewWithPage(page *rod.Page, cfg config.Config) *Adapter {
	return &Adapter{
		settings: cfg.Browser,
		baseURL:  ResolveUIBaseURL(cfg),
		page:     page,
	}
}

// ResolveUIBaseURL picks the base URL for relative navigation: UI_BASE_URL,
// then a ui project's base URL, then the API base URL.
func ResolveUIBaseURL(cfg config.Config) string {
	if cfg.UIBaseURL != "" {
		return strings.TrimRight(cfg.UIBaseURL, "/")
	}
	if p, ok := cfg.ActiveProject(); ok && p.Kind == config.ProjectKindUI && p.BaseURL != "" {
		return strings.TrimRight(p.BaseURL, "/")
	}
	return transport.ResolveBaseURL(cfg)
}

// BaseURL returns the base used for relative paths.
func (a *Adapter) BaseURL() string {
	return a.baseURL
}

// Started reports whether a page is open.
func (a *Adapter) Started() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page != nil
}

// Resolve turns path into an absolute URL.
func (a *Adapter) Resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return a.baseURL + path
}

func (a *Adapter) timeout() time.Duration {
	if a.settings.NavigationTimeoutMs > 0 {
		return time.Duration(a.settings.NavigationTimeoutMs) * time.Millisecond
	}
	return defaultNavigationTimeout
}

// ensurePage connects or launches the browser on first use.
func (a *Adapter) ensurePage() (*rod.Page, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	if a.page != nil {
		return a.page, nil
	}

	controlURL := a.settings.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(!a.settings.Headed)
		if a.settings.Bin != "" {
			l = l.Bin(a.settings.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	// The browser outlives any single step context.
	b := rod.New().ControlURL(controlURL).Context(context.Background())
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	logging.Debug("Browser", "Browser connected at %s (headed=%t)", controlURL, a.settings.Headed)
	a.browser = b
	a.page = page
	return page, nil
}

func (a *Adapter) element(ctx context.Context, selector string) (*rod.Element, error) {
	page, err := a.ensurePage()
	if err != nil {
		return nil, err
	}
	el, err := page.Context(ctx).Timeout(a.timeout()).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}
	return el.CancelTimeout(), nil
}

// Goto navigates to path and waits for the load event.
func (a *Adapter) Goto(ctx context.Context, path string) error {
	page, err := a.ensurePage()
	if err != nil {
		return err
	}
	target := a.Resolve(path)
	p := page.Context(ctx).Timeout(a.timeout())
	if err := p.Navigate(target); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s to load: %w", target, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (a *Adapter) Click(ctx context.Context, selector string) error {
	el, err := a.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Fill replaces the value of the input matching selector.
func (a *Adapter) Fill(ctx context.Context, selector, value string) error {
	el, err := a.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("clear %q: %w", selector, err)
	}
	return el.Input(value)
}

// Text returns the visible text of the element matching selector.
func (a *Adapter) Text(ctx context.Context, selector string) (string, error) {
	el, err := a.element(ctx, selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// WaitVisible waits until the element matching selector is visible.
func (a *Adapter) WaitVisible(ctx context.Context, selector string) error {
	el, err := a.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Context(ctx).Timeout(a.timeout()).WaitVisible()
}

// URL returns the page's current URL.
func (a *Adapter) URL(ctx context.Context) (string, error) {
	page, err := a.ensurePage()
	if err != nil {
		return "", err
	}
	info, err := page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Close closes the page and, when the adapter launched it, the browser.
// Calling Close on an adapter that never opened a page does nothing.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	if !a.owned {
		a.page = nil
		return nil
	}

	var errs []error
	if a.page != nil {
		if err := a.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		a.page = nil
	}
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		a.browser = nil
	}
	return errors.Join(errs...)
}
