// Package transport is the HTTP request context shared by the API adapter,
// the auth adapter and the cleanup engine. It resolves relative paths
// against one base URL and buffers every response body.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bddkit/internal/config"
	"bddkit/pkg/logging"
)

// DefaultTimeout bounds a single request when the caller's context has no
// deadline.
const DefaultTimeout = 30 * time.Second

// Request is one HTTP call relative to the base URL.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    io.Reader
}

// Response is a fully read HTTP response.
type Response struct {
	Status  int
	Body    []byte
	Headers http.Header
}

// ContentType returns the media type without parameters.
func (r *Response) ContentType() string {
	ct := r.Headers.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// Requester is what consumers of the transport depend on.
type Requester interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Client implements Requester over net/http.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a Client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves path against the base URL. Absolute URLs pass through.
func (c *Client) URL(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if path == "" {
		return c.baseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do sends req and reads the whole response body.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	target := c.URL(req.Path)

	httpReq, err := http.NewRequestWithContext(ctx, method, target, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, target, err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	logging.Debug("Transport", "%s %s", method, target)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response of %s %s: %w", method, target, err)
	}
	return &Response{
		Status:  resp.StatusCode,
		Body:    body,
		Headers: resp.Header,
	}, nil
}

// ResolveBaseURL applies the base URL precedence: API_BASE_URL, then
// CONTROL_TOWER_BASE_URL, then the active project's base URL when that
// project is an API project, then localhost on CONTROL_TOWER_PORT, then the
// built-in fallback.
func ResolveBaseURL(cfg config.Config) string {
	if cfg.APIBaseURL != "" {
		return cfg.APIBaseURL
	}
	if cfg.ControlTowerBaseURL != "" {
		return cfg.ControlTowerBaseURL
	}
	if p, ok := cfg.ActiveProject(); ok && p.Kind == config.ProjectKindAPI && p.BaseURL != "" {
		return p.BaseURL
	}
	if cfg.ControlTowerPort != "" {
		return "http://localhost:" + cfg.ControlTowerPort
	}
	return config.DefaultFallbackURL
}
