// Package ports declares the capability interfaces consumed by step
// definitions. Each interface is backend independent; implementations live
// in internal/adapters.
package ports

import (
	"context"
	"time"

	"bddkit/internal/world"
)

// API issues HTTP requests relative to the configured base URL. Every call
// merges w.Headers into the request and replaces w.Last with the response.
type API interface {
	// SendJSON sends body (nil for none) encoded as JSON.
	SendJSON(ctx context.Context, w *world.World, method, path string, body any, headers map[string]string) (*world.Response, error)

	// SendForm sends fields form-encoded.
	SendForm(ctx context.Context, w *world.World, method, path string, fields map[string]string, headers map[string]string) (*world.Response, error)
}

// UI drives a browser page.
type UI interface {
	// Goto opens path, resolved against the UI base URL when relative.
	Goto(ctx context.Context, path string) error
	Click(ctx context.Context, selector string) error
	// Fill replaces the value of an input.
	Fill(ctx context.Context, selector, value string) error
	Text(ctx context.Context, selector string) (string, error)
	WaitVisible(ctx context.Context, selector string) error
	URL(ctx context.Context) (string, error)
}

// TUI drives a terminal application.
type TUI interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	// Press sends named keys such as "enter", "tab" or "ctrl+c".
	Press(ctx context.Context, keys ...string) error
	// Type sends literal text.
	Type(ctx context.Context, text string) error
	// Screen returns the current screen contents without styling.
	Screen(ctx context.Context) (string, error)
	WaitForText(ctx context.Context, text string, timeout time.Duration) error
}

// Auth establishes sessions for scenarios.
type Auth interface {
	// APILoginAsAdmin sets w.Headers["Authorization"] to an admin bearer token.
	APILoginAsAdmin(ctx context.Context, w *world.World) error
	// APILoginAsUser sets w.Headers["Authorization"] to a regular user's token.
	APILoginAsUser(ctx context.Context, w *world.World) error
	// UILoginAsAdmin signs the admin in through the browser login form.
	UILoginAsAdmin(ctx context.Context) error
}

// Cleanup registers reversal requests for resources created by a scenario.
type Cleanup interface {
	// RegisterFromVar decides from a variable name and its new value whether
	// the value identifies a test-created resource that must be deleted.
	RegisterFromVar(w *world.World, varName, id string, meta string) bool
	// Register queues item unconditionally (duplicates are dropped).
	Register(w *world.World, item world.CleanupItem) bool
}
