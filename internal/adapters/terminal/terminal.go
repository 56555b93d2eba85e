// Package terminal implements ports.TUI by running a bubbletea program
// in-process. Keys are delivered as tea.KeyMsg values and the screen is the
// model's most recent View with styling stripped.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"bddkit/pkg/logging"
)

const (
	DefaultWidth  = 80
	DefaultHeight = 24

	pollInterval = 20 * time.Millisecond
)

var (
	ErrNotRunning     = errors.New("terminal program is not running")
	ErrAlreadyRunning = errors.New("terminal program is already running")
)

// ModelFactory builds a fresh model for each Start.
type ModelFactory func() tea.Model

// Option configures an Adapter.
type Option func(*Adapter)

// WithSize sets the window size reported to the model and the width the
// screen is cut to.
func WithSize(width, height int) Option {
	return func(a *Adapter) {
		a.width = width
		a.height = height
	}
}

// WithProgramOptions appends extra bubbletea options.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(a *Adapter) {
		a.programOpts = append(a.programOpts, opts...)
	}
}

// Adapter drives one bubbletea program at a time.
type Adapter struct {
	newModel    ModelFactory
	width       int
	height      int
	programOpts []tea.ProgramOption

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	cancel  context.CancelFunc
	runErr  error

	screenMu sync.Mutex
	screen   string
	rendered chan struct{}
}

// New returns an adapter for models built by factory. No program exists
// until Start.
func New(factory ModelFactory, opts ...Option) *Adapter {
	a := &Adapter{
		newModel: factory,
		width:    DefaultWidth,
		height:   DefaultHeight,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// recorder captures every View the event loop renders.
type recorder struct {
	inner tea.Model
	a     *Adapter
}

func (r recorder) Init() tea.Cmd {
	return r.inner.Init()
}

func (r recorder) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := r.inner.Update(msg)
	return recorder{inner: m, a: r.a}, cmd
}

func (r recorder) View() string {
	v := r.inner.View()
	r.a.record(v)
	return v
}

func (a *Adapter) record(view string) {
	a.screenMu.Lock()
	defer a.screenMu.Unlock()
	a.screen = view
	if a.rendered != nil {
		close(a.rendered)
		a.rendered = nil
	}
}

// Start runs a new program and waits for its first render.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.program != nil && !isClosed(a.done) {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}

	rendered := make(chan struct{})
	a.screenMu.Lock()
	a.screen = ""
	a.rendered = rendered
	a.screenMu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	opts := append([]tea.ProgramOption{
		tea.WithContext(runCtx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutSignals(),
		tea.WithoutRenderer(),
	}, a.programOpts...)

	p := tea.NewProgram(recorder{inner: a.newModel(), a: a}, opts...)
	done := make(chan struct{})
	a.program = p
	a.done = done
	a.cancel = cancel
	a.runErr = nil
	a.mu.Unlock()

	go func() {
		defer close(done)
		_, err := p.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			a.mu.Lock()
			a.runErr = err
			a.mu.Unlock()
			logging.WarnErr("Terminal", err, "Terminal program exited with error")
		}
	}()

	select {
	case <-rendered:
	case <-done:
		return fmt.Errorf("terminal program exited during start: %w", a.err())
	case <-ctx.Done():
		a.kill()
		return ctx.Err()
	}

	p.Send(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	logging.Debug("Terminal", "Terminal program started (%dx%d)", a.width, a.height)
	return nil
}

// Stop asks the program to quit and waits for it to exit. If ctx ends
// first the program is killed. Stopping a nil adapter does nothing.
func (a *Adapter) Stop(ctx context.Context) error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	p, done := a.program, a.done
	a.mu.Unlock()
	if p == nil {
		return nil
	}

	if !isClosed(done) {
		p.Quit()
	}
	select {
	case <-done:
	case <-ctx.Done():
		a.kill()
		return ctx.Err()
	}

	a.mu.Lock()
	a.cancel()
	a.program = nil
	a.mu.Unlock()
	return a.err()
}

func (a *Adapter) kill() {
	a.mu.Lock()
	p, done, cancel := a.program, a.done, a.cancel
	a.program = nil
	a.mu.Unlock()
	if p == nil {
		return
	}
	p.Kill()
	cancel()
	<-done
}

func (a *Adapter) err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runErr
}

// IsRunning reports whether a started program has not exited yet. A nil
// adapter is never running.
func (a *Adapter) IsRunning() bool {
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.program != nil && !isClosed(a.done)
}

func (a *Adapter) running() (*tea.Program, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.program == nil || isClosed(a.done) {
		return nil, ErrNotRunning
	}
	return a.program, nil
}

// Press sends named keys in order.
func (a *Adapter) Press(ctx context.Context, keys ...string) error {
	p, err := a.running()
	if err != nil {
		return err
	}
	msgs := make([]tea.KeyMsg, 0, len(keys))
	for _, k := range keys {
		msg, err := ParseKey(k)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.Send(msg)
	}
	return nil
}

// Type sends text as typed runes.
func (a *Adapter) Type(ctx context.Context, text string) error {
	p, err := a.running()
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return nil
}

// Screen returns the last rendered view without ANSI sequences, each line
// cut to the adapter width.
func (a *Adapter) Screen(context.Context) (string, error) {
	a.screenMu.Lock()
	raw := a.screen
	a.screenMu.Unlock()
	return CleanScreen(raw, a.width), nil
}

// WaitForText polls the screen until it contains text.
func (a *Adapter) WaitForText(ctx context.Context, text string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		screen, _ := a.Screen(ctx)
		if strings.Contains(screen, text) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out after %s waiting for %q; screen:\n%s", timeout, text, screen)
		case <-ticker.C:
		}
	}
}

// CleanScreen strips styling and trailing spaces and truncates lines to
// width display cells. A width of zero disables truncation.
func CleanScreen(view string, width int) string {
	lines := strings.Split(ansi.Strip(view), "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \r")
		if width > 0 {
			line = runewidth.Truncate(line, width, "")
		}
		lines[i] = line
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

var namedKeys = map[string]tea.KeyType{
	"enter":     tea.KeyEnter,
	"tab":       tea.KeyTab,
	"shift+tab": tea.KeyShiftTab,
	"esc":       tea.KeyEsc,
	"escape":    tea.KeyEsc,
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
	"home":      tea.KeyHome,
	"end":       tea.KeyEnd,
	"pgup":      tea.KeyPgUp,
	"pgdown":    tea.KeyPgDown,
	"backspace": tea.KeyBackspace,
	"delete":    tea.KeyDelete,
	"space":     tea.KeySpace,
	"ctrl+a":    tea.KeyCtrlA,
	"ctrl+c":    tea.KeyCtrlC,
	"ctrl+d":    tea.KeyCtrlD,
	"ctrl+e":    tea.KeyCtrlE,
	"ctrl+k":    tea.KeyCtrlK,
	"ctrl+l":    tea.KeyCtrlL,
	"ctrl+u":    tea.KeyCtrlU,
}

// ParseKey maps a key name such as "enter" or "ctrl+c" to a KeyMsg. A
// single character is sent as a rune.
func ParseKey(name string) (tea.KeyMsg, error) {
	if t, ok := namedKeys[strings.ToLower(name)]; ok {
		if t == tea.KeySpace {
			return tea.KeyMsg{Type: t, Runes: []rune{' '}}, nil
		}
		return tea.KeyMsg{Type: t}, nil
	}
	if r := []rune(name); len(r) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: r}, nil
	}
	return tea.KeyMsg{}, fmt.Errorf("unknown key %q", name)
}

func isClosed(ch chan struct{}) bool {
	if ch == nil {
		return true
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
