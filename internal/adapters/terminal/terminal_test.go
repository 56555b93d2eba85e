package terminal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// greeter asks for a name and greets on enter.
type greeter struct {
	input    textinput.Model
	greeting string
	width    int
}

func newGreeter() tea.Model {
	ti := textinput.New()
	ti.Prompt = "Name: "
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()
	return greeter{input: ti}
}

func (g greeter) Init() tea.Cmd { return nil }

func (g greeter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		g.width = msg.Width
		return g, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return g, tea.Quit
		case tea.KeyEnter:
			g.greeting = fmt.Sprintf("Hello, %s!", g.input.Value())
			g.input.Reset()
			return g, nil
		}
	}
	var cmd tea.Cmd
	g.input, cmd = g.input.Update(msg)
	return g, cmd
}

func (g greeter) View() string {
	view := g.input.View()
	if g.greeting != "" {
		view += "\n\x1b[1m" + g.greeting + "\x1b[0m"
	}
	if g.width > 0 {
		view += fmt.Sprintf("\nwidth=%d", g.width)
	}
	return view
}

func startGreeter(t *testing.T, opts ...Option) *Adapter {
	t.Helper()
	a := New(newGreeter, opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() {
		_ = a.Stop(context.Background())
	})
	return a
}

func TestAdapter_NotStarted(t *testing.T) {
	a := New(newGreeter)
	ctx := context.Background()

	assert.False(t, a.IsRunning())
	assert.ErrorIs(t, a.Press(ctx, "enter"), ErrNotRunning)
	assert.ErrorIs(t, a.Type(ctx, "x"), ErrNotRunning)
	assert.NoError(t, a.Stop(ctx), "stopping an adapter that never started is a no-op")
}

func TestAdapter_NilIsNeverRunning(t *testing.T) {
	var a *Adapter
	assert.False(t, a.IsRunning())
	assert.NoError(t, a.Stop(context.Background()))
}

func TestAdapter_TypeAndPress(t *testing.T) {
	a := startGreeter(t)
	ctx := context.Background()

	require.True(t, a.IsRunning())
	require.NoError(t, a.WaitForText(ctx, "Name:", time.Second))

	require.NoError(t, a.Type(ctx, "Ada"))
	require.NoError(t, a.Press(ctx, "enter"))
	require.NoError(t, a.WaitForText(ctx, "Hello, Ada!", 2*time.Second))

	screen, err := a.Screen(ctx)
	require.NoError(t, err)
	assert.NotContains(t, screen, "\x1b[", "styling is stripped")
	assert.Contains(t, screen, "width=80")
}

func TestAdapter_PressEditingKeys(t *testing.T) {
	a := startGreeter(t)
	ctx := context.Background()

	require.NoError(t, a.Type(ctx, "Bobx"))
	require.NoError(t, a.Press(ctx, "backspace", "enter"))
	require.NoError(t, a.WaitForText(ctx, "Hello, Bob!", 2*time.Second))
}

func TestAdapter_PressUnknownKey(t *testing.T) {
	a := startGreeter(t)
	err := a.Press(context.Background(), "enter", "hyperspace")
	assert.ErrorContains(t, err, "hyperspace")
}

func TestAdapter_WaitForTextTimeout(t *testing.T) {
	a := startGreeter(t)
	err := a.WaitForText(context.Background(), "never shown", 60*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name:", "timeout error includes the screen")
}

func TestAdapter_StopAndRestart(t *testing.T) {
	a := New(newGreeter)
	ctx := context.Background()

	require.NoError(t, a.Start(ctx))
	assert.ErrorIs(t, a.Start(ctx), ErrAlreadyRunning)
	require.NoError(t, a.Stop(ctx))
	assert.False(t, a.IsRunning())

	require.NoError(t, a.Start(ctx))
	assert.True(t, a.IsRunning())
	require.NoError(t, a.Stop(ctx))
}

func TestAdapter_ProgramQuitsItself(t *testing.T) {
	a := startGreeter(t)
	ctx := context.Background()

	require.NoError(t, a.Press(ctx, "ctrl+c"))
	require.Eventually(t, func() bool { return !a.IsRunning() }, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, a.Stop(ctx))
}

func TestAdapter_WithSize(t *testing.T) {
	a := startGreeter(t, WithSize(20, 5))
	require.NoError(t, a.WaitForText(context.Background(), "width=20", time.Second))
}

func TestCleanScreen(t *testing.T) {
	tests := []struct {
		name  string
		view  string
		width int
		want  string
	}{
		{name: "strips ansi", view: "\x1b[31mred\x1b[0m text", want: "red text"},
		{name: "trims trailing space", view: "a   \nb  \n\n", want: "a\nb"},
		{name: "truncates wide lines", view: "abcdefghij", width: 4, want: "abcd"},
		{name: "counts display cells", view: "日本語テキスト", width: 6, want: "日本語"},
		{name: "zero width keeps line", view: "abcdefghij", width: 0, want: "abcdefghij"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanScreen(tt.view, tt.width))
		})
	}
}

func TestParseKey(t *testing.T) {
	msg, err := ParseKey("Enter")
	require.NoError(t, err)
	assert.Equal(t, tea.KeyEnter, msg.Type)

	msg, err = ParseKey("space")
	require.NoError(t, err)
	assert.Equal(t, tea.KeySpace, msg.Type)

	msg, err = ParseKey("q")
	require.NoError(t, err)
	assert.Equal(t, tea.KeyRunes, msg.Type)
	assert.Equal(t, []rune{'q'}, msg.Runes)

	_, err = ParseKey("f13")
	assert.Error(t, err)
}
