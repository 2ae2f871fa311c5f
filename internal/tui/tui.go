// Package tui provides a terminal graph explorer built on bubbletea.
package tui

import (
	"context"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/scene"
)

// TUI is the terminal front end over a scene.
type TUI struct {
	scene     *scene.Scene
	loader    Loader
	location  string
	eventChan <-chan events.Event
	layouts   []string
	duration  time.Duration
	theme     Theme
	onQuit    func()
	output    io.Writer
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a TUI that shows sc. When loader is non-nil, location is
// loaded on start and reloaded on R or when the source changes.
func New(sc *scene.Scene, loader Loader, location string, opts ...Option) *TUI {
	t := &TUI{
		scene:    sc,
		loader:   loader,
		location: location,
		duration: time.Second,
		theme:    DefaultTheme(),
		output:   os.Stdout,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithEvents sets the event channel the TUI listens on. It is usually a
// router subscription.
func WithEvents(ch <-chan events.Event) Option {
	return func(t *TUI) {
		t.eventChan = ch
	}
}

// WithInitialLayouts sets the layout sequence run after every load.
func WithInitialLayouts(names []string, duration time.Duration) Option {
	return func(t *TUI) {
		t.layouts = names
		t.duration = duration
	}
}

// WithTheme sets the canvas colors.
func WithTheme(th Theme) Option {
	return func(t *TUI) {
		t.theme = th
	}
}

// WithOnQuit sets the callback invoked when the user presses 'q'.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithOutput sets where the non-interactive fallback writes.
func WithOutput(w io.Writer) Option {
	return func(t *TUI) {
		t.output = w
	}
}

// Run starts the TUI and blocks until it exits. Without a usable terminal
// it prints a one-shot text rendering instead.
func (t *TUI) Run(ctx context.Context) error {
	if !isTerminal() || terminalTooSmall() {
		return t.runSimple(ctx)
	}

	m := newModel(t)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
