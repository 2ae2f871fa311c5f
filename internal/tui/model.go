package tui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/ingest"
	"github.com/npratt/nodescope/internal/scene"
)

// Loader fetches and annotates a graph. *ingest.Loader implements it.
type Loader interface {
	Load(ctx context.Context, location string) (*ingest.Result, error)
}

// Screen layout: header and status above the canvas, footer below.
const (
	headerRows = 2
	footerRows = 1
	minWidth   = 60
	minHeight  = 15
)

// model is the bubbletea model for the TUI.
type model struct {
	// Collaborators
	scene     *scene.Scene
	loader    Loader
	eventChan <-chan events.Event
	onQuit    func()
	theme     Theme

	// Source and initial layout
	location       string
	initialLayouts []string
	layoutDuration time.Duration

	// Load state
	requestID int
	loading   bool
	stats     ingest.Stats

	// Render state
	frame     scene.Frame
	hasFrame  bool
	canvas    *canvas
	lastEvent events.Event
	errorMsg  string

	// UI state
	width   int
	height  int
	spinner spinner.Model
	cursor  int // index into the visible node order for keyboard hover
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

// loadStartMsg asks the model to begin a load.
type loadStartMsg struct{}

// loadResultMsg carries the outcome of a load. Results whose requestID is
// not the latest are dropped.
type loadResultMsg struct {
	requestID int
	result    *ingest.Result
	err       error
}

// newModel creates a model from the TUI settings.
func newModel(t *TUI) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Loading
	return model{
		scene:          t.scene,
		loader:         t.loader,
		eventChan:      t.eventChan,
		onQuit:         t.onQuit,
		theme:          t.theme,
		location:       t.location,
		initialLayouts: t.layouts,
		layoutDuration: t.duration,
		spinner:        s,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.eventChan != nil {
		cmds = append(cmds, waitForEvent(m.eventChan))
	}
	if m.location != "" && m.loader != nil {
		cmds = append(cmds, func() tea.Msg { return loadStartMsg{} })
	} else {
		cmds = append(cmds, func() tea.Msg { return refreshMsg{} })
	}
	return tea.Batch(cmds...)
}

// refreshMsg asks the model to re-resolve the scene.
type refreshMsg struct{}

// beginLoad issues a new request id, so any load still in flight becomes
// stale, and returns the command that performs the load.
func (m *model) beginLoad() tea.Cmd {
	m.requestID++
	m.loading = true
	return loadCmd(m.loader, m.location, m.requestID)
}

// loadCmd runs the loader off the UI goroutine.
func loadCmd(loader Loader, location string, requestID int) tea.Cmd {
	return func() tea.Msg {
		res, err := loader.Load(context.Background(), location)
		return loadResultMsg{requestID: requestID, result: res, err: err}
	}
}

// canvasSize returns the drawable area below the header.
func (m model) canvasSize() (int, int) {
	return max(m.width, 0), max(m.height-headerRows-footerRows, 0)
}

// refresh re-resolves the scene and redraws the canvas.
func (m *model) refresh() {
	f, err := m.scene.Render()
	if err != nil {
		m.hasFrame = false
		m.canvas = nil
		return
	}
	m.frame = f
	m.hasFrame = true
	w, h := m.canvasSize()
	m.canvas = renderCanvas(f, w, h, m.theme)
}

// hoverOrder lists visible nodes by id for keyboard hover cycling.
func (m model) hoverOrder() []string {
	if !m.hasFrame {
		return nil
	}
	ids := make([]string, 0, len(m.frame.Nodes))
	for _, n := range m.frame.Nodes {
		if !n.Hidden {
			ids = append(ids, n.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// visibleCounts returns the number of drawn nodes and edges.
func (m model) visibleCounts() (nodes, edges int) {
	for _, n := range m.frame.Nodes {
		if !n.Hidden {
			nodes++
		}
	}
	for _, e := range m.frame.Edges {
		if !e.Hidden {
			edges++
		}
	}
	return nodes, edges
}

// busy reports whether the spinner should keep turning.
func (m model) busy() bool {
	return m.loading || m.scene.LayoutStatus().Running
}
