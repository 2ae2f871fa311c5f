package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/layout"
	"github.com/npratt/nodescope/internal/scene"
)

// panStep is the fraction of the viewport half-extent moved per arrow key.
const panStep = 0.25

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// waitForEvent creates a command that waits for the next event from the channel.
// Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refresh()
		return m, nil

	case loadStartMsg:
		return m, m.beginLoad()

	case loadResultMsg:
		if msg.requestID != m.requestID {
			slog.Debug("dropping stale load result", "request", msg.requestID, "latest", m.requestID)
			return m, nil
		}
		m.loading = false
		return m.handleLoaded(msg)

	case refreshMsg:
		m.refresh()
		return m, nil

	case eventMsg:
		cmd := m.handleEvent(events.Event(msg))
		return m, tea.Batch(cmd, waitForEvent(m.eventChan))

	case channelClosedMsg:
		slog.Info("event channel closed, exiting TUI")
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.scene.LayoutStatus().Running {
			m.refresh()
		}
		return m, cmd
	}
	return m, nil
}

// handleLoaded installs a freshly loaded graph and starts the initial layouts.
// A failed reload keeps the graph already on screen.
func (m model) handleLoaded(msg loadResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.errorMsg = msg.err.Error()
		m.refresh()
		return m, nil
	}

	m.errorMsg = ""
	m.stats = msg.result.Stats
	m.cursor = 0
	m.scene.SetGraph(msg.result.Graph, msg.result.Location)
	if len(m.initialLayouts) > 0 {
		if _, err := m.scene.RunLayout(context.Background(), m.initialLayouts, m.layoutDuration); err != nil {
			m.errorMsg = err.Error()
		}
	}
	m.refresh()
	return m, nil
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "R":
		if m.loader == nil || m.location == "" {
			return m, nil
		}
		return m, m.beginLoad()
	}

	if m.scene.Graph() == nil {
		return m, nil
	}

	switch msg.String() {
	case "tab":
		m.moveHover(1)
	case "shift+tab":
		m.moveHover(-1)
	case "enter", " ":
		if id := m.scene.Hovered(); id != "" {
			m.setError(m.scene.ClickNode(id))
		}
	case "esc":
		m.errorMsg = ""
		m.scene.ClickStage()
	case "+", "=":
		m.scene.ZoomIn()
	case "-", "_":
		m.scene.ZoomOut()
	case "up", "k":
		m.scene.Pan(0, panStep)
	case "down", "j":
		m.scene.Pan(0, -panStep)
	case "left", "h":
		m.scene.Pan(-panStep, 0)
	case "right", "l":
		m.scene.Pan(panStep, 0)
	case "[":
		m.scene.StepWindow(-1)
	case "]":
		m.scene.StepWindow(1)
	case "f":
		m.scene.FitSelection()
	case "1":
		m.runLayout(layout.NameCircular)
	case "2":
		m.runLayout(layout.NameForce)
	case "3":
		m.runLayout(layout.NameNoverlap)
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

// handleMouse hovers the node under the pointer and selects on click.
func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.canvas == nil {
		return m, nil
	}
	id, onNode := m.canvas.pick(msg.X, msg.Y-headerRows)

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if onNode {
			m.setError(m.scene.ClickNode(id))
		} else {
			m.scene.ClickStage()
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelUp:
		m.scene.ZoomIn()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelDown:
		m.scene.ZoomOut()
	case msg.Action == tea.MouseActionMotion:
		prev := m.scene.Hovered()
		switch {
		case onNode && id != prev:
			m.setError(m.scene.Enter(id))
		case !onNode && prev != "":
			m.setError(m.scene.Leave(prev))
		default:
			return m, nil
		}
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

// moveHover hovers the next visible node in id order.
func (m *model) moveHover(delta int) {
	order := m.hoverOrder()
	if len(order) == 0 {
		return
	}
	if cur := m.scene.Hovered(); cur != "" {
		for i, id := range order {
			if id == cur {
				m.cursor = i + delta
				break
			}
		}
	} else if delta < 0 {
		m.cursor = len(order) - 1
	} else {
		m.cursor = 0
	}
	m.cursor = ((m.cursor % len(order)) + len(order)) % len(order)
	m.setError(m.scene.Enter(order[m.cursor]))
}

func (m *model) runLayout(name string) {
	_, err := m.scene.RunLayout(context.Background(), []string{name}, m.layoutDuration)
	m.setError(err)
}

func (m *model) setError(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, scene.ErrNoGraph) {
		m.errorMsg = "no graph loaded"
		return
	}
	m.errorMsg = err.Error()
}

// handleEvent reacts to events published by the loader, watcher and
// layout driver, and returns a command when the event needs one.
func (m *model) handleEvent(event events.Event) tea.Cmd {
	var cmd tea.Cmd
	switch e := event.(type) {
	case *events.LayoutFrameEvent:
		m.refresh()
		return nil
	case *events.LayoutStartEvent:
		m.refresh()
	case *events.LayoutDoneEvent:
		m.refresh()
		if e.Error != "" {
			m.errorMsg = e.Error
		}
	case *events.SourceChangedEvent:
		if m.loader != nil && m.location != "" {
			cmd = m.beginLoad()
		}
	case *events.ErrorEvent:
		m.errorMsg = e.Message
	}

	if events.Format(event) != "" {
		m.lastEvent = event
	}
	return cmd
}
