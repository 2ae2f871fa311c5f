package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/npratt/nodescope/internal/events"
)

const helpText = "tab: hover  enter: select  esc: clear  +/-: zoom  [/]: window  1/2/3: layout  f: fit  R: reload  q: quit"

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	sections := []string{
		m.renderHeader(),
		m.renderStatus(),
		m.renderCanvas(),
		m.renderFooter(),
	}
	return strings.Join(sections, "\n")
}

// renderTooSmall renders a message when the terminal is below minimum size.
func (m model) renderTooSmall() string {
	return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
		m.width, m.height, minWidth, minHeight)
}

// renderHeader shows the program name and the graph location.
func (m model) renderHeader() string {
	title := styles.Header.Render("nodescope")
	location := m.scene.Location()
	if location == "" {
		location = m.location
	}
	avail := safeWidth(m.width - lipgloss.Width(title) - 2)
	loc := styles.Location.Render(runewidth.Truncate(location, avail, "…"))
	return title + "  " + loc
}

// renderStatus shows layout progress, the time window, the zoom and the
// current selection.
func (m model) renderStatus() string {
	var parts []string

	switch {
	case m.loading:
		parts = append(parts, m.spinner.View()+" "+styles.Loading.Render("Loading graph"))
	case m.hasFrame && m.frame.Layout.Running:
		parts = append(parts, m.spinner.View()+" "+styles.Loading.Render(m.frame.Layout.Label()+" layout"))
	case m.hasFrame && m.frame.Layout.Current != "":
		parts = append(parts, styles.Completed.Render(fmt.Sprintf("%s %s", m.frame.Layout.Label(), m.frame.Layout.Current)))
	default:
		parts = append(parts, styles.Status.Render("Idle"))
	}

	if m.hasFrame {
		parts = append(parts,
			styles.Window.Render(m.frame.WindowLabel),
			styles.Zoom.Render(fmt.Sprintf("zoom %.2f", 1/m.frame.Camera.Ratio)),
		)
		if m.frame.Snapshot.HasSelection {
			parts = append(parts, styles.Selected.Render("● "+m.frame.Snapshot.Selected))
		}
		if m.frame.Hovered != "" {
			parts = append(parts, styles.Status.Render("hover "+m.frame.Hovered))
		}
		nodes, edges := m.visibleCounts()
		parts = append(parts, styles.Counts.Render(fmt.Sprintf("%d/%d nodes  %d/%d edges",
			nodes, len(m.frame.Nodes), edges, len(m.frame.Edges))))
	}

	line := strings.Join(parts, styles.Counts.Render("  │  "))
	return lipgloss.NewStyle().MaxWidth(safeWidth(m.width)).Render(line)
}

// renderCanvas returns the graph area, padded to its full height.
func (m model) renderCanvas() string {
	w, h := m.canvasSize()
	if m.canvas == nil {
		msg := "no graph loaded"
		if m.loading {
			msg = "loading graph..."
		}
		return lipgloss.Place(safeWidth(w), max(h, 1), lipgloss.Center, lipgloss.Center, styles.Footer.Render(msg))
	}
	return m.canvas.grid.String()
}

// renderFooter shows the last error, or key help and the latest event.
func (m model) renderFooter() string {
	if m.errorMsg != "" {
		return styles.Error.Render(runewidth.Truncate("error: "+m.errorMsg, safeWidth(m.width), "…"))
	}

	help := styles.Footer.Render(runewidth.Truncate(helpText, safeWidth(m.width), "…"))
	text := events.Format(m.lastEvent)
	if text == "" {
		return help
	}
	rest := m.width - lipgloss.Width(help) - 2
	if rest < 10 {
		return help
	}
	event := styleForEvent(m.lastEvent).Render(runewidth.Truncate(text, rest, "…"))
	return help + strings.Repeat(" ", max(2, m.width-lipgloss.Width(help)-lipgloss.Width(event))) + event
}

// safeWidth returns a width that is at least 1.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}
