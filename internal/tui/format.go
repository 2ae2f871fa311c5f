package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/nodescope/internal/events"
)

// eventsLine formats an event for the plain text fallback.
func eventsLine(event events.Event) string {
	return events.FormatWithTimestamp(event)
}

// styleForEvent returns the footer style for an event type.
func styleForEvent(event events.Event) lipgloss.Style {
	switch event.(type) {
	case *events.ErrorEvent:
		return styles.Error
	case *events.LayoutStartEvent, *events.LayoutDoneEvent:
		return styles.Loading
	case *events.SelectionChangedEvent:
		return styles.Selected
	case *events.WindowChangedEvent:
		return styles.Window
	case *events.GraphLoadedEvent, *events.SourceChangedEvent:
		return styles.Completed
	default:
		return styles.Event
	}
}
