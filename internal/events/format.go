package events

import (
	"fmt"
	"strings"
)

// Format converts an event to a one-line human-readable string.
// Returns empty string for nil events and for layout frames, which are too
// frequent to display.
func Format(event Event) string {
	if event == nil {
		return ""
	}

	switch e := event.(type) {
	case *GraphLoadedEvent:
		return fmt.Sprintf("loaded %s: %d nodes, %d edges (%dms)", e.Location, e.Nodes, e.Edges, e.DurationMs)
	case *SourceChangedEvent:
		return fmt.Sprintf("source changed: %s", e.Path)
	case *SelectionChangedEvent:
		if !e.Selected {
			return "selection cleared"
		}
		return fmt.Sprintf("selected %s", e.NodeID)
	case *HoverChangedEvent:
		if e.On {
			return fmt.Sprintf("hover %s", e.NodeID)
		}
		return fmt.Sprintf("leave %s", e.NodeID)
	case *WindowChangedEvent:
		return fmt.Sprintf("window %02d:00 to %d:00", int(e.Start), int(e.End))
	case *CameraChangedEvent:
		return fmt.Sprintf("camera %.2f,%.2f ratio %.2f", e.X, e.Y, e.Ratio)
	case *LayoutStartEvent:
		return fmt.Sprintf("layout #%d: %s", e.Generation, strings.Join(e.Layouts, " > "))
	case *LayoutDoneEvent:
		return formatLayoutDone(e)
	case *ErrorEvent:
		return fmt.Sprintf("%s: %s", e.Severity, e.Message)
	default:
		return ""
	}
}

// FormatWithTimestamp prefixes Format output with the event's clock time.
func FormatWithTimestamp(event Event) string {
	text := Format(event)
	if text == "" {
		return ""
	}
	return event.Timestamp().Format("15:04:05") + " " + text
}

func formatLayoutDone(e *LayoutDoneEvent) string {
	switch {
	case e.Superseded:
		return fmt.Sprintf("layout #%d superseded", e.Generation)
	case e.Error != "":
		return fmt.Sprintf("layout #%d failed: %s", e.Generation, e.Error)
	default:
		return fmt.Sprintf("layout #%d completed (%s)", e.Generation, e.Layout)
	}
}
