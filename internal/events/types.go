// Package events defines the scene event taxonomy and the router that fans
// events out to the terminal UI, SSE clients and the event log.
package events

import "time"

// EventType identifies the category and nature of an event.
type EventType string

const (
	// Graph source events
	EventGraphLoaded   EventType = "graph.loaded"
	EventSourceChanged EventType = "source.changed"

	// Interaction events
	EventSelectionChanged EventType = "selection.changed"
	EventHoverChanged     EventType = "hover.changed"
	EventWindowChanged    EventType = "window.changed"
	EventCameraChanged    EventType = "camera.changed"

	// Layout driver events
	EventLayoutStart EventType = "layout.start"
	EventLayoutFrame EventType = "layout.frame"
	EventLayoutDone  EventType = "layout.done"

	// Error events
	EventError EventType = "error"
)

// Source constants identify the origin of events.
const (
	SourceIngest   = "ingest"
	SourceLayout   = "layout"
	SourceScene    = "scene"
	SourceInternal = "nodescope"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// NewBase stamps a BaseEvent with the current time.
func NewBase(t EventType, source string) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now(), Src: source}
}

// GraphLoadedEvent is emitted after a graph has been fetched, parsed and annotated.
type GraphLoadedEvent struct {
	BaseEvent
	Location   string `json:"location"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	DurationMs int64  `json:"duration_ms"`
}

// SourceChangedEvent is emitted when a watched source file changes on disk.
type SourceChangedEvent struct {
	BaseEvent
	Path string `json:"path"`
}

// SelectionChangedEvent is emitted on clickNode and clickStage.
type SelectionChangedEvent struct {
	BaseEvent
	NodeID   string `json:"node_id,omitempty"`
	Selected bool   `json:"selected"`
}

// HoverChangedEvent is emitted when the pointer enters or leaves a node.
type HoverChangedEvent struct {
	BaseEvent
	NodeID string `json:"node_id"`
	On     bool   `json:"on"`
}

// WindowChangedEvent is emitted when the time window moves.
type WindowChangedEvent struct {
	BaseEvent
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// CameraChangedEvent is emitted when the camera pans, zooms or fits.
type CameraChangedEvent struct {
	BaseEvent
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Ratio float64 `json:"ratio"`
}

// LayoutStartEvent is emitted when a layout sequence begins.
type LayoutStartEvent struct {
	BaseEvent
	Generation uint64   `json:"generation"`
	Layouts    []string `json:"layouts"`
}

// LayoutFrameEvent is emitted for each animation frame of a layout stage.
type LayoutFrameEvent struct {
	BaseEvent
	Generation uint64  `json:"generation"`
	Layout     string  `json:"layout"`
	Progress   float64 `json:"progress"`
}

// LayoutDoneEvent is emitted when a sequence completes or is superseded.
type LayoutDoneEvent struct {
	BaseEvent
	Generation uint64 `json:"generation"`
	Layout     string `json:"layout,omitempty"` // last completed stage
	Superseded bool   `json:"superseded"`
	Error      string `json:"error,omitempty"`
}

// ErrorEvent is emitted for failures that should reach the user.
type ErrorEvent struct {
	BaseEvent
	Message  string `json:"message"`
	Severity string `json:"severity"` // "warning", "error"
}

// Severity levels for error events.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)
