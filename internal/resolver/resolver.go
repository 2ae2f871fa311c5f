// Package resolver decides, per node and per edge, whether an element is
// drawn and how it looks.
//
// Every function here is pure: the inputs are a read-only view of the graph
// and an explicit Snapshot of selection, time window and zoom. Nothing is
// written back to the graph, so the same snapshot always resolves to the same
// frame.
package resolver

import (
	"math"
	"sort"

	"github.com/npratt/nodescope/internal/graph"
)

// Policy decides whether active nodes are also filtered by the time window.
type Policy string

const (
	// GateActive hides any node without an incident edge in the window,
	// even when it is the selected node or one of its neighbors.
	GateActive Policy = "gate"
	// GateNone applies the time window only while nothing is selected.
	GateNone Policy = "none"
)

// ParsePolicy maps a config value to a Policy, defaulting to GateActive.
func ParsePolicy(s string) Policy {
	if Policy(s) == GateNone {
		return GateNone
	}
	return GateActive
}

// State is the selection-driven role of a node in a frame.
type State int

const (
	// StateNormal means nothing is selected.
	StateNormal State = iota
	// StateActive marks the selected node and its direct neighbors.
	StateActive
	// StateFaded marks every other node while a selection exists.
	StateFaded
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFaded:
		return "faded"
	default:
		return "normal"
	}
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// HighlightLabelScale is the label font multiplier for a hovered node.
const HighlightLabelScale = 1.1

// Style carries the display constants the rules need.
type Style struct {
	FadedColor     string  `json:"faded_color"`
	LabelThreshold float64 `json:"label_threshold"`
}

// DefaultStyle returns the stock faded color and label threshold.
func DefaultStyle() Style {
	return Style{FadedColor: "#030d2b02", LabelThreshold: 8}
}

// Snapshot is everything the rules depend on besides the graph itself.
type Snapshot struct {
	Selected     string     `json:"selected,omitempty"`
	HasSelection bool       `json:"has_selection"`
	Window       TimeWindow `json:"window"`
	ZoomRatio    float64    `json:"zoom_ratio"`
	Policy       Policy     `json:"policy"`
	Style        Style      `json:"style"`
}

// View is the read-only slice of graph.Graph the resolver uses.
type View interface {
	Node(id string) (graph.Node, bool)
	Edge(id string) (graph.Edge, bool)
	Neighbors(id string) []string
	IncidentEdges(id string) []graph.Edge
}

// FrameView additionally lists every element, for whole-frame resolution.
type FrameView interface {
	View
	Nodes() []graph.Node
	Edges() []graph.Edge
}

// NodeDisplay is the resolved look of one node.
type NodeDisplay struct {
	ID         string  `json:"id"`
	Label      string  `json:"label,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Size       float64 `json:"size"`
	Color      string  `json:"color,omitempty"`
	Hidden     bool    `json:"hidden"`
	ZIndex     int     `json:"z_index"`
	ForceLabel bool    `json:"force_label"`
	Highlight  bool    `json:"highlight"`
	Emphasis   float64 `json:"emphasis"`
	State      State   `json:"state"`
}

// EdgeDisplay is the resolved look of one edge.
type EdgeDisplay struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind,omitempty"`
	Color  string `json:"color,omitempty"`
	Hidden bool   `json:"hidden"`
}

// Frame is a fully resolved graph, nodes ordered for drawing (low ZIndex first).
type Frame struct {
	Snapshot Snapshot      `json:"snapshot"`
	Nodes    []NodeDisplay `json:"nodes"`
	Edges    []EdgeDisplay `json:"edges"`
}

// EffectiveSize scales a base size for the current zoom: base / sqrt(zoom).
// A non-positive zoom is treated as 1.
func EffectiveSize(base, zoom float64) float64 {
	if zoom <= 0 || math.IsNaN(zoom) {
		return base
	}
	return base / math.Sqrt(zoom)
}

// HasVisibleEdge reports whether any edge incident to id carries a timestamp
// whose UTC hour falls in w.
func HasVisibleEdge(v View, id string, w TimeWindow) bool {
	return anyInWindow(v.IncidentEdges(id), w)
}

func anyInWindow(edges []graph.Edge, w TimeWindow) bool {
	for _, e := range edges {
		if w.ContainsTime(e.Timestamp) {
			return true
		}
	}
	return false
}

// ResolveNode applies the node rule to id. The second result is false when
// the node does not exist.
func ResolveNode(v View, id string, snap Snapshot) (NodeDisplay, bool) {
	n, ok := v.Node(id)
	if !ok {
		return NodeDisplay{}, false
	}
	active := activeSet(v, snap)
	return resolveNode(n, HasVisibleEdge(v, id, snap.Window), active, snap), true
}

// ResolveEdge applies the edge rule to id. The second result is false when
// the edge does not exist.
func ResolveEdge(v View, id string, snap Snapshot) (EdgeDisplay, bool) {
	e, ok := v.Edge(id)
	if !ok {
		return EdgeDisplay{}, false
	}
	return resolveEdge(e, snap), true
}

// Resolve applies both rules to the whole graph.
func Resolve(v FrameView, snap Snapshot) Frame {
	active := activeSet(v, snap)

	edges := v.Edges()
	visible := make(map[string]bool)
	for _, e := range edges {
		if snap.Window.ContainsTime(e.Timestamp) {
			visible[e.Source] = true
			visible[e.Target] = true
		}
	}

	frame := Frame{
		Snapshot: snap,
		Nodes:    []NodeDisplay{},
		Edges:    make([]EdgeDisplay, 0, len(edges)),
	}
	for _, n := range v.Nodes() {
		frame.Nodes = append(frame.Nodes, resolveNode(n, visible[n.ID], active, snap))
	}
	for _, e := range edges {
		frame.Edges = append(frame.Edges, resolveEdge(e, snap))
	}
	sort.SliceStable(frame.Nodes, func(i, j int) bool {
		return frame.Nodes[i].ZIndex < frame.Nodes[j].ZIndex
	})
	return frame
}

// activeSet returns the selected node and its neighbors, or nil without a
// selection.
func activeSet(v View, snap Snapshot) map[string]bool {
	if !snap.HasSelection {
		return nil
	}
	active := map[string]bool{snap.Selected: true}
	for _, id := range v.Neighbors(snap.Selected) {
		active[id] = true
	}
	return active
}

func resolveNode(n graph.Node, hasVisibleEdge bool, active map[string]bool, snap Snapshot) NodeDisplay {
	d := NodeDisplay{
		ID:        n.ID,
		X:         n.X,
		Y:         n.Y,
		Size:      EffectiveSize(n.Size, snap.ZoomRatio),
		Color:     n.Color,
		Highlight: n.Highlight,
		Emphasis:  1,
	}
	if n.Highlight {
		d.Emphasis = HighlightLabelScale
	}

	if !snap.HasSelection {
		d.State = StateNormal
		d.Hidden = !hasVisibleEdge
		if !d.Hidden && (d.Size > snap.Style.LabelThreshold || n.Highlight) {
			d.Label = n.Label
		}
		return d
	}

	if active[n.ID] {
		d.State = StateActive
		d.ZIndex = 1
		d.ForceLabel = true
		d.Label = n.Label
	} else {
		d.State = StateFaded
		d.Color = snap.Style.FadedColor
	}
	if snap.Policy != GateNone && !hasVisibleEdge {
		d.Hidden = true
		d.Label = ""
	}
	return d
}

func resolveEdge(e graph.Edge, snap Snapshot) EdgeDisplay {
	return EdgeDisplay{
		ID:     e.ID,
		Source: e.Source,
		Target: e.Target,
		Kind:   e.Kind,
		Color:  e.Color,
		Hidden: !snap.HasSelection || !e.Touches(snap.Selected),
	}
}
