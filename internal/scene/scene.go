// Package scene is the explicit context shared by every front end: the
// loaded graph, the camera, the selection, the hovered node, the time window
// and the layout driver. The resolver reads a Snapshot taken from it; the
// TUI and the HTTP API drive it through the interaction methods.
package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/npratt/nodescope/internal/config"
	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/graph"
	"github.com/npratt/nodescope/internal/layout"
	"github.com/npratt/nodescope/internal/resolver"
)

// ErrNoGraph is returned by operations that need a loaded graph.
var ErrNoGraph = errors.New("no graph loaded")

// LayoutStatus describes the layout driver for display.
type LayoutStatus struct {
	Running    bool   `json:"running"`
	Current    string `json:"current,omitempty"`
	Generation uint64 `json:"generation"`
}

// Label renders the status the way the UI shows it.
func (s LayoutStatus) Label() string {
	if s.Running {
		return "Loading"
	}
	if s.Current == "" {
		return "Idle"
	}
	return "Completed"
}

// Frame is a resolved graph plus the view state around it.
type Frame struct {
	resolver.Frame
	Camera      Camera       `json:"camera"`
	Layout      LayoutStatus `json:"layout"`
	WindowLabel string       `json:"window_label"`
	Hovered     string       `json:"hovered,omitempty"`
}

// Settings are the parts of the configuration a scene needs.
type Settings struct {
	Style         resolver.Style
	Policy        resolver.Policy
	Window        resolver.TimeWindow
	WindowMax     float64
	WindowStep    float64
	Bounds        Bounds
	ZoomStep      float64
	FrameInterval time.Duration
	Layouts       config.LayoutConfig
}

// SettingsFromConfig extracts scene settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Style: resolver.Style{
			FadedColor:     cfg.Style.FadedColor,
			LabelThreshold: cfg.Style.LabelThreshold,
		},
		Policy:        resolver.ParsePolicy(cfg.Style.ActivePolicy),
		Window:        resolver.TimeWindow{Start: cfg.Window.Start, End: cfg.Window.End},
		WindowMax:     cfg.Window.Max,
		WindowStep:    cfg.Window.Step,
		Bounds:        Bounds{MinRatio: cfg.Camera.MinRatio, MaxRatio: cfg.Camera.MaxRatio},
		ZoomStep:      cfg.Camera.ZoomStep,
		FrameInterval: cfg.Layout.FrameInterval,
		Layouts:       cfg.Layout,
	}
}

// Option configures a Scene.
type Option func(*Scene)

// WithRouter publishes scene and layout events to r.
func WithRouter(r *events.Router) Option {
	return func(s *Scene) { s.router = r }
}

// WithLogger sets the scene logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scene) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFrameSink forwards every layout frame to sink.
func WithFrameSink(sink layout.Sink) Option {
	return func(s *Scene) { s.sink = sink }
}

// Scene is safe for concurrent use.
type Scene struct {
	settings Settings
	registry *layout.Registry
	router   *events.Router
	logger   *slog.Logger
	sink     layout.Sink

	mu        sync.RWMutex
	graph     *graph.Graph
	location  string
	driver    *layout.Driver
	camera    Camera
	selection resolver.Selection
	window    resolver.TimeWindow
	hovered   string
}

// New creates an empty scene.
func New(settings Settings, opts ...Option) *Scene {
	s := &Scene{
		settings: settings,
		registry: layout.NewRegistry(settings.Layouts),
		logger:   slog.Default(),
		camera:   DefaultCamera(),
		window:   settings.Window,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scene")
	return s
}

// Registry exposes the layout registry, e.g. to list names.
func (s *Scene) Registry() *layout.Registry {
	return s.registry
}

// SetGraph swaps in a newly loaded graph. Any running layout is stopped,
// selection and hover are cleared and the camera is fitted to the graph.
func (s *Scene) SetGraph(g *graph.Graph, location string) {
	s.mu.Lock()
	old := s.driver
	s.graph = g
	s.location = location
	s.selection.ClickStage()
	s.hovered = ""
	opts := []layout.Option{
		layout.WithLogger(s.logger),
		layout.WithFrameInterval(s.settings.FrameInterval),
	}
	if s.router != nil {
		opts = append(opts, layout.WithRouter(s.router))
	}
	if s.sink != nil {
		opts = append(opts, layout.WithSink(s.sink))
	}
	s.driver = layout.NewDriver(g, s.registry, opts...)
	s.camera = Fit(pointsOf(g.Nodes()), s.settings.Bounds)
	camera := s.camera
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	s.emitCamera(camera)
}

// Graph returns the loaded graph, or nil.
func (s *Scene) Graph() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// Location returns where the loaded graph came from.
func (s *Scene) Location() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// ClickNode selects id and frames it with its neighbors.
func (s *Scene) ClickNode(id string) error {
	s.mu.Lock()
	if s.graph == nil {
		s.mu.Unlock()
		return ErrNoGraph
	}
	if !s.graph.HasNode(id) {
		s.mu.Unlock()
		return fmt.Errorf("select %q: %w", id, graph.ErrUnknownNode)
	}
	s.selection.ClickNode(id)
	s.camera = s.fitSelectionLocked()
	camera := s.camera
	s.mu.Unlock()

	s.emit(&events.SelectionChangedEvent{
		BaseEvent: events.NewBase(events.EventSelectionChanged, events.SourceScene),
		NodeID:    id,
		Selected:  true,
	})
	s.emitCamera(camera)
	return nil
}

// ClickStage clears the selection.
func (s *Scene) ClickStage() {
	s.mu.Lock()
	s.selection.ClickStage()
	s.mu.Unlock()

	s.emit(&events.SelectionChangedEvent{
		BaseEvent: events.NewBase(events.EventSelectionChanged, events.SourceScene),
	})
}

// Selected returns the selected node, if any.
func (s *Scene) Selected() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.Selected()
}

// Enter marks id as hovered, leaving any previously hovered node.
func (s *Scene) Enter(id string) error {
	s.mu.Lock()
	if s.graph == nil {
		s.mu.Unlock()
		return ErrNoGraph
	}
	prev := s.hovered
	if prev == id {
		s.mu.Unlock()
		return nil
	}
	if err := s.graph.SetHighlight(id, true); err != nil {
		s.mu.Unlock()
		return err
	}
	if prev != "" {
		_ = s.graph.SetHighlight(prev, false)
	}
	s.hovered = id
	s.mu.Unlock()

	if prev != "" {
		s.emitHover(prev, false)
	}
	s.emitHover(id, true)
	return nil
}

// Leave clears the hover flag of id.
func (s *Scene) Leave(id string) error {
	s.mu.Lock()
	if s.graph == nil {
		s.mu.Unlock()
		return ErrNoGraph
	}
	if err := s.graph.SetHighlight(id, false); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.hovered == id {
		s.hovered = ""
	}
	s.mu.Unlock()

	s.emitHover(id, false)
	return nil
}

// Hovered returns the hovered node, or "".
func (s *Scene) Hovered() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hovered
}

// SetWindowEnd moves the end of the time window, clamped to
// [start, WindowMax], and returns the new window.
func (s *Scene) SetWindowEnd(end float64) resolver.TimeWindow {
	s.mu.Lock()
	s.window = s.window.WithEnd(end, s.settings.WindowMax)
	w := s.window
	s.mu.Unlock()

	s.emitWindow(w)
	return w
}

// StepWindow moves the window end by steps multiples of WindowStep.
func (s *Scene) StepWindow(steps int) resolver.TimeWindow {
	s.mu.Lock()
	s.window = s.window.Step(float64(steps)*s.settings.WindowStep, s.settings.WindowMax)
	w := s.window
	s.mu.Unlock()

	s.emitWindow(w)
	return w
}

// Window returns the current time window.
func (s *Scene) Window() resolver.TimeWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// Camera returns the current camera.
func (s *Scene) Camera() Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// SetZoom sets the camera ratio, clamped to the configured bounds.
func (s *Scene) SetZoom(ratio float64) Camera {
	s.mu.Lock()
	s.camera.Ratio = s.settings.Bounds.Clamp(ratio)
	c := s.camera
	s.mu.Unlock()

	s.emitCamera(c)
	return c
}

// ZoomIn divides the ratio by ZoomStep; ZoomOut multiplies it.
func (s *Scene) ZoomIn() Camera { return s.zoomBy(1 / s.settings.ZoomStep) }

// ZoomOut multiplies the ratio by ZoomStep.
func (s *Scene) ZoomOut() Camera { return s.zoomBy(s.settings.ZoomStep) }

func (s *Scene) zoomBy(f float64) Camera {
	s.mu.RLock()
	r := s.camera.Ratio * f
	s.mu.RUnlock()
	return s.SetZoom(r)
}

// Pan moves the camera center by (dx, dy) viewport half-extents.
func (s *Scene) Pan(dx, dy float64) Camera {
	s.mu.Lock()
	s.camera.X += dx * s.camera.Ratio
	s.camera.Y += dy * s.camera.Ratio
	c := s.camera
	s.mu.Unlock()

	s.emitCamera(c)
	return c
}

// FitSelection frames the selected node and its neighbors, or the whole
// graph without a selection.
func (s *Scene) FitSelection() Camera {
	s.mu.Lock()
	s.camera = s.fitSelectionLocked()
	c := s.camera
	s.mu.Unlock()

	s.emitCamera(c)
	return c
}

func (s *Scene) fitSelectionLocked() Camera {
	if s.graph == nil {
		return Camera{Ratio: s.settings.Bounds.Clamp(1)}
	}
	id, ok := s.selection.Selected()
	if !ok {
		return Fit(pointsOf(s.graph.Nodes()), s.settings.Bounds)
	}
	var pts []graph.Point
	for _, nid := range append([]string{id}, s.graph.Neighbors(id)...) {
		if n, ok := s.graph.Node(nid); ok {
			pts = append(pts, n.Position())
		}
	}
	return Fit(pts, s.settings.Bounds)
}

// Snapshot captures the resolver inputs.
func (s *Scene) Snapshot() resolver.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Scene) snapshotLocked() resolver.Snapshot {
	sel, ok := s.selection.Selected()
	return resolver.Snapshot{
		Selected:     sel,
		HasSelection: ok,
		Window:       s.window,
		ZoomRatio:    s.camera.Ratio,
		Policy:       s.settings.Policy,
		Style:        s.settings.Style,
	}
}

// Render resolves every node and edge for the current state.
func (s *Scene) Render() (Frame, error) {
	s.mu.RLock()
	g := s.graph
	snap := s.snapshotLocked()
	camera := s.camera
	hovered := s.hovered
	window := s.window
	s.mu.RUnlock()

	if g == nil {
		return Frame{}, ErrNoGraph
	}
	return Frame{
		Frame:       resolver.Resolve(g, snap),
		Camera:      camera,
		Layout:      s.LayoutStatus(),
		WindowLabel: window.Label(),
		Hovered:     hovered,
	}, nil
}

// RunLayout starts a layout sequence, superseding any in flight.
func (s *Scene) RunLayout(ctx context.Context, names []string, duration time.Duration) (uint64, error) {
	s.mu.RLock()
	d := s.driver
	s.mu.RUnlock()
	if d == nil {
		return 0, ErrNoGraph
	}
	return d.Run(ctx, names, duration)
}

// WaitLayout blocks until the latest layout sequence finishes.
func (s *Scene) WaitLayout() {
	s.mu.RLock()
	d := s.driver
	s.mu.RUnlock()
	if d != nil {
		d.Wait()
	}
}

// LayoutStatus reports the driver state.
func (s *Scene) LayoutStatus() LayoutStatus {
	s.mu.RLock()
	d := s.driver
	s.mu.RUnlock()
	if d == nil {
		return LayoutStatus{}
	}
	return LayoutStatus{
		Running:    d.Running(),
		Current:    d.Current(),
		Generation: d.Generation(),
	}
}

// Close stops any running layout.
func (s *Scene) Close() {
	s.mu.RLock()
	d := s.driver
	s.mu.RUnlock()
	if d != nil {
		d.Stop()
	}
}

func (s *Scene) emit(e events.Event) {
	if s.router != nil {
		s.router.Emit(e)
	}
}

func (s *Scene) emitHover(id string, on bool) {
	s.emit(&events.HoverChangedEvent{
		BaseEvent: events.NewBase(events.EventHoverChanged, events.SourceScene),
		NodeID:    id,
		On:        on,
	})
}

func (s *Scene) emitWindow(w resolver.TimeWindow) {
	s.emit(&events.WindowChangedEvent{
		BaseEvent: events.NewBase(events.EventWindowChanged, events.SourceScene),
		Start:     w.Start,
		End:       w.End,
	})
}

func (s *Scene) emitCamera(c Camera) {
	s.emit(&events.CameraChangedEvent{
		BaseEvent: events.NewBase(events.EventCameraChanged, events.SourceScene),
		X:         c.X,
		Y:         c.Y,
		Ratio:     c.Ratio,
	})
}

func pointsOf(nodes []graph.Node) []graph.Point {
	pts := make([]graph.Point, 0, len(nodes))
	for _, n := range nodes {
		pts = append(pts, n.Position())
	}
	return pts
}
