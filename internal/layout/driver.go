package layout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/graph"
)

// DefaultFrameInterval is used when no frame interval is configured.
const DefaultFrameInterval = 33 * time.Millisecond

// Frame is one animation step of a layout stage.
type Frame struct {
	Generation uint64
	Layout     string
	Progress   float64 // eased fraction of the stage, 0..1
	Positions  map[string]graph.Point
}

// Sink receives frames after they have been written to the graph.
type Sink func(Frame)

// Driver runs layout sequences against a graph. Only the most recent Run is
// allowed to move nodes: each Run takes a new generation, cancels the
// previous one, and writes are dropped unless they carry the current
// generation.
type Driver struct {
	graph         *graph.Graph
	registry      *Registry
	router        *events.Router
	logger        *slog.Logger
	sink          Sink
	frameInterval time.Duration

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	current string
}

// Option configures a Driver.
type Option func(*Driver)

// WithSink sets the frame callback.
func WithSink(s Sink) Option {
	return func(d *Driver) { d.sink = s }
}

// WithRouter publishes layout events to r.
func WithRouter(r *events.Router) Option {
	return func(d *Driver) { d.router = r }
}

// WithLogger sets the driver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l.With("component", "layout")
		}
	}
}

// WithFrameInterval sets the animation tick.
func WithFrameInterval(iv time.Duration) Option {
	return func(d *Driver) {
		if iv > 0 {
			d.frameInterval = iv
		}
	}
}

// NewDriver creates a Driver that moves the nodes of g.
func NewDriver(g *graph.Graph, registry *Registry, opts ...Option) *Driver {
	d := &Driver{
		graph:         g,
		registry:      registry,
		logger:        slog.Default().With("component", "layout"),
		frameInterval: DefaultFrameInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run starts the named layouts as one sequence and returns its generation.
// Stages run strictly in order; each animates from the current positions to
// its targets over duration before the next starts. Any sequence already in
// flight is cancelled first. Unknown names fail before anything is cancelled.
func (d *Driver) Run(ctx context.Context, names []string, duration time.Duration) (uint64, error) {
	algs, err := d.registry.Resolve(names)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.gen++
	gen := d.gen
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done
	d.running = true
	d.mu.Unlock()

	d.emit(&events.LayoutStartEvent{
		BaseEvent:  events.NewBase(events.EventLayoutStart, events.SourceLayout),
		Generation: gen,
		Layouts:    names,
	})
	d.logger.Debug("layout sequence started", "generation", gen, "layouts", names)

	go d.run(runCtx, cancel, gen, algs, duration, done)
	return gen, nil
}

func (d *Driver) run(ctx context.Context, cancel context.CancelFunc, gen uint64, algs []Algorithm, duration time.Duration, done chan struct{}) {
	defer close(done)
	defer cancel()

	var last string
	var runErr error
	for _, alg := range algs {
		targets, err := alg.Positions(ctx, d.graph)
		if err != nil {
			runErr = err
			break
		}
		if err := d.animate(ctx, gen, alg.Name(), targets, duration); err != nil {
			runErr = err
			break
		}
		last = alg.Name()
		d.mu.Lock()
		if d.gen == gen {
			d.current = last
		}
		d.mu.Unlock()
	}

	d.mu.Lock()
	superseded := d.gen != gen
	if !superseded {
		d.running = false
	}
	d.mu.Unlock()

	if runErr != nil && errors.Is(runErr, context.Canceled) && !superseded {
		// Cancelled by Stop or the caller's context, not by a newer Run.
		runErr = nil
	}

	result := &events.LayoutDoneEvent{
		BaseEvent:  events.NewBase(events.EventLayoutDone, events.SourceLayout),
		Generation: gen,
		Layout:     last,
		Superseded: superseded,
	}
	if runErr != nil && !superseded {
		result.Error = runErr.Error()
		d.logger.Warn("layout sequence failed", "generation", gen, "error", runErr)
	}
	d.emit(result)
	d.logger.Debug("layout sequence finished", "generation", gen, "last", last, "superseded", superseded)
}

// animate interpolates from the current positions to targets with
// quadratic in-out easing. A non-positive duration jumps straight to the
// targets in a single frame.
func (d *Driver) animate(ctx context.Context, gen uint64, name string, targets map[string]graph.Point, duration time.Duration) error {
	from := d.graph.Positions()

	if duration <= 0 {
		return d.apply(gen, name, 1, targets)
	}

	ticker := time.NewTicker(d.frameInterval)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			t := float64(now.Sub(start)) / float64(duration)
			if t >= 1 {
				return d.apply(gen, name, 1, targets)
			}
			p := QuadraticInOut(t)
			if err := d.apply(gen, name, p, Interpolate(from, targets, p)); err != nil {
				return err
			}
		}
	}
}

// apply writes positions if gen is still current, then reports the frame.
// A stale generation gets context.Canceled.
func (d *Driver) apply(gen uint64, name string, progress float64, positions map[string]graph.Point) error {
	d.mu.Lock()
	if d.gen != gen {
		d.mu.Unlock()
		return context.Canceled
	}
	d.graph.SetPositions(positions)
	d.mu.Unlock()

	frame := Frame{Generation: gen, Layout: name, Progress: progress, Positions: positions}
	if d.sink != nil {
		d.sink(frame)
	}
	d.emit(&events.LayoutFrameEvent{
		BaseEvent:  events.NewBase(events.EventLayoutFrame, events.SourceLayout),
		Generation: gen,
		Layout:     name,
		Progress:   progress,
	})
	return nil
}

func (d *Driver) emit(e events.Event) {
	if d.router != nil {
		d.router.Emit(e)
	}
}

// Stop cancels the in-flight sequence, if any, and waits for it to exit.
func (d *Driver) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()
	d.Wait()
}

// Wait blocks until the most recent sequence has finished.
func (d *Driver) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Running reports whether a sequence is in flight.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Current returns the last layout that completed for the latest generation.
func (d *Driver) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Generation returns the latest generation handed out by Run.
func (d *Driver) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// QuadraticInOut eases t in [0,1].
func QuadraticInOut(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 2 * t * t
	default:
		return -1 + (4-2*t)*t
	}
}

// Interpolate moves each node of to a fraction p of the way from its
// position in from. Nodes missing from from start at their target.
func Interpolate(from, to map[string]graph.Point, p float64) map[string]graph.Point {
	out := make(map[string]graph.Point, len(to))
	for id, dst := range to {
		src, ok := from[id]
		if !ok {
			src = dst
		}
		out[id] = graph.Point{
			X: src.X + (dst.X-src.X)*p,
			Y: src.Y + (dst.Y-src.Y)*p,
		}
	}
	return out
}
