package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/gexf"
	"github.com/npratt/nodescope/internal/graph"
)

// Result is a freshly loaded graph and what Annotate derived for it.
type Result struct {
	Location string
	Graph    *graph.Graph
	Stats    Stats
	Took     time.Duration
}

// Loader runs fetch, decode and annotate as one step.
type Loader struct {
	source Source
	opts   Options
	router *events.Router
	logger *slog.Logger
}

// NewLoader creates a Loader. router may be nil.
func NewLoader(source Source, opts Options, router *events.Router, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source: source,
		opts:   opts,
		router: router,
		logger: logger.With("component", "loader"),
	}
}

// Load fetches location and returns the annotated graph. On failure no
// graph is returned; the error is logged and published as an ErrorEvent.
func (l *Loader) Load(ctx context.Context, location string) (*Result, error) {
	start := time.Now()

	res, err := l.load(ctx, location)
	if err != nil {
		l.logger.Error("graph load failed", "location", location, "error", err)
		l.emit(&events.ErrorEvent{
			BaseEvent: events.NewBase(events.EventError, events.SourceIngest),
			Message:   err.Error(),
			Severity:  events.SeverityError,
		})
		return nil, err
	}

	res.Took = time.Since(start)
	l.logger.Info("graph loaded",
		"location", location,
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"timestamped", res.Stats.Timestamped,
		"duration", res.Took,
	)
	for kind, n := range res.Stats.UnknownKinds {
		l.logger.Debug("edge category has no palette color", "kind", kind, "edges", n)
	}
	l.emit(&events.GraphLoadedEvent{
		BaseEvent:  events.NewBase(events.EventGraphLoaded, events.SourceIngest),
		Location:   location,
		Nodes:      res.Stats.Nodes,
		Edges:      res.Stats.Edges,
		DurationMs: res.Took.Milliseconds(),
	})
	return res, nil
}

func (l *Loader) load(ctx context.Context, location string) (*Result, error) {
	data, err := l.source.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := gexf.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}

	stats := Annotate(g, l.opts)
	return &Result{Location: location, Graph: g, Stats: stats}, nil
}

func (l *Loader) emit(e events.Event) {
	if l.router != nil {
		l.router.Emit(e)
	}
}
