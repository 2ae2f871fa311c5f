// Package server exposes scenes over HTTP: each client creates a view
// session, drives it with the same interactions the TUI offers and reads
// resolved frames as JSON or follows its events over SSE.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/npratt/nodescope/internal/config"
	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/graph"
	"github.com/npratt/nodescope/internal/ingest"
	"github.com/npratt/nodescope/internal/layout"
	"github.com/npratt/nodescope/internal/scene"
)

// ErrNoGraph is returned when a session is requested before any graph loaded.
var ErrNoGraph = errors.New("no graph loaded")

// sessionEventBuffer is the router buffer of each session.
const sessionEventBuffer = 256

// Loader fetches and annotates a graph. *ingest.Loader implements it.
type Loader interface {
	Load(ctx context.Context, location string) (*ingest.Result, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics replaces the default metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Server) { s.maxSessions = n }
}

// Server is the HTTP front end. It keeps the last good graph as the base
// every new session copies.
type Server struct {
	cfg         *config.Config
	settings    scene.Settings
	loader      Loader
	logger      *slog.Logger
	metrics     *Metrics
	maxSessions int
	store       *Store
	router      chi.Router

	mu       sync.RWMutex
	base     *graph.Graph
	location string
	stats    ingest.Stats
	loadedAt time.Time
}

// New creates a server with all routes configured. loader may be nil when
// the graph is installed with SetGraph.
func New(cfg *config.Config, loader Loader, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		settings: scene.SettingsFromConfig(cfg),
		loader:   loader,
		logger:   slog.Default(),
		location: cfg.Source.Location,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics("nodescope")
	}
	s.logger = s.logger.With("component", "server")
	s.store = NewStore(s.maxSessions, cfg.Server.SessionTTL)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph/summary", s.handleSummary)
		r.Post("/graph/reload", s.handleReload)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Get("/frame", s.handleFrame)
			r.Post("/select", s.handleSelect)
			r.Post("/stage", s.handleStage)
			r.Post("/hover", s.handleHover)
			r.Put("/window", s.handleWindow)
			r.Put("/zoom", s.handleZoom)
			r.Post("/layout", s.handleLayout)
			r.Get("/events", s.handleEvents)
		})
	})
	return r
}

// ServeHTTP implements the http.Handler interface, delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer returns an http.Server for the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// StartCleanup expires idle sessions every interval until the returned
// function is called.
func (s *Server) StartCleanup(interval time.Duration) func() {
	return s.store.StartCleanup(interval, func(n int) {
		s.logger.Debug("expired sessions", "count", n)
		s.metrics.Sessions.Set(float64(s.store.Len()))
	})
}

// Load fetches the configured source and makes it the base graph. On
// failure the previous base graph stays.
func (s *Server) Load(ctx context.Context) error {
	if s.loader == nil {
		return fmt.Errorf("load %s: no loader configured", s.location)
	}
	res, err := s.loader.Load(ctx, s.location)
	if err != nil {
		s.metrics.GraphLoads.WithLabelValues("error").Inc()
		return err
	}
	s.metrics.GraphLoads.WithLabelValues("ok").Inc()
	s.SetGraph(res.Graph, res.Location, res.Stats)
	return nil
}

// SetGraph installs g as the base for new sessions. Existing sessions
// keep the graph they started with.
func (s *Server) SetGraph(g *graph.Graph, location string, stats ingest.Stats) {
	s.mu.Lock()
	s.base = g
	s.location = location
	s.stats = stats
	s.loadedAt = time.Now()
	s.mu.Unlock()
	s.logger.Info("base graph installed", "location", location, "nodes", g.Order(), "edges", g.Size())
}

// newSession builds a scene over a private copy of the base graph and
// starts the initial layouts.
func (s *Server) newSession() (*Session, error) {
	s.mu.RLock()
	base, location := s.base, s.location
	s.mu.RUnlock()
	if base == nil {
		return nil, ErrNoGraph
	}

	router := events.NewRouter(sessionEventBuffer)
	router.SetLogger(s.logger)
	sc := scene.New(s.settings,
		scene.WithRouter(router),
		scene.WithLogger(s.logger),
		scene.WithFrameSink(s.countFrame),
	)
	sc.SetGraph(base.Clone(), location)

	if names := s.cfg.Layout.Initial; len(names) > 0 {
		if _, err := sc.RunLayout(context.Background(), names, s.cfg.Layout.Duration); err != nil {
			sc.Close()
			router.Close()
			return nil, err
		}
		s.countLayouts(names)
	}

	sess := NewSession(sc, router)
	s.store.Add(sess)
	s.metrics.Sessions.Set(float64(s.store.Len()))
	return sess, nil
}

func (s *Server) countLayouts(names []string) {
	for _, n := range names {
		s.metrics.LayoutRuns.WithLabelValues(n).Inc()
	}
}

func (s *Server) countFrame(f layout.Frame) {
	s.metrics.LayoutFrames.WithLabelValues(f.Layout).Inc()
}

// Close ends every session.
func (s *Server) Close() {
	s.store.Close()
	s.metrics.Sessions.Set(0)
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
