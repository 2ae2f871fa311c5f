package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/npratt/nodescope/internal/graph"
	"github.com/npratt/nodescope/internal/ingest"
	"github.com/npratt/nodescope/internal/layout"
	"github.com/npratt/nodescope/internal/scene"
)

type selectRequest struct {
	Node string `json:"node" validate:"required"`
}

type hoverRequest struct {
	Node string `json:"node" validate:"required"`
	On   bool   `json:"on"`
}

type windowRequest struct {
	End *float64 `json:"end" validate:"required"`
}

type zoomRequest struct {
	Ratio float64 `json:"ratio" validate:"gt=0"`
}

type layoutRequest struct {
	Layouts    []string `json:"layouts" validate:"required,min=1,dive,required"`
	DurationMS *int     `json:"duration_ms" validate:"omitempty,gte=0"`
}

type healthResponse struct {
	Status      string `json:"status"`
	GraphLoaded bool   `json:"graph_loaded"`
	Sessions    int    `json:"sessions"`
}

type sessionResponse struct {
	ID       string `json:"id"`
	Location string `json:"location"`
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
}

type layoutResponse struct {
	Generation uint64   `json:"generation"`
	Layouts    []string `json:"layouts"`
}

type summaryResponse struct {
	Location      string         `json:"location"`
	LoadedAt      time.Time      `json:"loaded_at"`
	Summary       ingest.Summary `json:"summary"`
	Timestamped   int            `json:"timestamped"`
	UnknownKinds  map[string]int `json:"unknown_kinds,omitempty"`
	LabelsDerived int            `json:"labels_derived"`
	Layouts       []string       `json:"layouts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	loaded := s.base != nil
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		GraphLoaded: loaded,
		Sessions:    s.store.Len(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	base, location, stats, loadedAt := s.base, s.location, s.stats, s.loadedAt
	s.mu.RUnlock()
	if base == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoGraph.Error())
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Location:      location,
		LoadedAt:      loadedAt,
		Summary:       ingest.Summarize(base),
		Timestamped:   stats.Timestamped,
		UnknownKinds:  stats.UnknownKinds,
		LabelsDerived: stats.LabelsDerived,
		Layouts:       layout.NewRegistry(s.cfg.Layout).Names(),
	})
}

// handleReload refetches the source. A failed fetch is a bad gateway and
// leaves the previous graph in place.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Load(r.Context()); err != nil {
		s.logger.Warn("reload failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.handleSummary(w, r)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.newSession()
	if err != nil {
		if errors.Is(err, ErrNoGraph) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	g := sess.Scene.Graph()
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:       sess.ID,
		Location: sess.Scene.Location(),
		Nodes:    g.Order(),
		Edges:    g.Size(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.metrics.Sessions.Set(float64(s.store.Len()))
	w.WriteHeader(http.StatusNoContent)
}

// session looks up the {id} session, writing 404 when it is missing.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// writeFrame renders the session scene.
func (s *Server) writeFrame(w http.ResponseWriter, sess *Session) {
	f, err := sess.Scene.Render()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		s.writeFrame(w, sess)
	}
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.Scene.ClickNode(req.Node); err != nil {
		writeSceneError(w, err)
		return
	}
	s.writeFrame(w, sess)
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Scene.ClickStage()
	s.writeFrame(w, sess)
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req hoverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var err error
	if req.On {
		err = sess.Scene.Enter(req.Node)
	} else {
		err = sess.Scene.Leave(req.Node)
	}
	if err != nil {
		writeSceneError(w, err)
		return
	}
	s.writeFrame(w, sess)
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req windowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.Scene.SetWindowEnd(*req.End)
	s.writeFrame(w, sess)
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req zoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess.Scene.SetZoom(req.Ratio)
	s.writeFrame(w, sess)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req layoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	duration := s.cfg.Layout.Duration
	if req.DurationMS != nil {
		duration = time.Duration(*req.DurationMS) * time.Millisecond
	}
	// The run outlives the request, so it is not tied to r.Context().
	gen, err := sess.Scene.RunLayout(context.Background(), req.Layouts, duration)
	if err != nil {
		writeSceneError(w, err)
		return
	}
	s.countLayouts(req.Layouts)
	writeJSON(w, http.StatusAccepted, layoutResponse{Generation: gen, Layouts: req.Layouts})
}

// writeSceneError maps scene and layout errors to HTTP statuses.
func writeSceneError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, graph.ErrUnknownNode):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, layout.ErrUnknownLayout):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scene.ErrNoGraph):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
