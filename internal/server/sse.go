package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/npratt/nodescope/internal/events"
)

// keepAliveInterval is how often an idle SSE stream sends a comment.
const keepAliveInterval = 15 * time.Second

// handleEvents streams the session's events, layout frames included, as
// server-sent events until the client goes away or the session ends.
// ?types=a,b limits the stream to those event types.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch := sess.Events.SubscribeTypes(eventTypes(r.URL.Query().Get("types"))...)
	defer sess.Events.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := sonic.Marshal(event)
			if err != nil {
				s.logger.Warn("encode event", "type", event.Type(), "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type(), data)
			flusher.Flush()
		}
	}
}

// eventTypes parses a comma separated type list.
func eventTypes(raw string) []events.EventType {
	var types []events.EventType
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, events.EventType(t))
		}
	}
	return types
}
