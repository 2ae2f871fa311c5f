package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the default channel buffer size for subscribers.
const DefaultBufferSize = 100

// subscription is one consumer. A nil filter accepts every event type.
type subscription struct {
	ch     chan Event
	filter map[EventType]bool
}

func (s subscription) wants(t EventType) bool {
	return s.filter == nil || s.filter[t]
}

// Router fans events out from producers (ingest, layout driver, scene) to
// consumers (TUI, SSE streams, event log). Every subscriber gets its own
// buffered channel, optionally limited to some event types.
type Router struct {
	subs       []subscription
	bufferSize int
	logger     *slog.Logger
	mu         sync.RWMutex
	closed     bool
	dropped    atomic.Uint64
}

// NewRouter creates a router with the given subscriber buffer size.
// If bufferSize is 0 or negative, DefaultBufferSize is used.
func NewRouter(bufferSize int) *Router {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Router{
		bufferSize: bufferSize,
		logger:     slog.Default().With("component", "events"),
	}
}

// SetLogger replaces the logger used to report dropped events.
func (r *Router) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	r.logger = logger.With("component", "events")
	r.mu.Unlock()
}

// Emit publishes an event to every interested subscriber without blocking.
// A subscriber whose channel is full misses the event. Dropped layout
// frames are counted but not logged since the next frame supersedes them.
// Emit after Close is a no-op.
func (r *Router) Emit(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed || event == nil {
		return
	}

	t := event.Type()
	for _, sub := range r.subs {
		if !sub.wants(t) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			r.dropped.Add(1)
			if t != EventLayoutFrame {
				r.logger.Warn("event dropped: subscriber channel full",
					"event_type", t,
					"source", event.Source(),
				)
			}
		}
	}
}

// Subscribe returns a channel with the router's default buffer size.
// The returned channel is closed when the router is closed.
func (r *Router) Subscribe() <-chan Event {
	return r.subscribe(r.bufferSize, nil)
}

// SubscribeBuffered returns a channel with the given buffer size.
func (r *Router) SubscribeBuffered(size int) <-chan Event {
	return r.subscribe(size, nil)
}

// SubscribeTypes returns a channel that only receives the listed types.
// With no types it behaves like Subscribe.
func (r *Router) SubscribeTypes(types ...EventType) <-chan Event {
	if len(types) == 0 {
		return r.Subscribe()
	}
	filter := make(map[EventType]bool, len(types))
	for _, t := range types {
		filter[t] = true
	}
	return r.subscribe(r.bufferSize, filter)
}

func (r *Router) subscribe(size int, filter map[EventType]bool) <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, size)
	r.subs = append(r.subs, subscription{ch: ch, filter: filter})
	return ch
}

// Unsubscribe removes a subscription and closes its channel. Unknown or
// already removed channels are ignored.
func (r *Router) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subs {
		if sub.ch == ch {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (r *Router) Subscribers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (r *Router) Dropped() uint64 {
	return r.dropped.Load()
}

// Close closes all subscriber channels. Later Emit calls are no-ops and
// later Subscribe calls return closed channels. Close is idempotent.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.closed = true
	for _, sub := range r.subs {
		close(sub.ch)
	}
	r.subs = nil
}
