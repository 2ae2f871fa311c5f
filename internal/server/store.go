package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/scene"
)

// defaultMaxSessions bounds the number of live view sessions.
const defaultMaxSessions = 100

// Session is one client's view of the graph: its own scene (selection,
// hover, window, camera and layout) over a private copy of the graph.
type Session struct {
	ID        string
	Scene     *scene.Scene
	Events    *events.Router
	CreatedAt time.Time

	lastAccess time.Time
}

// NewSession wraps a scene and its event router under a fresh id.
func NewSession(sc *scene.Scene, router *events.Router) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New().String(),
		Scene:      sc,
		Events:     router,
		CreatedAt:  now,
		lastAccess: now,
	}
}

func (s *Session) close() {
	s.Scene.Close()
	s.Events.Close()
}

// Store holds live sessions with TTL cleanup and a capacity limit.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
	ttl         time.Duration
}

// NewStore creates a session store. Non-positive limits use defaults.
func NewStore(maxSessions int, ttl time.Duration) *Store {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &Store{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		ttl:         ttl,
	}
}

// Add stores sess, evicting the least recently used session when full.
func (s *Store) Add(sess *Session) {
	s.mu.Lock()
	var evicted *Session
	if len(s.sessions) >= s.maxSessions {
		for _, cand := range s.sessions {
			if evicted == nil || cand.lastAccess.Before(evicted.lastAccess) {
				evicted = cand
			}
		}
		delete(s.sessions, evicted.ID)
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if evicted != nil {
		evicted.close()
	}
}

// Get retrieves a session by ID and updates its last access time.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastAccess = time.Now()
	return sess, true
}

// Remove closes and forgets a session.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.close()
	}
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how
// many were removed.
func (s *Store) Cleanup() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.lastAccess.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	return len(expired)
}

// StartCleanup runs Cleanup every interval and returns a stop function.
// onRemove, when non-nil, is told how many sessions each pass removed.
func (s *Store) StartCleanup(interval time.Duration, onRemove func(int)) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 && onRemove != nil {
					onRemove(n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// Close removes every session.
func (s *Store) Close() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.close()
	}
}
