package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/npratt/nodescope/internal/events"
)

// DefaultDebounce is how long rapid writes must settle before a reload.
const DefaultDebounce = 150 * time.Millisecond

// Watcher calls OnChange whenever a local graph file is written or
// replaced. Editors and exporters often write a file in several steps, so
// changes are debounced.
type Watcher struct {
	path     string
	onChange func()
	router   *events.Router
	logger   *slog.Logger
	debounce time.Duration

	running atomic.Bool
	done    chan struct{}
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// NewWatcher creates a watcher for path. router may be nil.
func NewWatcher(path string, onChange func(), router *events.Router, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		onChange: onChange,
		router:   router,
		logger:   logger.With("component", "watcher"),
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the settle time.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching in a background goroutine and returns once the
// watch is registered. Use Stop to terminate.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running.Load() {
		return fmt.Errorf("watcher already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}

	// Watch the directory: atomic saves replace the file, which drops a
	// watch placed on the file itself.
	dir := filepath.Dir(w.path)
	if _, err := os.Stat(dir); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running.Store(true)

	go w.runLoop(ctx, fsWatcher)

	w.logger.Info("watching graph source", "path", w.path)
	return nil
}

// Stop terminates the watcher and waits for its goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running.Load() {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}

// Running returns whether the watcher is active.
func (w *Watcher) Running() bool {
	return w.running.Load()
}

func (w *Watcher) runLoop(ctx context.Context, fsWatcher *fsnotify.Watcher) {
	defer func() {
		_ = fsWatcher.Close()
		w.running.Store(false)
		close(w.done)
	}()

	var timer *time.Timer
	var timerMu sync.Mutex
	trigger := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			if ctx.Err() != nil {
				return
			}
			w.logger.Debug("graph source changed", "path", w.path)
			w.emit(&events.SourceChangedEvent{
				BaseEvent: events.NewBase(events.EventSourceChanged, events.SourceIngest),
				Path:      w.path,
			})
			if w.onChange != nil {
				w.onChange()
			}
		})
	}

	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timerMu.Unlock()
			return

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target && filepath.Base(event.Name) != filepath.Base(target) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				trigger()
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
			w.emit(&events.ErrorEvent{
				BaseEvent: events.NewBase(events.EventError, events.SourceIngest),
				Message:   fmt.Sprintf("file watcher error: %v", err),
				Severity:  events.SeverityWarning,
			})
		}
	}
}

func (w *Watcher) emit(e events.Event) {
	if w.router != nil {
		w.router.Emit(e)
	}
}
