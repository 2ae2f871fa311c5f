package events

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/bytedance/sonic"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/npratt/nodescope/internal/config"
)

// Sink consumes events from the router.
type Sink interface {
	Start(ctx context.Context, events <-chan Event) error
	Stop() error
}

// DefaultSkip lists the event types the log leaves out: animation frames
// and pointer movement would drown everything else.
var DefaultSkip = []EventType{EventLayoutFrame, EventHoverChanged}

// LogSink appends events to a rotating JSON lines file.
type LogSink struct {
	path     string
	rotation config.LogRotationConfig
	skip     map[EventType]bool

	mu      sync.Mutex
	out     *lumberjack.Logger
	encoder sonic.Encoder
	done    chan struct{}
}

// LogSinkOption configures a LogSink.
type LogSinkOption func(*LogSink)

// WithRotation sets the size, age and backup limits of the log file.
func WithRotation(cfg config.LogRotationConfig) LogSinkOption {
	return func(s *LogSink) { s.rotation = cfg }
}

// WithSkip replaces the skipped event types.
func WithSkip(types ...EventType) LogSinkOption {
	return func(s *LogSink) {
		s.skip = make(map[EventType]bool, len(types))
		for _, t := range types {
			s.skip[t] = true
		}
	}
}

// NewLogSink creates a LogSink that writes to path.
func NewLogSink(path string, opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		path:     path,
		rotation: config.Default().LogRotation,
		done:     make(chan struct{}),
	}
	WithSkip(DefaultSkip...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the log file and processes events until ctx is cancelled or
// the channel closes.
func (s *LogSink) Start(ctx context.Context, events <-chan Event) error {
	out := &lumberjack.Logger{
		Filename:   s.path,
		MaxSize:    s.rotation.MaxSizeMB,
		MaxBackups: s.rotation.MaxBackups,
		MaxAge:     s.rotation.MaxAgeDays,
		Compress:   s.rotation.Compress,
	}
	// lumberjack opens lazily; write nothing now but surface a bad path early.
	if _, err := out.Write(nil); err != nil {
		close(s.done)
		return fmt.Errorf("open event log: %w", err)
	}

	s.mu.Lock()
	s.out = out
	s.encoder = sonic.ConfigStd.NewEncoder(out)
	s.mu.Unlock()

	go s.run(ctx, events)
	return nil
}

func (s *LogSink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if s.skip[event.Type()] {
				continue
			}
			s.write(event)
		}
	}
}

func (s *LogSink) write(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return
	}
	if err := s.encoder.Encode(event); err != nil {
		fmt.Fprintf(os.Stderr, "event log: failed to write event: %v\n", err)
	}
}

// Stop waits for the processing goroutine and closes the file.
func (s *LogSink) Stop() error {
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out == nil {
		return nil
	}
	err := s.out.Close()
	s.out = nil
	s.encoder = nil
	return err
}

// Path returns the log file path.
func (s *LogSink) Path() string {
	return s.path
}
