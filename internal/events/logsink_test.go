package events

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogSink_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	sink := NewLogSink(path)

	ch := make(chan Event, 4)
	if err := sink.Start(context.Background(), ch); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ch <- selection("A")
	ch <- &LayoutFrameEvent{BaseEvent: NewBase(EventLayoutFrame, SourceLayout)}
	ch <- selection("")
	close(ch)

	if err := sink.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines (frames skipped), got %d: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], `"type":"selection.changed"`) || !strings.Contains(lines[0], `"node_id":"A"`) {
		t.Errorf("unexpected first line %s", lines[0])
	}
	if sink.Path() != path {
		t.Errorf("Path() = %q", sink.Path())
	}
}

func TestLogSink_StopsOnContextCancel(t *testing.T) {
	sink := NewLogSink(filepath.Join(t.TempDir(), "events.jsonl"))
	ctx, cancel := context.WithCancel(context.Background())

	if err := sink.Start(ctx, make(chan Event)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()
	if err := sink.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestLogSink_WithSkip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	sink := NewLogSink(path, WithSkip(EventSelectionChanged))

	ch := make(chan Event, 4)
	if err := sink.Start(context.Background(), ch); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ch <- selection("A")
	ch <- &HoverChangedEvent{BaseEvent: NewBase(EventHoverChanged, SourceScene), NodeID: "B", On: true}
	close(ch)
	if err := sink.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "selection.changed") {
		t.Errorf("skipped type was written: %s", data)
	}
	if !strings.Contains(string(data), `"type":"hover.changed"`) {
		t.Errorf("hover should be logged once the skip list is replaced: %s", data)
	}
}

func TestLogSink_BadPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// A regular file cannot be a parent directory.
	sink := NewLogSink(filepath.Join(file, "events.jsonl"))
	if err := sink.Start(context.Background(), make(chan Event)); err == nil {
		t.Fatal("expected an error for an unusable path")
	}
}
