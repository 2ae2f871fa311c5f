package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/testutil"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.gexf")
	w := NewWatcher(path, nil, nil, nil)

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.Running())
	assert.Error(t, w.Start(context.Background()), "second start fails")

	w.Stop()
	assert.False(t, w.Running())
	w.Stop()
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope", "graph.gexf"), nil, nil, nil)
	assert.Error(t, w.Start(context.Background()))
	assert.False(t, w.Running())
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "graph.gexf", testutil.SocialGEXF)

	router := events.NewRouter(10)
	defer router.Close()
	sub := router.Subscribe()

	var calls atomic.Int32
	w := NewWatcher(path, func() { calls.Add(1) }, router, nil)
	w.SetDebounce(50 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(testutil.AirlinesGEXF), 0644))
	}
	// Unrelated files in the same directory are ignored.
	testutil.WriteFile(t, dir, "other.txt", "x")

	waitFor(t, func() bool { return calls.Load() >= 1 })
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	ev, ok := nextEvent(t, sub).(*events.SourceChangedEvent)
	require.True(t, ok)
	assert.Equal(t, path, ev.Path)
}
