package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/nodescope/internal/events"
)

// TestLifecycle_LoadHoverQuit runs the TUI headlessly: it loads the graph,
// runs the initial layout, hovers and selects a node, then quits.
func TestLifecycle_LoadHoverQuit(t *testing.T) {
	router := events.NewRouter(100)
	defer router.Close()

	quit := false
	tui := New(newTestScene(t), &stubLoader{}, "social.gexf",
		WithEvents(router.Subscribe()),
		WithInitialLayouts([]string{"circular"}, 20*time.Millisecond),
		WithOnQuit(func() { quit = true }),
	)
	m := newModel(tui)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("nodes"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(model)
	require.True(t, ok)

	assert.True(t, quit, "quit callback runs")
	assert.NotNil(t, final.scene.Graph())
	sel, selected := final.scene.Selected()
	assert.True(t, selected)
	assert.Equal(t, "A", sel)
}

func TestLifecycle_CtrlC(t *testing.T) {
	m := newModel(New(newTestScene(t), nil, ""))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	_, ok := fm.(model)
	assert.True(t, ok)
}

func TestLifecycle_ChannelCloseQuits(t *testing.T) {
	ch := make(chan events.Event)
	m := newModel(New(newTestScene(t), nil, "", WithEvents(ch)))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	close(ch)

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	_, ok := fm.(model)
	assert.True(t, ok)
}

func TestRunSimple_PrintsSnapshot(t *testing.T) {
	router := events.NewRouter(100)
	defer router.Close()

	var out bytes.Buffer
	tui := New(newTestScene(t), &stubLoader{}, "social.gexf",
		WithEvents(router.Subscribe()),
		WithInitialLayouts([]string{"circular"}, 10*time.Millisecond),
		WithOutput(&out),
	)
	require.NoError(t, tui.runSimple(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Completed")
	assert.Contains(t, text, "02:00 to 6:00")
	assert.True(t, strings.Contains(text, "alice") || strings.Contains(text, "·"), "graph is drawn")
}

func TestRunSimple_LoadError(t *testing.T) {
	loader := &stubLoader{err: assert.AnError}
	tui := New(newTestScene(t), loader, "social.gexf", WithOutput(&bytes.Buffer{}))

	assert.ErrorIs(t, tui.runSimple(context.Background()), assert.AnError)
}
