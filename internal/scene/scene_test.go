package scene

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/nodescope/internal/config"
	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/gexf"
	"github.com/npratt/nodescope/internal/graph"
	"github.com/npratt/nodescope/internal/ingest"
	"github.com/npratt/nodescope/internal/layout"
	"github.com/npratt/nodescope/internal/resolver"
	"github.com/npratt/nodescope/internal/testutil"
)

func loadedScene(t *testing.T, opts ...Option) *Scene {
	t.Helper()
	cfg := config.Default()
	g, err := gexf.Parse([]byte(testutil.SocialGEXF))
	require.NoError(t, err)
	ingest.Annotate(g, ingest.OptionsFromConfig(cfg.Ingest))

	settings := SettingsFromConfig(cfg)
	settings.FrameInterval = 2 * time.Millisecond
	s := New(settings, opts...)
	s.SetGraph(g, "social.gexf")
	t.Cleanup(s.Close)
	return s
}

func displayByID(f Frame) map[string]resolver.NodeDisplay {
	out := make(map[string]resolver.NodeDisplay)
	for _, n := range f.Nodes {
		out[n.ID] = n
	}
	return out
}

func TestScene_NoGraph(t *testing.T) {
	s := New(SettingsFromConfig(config.Default()))

	_, err := s.Render()
	assert.True(t, errors.Is(err, ErrNoGraph))
	assert.True(t, errors.Is(s.ClickNode("A"), ErrNoGraph))
	assert.True(t, errors.Is(s.Enter("A"), ErrNoGraph))
	_, err = s.RunLayout(context.Background(), []string{"circular"}, 0)
	assert.True(t, errors.Is(err, ErrNoGraph))
	assert.Equal(t, LayoutStatus{}, s.LayoutStatus())
}

func TestScene_SelectAndStage(t *testing.T) {
	router := events.NewRouter(50)
	defer router.Close()
	sub := router.Subscribe()

	s := loadedScene(t, WithRouter(router))

	require.NoError(t, s.ClickNode("A"))
	id, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, "A", id)

	frame, err := s.Render()
	require.NoError(t, err)
	nodes := displayByID(frame)
	for _, nid := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, resolver.StateActive, nodes[nid].State, nid)
	}
	assert.Equal(t, resolver.StateFaded, nodes["E"].State)
	visible := 0
	for _, e := range frame.Edges {
		if !e.Hidden {
			visible++
		}
	}
	assert.Equal(t, 3, visible, "ab, ac and da touch A")

	s.ClickStage()
	_, ok = s.Selected()
	assert.False(t, ok)
	frame, _ = s.Render()
	for _, e := range frame.Edges {
		assert.True(t, e.Hidden)
	}

	var selections []bool
	deadline := time.After(time.Second)
	for len(selections) < 2 {
		select {
		case ev := <-sub:
			if e, ok := ev.(*events.SelectionChangedEvent); ok {
				selections = append(selections, e.Selected)
			}
		case <-deadline:
			t.Fatal("timeout waiting for selection events")
		}
	}
	assert.Equal(t, []bool{true, false}, selections)
}

func TestScene_ClickUnknownNode(t *testing.T) {
	s := loadedScene(t)
	require.NoError(t, s.ClickNode("A"))

	err := s.ClickNode("nope")
	assert.True(t, errors.Is(err, graph.ErrUnknownNode))
	id, _ := s.Selected()
	assert.Equal(t, "A", id, "failed click keeps the selection")
}

func TestScene_ClickFramesNeighborhood(t *testing.T) {
	s := loadedScene(t)
	before := s.Camera()

	require.NoError(t, s.ClickNode("F"))
	after := s.Camera()

	e, _ := s.Graph().Node("E")
	f, _ := s.Graph().Node("F")
	assert.InDelta(t, (e.X+f.X)/2, after.X, 1e-9)
	assert.InDelta(t, (e.Y+f.Y)/2, after.Y, 1e-9)
	assert.Less(t, after.Ratio, before.Ratio)
}

func TestScene_Hover(t *testing.T) {
	s := loadedScene(t)

	require.NoError(t, s.Enter("A"))
	require.NoError(t, s.Enter("B"))
	assert.Equal(t, "B", s.Hovered())

	a, _ := s.Graph().Node("A")
	b, _ := s.Graph().Node("B")
	assert.False(t, a.Highlight, "entering B leaves A")
	assert.True(t, b.Highlight)

	require.NoError(t, s.Leave("B"))
	assert.Empty(t, s.Hovered())
	assert.Error(t, s.Enter("nope"))
}

func TestScene_WindowEnd(t *testing.T) {
	s := loadedScene(t)

	assert.Equal(t, 4.0, s.SetWindowEnd(4).End)
	assert.Equal(t, 6.0, s.SetWindowEnd(12).End)
	assert.Equal(t, 2.0, s.SetWindowEnd(0).End)
	assert.Equal(t, 2.0, s.Window().Start)

	s.SetWindowEnd(6)
	assert.InDelta(t, 5.8, s.StepWindow(-2).End, 1e-9)

	// With [2,3] only A, B, C keep a visible edge (cb at 02:00, ac at 03:00).
	s.SetWindowEnd(3)
	frame, err := s.Render()
	require.NoError(t, err)
	nodes := displayByID(frame)
	assert.False(t, nodes["A"].Hidden)
	assert.False(t, nodes["B"].Hidden)
	assert.True(t, nodes["D"].Hidden)
	assert.Equal(t, "02:00 to 3:00", frame.WindowLabel)
}

func TestScene_Zoom(t *testing.T) {
	s := loadedScene(t)
	start := s.Camera().Ratio

	in := s.ZoomIn()
	assert.InDelta(t, start/1.5, in.Ratio, 1e-9)
	out := s.ZoomOut()
	assert.InDelta(t, start, out.Ratio, 1e-9)

	assert.Equal(t, 20.0, s.SetZoom(1000).Ratio)
	assert.Equal(t, 0.05, s.SetZoom(0.0001).Ratio)
	assert.Equal(t, 1.0, s.SetZoom(-3).Ratio)

	s.SetZoom(4)
	frame, _ := s.Render()
	nodes := displayByID(frame)
	a, _ := s.Graph().Node("A")
	assert.InDelta(t, a.Size/2, nodes["A"].Size, 1e-9, "effective size follows zoom")
}

func TestScene_LayoutAndSetGraph(t *testing.T) {
	s := loadedScene(t)

	gen, err := s.RunLayout(context.Background(), []string{"circular", "noverlap"}, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	s.WaitLayout()

	status := s.LayoutStatus()
	assert.False(t, status.Running)
	assert.Equal(t, "noverlap", status.Current)
	assert.Equal(t, "Completed", status.Label())

	require.NoError(t, s.ClickNode("A"))
	require.NoError(t, s.Enter("A"))

	g, err := gexf.Parse([]byte(testutil.AirlinesGEXF))
	require.NoError(t, err)
	s.SetGraph(g, "airlines.gexf")

	_, ok := s.Selected()
	assert.False(t, ok, "a new graph clears the selection")
	assert.Empty(t, s.Hovered())
	assert.Equal(t, "airlines.gexf", s.Location())
	assert.Equal(t, uint64(0), s.LayoutStatus().Generation)
}

func TestScene_FrameSink(t *testing.T) {
	var (
		mu     sync.Mutex
		frames []layout.Frame
	)
	s := loadedScene(t, WithFrameSink(func(f layout.Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	}))

	_, err := s.RunLayout(context.Background(), []string{"circular", "noverlap"}, 0)
	require.NoError(t, err)
	s.WaitLayout()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, frames, 2)
	assert.Equal(t, "circular", frames[0].Layout)
	assert.Equal(t, "noverlap", frames[1].Layout)
	assert.Equal(t, 1.0, frames[1].Progress)
	assert.Len(t, frames[1].Positions, 6)
}

func TestCamera_ProjectRoundTrip(t *testing.T) {
	c := Camera{X: 0.5, Y: -0.25, Ratio: 0.5}
	p := graph.Point{X: 0.7, Y: 0.1}

	sx, sy := c.Project(p, 80, 24, 2)
	back := c.Unproject(sx, sy, 80, 24, 2)
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	cx, cy := c.Project(graph.Point{X: 0.5, Y: -0.25}, 80, 24, 2)
	assert.Equal(t, 40.0, cx)
	assert.Equal(t, 12.0, cy)
}

func TestFit(t *testing.T) {
	b := Bounds{MinRatio: 0.05, MaxRatio: 20}

	c := Fit([]graph.Point{{X: -1, Y: 0}, {X: 1, Y: 0.5}}, b)
	assert.InDelta(t, 0, c.X, 1e-9)
	assert.InDelta(t, 0.25, c.Y, 1e-9)
	assert.InDelta(t, 1.2, c.Ratio, 1e-9)

	single := Fit([]graph.Point{{X: 3, Y: 3}}, b)
	assert.Equal(t, 0.05, single.Ratio)

	assert.Equal(t, 1.0, Fit(nil, b).Ratio)
	assert.False(t, math.IsNaN(Fit([]graph.Point{{}}, Bounds{}).Ratio))
}
