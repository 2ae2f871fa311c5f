package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/nodescope/internal/graph"
)

func TestSummarize_Social(t *testing.T) {
	g := socialGraph(t)
	Annotate(g, defaultOptions())

	s := Summarize(g)
	assert.Equal(t, 6, s.Nodes)
	assert.Equal(t, 6, s.Edges)
	assert.Equal(t, 1, s.MinDegree)
	assert.Equal(t, 3, s.MaxDegree)
	assert.Zero(t, s.Isolated)
	assert.Zero(t, s.Untimed)

	require.NotEmpty(t, s.Kinds)
	assert.Equal(t, KindCount{Kind: "reply", Count: 2}, s.Kinds[0])
	assert.Len(t, s.Kinds, 5)

	for _, h := range []int{2, 3, 4, 5, 10, 22} {
		assert.Equal(t, 1, s.Hours[h], "hour %d", h)
	}
	assert.Zero(t, s.Hours[0])
}

func TestSummarize_Untimed(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(graph.Node{ID: "a"}))
	require.NoError(t, g.AddNode(graph.Node{ID: "b"}))
	require.NoError(t, g.AddNode(graph.Node{ID: "lonely"}))
	_, err := g.AddEdge(graph.Edge{Source: "a", Target: "b"})
	require.NoError(t, err)

	s := Summarize(g)
	assert.Equal(t, 1, s.Untimed)
	assert.Equal(t, 1, s.Isolated)
	assert.Equal(t, 0, s.MinDegree)
	assert.Equal(t, []KindCount{{Kind: "", Count: 1}}, s.Kinds)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(graph.New())
	assert.Zero(t, s.Nodes)
	assert.Empty(t, s.Kinds)
}
