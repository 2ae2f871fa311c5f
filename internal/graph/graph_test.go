package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStar(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		require.NoError(t, g.AddNode(Node{ID: id}))
	}
	for _, e := range [][2]string{{"A", "B"}, {"A", "C"}, {"D", "A"}, {"D", "E"}} {
		_, err := g.AddEdge(Edge{Source: e[0], Target: e[1]})
		require.NoError(t, err)
	}
	return g
}

func TestAddNode_Duplicate(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(Node{ID: "A"}))

	err := g.AddNode(Node{ID: "A"})
	assert.True(t, errors.Is(err, ErrDuplicateNode))
	assert.Error(t, g.AddNode(Node{}))
}

func TestAddEdge_UnknownEndpoint(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(Node{ID: "A"}))

	_, err := g.AddEdge(Edge{Source: "A", Target: "missing"})
	assert.True(t, errors.Is(err, ErrUnknownNode))
	assert.Equal(t, 0, g.Size())
}

func TestAddEdge_GeneratedIDs(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(Node{ID: "A"}))
	require.NoError(t, g.AddNode(Node{ID: "B"}))

	_, err := g.AddEdge(Edge{ID: "e0", Source: "A", Target: "B"})
	require.NoError(t, err)
	id, err := g.AddEdge(Edge{Source: "A", Target: "B"})
	require.NoError(t, err)
	assert.Equal(t, "e1", id)

	_, err = g.AddEdge(Edge{ID: "e1", Source: "B", Target: "A"})
	assert.True(t, errors.Is(err, ErrDuplicateEdge))
}

func TestDegreeAndNeighbors(t *testing.T) {
	g := buildStar(t)

	assert.Equal(t, 3, g.Degree("A"))
	assert.Equal(t, 1, g.Degree("B"))
	assert.Equal(t, 2, g.Degree("D"))
	assert.Equal(t, 0, g.Degree("missing"))

	assert.Equal(t, []string{"B", "C", "D"}, g.Neighbors("A"))
	assert.Equal(t, []string{"A", "E"}, g.Neighbors("D"))
	assert.Nil(t, g.Neighbors("missing"))
}

func TestDegree_ParallelEdgesAndLoops(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(Node{ID: "u"}))
	require.NoError(t, g.AddNode(Node{ID: "v"}))
	for i := 0; i < 3; i++ {
		_, err := g.AddEdge(Edge{Source: "u", Target: "v"})
		require.NoError(t, err)
	}
	_, err := g.AddEdge(Edge{Source: "u", Target: "u"})
	require.NoError(t, err)

	assert.Equal(t, 5, g.Degree("u"))
	assert.Equal(t, 3, g.Degree("v"))
	assert.Equal(t, []string{"v"}, g.Neighbors("u"))
	assert.Len(t, g.IncidentEdges("u"), 4)
}

func TestAccessorsReturnCopies(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(Node{ID: "A", Attributes: map[string]string{"1": "#ff0000"}}))

	n, ok := g.Node("A")
	require.True(t, ok)
	n.Attributes["1"] = "changed"
	n.Label = "changed"

	again, _ := g.Node("A")
	assert.Equal(t, "#ff0000", again.Attributes["1"])
	assert.Empty(t, again.Label)
}

func TestPositions(t *testing.T) {
	g := buildStar(t)

	require.NoError(t, g.SetPosition("A", Point{X: 1, Y: 2}))
	assert.Error(t, g.SetPosition("missing", Point{}))

	g.SetPositions(map[string]Point{"B": {X: 3, Y: 4}, "zzz": {X: 9}})
	pos := g.Positions()
	assert.Equal(t, Point{X: 1, Y: 2}, pos["A"])
	assert.Equal(t, Point{X: 3, Y: 4}, pos["B"])
	assert.Len(t, pos, 5)
}

func TestUpdateEdge_KeepsEndpoints(t *testing.T) {
	g := buildStar(t)
	id := g.Edges()[0].ID

	require.NoError(t, g.UpdateEdge(id, func(e *Edge) {
		e.Hidden = true
		e.Source = "E"
	}))

	e, _ := g.Edge(id)
	assert.True(t, e.Hidden)
	assert.Equal(t, "A", e.Source)
}

func TestHighlight(t *testing.T) {
	g := buildStar(t)
	require.NoError(t, g.SetHighlight("B", true))
	n, _ := g.Node("B")
	assert.True(t, n.Highlight)
	assert.Error(t, g.SetHighlight("missing", true))
}

func TestClone_Independent(t *testing.T) {
	g := buildStar(t)
	require.NoError(t, g.SetPosition("A", Point{X: 1, Y: 1}))

	c := g.Clone()
	assert.Equal(t, g.NodeIDs(), c.NodeIDs())
	assert.Equal(t, g.Size(), c.Size())
	assert.Equal(t, g.Degree("A"), c.Degree("A"))
	assert.Equal(t, Point{X: 1, Y: 1}, c.Positions()["A"])

	require.NoError(t, c.SetHighlight("A", true))
	require.NoError(t, c.SetPosition("B", Point{X: 7}))
	n, _ := g.Node("A")
	assert.False(t, n.Highlight)
	assert.Equal(t, Point{}, g.Positions()["B"])

	id, err := c.AddEdge(Edge{Source: "B", Target: "C"})
	require.NoError(t, err)
	assert.Equal(t, "e4", id, "generated ids continue after the copied ones")
	assert.Equal(t, 4, g.Size())
}

func TestTopology(t *testing.T) {
	g := buildStar(t)
	topo, names := g.Topology()

	assert.Equal(t, 5, topo.Nodes().Len())
	assert.Len(t, names, 5)
}
