package gexf

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/nodescope/internal/graph"
	"github.com/npratt/nodescope/internal/testutil"
)

func TestDecode_Social(t *testing.T) {
	g, err := Decode(strings.NewReader(testutil.SocialGEXF))
	require.NoError(t, err)

	assert.Equal(t, 6, g.Order())
	assert.Equal(t, 6, g.Size())

	e, ok := g.Edge("ab")
	require.True(t, ok)
	assert.Equal(t, "A", e.Source)
	assert.Equal(t, "B", e.Target)
	// Values are reachable by attribute id and by title.
	assert.Equal(t, "reply", e.Attributes["1"])
	assert.Equal(t, "reply", e.Attributes["type"])
	assert.Equal(t, "2024-08-29T04:10:00Z", e.Attributes["created_at"])
	assert.Equal(t, "bob", e.Attributes["to_user"])
}

func TestParse_AirlinesViz(t *testing.T) {
	g, err := Parse([]byte(testutil.AirlinesGEXF))
	require.NoError(t, err)

	cdg, ok := g.Node("CDG")
	require.True(t, ok)
	assert.Equal(t, "Paris Charles de Gaulle", cdg.Label)
	assert.Equal(t, "#e6550d", cdg.Color)
	assert.InDelta(t, 12.5, cdg.Size, 1e-9)
	assert.InDelta(t, 2.55, cdg.X, 1e-9)
	assert.InDelta(t, 49.01, cdg.Y, 1e-9)
	assert.Equal(t, "#e6550d", cdg.Attributes["1"])
	assert.Equal(t, "France", cdg.Attributes["country"])

	jfk, _ := g.Node("JFK")
	assert.Equal(t, "#3182bd80", jfk.Color)
	assert.Empty(t, jfk.Attributes["1"])

	lhr, _ := g.Node("LHR")
	assert.Equal(t, "unknown", lhr.Attributes["country"], "declared default applies")
	assert.Empty(t, lhr.Color)

	edges := g.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, "2", edges[0].Attributes["weight"])
	assert.Equal(t, "transatlantic", edges[2].Label)
	assert.NotEmpty(t, edges[2].ID, "missing edge ids are generated")
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		is    error
	}{
		{name: "malformed", input: testutil.MalformedGEXF},
		{name: "dangling edge", input: testutil.DanglingEdgeGEXF, is: graph.ErrUnknownNode},
		{name: "duplicate node", input: `<gexf><graph><nodes><node id="a"/><node id="a"/></nodes></graph></gexf>`, is: graph.ErrDuplicateNode},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}
}

func TestVizColorHex(t *testing.T) {
	half := 0.5
	opaque := 1.0
	tests := []struct {
		c    vizColor
		want string
	}{
		{vizColor{R: 3, G: 15, B: 43}, "#030f2b"},
		{vizColor{R: 300, G: -4, B: 255}, "#ff00ff"},
		{vizColor{R: 0, G: 0, B: 0, A: &half}, "#00000080"},
		{vizColor{R: 1, G: 2, B: 3, A: &opaque}, "#010203"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.hex())
	}
}
