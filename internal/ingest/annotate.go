package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/npratt/nodescope/internal/config"
	"github.com/npratt/nodescope/internal/graph"
	"github.com/npratt/nodescope/internal/layout"
	"github.com/npratt/nodescope/internal/resolver"
)

// Options controls attribute derivation.
type Options struct {
	SizeBase           float64
	SizeCap            float64
	ColorAttribute     string
	TimestampAttribute string
	KindAttribute      string
	SenderAttribute    string
	ReceiverAttribute  string
	Palette            resolver.Palette
}

// OptionsFromConfig copies ingest settings into Options.
func OptionsFromConfig(cfg config.IngestConfig) Options {
	return Options{
		SizeBase:           cfg.SizeBase,
		SizeCap:            cfg.SizeCap,
		ColorAttribute:     cfg.ColorAttribute,
		TimestampAttribute: cfg.TimestampAttribute,
		KindAttribute:      cfg.KindAttribute,
		SenderAttribute:    cfg.SenderAttribute,
		ReceiverAttribute:  cfg.ReceiverAttribute,
		Palette:            resolver.NewPalette(cfg.Palette),
	}
}

// Stats summarizes one Annotate pass.
type Stats struct {
	Nodes         int
	Edges         int
	Timestamped   int            // edges with a parseable timestamp
	UnknownKinds  map[string]int // categories missing from the palette
	LabelsDerived int            // node labels taken from edge attributes
}

// BaseSize is min(base + sqrt(degree), limit).
func BaseSize(degree int, base, limit float64) float64 {
	return math.Min(base+math.Sqrt(float64(degree)), limit)
}

// Annotate derives display attributes in place. Every node is placed on
// the unit circle, sized from its degree, given its custom color when the
// color attribute is set, and un-highlighted. Every edge is hidden and gets
// its timestamp, kind and palette color. Running it again overwrites the
// derived attributes.
func Annotate(g *graph.Graph, opts Options) Stats {
	stats := Stats{UnknownKinds: make(map[string]int)}

	ids := g.NodeIDs()
	positions := layout.CircularPositions(ids)

	for _, id := range ids {
		degree := g.Degree(id)
		_ = g.UpdateNode(id, func(n *graph.Node) {
			p := positions[id]
			n.X, n.Y = p.X, p.Y
			n.Size = BaseSize(degree, opts.SizeBase, opts.SizeCap)
			if c := n.Attributes[opts.ColorAttribute]; opts.ColorAttribute != "" && c != "" {
				n.Color = c
			}
			n.Highlight = false
		})
		stats.Nodes++
	}

	for _, e := range g.Edges() {
		ts, hasTime := ParseTimestamp(e.Attributes[opts.TimestampAttribute])
		kind := edgeKind(e, opts.KindAttribute)
		color := opts.Palette.Color(kind)
		if kind != "" && color == "" {
			stats.UnknownKinds[kind]++
		}
		if hasTime {
			stats.Timestamped++
		}

		_ = g.UpdateEdge(e.ID, func(edge *graph.Edge) {
			edge.Hidden = true
			edge.Timestamp = ts
			edge.Kind = kind
			if color != "" {
				edge.Color = color
			}
		})
		stats.Edges++

		stats.LabelsDerived += deriveLabel(g, e.Source, e.Attributes[opts.SenderAttribute])
		stats.LabelsDerived += deriveLabel(g, e.Target, e.Attributes[opts.ReceiverAttribute])
	}

	return stats
}

func edgeKind(e graph.Edge, attr string) string {
	if attr != "" {
		if k := strings.TrimSpace(e.Attributes[attr]); k != "" {
			return strings.ToLower(k)
		}
	}
	return strings.ToLower(strings.TrimSpace(e.Attributes["kind"]))
}

// deriveLabel names an unlabeled node after the account on its edge.
func deriveLabel(g *graph.Graph, id, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0
	}
	changed := 0
	_ = g.UpdateNode(id, func(n *graph.Node) {
		if n.Label == "" {
			n.Label = name
			changed = 1
		}
	})
	return changed
}

// timestampLayouts are tried in order after unix seconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"Mon Jan 02 15:04:05 -0700 2006",
	"2006-01-02",
}

// ParseTimestamp reads a publication time. It accepts unix seconds or
// milliseconds and the common textual layouts; values without a zone are
// taken as UTC. The second result is false when s is empty or unparseable.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		if math.Abs(v) >= 1e12 {
			return time.UnixMilli(int64(v)).UTC(), true
		}
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
