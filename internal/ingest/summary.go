package ingest

import (
	"sort"

	"github.com/npratt/nodescope/internal/graph"
)

// KindCount is one edge category and how many edges carry it.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Summary describes a loaded graph for the inspect command and the API.
type Summary struct {
	Nodes     int         `json:"nodes"`
	Edges     int         `json:"edges"`
	MinDegree int         `json:"min_degree"`
	MaxDegree int         `json:"max_degree"`
	Isolated  int         `json:"isolated"`
	Kinds     []KindCount `json:"kinds"`
	Hours     [24]int     `json:"hours"`   // edges per UTC hour of day
	Untimed   int         `json:"untimed"` // edges without a timestamp
}

// Summarize counts degrees, edge kinds and the hour-of-day histogram.
// Edges without a kind are counted under "".
func Summarize(g *graph.Graph) Summary {
	s := Summary{Nodes: g.Order(), Edges: g.Size()}

	for i, id := range g.NodeIDs() {
		d := g.Degree(id)
		if i == 0 || d < s.MinDegree {
			s.MinDegree = d
		}
		if d > s.MaxDegree {
			s.MaxDegree = d
		}
		if d == 0 {
			s.Isolated++
		}
	}

	kinds := make(map[string]int)
	for _, e := range g.Edges() {
		kinds[e.Kind]++
		if e.Timestamp.IsZero() {
			s.Untimed++
			continue
		}
		s.Hours[e.Timestamp.UTC().Hour()]++
	}

	s.Kinds = make([]KindCount, 0, len(kinds))
	for k, n := range kinds {
		s.Kinds = append(s.Kinds, KindCount{Kind: k, Count: n})
	}
	sort.Slice(s.Kinds, func(i, j int) bool {
		if s.Kinds[i].Count != s.Kinds[j].Count {
			return s.Kinds[i].Count > s.Kinds[j].Count
		}
		return s.Kinds[i].Kind < s.Kinds[j].Kind
	})
	return s
}
