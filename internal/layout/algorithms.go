// Package layout computes target node positions and animates the graph
// towards them.
//
// The algorithms themselves are small: circular placement, a force-directed
// pass delegated to gonum's Eades optimizer, and a size-aware overlap removal
// pass. The Driver sequences them and owns the animation.
package layout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/npratt/nodescope/internal/config"
	"github.com/npratt/nodescope/internal/graph"
)

// ErrUnknownLayout is returned when a layout name is not registered.
var ErrUnknownLayout = errors.New("unknown layout")

// Layout names.
const (
	NameCircular = "circular"
	NameForce    = "force"
	NameNoverlap = "noverlap"
)

// Algorithm computes target positions for every node of a graph.
type Algorithm interface {
	Name() string
	Positions(ctx context.Context, g *graph.Graph) (map[string]graph.Point, error)
}

// CircularPositions places ids evenly on the unit circle, in order, starting
// at angle zero.
func CircularPositions(ids []string) map[string]graph.Point {
	out := make(map[string]graph.Point, len(ids))
	n := float64(len(ids))
	for i, id := range ids {
		angle := 2 * math.Pi * float64(i) / n
		out[id] = graph.Point{X: math.Cos(angle), Y: math.Sin(angle)}
	}
	return out
}

// Circular arranges nodes on a circle in insertion order.
type Circular struct{}

// Name implements Algorithm.
func (Circular) Name() string { return NameCircular }

// Positions implements Algorithm.
func (Circular) Positions(_ context.Context, g *graph.Graph) (map[string]graph.Point, error) {
	return CircularPositions(g.NodeIDs()), nil
}

// Force runs gonum's Eades spring embedder over the graph topology.
type Force struct {
	Iterations int
	Repulsion  float64
	Rate       float64
	Theta      float64
}

// Name implements Algorithm.
func (Force) Name() string { return NameForce }

// Positions implements Algorithm. The result is normalized to [-1,1].
func (f Force) Positions(ctx context.Context, g *graph.Graph) (map[string]graph.Point, error) {
	if g.Order() == 0 {
		return map[string]graph.Point{}, nil
	}

	topo, names := g.Topology()
	eades := &layout.EadesR2{
		Updates:   f.Iterations,
		Repulsion: orDefault(f.Repulsion, 1),
		Rate:      orDefault(f.Rate, 0.05),
		Theta:     orDefault(f.Theta, 0.2),
	}
	o := layout.NewOptimizerR2(withoutSelfLoops{topo}, eades.Update)
	for o.Update() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	out := make(map[string]graph.Point, len(names))
	for gid, id := range names {
		v := o.Coord2(gid)
		if math.IsNaN(v.X) || math.IsNaN(v.Y) {
			v = r2.Vec{}
		}
		out[id] = graph.Point{X: v.X, Y: v.Y}
	}
	return Normalize(out), nil
}

// withoutSelfLoops hides edges from a node to itself. Eades attracts a
// node towards itself at zero distance, and barneshut never terminates on
// the resulting coordinates.
type withoutSelfLoops struct {
	gonum.Undirected
}

func (g withoutSelfLoops) From(id int64) gonum.Nodes {
	var out []gonum.Node
	it := g.Undirected.From(id)
	for it.Next() {
		if n := it.Node(); n.ID() != id {
			out = append(out, n)
		}
	}
	return iterator.NewOrderedNodes(out)
}

func (g withoutSelfLoops) HasEdgeBetween(xid, yid int64) bool {
	return xid != yid && g.Undirected.HasEdgeBetween(xid, yid)
}

func (g withoutSelfLoops) Edge(uid, vid int64) gonum.Edge {
	if uid == vid {
		return nil
	}
	return g.Undirected.Edge(uid, vid)
}

func (g withoutSelfLoops) EdgeBetween(xid, yid int64) gonum.Edge {
	if xid == yid {
		return nil
	}
	return g.Undirected.EdgeBetween(xid, yid)
}

// Noverlap pushes apart nodes whose discs overlap, starting from the
// current positions. Disc radius is Size*SizeScale plus Margin.
type Noverlap struct {
	Iterations int
	SizeScale  float64
	Margin     float64
}

// Name implements Algorithm.
func (Noverlap) Name() string { return NameNoverlap }

// Positions implements Algorithm.
func (n Noverlap) Positions(ctx context.Context, g *graph.Graph) (map[string]graph.Point, error) {
	nodes := g.Nodes()
	pos := make([]r2.Vec, len(nodes))
	radius := make([]float64, len(nodes))
	scale := orDefault(n.SizeScale, 0.01)
	for i, node := range nodes {
		pos[i] = r2.Vec{X: node.X, Y: node.Y}
		radius[i] = node.Size*scale + n.Margin
	}

	for iter := 0; iter < n.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !separate(pos, radius, iter) {
			break
		}
	}

	out := make(map[string]graph.Point, len(nodes))
	for i, node := range nodes {
		out[node.ID] = graph.Point{X: pos[i].X, Y: pos[i].Y}
	}
	return out, nil
}

// separate moves every overlapping pair half the overlap apart each.
// It reports whether anything moved.
func separate(pos []r2.Vec, radius []float64, iter int) bool {
	moved := false
	for i := range pos {
		for j := i + 1; j < len(pos); j++ {
			d := r2.Sub(pos[j], pos[i])
			dist := r2.Norm(d)
			overlap := radius[i] + radius[j] - dist
			if overlap <= 1e-9 {
				continue
			}
			if dist < 1e-12 {
				// Coincident nodes: split along a direction derived from
				// the pair so the result stays deterministic.
				angle := float64(i*31+j*17+iter) * 0.618
				d = r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
				dist = 1
			}
			push := r2.Scale(overlap/(2*dist), d)
			pos[i] = r2.Sub(pos[i], push)
			pos[j] = r2.Add(pos[j], push)
			moved = true
		}
	}
	return moved
}

// Normalize recenters positions on the origin and scales them so the
// larger bounding-box half-extent is 1. Degenerate inputs collapse to 0.
func Normalize(pos map[string]graph.Point) map[string]graph.Point {
	if len(pos) == 0 {
		return pos
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pos {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	half := math.Max(maxX-minX, maxY-minY) / 2

	out := make(map[string]graph.Point, len(pos))
	for id, p := range pos {
		if half == 0 {
			out[id] = graph.Point{}
			continue
		}
		out[id] = graph.Point{X: (p.X - cx) / half, Y: (p.Y - cy) / half}
	}
	return out
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// Registry resolves layout names to algorithms.
type Registry struct {
	algorithms map[string]Algorithm
	aliases    map[string]string
}

// NewRegistry builds the stock registry from layout settings.
// "forceAtlas2" is accepted as an alias of "force".
func NewRegistry(cfg config.LayoutConfig) *Registry {
	r := &Registry{
		algorithms: make(map[string]Algorithm),
		aliases:    map[string]string{"forceatlas2": NameForce, "fa2": NameForce},
	}
	r.Register(Circular{})
	r.Register(Force{Iterations: cfg.ForceIterations})
	r.Register(Noverlap{Iterations: cfg.NoverlapIterations, Margin: 0.005})
	return r
}

// Register adds or replaces an algorithm under its own name.
func (r *Registry) Register(a Algorithm) {
	r.algorithms[strings.ToLower(a.Name())] = a
}

// Lookup returns the algorithm for name, case-insensitively.
func (r *Registry) Lookup(name string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := r.aliases[key]; ok {
		key = alias
	}
	a, ok := r.algorithms[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	return a, nil
}

// Resolve looks up every name, failing on the first unknown one.
func (r *Registry) Resolve(names []string) ([]Algorithm, error) {
	out := make([]Algorithm, 0, len(names))
	for _, name := range names {
		a, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Names returns the registered algorithm names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.algorithms))
	for name := range r.algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
