// Package graph holds the attribute graph explored by nodescope.
//
// Topology lives in a gonum multigraph so parallel edges (several replies
// between the same two accounts, say) are kept. Display attributes live next
// to it in plain maps keyed by the identifiers found in the source file.
package graph

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"sync"
	"time"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

var (
	// ErrUnknownNode is returned when an operation names a node that is not in the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateNode is returned by AddNode when the ID is already present.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrDuplicateEdge is returned by AddEdge when the ID is already present.
	ErrDuplicateEdge = errors.New("duplicate edge")
)

// Point is a position in layout space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex with its raw and derived attributes.
type Node struct {
	ID         string
	Label      string
	X          float64
	Y          float64
	Size       float64 // base size, before zoom compensation
	Color      string  // display color, "" means renderer default
	Highlight  bool    // true while the pointer hovers the node
	Attributes map[string]string
}

// Position returns the node's coordinates as a Point.
func (n Node) Position() Point {
	return Point{X: n.X, Y: n.Y}
}

// Edge connects two nodes.
type Edge struct {
	ID         string
	Source     string
	Target     string
	Label      string
	Kind       string    // category such as reply, quote, mention, retweet
	Timestamp  time.Time // zero when the source file carries no time
	Color      string
	Hidden     bool
	Attributes map[string]string
}

// Touches reports whether the edge has id as one of its endpoints.
func (e Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// Graph is an undirected multigraph with string identifiers.
// All methods are safe for concurrent use; accessors return copies.
type Graph struct {
	mu sync.RWMutex

	topo  *multi.UndirectedGraph
	ids   map[string]int64 // node ID -> gonum ID
	names map[int64]string // gonum ID -> node ID

	nodes     map[string]*Node
	edges     map[string]*Edge
	nodeOrder []string
	edgeOrder []string
	incident  map[string][]string // node ID -> incident edge IDs
	nextEdge  int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		topo:     multi.NewUndirectedGraph(),
		ids:      make(map[string]int64),
		names:    make(map[int64]string),
		nodes:    make(map[string]*Node),
		edges:    make(map[string]*Edge),
		incident: make(map[string][]string),
	}
}

// AddNode inserts a node. The ID must be non-empty and unused.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("add node: empty id")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("add node %q: %w", n.ID, ErrDuplicateNode)
	}

	gn := g.topo.NewNode()
	g.topo.AddNode(gn)
	g.ids[n.ID] = gn.ID()
	g.names[gn.ID()] = n.ID

	stored := n
	stored.Attributes = cloneAttrs(n.Attributes)
	g.nodes[n.ID] = &stored
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// AddEdge inserts an edge between two existing nodes and returns its ID.
// An empty ID is replaced with a generated one ("e0", "e1", ...).
func (g *Graph) AddEdge(e Edge) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	uid, ok := g.ids[e.Source]
	if !ok {
		return "", fmt.Errorf("add edge source %q: %w", e.Source, ErrUnknownNode)
	}
	vid, ok := g.ids[e.Target]
	if !ok {
		return "", fmt.Errorf("add edge target %q: %w", e.Target, ErrUnknownNode)
	}

	if e.ID == "" {
		for {
			e.ID = "e" + strconv.Itoa(g.nextEdge)
			g.nextEdge++
			if _, taken := g.edges[e.ID]; !taken {
				break
			}
		}
	}
	if _, ok := g.edges[e.ID]; ok {
		return "", fmt.Errorf("add edge %q: %w", e.ID, ErrDuplicateEdge)
	}

	g.topo.SetLine(g.topo.NewLine(g.topo.Node(uid), g.topo.Node(vid)))

	stored := e
	stored.Attributes = cloneAttrs(e.Attributes)
	g.edges[e.ID] = &stored
	g.edgeOrder = append(g.edgeOrder, e.ID)
	g.incident[e.Source] = append(g.incident[e.Source], e.ID)
	if e.Target != e.Source {
		g.incident[e.Target] = append(g.incident[e.Target], e.ID)
	}
	return e.ID, nil
}

// Node returns a copy of the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return copyNode(n), true
}

// Edge returns a copy of the edge with the given ID.
func (g *Graph) Edge(id string) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.edges[id]
	if !ok {
		return Edge{}, false
	}
	return copyEdge(e), true
}

// HasNode reports whether id names a node.
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, copyNode(g.nodes[id]))
	}
	return out
}

// Edges returns copies of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, copyEdge(g.edges[id]))
	}
	return out
}

// NodeIDs returns all node IDs in insertion order.
func (g *Graph) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.nodeOrder...)
}

// Order returns the number of nodes.
func (g *Graph) Order() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Size returns the number of edges.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Degree returns the number of edges incident to id. Parallel edges count
// individually and a self-loop counts twice.
func (g *Graph) Degree(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	uid, ok := g.ids[id]
	if !ok {
		return 0
	}

	degree := 0
	to := g.topo.From(uid)
	for to.Next() {
		vid := to.Node().ID()
		lines := g.topo.Lines(uid, vid).Len()
		if vid == uid {
			lines *= 2
		}
		degree += lines
	}
	return degree
}

// Neighbors returns the distinct nodes adjacent to id, sorted.
func (g *Graph) Neighbors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	uid, ok := g.ids[id]
	if !ok {
		return nil
	}

	var out []string
	to := g.topo.From(uid)
	for to.Next() {
		vid := to.Node().ID()
		if vid == uid {
			continue
		}
		out = append(out, g.names[vid])
	}
	sort.Strings(out)
	return out
}

// IncidentEdges returns copies of the edges touching id, in insertion order.
func (g *Graph) IncidentEdges(id string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := g.incident[id]
	out := make([]Edge, 0, len(ids))
	for _, eid := range ids {
		out = append(out, copyEdge(g.edges[eid]))
	}
	return out
}

// SetPosition moves a node.
func (g *Graph) SetPosition(id string, p Point) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("set position %q: %w", id, ErrUnknownNode)
	}
	n.X, n.Y = p.X, p.Y
	return nil
}

// Positions returns the current coordinates of every node.
func (g *Graph) Positions() map[string]Point {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]Point, len(g.nodes))
	for id, n := range g.nodes {
		out[id] = Point{X: n.X, Y: n.Y}
	}
	return out
}

// SetPositions moves every node named in positions. Unknown IDs are ignored.
func (g *Graph) SetPositions(positions map[string]Point) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, p := range positions {
		if n, ok := g.nodes[id]; ok {
			n.X, n.Y = p.X, p.Y
		}
	}
}

// SetHighlight sets the transient hover flag of a node.
func (g *Graph) SetHighlight(id string, on bool) error {
	return g.UpdateNode(id, func(n *Node) { n.Highlight = on })
}

// UpdateNode applies fn to the stored node under the write lock.
func (g *Graph) UpdateNode(id string, fn func(*Node)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("update node %q: %w", id, ErrUnknownNode)
	}
	fn(n)
	n.ID = id
	return nil
}

// UpdateEdge applies fn to the stored edge under the write lock.
// Endpoints cannot be changed.
func (g *Graph) UpdateEdge(id string, fn func(*Edge)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.edges[id]
	if !ok {
		return fmt.Errorf("update edge %q: unknown edge", id)
	}
	src, dst := e.Source, e.Target
	fn(e)
	e.ID, e.Source, e.Target = id, src, dst
	return nil
}

// Topology exposes the gonum view of the graph for layout algorithms,
// along with the mapping from gonum IDs back to node IDs.
// The returned graph must be treated as read-only.
func (g *Graph) Topology() (gonum.Undirected, map[int64]string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.topo, maps.Clone(g.names)
}

// Clone returns an independent deep copy with the same IDs and order.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := New()
	for _, id := range g.nodeOrder {
		// IDs are unique in g, so AddNode cannot fail.
		_ = out.AddNode(copyNode(g.nodes[id]))
	}
	for _, id := range g.edgeOrder {
		_, _ = out.AddEdge(copyEdge(g.edges[id]))
	}
	out.nextEdge = g.nextEdge
	return out
}

func copyNode(n *Node) Node {
	c := *n
	c.Attributes = cloneAttrs(n.Attributes)
	return c
}

func copyEdge(e *Edge) Edge {
	c := *e
	c.Attributes = cloneAttrs(e.Attributes)
	return c
}

func cloneAttrs(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}
