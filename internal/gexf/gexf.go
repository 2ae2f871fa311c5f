// Package gexf decodes GEXF graph exchange files into a graph.Graph.
//
// Only the parts nodescope displays are read: node and edge identifiers,
// labels, attribute values and the viz color/size/position extensions.
// Dynamic (spell) data is ignored.
package gexf

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/npratt/nodescope/internal/graph"
)

type document struct {
	XMLName xml.Name  `xml:"gexf"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfGraph struct {
	DefaultEdgeType string           `xml:"defaultedgetype,attr"`
	Attributes      []attributeClass `xml:"attributes"`
	Nodes           []gexfNode       `xml:"nodes>node"`
	Edges           []gexfEdge       `xml:"edges>edge"`
}

type attributeClass struct {
	Class      string          `xml:"class,attr"`
	Attributes []attributeDecl `xml:"attribute"`
}

type attributeDecl struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
	// Default holds the <default> child, applied when a node omits the value.
	Default *string `xml:"default"`
}

type attValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

type vizColor struct {
	R int      `xml:"r,attr"`
	G int      `xml:"g,attr"`
	B int      `xml:"b,attr"`
	A *float64 `xml:"a,attr"`
}

type vizSize struct {
	Value float64 `xml:"value,attr"`
}

type vizPosition struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}

type gexfNode struct {
	ID        string       `xml:"id,attr"`
	Label     string       `xml:"label,attr"`
	AttValues []attValue   `xml:"attvalues>attvalue"`
	Color     *vizColor    `xml:"color"`
	Size      *vizSize     `xml:"size"`
	Position  *vizPosition `xml:"position"`
}

type gexfEdge struct {
	ID        string     `xml:"id,attr"`
	Source    string     `xml:"source,attr"`
	Target    string     `xml:"target,attr"`
	Label     string     `xml:"label,attr"`
	Kind      string     `xml:"kind,attr"`
	Weight    string     `xml:"weight,attr"`
	Start     string     `xml:"start,attr"`
	End       string     `xml:"end,attr"`
	AttValues []attValue `xml:"attvalues>attvalue"`
	Color     *vizColor  `xml:"color"`
}

// Parse decodes a GEXF document held in memory.
func Parse(data []byte) (*graph.Graph, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a GEXF document and builds the graph it describes.
// Attribute values are stored under both the attribute id and its title.
func Decode(r io.Reader) (*graph.Graph, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode gexf: %w", err)
	}

	nodeDecls := declarations(doc.Graph.Attributes, "node")
	edgeDecls := declarations(doc.Graph.Attributes, "edge")

	g := graph.New()
	for _, n := range doc.Graph.Nodes {
		node := graph.Node{
			ID:         n.ID,
			Label:      n.Label,
			Attributes: attributes(n.AttValues, nodeDecls),
		}
		if n.Color != nil {
			node.Color = n.Color.hex()
		}
		if n.Size != nil {
			node.Size = n.Size.Value
		}
		if n.Position != nil {
			node.X, node.Y = n.Position.X, n.Position.Y
		}
		if err := g.AddNode(node); err != nil {
			return nil, fmt.Errorf("gexf node %q: %w", n.ID, err)
		}
	}

	for i, e := range doc.Graph.Edges {
		attrs := attributes(e.AttValues, edgeDecls)
		for key, val := range map[string]string{"weight": e.Weight, "start": e.Start, "end": e.End, "kind": e.Kind} {
			if val != "" {
				if _, set := attrs[key]; !set {
					attrs[key] = val
				}
			}
		}

		edge := graph.Edge{
			ID:         e.ID,
			Source:     e.Source,
			Target:     e.Target,
			Label:      e.Label,
			Attributes: attrs,
		}
		if e.Color != nil {
			edge.Color = e.Color.hex()
		}
		if _, err := g.AddEdge(edge); err != nil {
			return nil, fmt.Errorf("gexf edge %d (%s): %w", i, e.ID, err)
		}
	}

	return g, nil
}

// declarations collects attribute declarations of one class, keyed by id.
func declarations(classes []attributeClass, class string) map[string]attributeDecl {
	out := make(map[string]attributeDecl)
	for _, c := range classes {
		if c.Class != class {
			continue
		}
		for _, a := range c.Attributes {
			out[a.ID] = a
		}
	}
	return out
}

func attributes(values []attValue, decls map[string]attributeDecl) map[string]string {
	out := make(map[string]string, len(values)*2)
	for _, d := range decls {
		if d.Default == nil {
			continue
		}
		out[d.ID] = *d.Default
		if d.Title != "" {
			out[d.Title] = *d.Default
		}
	}
	for _, v := range values {
		out[v.For] = v.Value
		if d, ok := decls[v.For]; ok && d.Title != "" {
			out[d.Title] = v.Value
		}
	}
	return out
}

// hex renders the color as #rrggbb, or #rrggbbaa when partially transparent.
func (c vizColor) hex() string {
	s := fmt.Sprintf("#%02x%02x%02x", clampByte(c.R), clampByte(c.G), clampByte(c.B))
	if c.A != nil && *c.A < 1 {
		s += fmt.Sprintf("%02x", clampByte(int(*c.A*255+0.5)))
	}
	return s
}

func clampByte(v int) int {
	return max(0, min(255, v))
}
