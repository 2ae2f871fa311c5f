package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/npratt/nodescope/internal/graph"
	"github.com/npratt/nodescope/internal/scene"
)

// cellAspect is the width of a terminal cell relative to its height.
// Cells are about twice as tall as wide, so x is stretched by this factor.
const cellAspect = 2.0

// hoverScale enlarges the hovered node's glyph.
const hoverScale = 1.5

// cell is one character of the canvas with its colors.
type cell struct {
	r    rune
	fg   string
	bg   string
	bold bool
	skip bool // second column of a wide rune
}

// charGrid is a 2D character grid for rendering.
type charGrid struct {
	width  int
	height int
	cells  [][]cell
}

// newGrid creates a grid filled with spaces on background.
func newGrid(width, height int, background string) *charGrid {
	width, height = max(width, 0), max(height, 0)
	cells := make([][]cell, height)
	for y := range cells {
		cells[y] = make([]cell, width)
		for x := range cells[y] {
			cells[y][x] = cell{r: ' ', bg: background}
		}
	}
	return &charGrid{width: width, height: height, cells: cells}
}

func (g *charGrid) inside(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// writeRune writes r at (x, y) keeping the cell background unless bg is
// set. It returns the number of columns used, 0 when nothing was written.
func (g *charGrid) writeRune(x, y int, r rune, fg, bg string, bold bool) int {
	w := runewidth.RuneWidth(r)
	if w == 0 || !g.inside(x, y) || !g.inside(x+w-1, y) {
		return 0
	}
	row := g.cells[y]
	for i := x; i < x+w; i++ {
		// Overwriting half of a wide rune blanks the other half.
		if row[i].skip && i > 0 && i == x {
			row[i-1].r = ' '
		}
		if i+1 < g.width && row[i+1].skip && i == x+w-1 {
			row[i+1] = cell{r: ' ', bg: row[i+1].bg}
		}
	}

	c := cell{r: r, fg: fg, bg: row[x].bg, bold: bold}
	if bg != "" {
		c.bg = bg
	}
	row[x] = c
	if w == 2 {
		row[x+1] = cell{skip: true, bg: c.bg}
	}
	return w
}

// writeString writes s from (x, y) and returns the columns used.
func (g *charGrid) writeString(x, y int, s, fg, bg string, bold bool) int {
	col := x
	for _, r := range s {
		col += g.writeRune(col, y, r, fg, bg, bold)
	}
	return col - x
}

// String renders the grid with colors, one styled run per color change.
func (g *charGrid) String() string {
	var b strings.Builder
	for y, row := range g.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		var cur cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			st := lipgloss.NewStyle().Bold(cur.bold)
			if cur.fg != "" {
				st = st.Foreground(lipgloss.Color(cur.fg))
			}
			if cur.bg != "" {
				st = st.Background(lipgloss.Color(cur.bg))
			}
			b.WriteString(st.Render(run.String()))
			run.Reset()
		}
		for _, c := range row {
			if c.skip {
				continue
			}
			if c.fg != cur.fg || c.bg != cur.bg || c.bold != cur.bold {
				flush()
				cur = c
			}
			run.WriteRune(c.r)
		}
		flush()
	}
	return b.String()
}

// Plain renders the grid without colors.
func (g *charGrid) Plain() string {
	lines := make([]string, 0, g.height)
	for _, row := range g.cells {
		var b strings.Builder
		for _, c := range row {
			if !c.skip {
				b.WriteRune(c.r)
			}
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(lines, "\n")
}

// hit records where a node was drawn, for mouse picking.
type hit struct {
	id string
	x  int
	y  int
}

// canvas is a rendered frame together with its node positions.
type canvas struct {
	grid *charGrid
	hits []hit
}

// pick returns the node drawn at (x, y), allowing one column of slack.
// Nodes drawn later are on top and win.
func (c *canvas) pick(x, y int) (string, bool) {
	best, bestDist := "", 2
	for i := len(c.hits) - 1; i >= 0; i-- {
		h := c.hits[i]
		if h.y != y {
			continue
		}
		d := h.x - x
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = h.id, d
		}
	}
	return best, best != ""
}

// renderCanvas draws a frame into a width x height grid.
// Edges go first, then nodes in z order, then labels so they stay readable.
func renderCanvas(f scene.Frame, width, height int, theme Theme) *canvas {
	grid := newGrid(width, height, theme.Background)
	cv := &canvas{grid: grid}
	if width <= 0 || height <= 0 {
		return cv
	}

	type spot struct{ x, y int }
	spots := make(map[string]spot, len(f.Nodes))
	project := func(x, y float64) spot {
		sx, sy := f.Camera.Project(graph.Point{X: x, Y: y}, width, height, cellAspect)
		return spot{int(math.Floor(sx)), int(math.Floor(sy))}
	}
	for _, n := range f.Nodes {
		spots[n.ID] = project(n.X, n.Y)
	}

	for _, e := range f.Edges {
		if e.Hidden {
			continue
		}
		from, ok1 := spots[e.Source]
		to, ok2 := spots[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		color := e.Color
		if color == "" {
			color = theme.EdgeColor
		}
		drawLine(grid, from.x, from.y, to.x, to.y, theme.terminalColor(color, fallbackEdgeColor))
	}

	for _, n := range f.Nodes {
		if n.Hidden {
			continue
		}
		p := spots[n.ID]
		size := n.Size
		if n.Highlight {
			size *= hoverScale
		}
		fg := theme.terminalColor(n.Color, fallbackNodeColor)
		if grid.writeRune(p.x, p.y, nodeGlyph(size, n.Highlight), fg, "", n.Highlight) > 0 {
			cv.hits = append(cv.hits, hit{id: n.ID, x: p.x, y: p.y})
		}
	}

	for _, n := range f.Nodes {
		if n.Hidden || n.Label == "" {
			continue
		}
		p := spots[n.ID]
		x := p.x + 1
		avail := width - x - 1
		if avail <= 0 || !grid.inside(x, p.y) {
			continue
		}
		label := " " + runewidth.Truncate(n.Label, avail, "…")
		if n.Highlight {
			grid.writeString(x, p.y, label, labelHighlight, labelBackground, true)
		} else {
			grid.writeString(x, p.y, label, labelForeground, "", false)
		}
	}
	return cv
}

// nodeGlyph picks a character that grows with the displayed size.
func nodeGlyph(size float64, highlight bool) rune {
	switch {
	case highlight:
		return '◉'
	case size < 4:
		return '·'
	case size < 9:
		return '•'
	default:
		return '●'
	}
}

// drawLine draws a dotted Bresenham line, leaving both endpoints free for
// node glyphs. The segment is clipped to the grid first so an endpoint far
// off-screen does not stop the visible part from being drawn.
func drawLine(grid *charGrid, x0, y0, x1, y1 int, fg string) {
	ax, ay, bx, by, ok := clipSegment(x0, y0, x1, y1, grid.width-1, grid.height-1)
	if !ok {
		return
	}
	dx := abs(bx - ax)
	dy := -abs(by - ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	x, y := ax, ay
	e := dx + dy
	for {
		if (x != x0 || y != y0) && (x != x1 || y != y1) {
			grid.writeRune(x, y, '·', fg, "", false)
		}
		if x == bx && y == by {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// clipSegment cuts the segment down to the box [0,maxX]x[0,maxY]
// (Liang-Barsky). It reports false when nothing of it is inside.
func clipSegment(x0, y0, x1, y1, maxX, maxY int) (int, int, int, int, bool) {
	if maxX < 0 || maxY < 0 {
		return 0, 0, 0, 0, false
	}
	fx, fy := float64(x0), float64(y0)
	dx, dy := float64(x1-x0), float64(y1-y0)
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, fx},
		{dx, float64(maxX) - fx},
		{-dy, fy},
		{dy, float64(maxY) - fy},
	}
	for _, edge := range edges {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	at := func(t float64) (int, int) {
		x := int(math.Round(fx + t*dx))
		y := int(math.Round(fy + t*dy))
		return min(max(x, 0), maxX), min(max(y, 0), maxY)
	}
	ax, ay := at(t0)
	bx, by := at(t1)
	return ax, ay, bx, by, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
