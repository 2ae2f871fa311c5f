package scene

import (
	"math"

	"github.com/npratt/nodescope/internal/graph"
)

// fitPadding leaves a margin around fitted nodes.
const fitPadding = 1.2

// Camera looks at (X, Y) in graph space. Ratio is the half-extent of graph
// space that fits in the viewport: 1 shows the unit square around the
// center, smaller values zoom in.
type Camera struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Ratio float64 `json:"ratio"`
}

// DefaultCamera looks at the origin with ratio 1.
func DefaultCamera() Camera {
	return Camera{Ratio: 1}
}

// Bounds limits the camera ratio.
type Bounds struct {
	MinRatio float64
	MaxRatio float64
}

// Clamp limits r to the bounds. Non-positive or NaN ratios become 1
// before clamping.
func (b Bounds) Clamp(r float64) float64 {
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		r = 1
	}
	if b.MinRatio > 0 {
		r = math.Max(r, b.MinRatio)
	}
	if b.MaxRatio > 0 {
		r = math.Min(r, b.MaxRatio)
	}
	return r
}

// Project maps a graph point to viewport cells of the given size, with y
// growing downwards. The shorter viewport side spans 2*Ratio graph units;
// aspect scales x for terminal cells roughly twice as tall as wide.
func (c Camera) Project(p graph.Point, width, height int, aspect float64) (float64, float64) {
	if aspect <= 0 {
		aspect = 1
	}
	half := math.Min(float64(width)/aspect, float64(height)) / 2
	ratio := c.Ratio
	if ratio <= 0 {
		ratio = 1
	}
	sx := float64(width)/2 + (p.X-c.X)/ratio*half*aspect
	sy := float64(height)/2 - (p.Y-c.Y)/ratio*half
	return sx, sy
}

// Unproject is the inverse of Project.
func (c Camera) Unproject(sx, sy float64, width, height int, aspect float64) graph.Point {
	if aspect <= 0 {
		aspect = 1
	}
	half := math.Min(float64(width)/aspect, float64(height)) / 2
	ratio := c.Ratio
	if ratio <= 0 {
		ratio = 1
	}
	if half == 0 {
		return graph.Point{X: c.X, Y: c.Y}
	}
	return graph.Point{
		X: c.X + (sx-float64(width)/2)/(half*aspect)*ratio,
		Y: c.Y - (sy-float64(height)/2)/half*ratio,
	}
}

// Fit returns a camera centered on the bounding box of points with a ratio
// that shows all of them, clamped to b. No points yields the default camera.
func Fit(points []graph.Point, b Bounds) Camera {
	if len(points) == 0 {
		return Camera{Ratio: b.Clamp(1)}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	half := math.Max(maxX-minX, maxY-minY) / 2 * fitPadding
	if half == 0 {
		half = b.MinRatio
	}
	return Camera{
		X:     (minX + maxX) / 2,
		Y:     (minY + maxY) / 2,
		Ratio: b.Clamp(half),
	}
}
