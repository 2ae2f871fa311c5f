package resolver

import "maps"

// Palette maps an edge category to its display color.
type Palette map[string]string

// NewPalette copies colors into a Palette.
func NewPalette(colors map[string]string) Palette {
	return Palette(maps.Clone(colors))
}

// Color returns the color for kind, or "" when the category is unknown.
// An empty result means the renderer default applies.
func (p Palette) Color(kind string) string {
	return p[kind]
}
