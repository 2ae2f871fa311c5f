package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/npratt/nodescope/internal/config"
)

// styles contains the lipgloss styles used outside the canvas.
var styles = struct {
	Header    lipgloss.Style
	Location  lipgloss.Style
	Footer    lipgloss.Style
	Status    lipgloss.Style
	Loading   lipgloss.Style
	Completed lipgloss.Style
	Window    lipgloss.Style
	Zoom      lipgloss.Style
	Selected  lipgloss.Style
	Counts    lipgloss.Style
	Error     lipgloss.Style
	Event     lipgloss.Style
}{
	Header: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Location: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Status: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	Loading: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("220")),

	Completed: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Window: lipgloss.NewStyle().
		Foreground(lipgloss.Color("177")),

	Zoom: lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")),

	Selected: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	Counts: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	Event: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),
}

// Canvas colors that are not configurable.
const (
	labelForeground     = "#cccccc"
	labelHighlight      = "#ffffff"
	labelBackground     = "#333333"
	fallbackNodeColor   = "#999999"
	fallbackEdgeColor   = "#5a6378"
	minContrastDistance = 0.12
)

// Theme is the canvas palette, taken from the style configuration.
type Theme struct {
	Background string
	EdgeColor  string
}

// ThemeFromConfig builds a canvas theme.
func ThemeFromConfig(cfg config.StyleConfig) Theme {
	return Theme{
		Background: cfg.Background,
		EdgeColor:  cfg.DefaultEdgeColor,
	}
}

// DefaultTheme matches the default configuration.
func DefaultTheme() Theme {
	return ThemeFromConfig(config.Default().Style)
}

// parseColor reads #rgb, #rrggbb or #rrggbbaa. The alpha is 1 unless
// given. ok is false for anything else.
func parseColor(s string) (c colorful.Color, alpha float64, ok bool) {
	s = strings.TrimSpace(s)
	alpha = 1
	if len(s) == 9 && s[0] == '#' {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return colorful.Color{}, 0, false
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, 0, false
	}
	return c, alpha, true
}

// terminalColor flattens a possibly translucent color onto the theme
// background and makes sure the result stays distinguishable from it.
// Unparseable colors use fallback.
func (t Theme) terminalColor(s, fallback string) string {
	bg, _, ok := parseColor(t.Background)
	if !ok {
		bg = colorful.Color{}
	}
	fg, alpha, ok := parseColor(s)
	if !ok {
		fg, alpha, _ = parseColor(fallback)
	}

	out := bg.BlendRgb(fg, alpha).Clamped()
	if out.DistanceLab(bg) < minContrastDistance {
		dim, _, _ := parseColor(fallback)
		out = bg.BlendRgb(dim, 0.5).Clamped()
	}
	return out.Hex()
}

// dimmed blends a color halfway towards the background.
func (t Theme) dimmed(hex string) string {
	bg, _, ok := parseColor(t.Background)
	if !ok {
		return hex
	}
	fg, _, ok := parseColor(hex)
	if !ok {
		return hex
	}
	return bg.BlendRgb(fg, 0.5).Clamped().Hex()
}
