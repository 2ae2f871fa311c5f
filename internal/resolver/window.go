package resolver

import (
	"fmt"
	"math"
	"time"
)

// TimeWindow is an inclusive hour-of-day range on a 24-hour clock.
type TimeWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// DefaultWindow returns the [2,6] window used when nothing is configured.
func DefaultWindow() TimeWindow {
	return TimeWindow{Start: 2, End: 6}
}

// Valid reports whether 0 <= Start <= End <= 24.
func (w TimeWindow) Valid() bool {
	return w.Start >= 0 && w.Start <= w.End && w.End <= 24
}

// Contains reports whether hour lies inside the window, bounds included.
func (w TimeWindow) Contains(hour float64) bool {
	return hour >= w.Start && hour <= w.End
}

// ContainsTime reports whether the UTC hour of t, truncated to a whole hour,
// lies inside the window. The zero time is never contained.
func (w TimeWindow) ContainsTime(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return w.Contains(float64(t.UTC().Hour()))
}

// WithEnd returns a copy of the window with End moved to end, clamped to
// [Start, limit]. The start is never changed.
func (w TimeWindow) WithEnd(end, limit float64) TimeWindow {
	if math.IsNaN(end) {
		return w
	}
	if limit < w.Start {
		limit = w.Start
	}
	w.End = math.Max(w.Start, math.Min(end, limit))
	return w
}

// Step moves the end by delta, clamped like WithEnd. The result is rounded
// to a tenth of an hour so repeated steps do not drift.
func (w TimeWindow) Step(delta, limit float64) TimeWindow {
	end := math.Round((w.End+delta)*10) / 10
	return w.WithEnd(end, limit)
}

// Label renders the window the way the range control shows it, with both
// bounds truncated to whole hours, e.g. "02:00 to 5:00".
func (w TimeWindow) Label() string {
	return fmt.Sprintf("%02d:00 to %d:00", int(math.Trunc(w.Start)), int(math.Trunc(w.End)))
}
