package domain

// NoWindow is returned by window searches when no gap is large enough.
// Distances are non-negative, so it never collides with a real location.
const NoWindow = -1.0

// Window is a free interval of the longitudinal track.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (w Window) Size() float64 { return w.End - w.Start }

// gaps lists the free windows between start and limit around a sorted,
// non-overlapping track, in ascending distance order. Both window searches
// share this construction so they always agree on the boundary gaps.
func gaps(start, limit float64, track []Maneuver) []Window {
	out := make([]Window, 0, len(track)+1)
	cursor := start
	for _, m := range track {
		out = append(out, Window{Start: cursor, End: m.StartDistance()})
		cursor = m.EndDistance()
	}
	end := limit
	if end < cursor {
		end = cursor
	}
	return append(out, Window{Start: cursor, End: end})
}

// firstFit returns the start of the earliest window of at least size.
func firstFit(windows []Window, size float64) float64 {
	for _, w := range windows {
		if w.Size() >= size {
			return w.Start
		}
	}
	return NoWindow
}

// lastFit returns the start of the latest window of at least size.
func lastFit(windows []Window, size float64) float64 {
	for i := len(windows) - 1; i >= 0; i-- {
		if windows[i].Size() >= size {
			return windows[i].Start
		}
	}
	return NoWindow
}
