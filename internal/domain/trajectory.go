package domain

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"sync"
)

// Trajectory is the planned motion of a vehicle along its route: two
// independent, start-ordered tracks of simple maneuvers plus at most one
// complex maneuver owning the tail.
//
// Invariants:
//   - every admitted maneuver m satisfies start <= m.start <= m.end <= end;
//   - maneuvers of one track never overlap except at single boundary points;
//   - end only decreases, and only when a complex maneuver is accepted.
//
// A single RWMutex guards the tracks, the horizon and the complex slot, so
// readers observe either the state before or after a mutation. Re-planning
// replaces the whole Trajectory rather than editing one in flight.
type Trajectory struct {
	mu           sync.RWMutex
	start        float64
	end          float64
	longitudinal []Maneuver
	lateral      []Maneuver
	complex      ComplexManeuver
	logger       *slog.Logger
}

// NewTrajectory creates an empty trajectory over [start, end]. A nil logger
// discards log output.
func NewTrajectory(start, end float64, logger *slog.Logger) (*Trajectory, error) {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return nil, fmt.Errorf("new trajectory: bounds must be finite (start=%v end=%v)", start, end)
	}
	if start < 0 {
		return nil, fmt.Errorf("new trajectory: start must be non-negative, got %.2f", start)
	}
	if end < start {
		return nil, fmt.Errorf("new trajectory: end %.2f before start %.2f", end, start)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Trajectory{start: start, end: end, logger: logger}, nil
}

func (t *Trajectory) StartLocation() float64 { return t.start }

// EndLocation returns the current horizon.
func (t *Trajectory) EndLocation() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.end
}

// AddManeuver admits a simple maneuver into the track matching its type.
// It returns false, leaving the trajectory unchanged, when the maneuver is
// out of bounds, overlaps its track or reaches into the complex maneuver.
func (t *Trajectory) AddManeuver(m Maneuver) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	reason := t.rejectSimple(m)
	if reason == "" && !m.admit() {
		reason = "already admitted"
	}
	if reason != "" {
		t.logger.Debug("maneuver rejected", "reason", reason, "maneuver", describe(m))
		return false
	}

	track := t.track(m.Type())
	idx := sort.Search(len(*track), func(i int) bool {
		return (*track)[i].StartDistance() > m.StartDistance()
	})
	*track = slices.Insert(*track, idx, m)

	t.logger.Debug("maneuver added", "maneuver", describe(m), "index", idx)
	return true
}

func (t *Trajectory) rejectSimple(m Maneuver) string {
	if m == nil {
		return "nil maneuver"
	}
	switch m.Type() {
	case Longitudinal, Lateral:
	case Complex:
		return "complex maneuvers are set with SetComplexManeuver"
	default:
		return "unknown maneuver type"
	}

	start, end := m.StartDistance(), m.EndDistance()
	switch {
	case !finite(start, end):
		return "bounds not finite"
	case start > end:
		return "start after end"
	case start < t.start:
		return "starts before trajectory"
	case end > t.end:
		return "ends after trajectory horizon"
	case t.complex != nil && end > t.complex.StartDistance():
		return "overlaps complex maneuver"
	}

	if slices.ContainsFunc(*t.track(m.Type()), func(o Maneuver) bool { return overlaps(o, m) }) {
		return "overlaps maneuver on same track"
	}
	return ""
}

// SetComplexManeuver hands the tail of the trajectory to cm and clips the
// horizon to cm's end. It is rejected when cm ends past the horizon, starts
// before the trajectory, or when any simple maneuver reaches past cm's start.
// A previously set complex maneuver is replaced.
func (t *Trajectory) SetComplexManeuver(cm ComplexManeuver) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	reason := t.rejectComplex(cm)
	if reason == "" && !cm.admit() {
		reason = "already admitted"
	}
	if reason != "" {
		t.logger.Debug("complex maneuver rejected", "reason", reason, "maneuver", describe(cm))
		return false
	}

	t.complex = cm
	t.end = cm.EndDistance()
	t.logger.Debug("complex maneuver set", "maneuver", describe(cm), "horizon", t.end)
	return true
}

func (t *Trajectory) rejectComplex(cm ComplexManeuver) string {
	if cm == nil {
		return "nil maneuver"
	}
	if cm.Type() != Complex {
		return "not a complex maneuver"
	}

	start, end := cm.StartDistance(), cm.EndDistance()
	switch {
	case !finite(start, end):
		return "bounds not finite"
	case start > end:
		return "start after end"
	case end > t.end:
		return "ends after trajectory horizon"
	case start < t.start:
		return "starts before trajectory"
	}

	reaches := func(m Maneuver) bool { return m.EndDistance() > start }
	if slices.ContainsFunc(t.longitudinal, reaches) || slices.ContainsFunc(t.lateral, reaches) {
		return "overlaps simple maneuver"
	}
	return ""
}

// ComplexManeuver returns the complex maneuver, or nil when none is set.
func (t *Trajectory) ComplexManeuver() ComplexManeuver {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.complex
}

// ManeuversAt returns every maneuver whose inclusive span contains location:
// longitudinal first, then lateral, then the complex maneuver.
func (t *Trajectory) ManeuversAt(location float64) []Maneuver {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Maneuver
	for _, track := range [][]Maneuver{t.longitudinal, t.lateral} {
		for _, m := range track {
			if m.StartDistance() > location {
				break
			}
			if contains(m, location) {
				out = append(out, m)
			}
		}
	}
	if t.complex != nil && contains(t.complex, location) {
		out = append(out, t.complex)
	}
	return out
}

// NextManeuverAfter returns the maneuver of the given type with the smallest
// start strictly greater than location, or nil.
func (t *Trajectory) NextManeuverAfter(location float64, typ ManeuverType) Maneuver {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if typ == Complex {
		if t.complex != nil && t.complex.StartDistance() > location {
			return t.complex
		}
		return nil
	}

	track := t.track(typ)
	if track == nil {
		return nil
	}
	idx := sort.Search(len(*track), func(i int) bool {
		return (*track)[i].StartDistance() > location
	})
	if idx == len(*track) {
		return nil
	}
	return (*track)[idx]
}

// FindEarliestWindowOfSize returns the start of the first free longitudinal
// window of at least size, or NoWindow.
func (t *Trajectory) FindEarliestWindowOfSize(size float64) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return firstFit(t.windows(), size)
}

// FindLatestWindowOfSize returns the start of the last free longitudinal
// window of at least size, or NoWindow.
func (t *Trajectory) FindLatestWindowOfSize(size float64) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lastFit(t.windows(), size)
}

// Windows lists the free longitudinal windows in ascending order.
func (t *Trajectory) Windows() []Window {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.windows()
}

// windows limits the trailing gap at the complex maneuver's start, since
// nothing may be scheduled inside the span it owns.
func (t *Trajectory) windows() []Window {
	limit := t.end
	if t.complex != nil {
		limit = t.complex.StartDistance()
	}
	return gaps(t.start, limit, t.longitudinal)
}

func (t *Trajectory) track(typ ManeuverType) *[]Maneuver {
	switch typ {
	case Longitudinal:
		return &t.longitudinal
	case Lateral:
		return &t.lateral
	}
	return nil
}

// TrajectorySnapshot is an immutable copy of a trajectory's layout.
type TrajectorySnapshot struct {
	Start        float64
	End          float64
	Longitudinal []Maneuver
	Lateral      []Maneuver
	Complex      ComplexManeuver
}

// Snapshot copies the current layout under the read lock.
func (t *Trajectory) Snapshot() TrajectorySnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TrajectorySnapshot{
		Start:        t.start,
		End:          t.end,
		Longitudinal: slices.Clone(t.longitudinal),
		Lateral:      slices.Clone(t.lateral),
		Complex:      t.complex,
	}
}

func describe(m Maneuver) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s[%.2f, %.2f]", m.Type(), m.StartDistance(), m.EndDistance())
}
