package domain

import (
	"errors"
	"fmt"
)

// ComplexManeuver owns the tail of a trajectory from its start distance to the
// trajectory's end. The container only consults its distances.
type ComplexManeuver interface {
	Executable
}

// PhasedManeuver is a complex maneuver that delegates execution to an ordered
// set of simple phases, e.g. a speed match followed by a merge lane change.
type PhasedManeuver struct {
	span
	phases []SimpleManeuver
}

// NewPhasedManeuver builds a complex maneuver over [start, end]. Every phase
// must already be planned inside that span.
func NewPhasedManeuver(start, end float64, phases ...SimpleManeuver) (*PhasedManeuver, error) {
	if !finite(start, end) {
		return nil, fmt.Errorf("new phased maneuver: bounds must be finite (start=%v end=%v)", start, end)
	}
	if start > end {
		return nil, fmt.Errorf("new phased maneuver: start %.2f after end %.2f", start, end)
	}
	for i, p := range phases {
		if p == nil {
			return nil, fmt.Errorf("new phased maneuver: phase %d is nil", i)
		}
		if p.StartDistance() < start || p.EndDistance() > end {
			return nil, fmt.Errorf("new phased maneuver: phase %d [%.2f, %.2f] outside [%.2f, %.2f]",
				i, p.StartDistance(), p.EndDistance(), start, end)
		}
	}
	return &PhasedManeuver{
		span:   span{start: start, end: end},
		phases: append([]SimpleManeuver(nil), phases...),
	}, nil
}

func (m *PhasedManeuver) Type() ManeuverType { return Complex }

// admit also freezes the phases, which the complex maneuver owns from then on.
func (m *PhasedManeuver) admit() bool {
	if !m.span.admit() {
		return false
	}
	for _, p := range m.phases {
		p.admit()
	}
	return true
}

// Phases returns a copy of the phase list.
func (m *PhasedManeuver) Phases() []SimpleManeuver {
	return append([]SimpleManeuver(nil), m.phases...)
}

// ExecuteTimeStep runs every phase active at the current distance. Execution
// continues until the vehicle passes the maneuver's end.
func (m *PhasedManeuver) ExecuteTimeStep(inputs ManeuverInputs, commands GuidanceCommands) (bool, error) {
	dist := inputs.DistanceFromRouteStart()
	if dist > m.end {
		return false, nil
	}

	var errs []error
	for _, p := range m.phases {
		if !contains(p, dist) {
			continue
		}
		if _, err := p.ExecuteTimeStep(inputs, commands); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return false, fmt.Errorf("execute phased maneuver: %w", err)
	}
	return dist < m.end, nil
}
