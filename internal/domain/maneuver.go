package domain

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// ManeuverType tags which track a maneuver belongs to.
type ManeuverType string

const (
	Longitudinal ManeuverType = "longitudinal"
	Lateral      ManeuverType = "lateral"
	Complex      ManeuverType = "complex"
)

// ParseManeuverType converts an external string (API, storage) into a ManeuverType.
func ParseManeuverType(s string) (ManeuverType, error) {
	switch t := ManeuverType(s); t {
	case Longitudinal, Lateral, Complex:
		return t, nil
	}
	return "", fmt.Errorf("parse maneuver type: unknown type %q", s)
}

var (
	// ErrUnsupportedOperation is returned when a variant-specific operation is
	// invoked on a maneuver of another variant.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrNotPlanned is returned when a maneuver is executed before it was planned.
	ErrNotPlanned = errors.New("maneuver not planned")

	// ErrAlreadyAdmitted is returned when a maneuver owned by a trajectory is
	// re-planned or reconfigured.
	ErrAlreadyAdmitted = errors.New("maneuver already admitted")
)

// Maneuver is the minimal contract every maneuver variant satisfies.
// Distances are measured along the route from its origin, in metres.
//
// The set of implementations is closed: Longitudinal, Lateral and Complex
// variants all live in this package.
type Maneuver interface {
	Type() ManeuverType
	StartDistance() float64
	EndDistance() float64

	variant()
	admit() bool
}

// Executable is implemented by maneuvers that drive the vehicle each control tick.
// ExecuteTimeStep reports whether execution should continue.
type Executable interface {
	Maneuver
	ExecuteTimeStep(inputs ManeuverInputs, commands GuidanceCommands) (bool, error)
}

// SimpleManeuver is a single-track maneuver that can be planned from a start distance.
type SimpleManeuver interface {
	Executable
	Plan(inputs ManeuverInputs, startDist float64) error
}

// span holds the distance interval shared by every variant. Once admitted
// into a trajectory the interval is frozen.
type span struct {
	start    float64
	end      float64
	admitted atomic.Bool
}

func (s *span) StartDistance() float64 { return s.start }
func (s *span) EndDistance() float64   { return s.end }

func (s *span) variant() {}

// admit claims the maneuver for a trajectory. It fails when another
// trajectory, or the same one, already owns it.
func (s *span) admit() bool { return s.admitted.CompareAndSwap(false, true) }

// Admitted reports whether a trajectory owns the maneuver.
func (s *span) Admitted() bool { return s.admitted.Load() }

// mutable guards every write to a maneuver's plan or parameters.
func (s *span) mutable(op string) error {
	if s.admitted.Load() {
		return fmt.Errorf("%s: %w", op, ErrAlreadyAdmitted)
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// contains reports whether loc lies within the inclusive interval of m.
func contains(m Maneuver, loc float64) bool {
	return m.StartDistance() <= loc && loc <= m.EndDistance()
}

// overlaps reports whether a and b share more than a single boundary point.
func overlaps(a, b Maneuver) bool {
	return a.StartDistance() < b.EndDistance() && b.StartDistance() < a.EndDistance()
}

func unsupported(m Maneuver, op string) error {
	if m == nil {
		return fmt.Errorf("%s on nil maneuver: %w", op, ErrUnsupportedOperation)
	}
	return fmt.Errorf("%s on %s maneuver: %w", op, m.Type(), ErrUnsupportedOperation)
}
