package domain

import "fmt"

// DefaultLaneChangeDuration is the time budget for one lane change, seconds.
const DefaultLaneChangeDuration = 4.0

// minLaneChangeLength keeps a lane change planned at standstill from
// collapsing into a point event.
const minLaneChangeLength = 1.0

// LateralManeuver moves the vehicle into a target lane.
type LateralManeuver struct {
	span
	targetLane int
	duration   float64
	planned    bool
}

// NewLateralManeuver returns a lane change already laid out over [start, end].
func NewLateralManeuver(start, end float64, targetLane int) *LateralManeuver {
	return &LateralManeuver{
		span:       span{start: start, end: end},
		targetLane: targetLane,
		duration:   DefaultLaneChangeDuration,
		planned:    true,
	}
}

// NewLaneChange returns an unplanned lane change toward targetLane.
func NewLaneChange(targetLane int) *LateralManeuver {
	return &LateralManeuver{targetLane: targetLane, duration: DefaultLaneChangeDuration}
}

func (m *LateralManeuver) Type() ManeuverType { return Lateral }
func (m *LateralManeuver) TargetLane() int    { return m.targetLane }
func (m *LateralManeuver) Planned() bool      { return m.planned }

// LaneChangeDuration is the time allowed for the lane change, seconds.
func (m *LateralManeuver) LaneChangeDuration() float64 { return m.duration }

func (m *LateralManeuver) SetTargetLane(lane int) error {
	if err := m.mutable("set target lane"); err != nil {
		return err
	}
	if lane < 0 {
		return fmt.Errorf("set target lane: lane index must be non-negative, got %d", lane)
	}
	m.targetLane = lane
	return nil
}

// SetLaneChangeDuration overrides the time allowed for the lane change.
func (m *LateralManeuver) SetLaneChangeDuration(seconds float64) error {
	if err := m.mutable("set lane change duration"); err != nil {
		return err
	}
	if seconds <= 0 {
		return fmt.Errorf("set lane change duration: must be positive, got %v", seconds)
	}
	m.duration = seconds
	return nil
}

// Plan lays the lane change out from startDist over the distance covered at
// the current speed during the lane change duration.
func (m *LateralManeuver) Plan(inputs ManeuverInputs, startDist float64) error {
	if err := m.mutable("plan lateral"); err != nil {
		return err
	}
	if inputs == nil {
		return fmt.Errorf("plan lateral: inputs are required")
	}
	length := inputs.CurrentSpeed() * m.duration
	if length < minLaneChangeLength {
		length = minLaneChangeLength
	}
	m.start, m.end = startDist, startDist+length
	m.planned = true
	return nil
}

func (m *LateralManeuver) ExecuteTimeStep(inputs ManeuverInputs, commands GuidanceCommands) (bool, error) {
	if !m.planned {
		return false, fmt.Errorf("execute lateral: %w", ErrNotPlanned)
	}
	if inputs.DistanceFromRouteStart() > m.end {
		return false, nil
	}
	offset := m.targetLane - inputs.CurrentLane()
	if offset == 0 {
		return false, nil
	}
	commands.SetSteeringCommand(offset)
	return true, nil
}
