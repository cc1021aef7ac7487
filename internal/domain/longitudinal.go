package domain

import (
	"fmt"
	"math"

	"trajectory-service/internal/kinematics"
)

// DefaultMaxAccel is the acceleration limit applied until SetMaxAccel is called, m/s².
const DefaultMaxAccel = 2.0

// LongitudinalManeuver changes speed from a start speed to a target speed at
// constant acceleration over its distance span.
//
// Speeds are written by planning code before the maneuver is admitted into a
// trajectory and read by the execution layer afterwards.
type LongitudinalManeuver struct {
	span
	startSpeed  float64
	targetSpeed float64
	speedsSet   bool
	maxAccel    float64
	planned     bool
}

// NewLongitudinalManeuver returns a maneuver already laid out over [start, end].
func NewLongitudinalManeuver(start, end float64) *LongitudinalManeuver {
	return &LongitudinalManeuver{
		span:     span{start: start, end: end},
		maxAccel: DefaultMaxAccel,
		planned:  true,
	}
}

// NewSpeedChange returns an unplanned maneuver; its span is set by Plan or
// PlanToTargetDistance.
func NewSpeedChange(startSpeed, targetSpeed float64) *LongitudinalManeuver {
	return &LongitudinalManeuver{
		startSpeed:  startSpeed,
		targetSpeed: targetSpeed,
		speedsSet:   true,
		maxAccel:    DefaultMaxAccel,
	}
}

func (m *LongitudinalManeuver) Type() ManeuverType { return Longitudinal }

func (m *LongitudinalManeuver) SetSpeeds(startSpeed, targetSpeed float64) error {
	if err := m.mutable("set speeds"); err != nil {
		return err
	}
	if startSpeed < 0 || targetSpeed < 0 {
		return fmt.Errorf("set speeds: speeds must be non-negative (start=%.2f target=%.2f)", startSpeed, targetSpeed)
	}
	m.startSpeed = startSpeed
	m.targetSpeed = targetSpeed
	m.speedsSet = true
	return nil
}

func (m *LongitudinalManeuver) StartSpeed() float64  { return m.startSpeed }
func (m *LongitudinalManeuver) TargetSpeed() float64 { return m.targetSpeed }
func (m *LongitudinalManeuver) MaxAccel() float64    { return m.maxAccel }
func (m *LongitudinalManeuver) Planned() bool        { return m.planned }

// SetMaxAccel bounds the acceleration magnitude used when planning.
func (m *LongitudinalManeuver) SetMaxAccel(limit float64) error {
	if err := m.mutable("set max accel"); err != nil {
		return err
	}
	if limit <= 0 || math.IsNaN(limit) || math.IsInf(limit, 0) {
		return fmt.Errorf("set max accel: limit must be positive and finite, got %v", limit)
	}
	m.maxAccel = limit
	return nil
}

// resolveStartSpeed falls back to the vehicle's current speed when no speeds were set.
func (m *LongitudinalManeuver) resolveStartSpeed(inputs ManeuverInputs) {
	if m.speedsSet || inputs == nil || m.Admitted() {
		return
	}
	m.startSpeed = inputs.CurrentSpeed()
	m.targetSpeed = m.startSpeed
	m.speedsSet = true
}

// CanPlan reports whether the speed change fits in [startDist, endDist] without
// exceeding the acceleration limit.
func (m *LongitudinalManeuver) CanPlan(inputs ManeuverInputs, startDist, endDist float64) bool {
	if endDist < startDist {
		return false
	}
	m.resolveStartSpeed(inputs)
	return kinematics.Feasible(m.startSpeed, m.targetSpeed, endDist-startDist, m.maxAccel)
}

// RequiredDistance is the shortest span over which the speed change can be executed.
func (m *LongitudinalManeuver) RequiredDistance() float64 {
	return kinematics.RequiredDistance(m.startSpeed, m.targetSpeed, m.maxAccel)
}

// PlanToTargetDistance lays the maneuver out from startDist, stretching it to
// end exactly at endDist when feasible. When the speed change needs more room
// than that, the maneuver runs at the acceleration limit and ends later.
// It returns the planned end distance.
func (m *LongitudinalManeuver) PlanToTargetDistance(inputs ManeuverInputs, startDist, endDist float64) (float64, error) {
	if err := m.mutable("plan to target distance"); err != nil {
		return 0, err
	}
	if endDist < startDist {
		return 0, fmt.Errorf("plan to target distance: end %.2f before start %.2f", endDist, startDist)
	}
	m.resolveStartSpeed(inputs)

	needed := m.RequiredDistance()
	if math.IsInf(needed, 1) {
		return 0, fmt.Errorf("plan to target distance: speed change %.2f -> %.2f impossible with max accel %.2f",
			m.startSpeed, m.targetSpeed, m.maxAccel)
	}

	end := endDist
	if needed > endDist-startDist {
		end = startDist + needed
	}
	m.start, m.end = startDist, end
	m.planned = true
	return end, nil
}

// Plan lays the maneuver out from startDist over the shortest feasible span.
func (m *LongitudinalManeuver) Plan(inputs ManeuverInputs, startDist float64) error {
	_, err := m.PlanToTargetDistance(inputs, startDist, startDist)
	if err != nil {
		return fmt.Errorf("plan longitudinal: %w", err)
	}
	return nil
}

// GenerateSpeedCommand returns the speed the profile calls for at the vehicle's
// current distance.
func (m *LongitudinalManeuver) GenerateSpeedCommand(inputs ManeuverInputs) float64 {
	length := m.end - m.start
	if length <= 0 {
		return m.targetSpeed
	}
	progress := inputs.DistanceFromRouteStart() - m.start
	if progress <= 0 {
		return m.startSpeed
	}
	if progress >= length {
		return m.targetSpeed
	}
	a := kinematics.AccelerationFor(m.startSpeed, m.targetSpeed, length)
	return kinematics.SpeedAt(m.startSpeed, a, progress)
}

func (m *LongitudinalManeuver) ExecuteTimeStep(inputs ManeuverInputs, commands GuidanceCommands) (bool, error) {
	if !m.planned {
		return false, fmt.Errorf("execute longitudinal: %w", ErrNotPlanned)
	}
	dist := inputs.DistanceFromRouteStart()
	if dist > m.end {
		return false, nil
	}
	commands.SetSpeedCommand(m.GenerateSpeedCommand(inputs), m.maxAccel)
	return dist < m.end, nil
}
