package domain

// The functions below dispatch variant-specific operations by maneuver
// variant. Calling one on the wrong variant returns an error wrapping
// ErrUnsupportedOperation.

func SetSpeeds(m Maneuver, startSpeed, targetSpeed float64) error {
	lm, ok := m.(*LongitudinalManeuver)
	if !ok {
		return unsupported(m, "set speeds")
	}
	return lm.SetSpeeds(startSpeed, targetSpeed)
}

func StartSpeed(m Maneuver) (float64, error) {
	lm, ok := m.(*LongitudinalManeuver)
	if !ok {
		return 0, unsupported(m, "start speed")
	}
	return lm.StartSpeed(), nil
}

func TargetSpeed(m Maneuver) (float64, error) {
	lm, ok := m.(*LongitudinalManeuver)
	if !ok {
		return 0, unsupported(m, "target speed")
	}
	return lm.TargetSpeed(), nil
}

func SetMaxAccel(m Maneuver, limit float64) error {
	lm, ok := m.(*LongitudinalManeuver)
	if !ok {
		return unsupported(m, "set max accel")
	}
	return lm.SetMaxAccel(limit)
}

func CanPlan(m Maneuver, inputs ManeuverInputs, startDist, endDist float64) (bool, error) {
	lm, ok := m.(*LongitudinalManeuver)
	if !ok {
		return false, unsupported(m, "can plan")
	}
	return lm.CanPlan(inputs, startDist, endDist), nil
}

func PlanToTargetDistance(m Maneuver, inputs ManeuverInputs, startDist, endDist float64) (float64, error) {
	lm, ok := m.(*LongitudinalManeuver)
	if !ok {
		return 0, unsupported(m, "plan to target distance")
	}
	return lm.PlanToTargetDistance(inputs, startDist, endDist)
}

func SetTargetLane(m Maneuver, lane int) error {
	lm, ok := m.(*LateralManeuver)
	if !ok {
		return unsupported(m, "set target lane")
	}
	return lm.SetTargetLane(lane)
}

func TargetLane(m Maneuver) (int, error) {
	lm, ok := m.(*LateralManeuver)
	if !ok {
		return 0, unsupported(m, "target lane")
	}
	return lm.TargetLane(), nil
}

// PlanSimple lays out any simple maneuver from startDist. Complex maneuvers are
// planned by their owner and are not supported here.
func PlanSimple(m Maneuver, inputs ManeuverInputs, startDist float64) error {
	sm, ok := m.(SimpleManeuver)
	if !ok || m.Type() == Complex {
		return unsupported(m, "plan")
	}
	return sm.Plan(inputs, startDist)
}
