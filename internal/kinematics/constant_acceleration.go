// Package kinematics provides the constant-acceleration relations used to size
// and execute speed-change maneuvers.
//
// All distances are in metres, speeds in m/s and accelerations in m/s².
package kinematics

import "math"

// RequiredDistance returns the distance needed to change speed from v0 to v1
// at the acceleration magnitude maxAccel. A non-positive limit can never
// change speed and yields +Inf unless v0 == v1.
func RequiredDistance(v0, v1, maxAccel float64) float64 {
	if v0 == v1 {
		return 0
	}
	if maxAccel <= 0 {
		return math.Inf(1)
	}
	return math.Abs(v1*v1-v0*v0) / (2 * maxAccel)
}

// AccelerationFor returns the constant acceleration that takes v0 to v1 over dist.
// Negative values are decelerations. Zero distance yields 0 when no speed
// change is needed and ±Inf otherwise.
func AccelerationFor(v0, v1, dist float64) float64 {
	if v0 == v1 {
		return 0
	}
	if dist <= 0 {
		return math.Copysign(math.Inf(1), v1-v0)
	}
	return (v1*v1 - v0*v0) / (2 * dist)
}

// SpeedAt returns the speed reached after travelling dist from v0 at constant
// acceleration a. The vehicle never reverses: the result is clamped at zero.
func SpeedAt(v0, a, dist float64) float64 {
	if dist <= 0 {
		return v0
	}
	return math.Sqrt(math.Max(0, v0*v0+2*a*dist))
}

// Feasible reports whether v0 can reach v1 within dist without exceeding maxAccel.
func Feasible(v0, v1, dist, maxAccel float64) bool {
	return RequiredDistance(v0, v1, maxAccel) <= dist
}
