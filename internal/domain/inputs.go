package domain

// ManeuverInputs is the vehicle state a maneuver reads while planning and executing.
type ManeuverInputs interface {
	// Distance travelled along the route since its origin, metres.
	DistanceFromRouteStart() float64
	// Current longitudinal speed, m/s.
	CurrentSpeed() float64
	// Index of the lane the vehicle currently occupies.
	CurrentLane() int
}

// GuidanceCommands is the sink for per-tick control output.
type GuidanceCommands interface {
	SetSpeedCommand(speed, maxAccel float64)
	SetSteeringCommand(laneOffset int)
}

// VehicleState is a point-in-time copy of ManeuverInputs.
type VehicleState struct {
	Distance float64 `json:"distance"`
	Speed    float64 `json:"speed"`
	Lane     int     `json:"lane"`
}

func (v VehicleState) DistanceFromRouteStart() float64 { return v.Distance }
func (v VehicleState) CurrentSpeed() float64           { return v.Speed }
func (v VehicleState) CurrentLane() int                { return v.Lane }
