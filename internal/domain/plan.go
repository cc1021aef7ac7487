package domain

import "time"

// Represents a trajectory produced for one vehicle by the planning layer.
// A Plan is replaced wholesale when the vehicle is re-planned.
type Plan struct {
	PlanID     string
	VehicleID  string
	CreatedAt  time.Time
	Trajectory *Trajectory
}
