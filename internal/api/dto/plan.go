package dto

import (
	"trajectory-service/internal/adapters/commands"
	"trajectory-service/internal/domain"
	"trajectory-service/internal/services"
)

type SpeedChangeRequest struct {
	StartSpeed  *float64 `json:"start_speed"`
	TargetSpeed float64  `json:"target_speed"`
	MaxAccel    float64  `json:"max_accel"`
	Placement   string   `json:"placement"`
}

type LaneChangeRequest struct {
	At         float64 `json:"at"`
	TargetLane int     `json:"target_lane"`
}

// CreatePlanRequest is the body of POST /plans. State is the vehicle state the
// maneuvers are planned from; Activate hands the new plan to the executor.
type CreatePlanRequest struct {
	VehicleID    string                 `json:"vehicle_id"`
	Start        float64                `json:"start"`
	End          float64                `json:"end"`
	State        domain.VehicleState    `json:"state"`
	SpeedChanges []SpeedChangeRequest   `json:"speed_changes"`
	LaneChanges  []LaneChangeRequest    `json:"lane_changes"`
	Complex      *domain.ManeuverRecord `json:"complex"`
	Activate     bool                   `json:"activate"`
}

type PlanResponse struct {
	domain.PlanRecord
	Report *services.PlanReport `json:"report,omitempty"`
}

type ListPlanResponse struct {
	Plans []domain.PlanRecord `json:"plans"`
}

type ManeuversResponse struct {
	At        float64                 `json:"at"`
	Maneuvers []domain.ManeuverRecord `json:"maneuvers"`
}

type WindowResponse struct {
	Size     float64         `json:"size"`
	Order    string          `json:"order"`
	Found    bool            `json:"found"`
	Location float64         `json:"location"`
	Windows  []domain.Window `json:"windows"`
}

type ActivateResponse struct {
	ActivePlanID   string `json:"active_plan_id"`
	PreviousPlanID string `json:"previous_plan_id,omitempty"`
}

type ExecutorResponse struct {
	services.ExecutorStatus
	Commands []commands.Command `json:"recent_commands"`
}
