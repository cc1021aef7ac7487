package domain

import (
	"fmt"
	"log/slog"
	"time"
)

// ManeuverRecord is the flat, serializable form of a planned maneuver.
// Speed fields apply to longitudinal maneuvers, TargetLane to lateral ones
// and Phases to complex ones.
type ManeuverRecord struct {
	Type               ManeuverType     `json:"type"`
	Start              float64          `json:"start"`
	End                float64          `json:"end"`
	StartSpeed         float64          `json:"start_speed,omitempty"`
	TargetSpeed        float64          `json:"target_speed,omitempty"`
	MaxAccel           float64          `json:"max_accel,omitempty"`
	TargetLane         int              `json:"target_lane,omitempty"`
	LaneChangeDuration float64          `json:"lane_change_duration,omitempty"`
	Phases             []ManeuverRecord `json:"phases,omitempty"`
}

// PlanRecord is the flat, serializable form of a Plan.
type PlanRecord struct {
	PlanID    string           `json:"plan_id"`
	VehicleID string           `json:"vehicle_id"`
	CreatedAt time.Time        `json:"created_at"`
	Start     float64          `json:"start"`
	End       float64          `json:"end"`
	Maneuvers []ManeuverRecord `json:"maneuvers"`
}

// RecordOf flattens m. Only maneuver types defined in this package carry
// their parameters; other complex implementations keep just their span.
func RecordOf(m Maneuver) ManeuverRecord {
	rec := ManeuverRecord{Type: m.Type(), Start: m.StartDistance(), End: m.EndDistance()}
	switch v := m.(type) {
	case *LongitudinalManeuver:
		rec.StartSpeed = v.StartSpeed()
		rec.TargetSpeed = v.TargetSpeed()
		rec.MaxAccel = v.MaxAccel()
	case *LateralManeuver:
		rec.TargetLane = v.TargetLane()
		rec.LaneChangeDuration = v.LaneChangeDuration()
	case *PhasedManeuver:
		for _, p := range v.Phases() {
			rec.Phases = append(rec.Phases, RecordOf(p))
		}
	}
	return rec
}

// Build reconstructs a planned maneuver from the record.
func (r ManeuverRecord) Build() (Maneuver, error) {
	if r.Type == Complex {
		return r.buildComplex()
	}
	return r.buildSimple()
}

func (r ManeuverRecord) buildSimple() (SimpleManeuver, error) {
	switch r.Type {
	case Longitudinal:
		m := NewLongitudinalManeuver(r.Start, r.End)
		if err := m.SetSpeeds(r.StartSpeed, r.TargetSpeed); err != nil {
			return nil, fmt.Errorf("build maneuver: %w", err)
		}
		if r.MaxAccel != 0 {
			if err := m.SetMaxAccel(r.MaxAccel); err != nil {
				return nil, fmt.Errorf("build maneuver: %w", err)
			}
		}
		return m, nil
	case Lateral:
		m := NewLateralManeuver(r.Start, r.End, 0)
		if err := m.SetTargetLane(r.TargetLane); err != nil {
			return nil, fmt.Errorf("build maneuver: %w", err)
		}
		if r.LaneChangeDuration != 0 {
			if err := m.SetLaneChangeDuration(r.LaneChangeDuration); err != nil {
				return nil, fmt.Errorf("build maneuver: %w", err)
			}
		}
		return m, nil
	case Complex:
		return nil, fmt.Errorf("build maneuver: complex maneuver cannot be a phase")
	}
	return nil, fmt.Errorf("build maneuver: unknown type %q", r.Type)
}

func (r ManeuverRecord) buildComplex() (*PhasedManeuver, error) {
	phases := make([]SimpleManeuver, 0, len(r.Phases))
	for i, pr := range r.Phases {
		p, err := pr.buildSimple()
		if err != nil {
			return nil, fmt.Errorf("build complex maneuver: phase %d: %w", i, err)
		}
		phases = append(phases, p)
	}
	cm, err := NewPhasedManeuver(r.Start, r.End, phases...)
	if err != nil {
		return nil, fmt.Errorf("build complex maneuver: %w", err)
	}
	return cm, nil
}

// RecordPlan flattens p: longitudinal maneuvers first, then lateral, then the
// complex maneuver.
func RecordPlan(p *Plan) PlanRecord {
	snap := p.Trajectory.Snapshot()
	rec := PlanRecord{
		PlanID:    p.PlanID,
		VehicleID: p.VehicleID,
		CreatedAt: p.CreatedAt,
		Start:     snap.Start,
		End:       snap.End,
		Maneuvers: make([]ManeuverRecord, 0, len(snap.Longitudinal)+len(snap.Lateral)+1),
	}
	for _, m := range snap.Longitudinal {
		rec.Maneuvers = append(rec.Maneuvers, RecordOf(m))
	}
	for _, m := range snap.Lateral {
		rec.Maneuvers = append(rec.Maneuvers, RecordOf(m))
	}
	if snap.Complex != nil {
		rec.Maneuvers = append(rec.Maneuvers, RecordOf(snap.Complex))
	}
	return rec
}

// Build reconstructs the plan. The complex maneuver is set before the simple
// ones are admitted, so a record produced by RecordPlan always rebuilds.
func (r PlanRecord) Build(logger *slog.Logger) (*Plan, error) {
	traj, err := NewTrajectory(r.Start, r.End, logger)
	if err != nil {
		return nil, fmt.Errorf("build plan %s: %w", r.PlanID, err)
	}

	for i, mr := range r.Maneuvers {
		if mr.Type != Complex {
			continue
		}
		cm, err := mr.buildComplex()
		if err != nil {
			return nil, fmt.Errorf("build plan %s: maneuver %d: %w", r.PlanID, i, err)
		}
		if !traj.SetComplexManeuver(cm) {
			return nil, fmt.Errorf("build plan %s: maneuver %d: complex maneuver not accepted", r.PlanID, i)
		}
	}

	for i, mr := range r.Maneuvers {
		if mr.Type == Complex {
			continue
		}
		m, err := mr.buildSimple()
		if err != nil {
			return nil, fmt.Errorf("build plan %s: maneuver %d: %w", r.PlanID, i, err)
		}
		if !traj.AddManeuver(m) {
			return nil, fmt.Errorf("build plan %s: maneuver %d: %s not admitted", r.PlanID, i, describe(m))
		}
	}

	return &Plan{
		PlanID:     r.PlanID,
		VehicleID:  r.VehicleID,
		CreatedAt:  r.CreatedAt,
		Trajectory: traj,
	}, nil
}
