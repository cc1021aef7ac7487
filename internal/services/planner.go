package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"trajectory-service/internal/domain"
	"trajectory-service/internal/platform/obs"
	"trajectory-service/internal/ports"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Placement selects which free window a speed change is scheduled into.
type Placement string

const (
	PlaceEarliest Placement = "earliest"
	PlaceLatest   Placement = "latest"
)

func ParsePlacement(s string) (Placement, error) {
	switch Placement(strings.ToLower(strings.TrimSpace(s))) {
	case "", PlaceEarliest:
		return PlaceEarliest, nil
	case PlaceLatest:
		return PlaceLatest, nil
	}
	return "", fmt.Errorf("parse placement: unknown placement %q", s)
}

// PlannerConfig holds planning defaults. AccelLimit caps the acceleration a
// speed change may be compressed to when its preferred window is not free.
type PlannerConfig struct {
	MaxAccel           float64
	AccelLimit         float64
	LaneChangeDuration float64
	WindowShrinkFactor float64
	MinWindowSize      float64
}

// SpeedChangeRequest asks for a change to TargetSpeed. A nil StartSpeed
// means the vehicle's current speed.
type SpeedChangeRequest struct {
	StartSpeed  *float64
	TargetSpeed float64
	MaxAccel    float64
	Placement   Placement
}

// LaneChangeRequest asks for a lane change beginning at At.
type LaneChangeRequest struct {
	At         float64
	TargetLane int
}

type PlanRequest struct {
	VehicleID    string
	Start        float64
	End          float64
	State        domain.VehicleState
	SpeedChanges []SpeedChangeRequest
	LaneChanges  []LaneChangeRequest
	// Complex, when set, must be a complex maneuver record with its phases.
	Complex *domain.ManeuverRecord
}

// Rejection describes one request that could not be scheduled.
type Rejection struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// PlanReport summarizes what the planner scheduled.
type PlanReport struct {
	Admitted int         `json:"admitted"`
	Rejected []Rejection `json:"rejected"`
}

func (r *PlanReport) reject(kind string, idx int, reason string) {
	r.Rejected = append(r.Rejected, Rejection{Kind: kind, Index: idx, Reason: reason})
}

var ErrInvalidPlanRequest = errors.New("invalid plan request")

// Planner turns maneuver requests into a persisted trajectory.
type Planner struct {
	cfg    PlannerConfig
	repo   ports.PlanRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewPlanner(cfg PlannerConfig, repo ports.PlanRepository, logger *slog.Logger) *Planner {
	if cfg.MaxAccel <= 0 {
		cfg.MaxAccel = domain.DefaultMaxAccel
	}
	if cfg.AccelLimit < cfg.MaxAccel {
		cfg.AccelLimit = cfg.MaxAccel
	}
	if cfg.LaneChangeDuration <= 0 {
		cfg.LaneChangeDuration = domain.DefaultLaneChangeDuration
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Planner{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

// Plan builds a trajectory over [req.Start, req.End], schedules the requested
// maneuvers into it and saves the result. Requests that cannot be scheduled
// are reported, not treated as errors. The complex maneuver is placed first so
// simple maneuvers are only scheduled ahead of it.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (_ *domain.Plan, _ PlanReport, err error) {
	ctx, span := otel.Tracer("trajectory-service").Start(ctx, "services.Planner.Plan")
	defer span.End()
	defer obs.Time(ctx, p.logger, "planner.Plan")(&err)

	var report PlanReport
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "plan failed")
		}
		obs.PlanRequests.WithLabelValues(outcome).Inc()
	}()

	if strings.TrimSpace(req.VehicleID) == "" {
		return nil, report, fmt.Errorf("plan: %w: vehicle_id is required", ErrInvalidPlanRequest)
	}
	span.SetAttributes(
		attribute.String("vehicle_id", req.VehicleID),
		attribute.Float64("start", req.Start),
		attribute.Float64("end", req.End),
	)

	traj, err := domain.NewTrajectory(req.Start, req.End, p.logger.With("vehicle_id", req.VehicleID))
	if err != nil {
		return nil, report, fmt.Errorf("plan: %w: %w", ErrInvalidPlanRequest, err)
	}

	if req.Complex != nil {
		p.planComplex(traj, *req.Complex, &report)
	}
	for i, sc := range req.SpeedChanges {
		if reason := p.planSpeedChange(traj, req.State, sc); reason != "" {
			report.reject("speed_change", i, reason)
			continue
		}
		report.Admitted++
	}
	for i, lc := range req.LaneChanges {
		if reason := p.planLaneChange(traj, req.State, lc); reason != "" {
			report.reject("lane_change", i, reason)
			continue
		}
		report.Admitted++
	}

	plan := &domain.Plan{
		PlanID:     uuid.NewString(),
		VehicleID:  req.VehicleID,
		CreatedAt:  p.now().UTC(),
		Trajectory: traj,
	}
	if err := p.repo.SavePlan(ctx, plan); err != nil {
		return nil, report, fmt.Errorf("plan: save: %w", err)
	}

	span.SetAttributes(
		attribute.String("plan_id", plan.PlanID),
		attribute.Int("admitted", report.Admitted),
		attribute.Int("rejected", len(report.Rejected)),
	)
	p.logger.InfoContext(ctx, "plan created",
		"plan_id", plan.PlanID, "vehicle_id", plan.VehicleID,
		"admitted", report.Admitted, "rejected", len(report.Rejected))
	return plan, report, nil
}

func (p *Planner) planComplex(traj *domain.Trajectory, rec domain.ManeuverRecord, report *PlanReport) {
	if rec.Type == "" {
		rec.Type = domain.Complex
	}
	if rec.Type != domain.Complex {
		report.reject("complex", 0, fmt.Sprintf("type must be %s, got %s", domain.Complex, rec.Type))
		return
	}
	m, err := rec.Build()
	if err != nil {
		report.reject("complex", 0, err.Error())
		return
	}
	ok := traj.SetComplexManeuver(m.(domain.ComplexManeuver))
	admitted(domain.Complex, ok)
	if !ok {
		report.reject("complex", 0, "rejected by trajectory")
		return
	}
	report.Admitted++
}

// planSpeedChange searches for a free longitudinal window of the distance the
// change needs. When none is free it retries with windows shrunk by the
// configured factor, raising the acceleration to fit, until the window would
// drop below the minimum size or the acceleration past the limit.
func (p *Planner) planSpeedChange(traj *domain.Trajectory, state domain.VehicleState, req SpeedChangeRequest) string {
	startSpeed := state.Speed
	if req.StartSpeed != nil {
		startSpeed = *req.StartSpeed
	}
	accel := req.MaxAccel
	if accel <= 0 {
		accel = p.cfg.MaxAccel
	}

	m := domain.NewSpeedChange(0, 0)
	if err := m.SetSpeeds(startSpeed, req.TargetSpeed); err != nil {
		return err.Error()
	}
	if err := m.SetMaxAccel(accel); err != nil {
		return err.Error()
	}

	needed := m.RequiredDistance()
	if math.IsInf(needed, 0) || math.IsNaN(needed) {
		return "speed change is not feasible"
	}

	find := traj.FindEarliestWindowOfSize
	if req.Placement == PlaceLatest {
		find = traj.FindLatestWindowOfSize
	}

	limit := math.Max(p.cfg.AccelLimit, accel)
	size := needed
	for {
		scaled := accel
		if size < needed {
			// Nudged up so float rounding never plans past the window.
			scaled = accel * needed / size * (1 + 1e-9)
		}
		if scaled > limit {
			break
		}

		if loc := find(size); loc != domain.NoWindow {
			if err := m.SetMaxAccel(scaled); err != nil {
				return err.Error()
			}
			if _, err := m.PlanToTargetDistance(state, loc, loc+size); err != nil {
				return err.Error()
			}
			if traj.AddManeuver(m) {
				admitted(domain.Longitudinal, true)
				return ""
			}
		}

		next := size * p.cfg.WindowShrinkFactor
		if next >= size || next < p.cfg.MinWindowSize {
			break
		}
		size = next
	}

	admitted(domain.Longitudinal, false)
	return fmt.Sprintf("no free window for %.2fm speed change", needed)
}

func (p *Planner) planLaneChange(traj *domain.Trajectory, state domain.VehicleState, req LaneChangeRequest) string {
	m := domain.NewLaneChange(0)
	if err := m.SetTargetLane(req.TargetLane); err != nil {
		return err.Error()
	}
	if err := m.SetLaneChangeDuration(p.cfg.LaneChangeDuration); err != nil {
		return err.Error()
	}
	if err := m.Plan(state, req.At); err != nil {
		return err.Error()
	}
	ok := traj.AddManeuver(m)
	admitted(domain.Lateral, ok)
	if !ok {
		return "rejected by trajectory"
	}
	return ""
}

func admitted(typ domain.ManeuverType, ok bool) {
	result := "rejected"
	if ok {
		result = "admitted"
	}
	obs.ManeuversAdmitted.WithLabelValues(string(typ), result).Inc()
}
