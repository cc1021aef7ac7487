package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"trajectory-service/internal/domain"
	"trajectory-service/internal/platform/obs"
	"trajectory-service/internal/ports"
)

// TickOutcome classifies one executor cycle.
type TickOutcome string

const (
	TickNoTrajectory  TickOutcome = "no_trajectory"
	TickBeyondHorizon TickOutcome = "beyond_horizon"
	TickIdle          TickOutcome = "idle"
	TickExecuted      TickOutcome = "executed"
)

// TickResult reports what a tick did.
type TickResult struct {
	Outcome  TickOutcome
	State    domain.VehicleState
	Executed int
}

// ExecutorStatus is a point-in-time view of the executor.
type ExecutorStatus struct {
	ActivePlanID string      `json:"active_plan_id,omitempty"`
	LastOutcome  TickOutcome `json:"last_outcome,omitempty"`
	Ticks        uint64      `json:"ticks"`
}

// Executor drives the active plan at a fixed cadence: each tick reads the
// vehicle state, finds the maneuvers active at its distance and lets each of
// them issue guidance commands. The active plan is swapped atomically, so a
// tick always runs against one complete trajectory.
type Executor struct {
	active   atomic.Pointer[domain.Plan]
	source   ports.VehicleStateSource
	commands domain.GuidanceCommands
	logger   *slog.Logger

	mu          sync.Mutex
	lastOutcome TickOutcome
	ticks       uint64
}

func NewExecutor(source ports.VehicleStateSource, commands domain.GuidanceCommands, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{source: source, commands: commands, logger: logger}
}

// Activate makes plan the active plan and returns the one it replaced.
func (e *Executor) Activate(plan *domain.Plan) *domain.Plan {
	prev := e.active.Swap(plan)
	attrs := []any{"plan_id", planID(plan)}
	if prev != nil {
		attrs = append(attrs, "previous_plan_id", prev.PlanID)
	}
	e.logger.Info("plan activated", attrs...)
	return prev
}

func (e *Executor) Active() *domain.Plan { return e.active.Load() }

func (e *Executor) Status() ExecutorStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ExecutorStatus{
		ActivePlanID: planID(e.active.Load()),
		LastOutcome:  e.lastOutcome,
		Ticks:        e.ticks,
	}
}

// Tick runs one execution cycle.
func (e *Executor) Tick(ctx context.Context) (TickResult, error) {
	plan := e.active.Load()
	if plan == nil {
		e.record(TickNoTrajectory, "no trajectory to execute")
		return TickResult{Outcome: TickNoTrajectory}, nil
	}

	state, err := e.source.State(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("executor tick: read vehicle state: %w", err)
	}

	traj := plan.Trajectory
	if state.Distance > traj.EndLocation() {
		e.record(TickBeyondHorizon, "vehicle ran out of trajectory",
			"plan_id", plan.PlanID, "distance", state.Distance, "horizon", traj.EndLocation())
		return TickResult{Outcome: TickBeyondHorizon, State: state}, nil
	}

	res := TickResult{Outcome: TickIdle, State: state}
	var errs []error
	for _, m := range traj.ManeuversAt(state.Distance) {
		ex, ok := m.(domain.Executable)
		if !ok {
			continue
		}
		if _, err := ex.ExecuteTimeStep(state, e.commands); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Executed++
	}
	if res.Executed > 0 {
		res.Outcome = TickExecuted
	}
	e.record(res.Outcome, "")

	if err := errors.Join(errs...); err != nil {
		return res, fmt.Errorf("executor tick: plan %s at %.2f: %w", plan.PlanID, state.Distance, err)
	}
	return res, nil
}

// Run ticks every period until ctx is cancelled. Tick errors are logged and
// do not stop the loop.
func (e *Executor) Run(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("executor run: period must be positive, got %s", period)
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	e.logger.Info("executor started", "period", period)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("executor stopped")
			return nil
		case <-ticker.C:
			if _, err := e.Tick(ctx); err != nil {
				e.logger.Error("executor tick failed", "err", err)
			}
		}
	}
}

// record counts the outcome and logs msg only when the outcome changes, so a
// steady condition is reported once rather than every tick.
func (e *Executor) record(outcome TickOutcome, msg string, attrs ...any) {
	obs.ExecutorTicks.WithLabelValues(string(outcome)).Inc()

	e.mu.Lock()
	changed := e.lastOutcome != outcome
	e.lastOutcome = outcome
	e.ticks++
	e.mu.Unlock()

	if changed && msg != "" {
		e.logger.Warn(msg, attrs...)
	}
}

func planID(p *domain.Plan) string {
	if p == nil {
		return ""
	}
	return p.PlanID
}
