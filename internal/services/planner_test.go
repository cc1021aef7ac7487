package services

import (
	"context"
	"errors"
	"testing"
	"trajectory-service/internal/adapters/repositories"
	"trajectory-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner(cfg PlannerConfig) (*Planner, *repositories.MemoryPlanRepository) {
	repo := repositories.NewMemoryPlanRepository(nil)
	return NewPlanner(cfg, repo, nil), repo
}

func longitudinal(t *testing.T, traj *domain.Trajectory) []domain.Maneuver {
	t.Helper()
	return traj.Snapshot().Longitudinal
}

func TestPlannerSchedulesRequests(t *testing.T) {
	p, repo := newTestPlanner(PlannerConfig{MaxAccel: 2, WindowShrinkFactor: 0.5, MinWindowSize: 1})

	plan, report, err := p.Plan(context.Background(), PlanRequest{
		VehicleID:    "veh-1",
		Start:        0,
		End:          200,
		State:        domain.VehicleState{Speed: 10},
		SpeedChanges: []SpeedChangeRequest{{TargetSpeed: 20}},
		LaneChanges:  []LaneChangeRequest{{At: 50, TargetLane: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Admitted)
	assert.Empty(t, report.Rejected)
	assert.NotEmpty(t, plan.PlanID)

	lon := longitudinal(t, plan.Trajectory)
	require.Len(t, lon, 1)
	assert.InDelta(t, 0.0, lon[0].StartDistance(), 1e-9)
	assert.InDelta(t, 75.0, lon[0].EndDistance(), 1e-9)

	at := plan.Trajectory.ManeuversAt(60)
	require.Len(t, at, 2)
	assert.Equal(t, domain.Lateral, at[1].Type())
	assert.InDelta(t, 90.0, at[1].EndDistance(), 1e-9)

	stored, err := repo.GetPlan(context.Background(), plan.PlanID)
	require.NoError(t, err)
	assert.Equal(t, "veh-1", stored.VehicleID)
}

func TestPlannerPlacement(t *testing.T) {
	p, _ := newTestPlanner(PlannerConfig{MaxAccel: 2, WindowShrinkFactor: 0.5, MinWindowSize: 1})
	zero := 0.0

	plan, report, err := p.Plan(context.Background(), PlanRequest{
		VehicleID: "veh-1",
		Start:     0,
		End:       200,
		SpeedChanges: []SpeedChangeRequest{
			{StartSpeed: &zero, TargetSpeed: 10, Placement: PlaceEarliest},
			{StartSpeed: &zero, TargetSpeed: 10, Placement: PlaceLatest},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Admitted)

	lon := longitudinal(t, plan.Trajectory)
	require.Len(t, lon, 2)
	assert.InDelta(t, 0.0, lon[0].StartDistance(), 1e-9)
	assert.InDelta(t, 25.0, lon[1].StartDistance(), 1e-9, "latest fitting window begins after the first change")
}

func TestPlannerShrinksWindow(t *testing.T) {
	zero := 0.0
	req := PlanRequest{
		VehicleID:    "veh-1",
		Start:        0,
		End:          12.5,
		SpeedChanges: []SpeedChangeRequest{{StartSpeed: &zero, TargetSpeed: 10}},
	}

	t.Run("compresses within the limit", func(t *testing.T) {
		p, _ := newTestPlanner(PlannerConfig{MaxAccel: 2, AccelLimit: 5, WindowShrinkFactor: 0.5, MinWindowSize: 1})
		plan, report, err := p.Plan(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, 1, report.Admitted)

		lon := longitudinal(t, plan.Trajectory)
		require.Len(t, lon, 1)
		m := lon[0].(*domain.LongitudinalManeuver)
		assert.InDelta(t, 12.5, m.EndDistance(), 1e-9)
		assert.InDelta(t, 4.0, m.MaxAccel(), 1e-6)
	})

	t.Run("rejects past the limit", func(t *testing.T) {
		p, _ := newTestPlanner(PlannerConfig{MaxAccel: 2, AccelLimit: 3, WindowShrinkFactor: 0.5, MinWindowSize: 1})
		plan, report, err := p.Plan(context.Background(), req)
		require.NoError(t, err)
		assert.Zero(t, report.Admitted)
		require.Len(t, report.Rejected, 1)
		assert.Equal(t, "speed_change", report.Rejected[0].Kind)
		assert.Contains(t, report.Rejected[0].Reason, "no free window")
		assert.Empty(t, longitudinal(t, plan.Trajectory))
	})

	t.Run("stops at the minimum window size", func(t *testing.T) {
		p, _ := newTestPlanner(PlannerConfig{MaxAccel: 2, AccelLimit: 5, WindowShrinkFactor: 0.5, MinWindowSize: 20})
		_, report, err := p.Plan(context.Background(), req)
		require.NoError(t, err)
		assert.Len(t, report.Rejected, 1)
	})
}

func TestPlannerComplexTail(t *testing.T) {
	p, _ := newTestPlanner(PlannerConfig{MaxAccel: 2, AccelLimit: 3, WindowShrinkFactor: 0.5, MinWindowSize: 1})

	plan, report, err := p.Plan(context.Background(), PlanRequest{
		VehicleID: "veh-1",
		Start:     0,
		End:       100,
		State:     domain.VehicleState{Speed: 10},
		Complex: &domain.ManeuverRecord{
			Start:  40,
			End:    80,
			Phases: []domain.ManeuverRecord{{Type: domain.Lateral, Start: 50, End: 60, TargetLane: 1}},
		},
		SpeedChanges: []SpeedChangeRequest{{TargetSpeed: 20}},
		LaneChanges: []LaneChangeRequest{
			{At: 30, TargetLane: 1},
			{At: 0, TargetLane: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Admitted, "complex and the lane change ending at its start")
	require.Len(t, report.Rejected, 2)
	assert.Equal(t, "speed_change", report.Rejected[0].Kind)
	assert.Equal(t, Rejection{Kind: "lane_change", Index: 0, Reason: "rejected by trajectory"}, report.Rejected[1])

	assert.InDelta(t, 80.0, plan.Trajectory.EndLocation(), 1e-9)
	require.NotNil(t, plan.Trajectory.ComplexManeuver())
	assert.Len(t, plan.Trajectory.ManeuversAt(40), 2)
}

func TestPlannerRejectsInvalidComplex(t *testing.T) {
	p, _ := newTestPlanner(PlannerConfig{})

	_, report, err := p.Plan(context.Background(), PlanRequest{
		VehicleID: "veh-1",
		Start:     0,
		End:       100,
		Complex:   &domain.ManeuverRecord{Type: domain.Lateral, Start: 10, End: 20},
	})
	require.NoError(t, err)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "complex", report.Rejected[0].Kind)
}

func TestPlannerInvalidRequest(t *testing.T) {
	p, _ := newTestPlanner(PlannerConfig{})

	_, _, err := p.Plan(context.Background(), PlanRequest{Start: 0, End: 10})
	assert.ErrorIs(t, err, ErrInvalidPlanRequest)

	_, _, err = p.Plan(context.Background(), PlanRequest{VehicleID: "v", Start: 10, End: 5})
	assert.ErrorIs(t, err, ErrInvalidPlanRequest)
}

var errStore = errors.New("store unavailable")

type failingRepo struct{}

func (failingRepo) SavePlan(context.Context, *domain.Plan) error { return errStore }
func (failingRepo) GetPlan(context.Context, string) (*domain.Plan, error) {
	return nil, errStore
}
func (failingRepo) ListPlans(context.Context) ([]*domain.Plan, error) { return nil, errStore }

func TestPlannerSaveFailure(t *testing.T) {
	p := NewPlanner(PlannerConfig{}, failingRepo{}, nil)

	_, _, err := p.Plan(context.Background(), PlanRequest{VehicleID: "v", Start: 0, End: 10})
	assert.ErrorIs(t, err, errStore)
}

func TestParsePlacement(t *testing.T) {
	got, err := ParsePlacement("")
	require.NoError(t, err)
	assert.Equal(t, PlaceEarliest, got)

	got, err = ParsePlacement(" Latest ")
	require.NoError(t, err)
	assert.Equal(t, PlaceLatest, got)

	_, err = ParsePlacement("middle")
	assert.Error(t, err)
}
