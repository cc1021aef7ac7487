package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"trajectory-service/internal/adapters/commands"
	"trajectory-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateSource struct {
	mu    sync.Mutex
	state domain.VehicleState
	err   error
}

func (s *stateSource) State(context.Context) (domain.VehicleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

func (s *stateSource) set(st domain.VehicleState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

func executorPlan(t *testing.T, id string) *domain.Plan {
	t.Helper()

	traj, err := domain.NewTrajectory(0, 100, nil)
	require.NoError(t, err)

	speed := domain.NewLongitudinalManeuver(0, 25)
	require.NoError(t, speed.SetSpeeds(0, 10))
	require.True(t, traj.AddManeuver(speed))
	require.True(t, traj.AddManeuver(domain.NewLateralManeuver(10, 50, 1)))

	return &domain.Plan{PlanID: id, VehicleID: "veh-1", Trajectory: traj}
}

func TestExecutorTick(t *testing.T) {
	src := &stateSource{}
	rec := commands.NewRecorder(nil, 0)
	exec := NewExecutor(src, rec, nil)
	ctx := context.Background()

	res, err := exec.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, TickNoTrajectory, res.Outcome)

	assert.Nil(t, exec.Activate(executorPlan(t, "first")))
	prev := exec.Activate(executorPlan(t, "second"))
	require.NotNil(t, prev)
	assert.Equal(t, "first", prev.PlanID)

	src.set(domain.VehicleState{Distance: 12, Speed: 5, Lane: 0})
	res, err = exec.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, TickExecuted, res.Outcome)
	assert.Equal(t, 2, res.Executed)

	cmds := rec.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, commands.KindSpeed, cmds[0].Kind)
	assert.Equal(t, commands.KindSteering, cmds[1].Kind)
	assert.Equal(t, 1, cmds[1].LaneOffset)

	src.set(domain.VehicleState{Distance: 70})
	res, err = exec.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, TickIdle, res.Outcome)

	src.set(domain.VehicleState{Distance: 150})
	res, err = exec.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, TickBeyondHorizon, res.Outcome)

	status := exec.Status()
	assert.Equal(t, "second", status.ActivePlanID)
	assert.Equal(t, TickBeyondHorizon, status.LastOutcome)
	assert.EqualValues(t, 4, status.Ticks)
}

func TestExecutorTickErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("state source", func(t *testing.T) {
		boom := errors.New("no gps")
		exec := NewExecutor(&stateSource{err: boom}, commands.NewRecorder(nil, 0), nil)
		exec.Activate(executorPlan(t, "p"))

		_, err := exec.Tick(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unplanned maneuver", func(t *testing.T) {
		traj, err := domain.NewTrajectory(0, 100, nil)
		require.NoError(t, err)
		require.True(t, traj.AddManeuver(domain.NewLaneChange(1)))

		exec := NewExecutor(&stateSource{}, commands.NewRecorder(nil, 0), nil)
		exec.Activate(&domain.Plan{PlanID: "p", Trajectory: traj})

		_, err = exec.Tick(ctx)
		assert.ErrorIs(t, err, domain.ErrNotPlanned)
	})
}

func TestExecutorLogsConditionOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	exec := NewExecutor(&stateSource{}, commands.NewRecorder(nil, 0), logger)

	for range 3 {
		_, err := exec.Tick(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "no trajectory to execute"))
}

func TestExecutorRun(t *testing.T) {
	exec := NewExecutor(&stateSource{}, commands.NewRecorder(nil, 0), nil)
	exec.Activate(executorPlan(t, "p"))

	require.Error(t, exec.Run(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- exec.Run(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool { return exec.Status().Ticks >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("executor did not stop")
	}
}
