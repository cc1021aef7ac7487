package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCommands struct {
	speeds []float64
	steers []int
}

func (r *recordedCommands) SetSpeedCommand(speed, _ float64) { r.speeds = append(r.speeds, speed) }
func (r *recordedCommands) SetSteeringCommand(offset int)    { r.steers = append(r.steers, offset) }

func TestParseManeuverType(t *testing.T) {
	typ, err := ParseManeuverType("lateral")
	require.NoError(t, err)
	assert.Equal(t, Lateral, typ)

	_, err = ParseManeuverType("diagonal")
	assert.Error(t, err)
}

func TestLongitudinalPlanToTargetDistance(t *testing.T) {
	t.Run("stretches to requested end", func(t *testing.T) {
		m := NewSpeedChange(0, 10)
		end, err := m.PlanToTargetDistance(nil, 100, 150)
		require.NoError(t, err)
		assert.InDelta(t, 150.0, end, 1e-9)
		assert.InDelta(t, 100.0, m.StartDistance(), 1e-9)
		assert.InDelta(t, 150.0, m.EndDistance(), 1e-9)
	})

	t.Run("extends when limit requires more room", func(t *testing.T) {
		m := NewSpeedChange(0, 10)
		end, err := m.PlanToTargetDistance(nil, 100, 110)
		require.NoError(t, err)
		assert.InDelta(t, 125.0, end, 1e-9, "25m needed at 2m/s²")
	})

	t.Run("rejects reversed bounds", func(t *testing.T) {
		_, err := NewSpeedChange(0, 10).PlanToTargetDistance(nil, 10, 5)
		assert.Error(t, err)
	})

	t.Run("falls back to current speed", func(t *testing.T) {
		m := &LongitudinalManeuver{maxAccel: DefaultMaxAccel}
		require.NoError(t, m.Plan(VehicleState{Speed: 12}, 30))
		assert.InDelta(t, 12.0, m.StartSpeed(), 1e-9)
		assert.InDelta(t, 30.0, m.EndDistance(), 1e-9, "no speed change needs no room")
	})
}

func TestLongitudinalCanPlan(t *testing.T) {
	m := NewSpeedChange(10, 20)
	require.NoError(t, m.SetMaxAccel(3))

	assert.True(t, m.CanPlan(nil, 0, 50))
	assert.False(t, m.CanPlan(nil, 0, 49))
	assert.False(t, m.CanPlan(nil, 10, 0))
	assert.Error(t, m.SetMaxAccel(0))
}

func TestLongitudinalExecuteTimeStep(t *testing.T) {
	m := NewSpeedChange(0, 10)
	_, err := m.ExecuteTimeStep(VehicleState{}, &recordedCommands{})
	require.ErrorIs(t, err, ErrNotPlanned)

	_, err = m.PlanToTargetDistance(nil, 0, 25)
	require.NoError(t, err)

	cmds := &recordedCommands{}
	cont, err := m.ExecuteTimeStep(VehicleState{Distance: 0}, cmds)
	require.NoError(t, err)
	assert.True(t, cont)

	cont, err = m.ExecuteTimeStep(VehicleState{Distance: 6.25}, cmds)
	require.NoError(t, err)
	assert.True(t, cont)

	cont, err = m.ExecuteTimeStep(VehicleState{Distance: 25}, cmds)
	require.NoError(t, err)
	assert.False(t, cont)

	require.Len(t, cmds.speeds, 3)
	assert.InDelta(t, 0.0, cmds.speeds[0], 1e-9)
	assert.InDelta(t, 5.0, cmds.speeds[1], 1e-9)
	assert.InDelta(t, 10.0, cmds.speeds[2], 1e-9)

	cont, err = m.ExecuteTimeStep(VehicleState{Distance: 30}, cmds)
	require.NoError(t, err)
	assert.False(t, cont)
	assert.Len(t, cmds.speeds, 3, "no command past the end")
}

func TestLateralPlanAndExecute(t *testing.T) {
	m := NewLaneChange(2)
	_, err := m.ExecuteTimeStep(VehicleState{}, &recordedCommands{})
	require.ErrorIs(t, err, ErrNotPlanned)

	require.NoError(t, m.Plan(VehicleState{Speed: 10}, 50))
	assert.InDelta(t, 50.0, m.StartDistance(), 1e-9)
	assert.InDelta(t, 90.0, m.EndDistance(), 1e-9)

	cmds := &recordedCommands{}
	cont, err := m.ExecuteTimeStep(VehicleState{Distance: 60, Lane: 1}, cmds)
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, []int{1}, cmds.steers)

	cont, err = m.ExecuteTimeStep(VehicleState{Distance: 70, Lane: 2}, cmds)
	require.NoError(t, err)
	assert.False(t, cont, "target lane reached")
	assert.Len(t, cmds.steers, 1)
}

func TestLateralPlanAtStandstill(t *testing.T) {
	m := NewLaneChange(1)
	require.NoError(t, m.Plan(VehicleState{}, 5))
	assert.Greater(t, m.EndDistance(), m.StartDistance())
	assert.Error(t, m.SetTargetLane(-1))
	assert.Error(t, m.Plan(nil, 5))
}

func TestPhasedManeuver(t *testing.T) {
	speed := NewLongitudinalManeuver(10, 20)
	require.NoError(t, speed.SetSpeeds(10, 15))
	lane := NewLateralManeuver(15, 25, 1)

	cm, err := NewPhasedManeuver(10, 30, speed, lane)
	require.NoError(t, err)
	assert.Equal(t, Complex, cm.Type())
	assert.Len(t, cm.Phases(), 2)

	cmds := &recordedCommands{}
	cont, err := cm.ExecuteTimeStep(VehicleState{Distance: 17, Lane: 0}, cmds)
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Len(t, cmds.speeds, 1)
	assert.Equal(t, []int{1}, cmds.steers)

	cont, err = cm.ExecuteTimeStep(VehicleState{Distance: 31}, cmds)
	require.NoError(t, err)
	assert.False(t, cont)

	_, err = NewPhasedManeuver(10, 20, NewLateralManeuver(15, 25, 1))
	assert.Error(t, err, "phase outside span")
	_, err = NewPhasedManeuver(20, 10)
	assert.Error(t, err)

	_, err = NewPhasedManeuver(0, math.NaN())
	assert.Error(t, err)

	_, err = NewPhasedManeuver(math.Inf(-1), 10)
	assert.Error(t, err)
}

func TestPhasedManeuverPropagatesPhaseErrors(t *testing.T) {
	cm, err := NewPhasedManeuver(0, 10, NewLaneChange(1))
	require.NoError(t, err)

	_, err = cm.ExecuteTimeStep(VehicleState{Distance: 0}, &recordedCommands{})
	assert.ErrorIs(t, err, ErrNotPlanned)
}

func TestCapabilityDispatch(t *testing.T) {
	lon := NewLongitudinalManeuver(0, 10)
	lat := NewLateralManeuver(0, 10, 1)
	cm, err := NewPhasedManeuver(0, 10)
	require.NoError(t, err)

	require.NoError(t, SetSpeeds(lon, 5, 8))
	v, err := TargetSpeed(lon)
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)

	require.NoError(t, SetTargetLane(lat, 3))
	lane, err := TargetLane(lat)
	require.NoError(t, err)
	assert.Equal(t, 3, lane)

	misuse := []struct {
		name string
		call func() error
	}{
		{"set target lane on longitudinal", func() error { return SetTargetLane(lon, 1) }},
		{"target lane on longitudinal", func() error { _, err := TargetLane(lon); return err }},
		{"set speeds on lateral", func() error { return SetSpeeds(lat, 1, 2) }},
		{"start speed on lateral", func() error { _, err := StartSpeed(lat); return err }},
		{"target speed on complex", func() error { _, err := TargetSpeed(cm); return err }},
		{"set max accel on lateral", func() error { return SetMaxAccel(lat, 1) }},
		{"can plan on lateral", func() error { _, err := CanPlan(lat, nil, 0, 1); return err }},
		{"plan to target on lateral", func() error { _, err := PlanToTargetDistance(lat, nil, 0, 1); return err }},
		{"plan on complex", func() error { return PlanSimple(cm, VehicleState{}, 0) }},
		{"set speeds on nil", func() error { return SetSpeeds(nil, 1, 2) }},
	}
	for _, tt := range misuse {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrUnsupportedOperation)
		})
	}

	require.NoError(t, PlanSimple(NewLaneChange(1), VehicleState{Speed: 5}, 0))
}
