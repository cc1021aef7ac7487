package vehicle

import (
	"context"
	"math"
	"sync"
	"time"
	"trajectory-service/internal/domain"
)

// Simulated is a point-mass vehicle that follows the guidance commands it is
// sent. Each State call integrates motion since the previous call: speed moves
// toward the commanded speed within the commanded acceleration, and a steering
// command moves the vehicle one lane per call toward the requested offset.
type Simulated struct {
	mu          sync.Mutex
	state       domain.VehicleState
	targetSpeed float64
	maxAccel    float64
	targetLane  int
	last        time.Time
	now         func() time.Time
}

func NewSimulated(initial domain.VehicleState) *Simulated {
	return newSimulated(initial, time.Now)
}

func newSimulated(initial domain.VehicleState, now func() time.Time) *Simulated {
	return &Simulated{
		state:       initial,
		targetSpeed: initial.Speed,
		maxAccel:    domain.DefaultMaxAccel,
		targetLane:  initial.Lane,
		last:        now(),
		now:         now,
	}
}

func (s *Simulated) SetSpeedCommand(speed, maxAccel float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetSpeed = math.Max(speed, 0)
	if maxAccel > 0 {
		s.maxAccel = maxAccel
	}
}

func (s *Simulated) SetSteeringCommand(laneOffset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetLane = max(s.state.Lane+laneOffset, 0)
}

// State advances the simulation to now and returns the resulting state.
func (s *Simulated) State(ctx context.Context) (domain.VehicleState, error) {
	if err := ctx.Err(); err != nil {
		return domain.VehicleState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dt := now.Sub(s.last).Seconds()
	s.last = now
	if dt <= 0 {
		return s.state, nil
	}

	v0 := s.state.Speed
	dv := s.targetSpeed - v0
	step := s.maxAccel * dt
	if math.Abs(dv) > step {
		dv = math.Copysign(step, dv)
	}
	v1 := v0 + dv
	s.state.Speed = v1
	s.state.Distance += (v0 + v1) / 2 * dt

	switch {
	case s.targetLane > s.state.Lane:
		s.state.Lane++
	case s.targetLane < s.state.Lane:
		s.state.Lane--
	}
	return s.state, nil
}
