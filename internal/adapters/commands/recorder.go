package commands

import (
	"sync"
	"time"
	"trajectory-service/internal/domain"
)

type Kind string

const (
	KindSpeed    Kind = "speed"
	KindSteering Kind = "steering"
)

// Command is one guidance command as it was issued.
type Command struct {
	Kind       Kind      `json:"kind"`
	At         time.Time `json:"at"`
	Speed      float64   `json:"speed,omitempty"`
	MaxAccel   float64   `json:"max_accel,omitempty"`
	LaneOffset int       `json:"lane_offset,omitempty"`
}

// Recorder keeps the most recent guidance commands and forwards each one to
// next, if set.
type Recorder struct {
	mu    sync.Mutex
	next  domain.GuidanceCommands
	limit int
	buf   []Command
	now   func() time.Time
}

// NewRecorder keeps up to limit commands; limit <= 0 keeps 256.
func NewRecorder(next domain.GuidanceCommands, limit int) *Recorder {
	if limit <= 0 {
		limit = 256
	}
	return &Recorder{next: next, limit: limit, now: time.Now}
}

func (r *Recorder) SetSpeedCommand(speed, maxAccel float64) {
	r.add(Command{Kind: KindSpeed, Speed: speed, MaxAccel: maxAccel})
	if r.next != nil {
		r.next.SetSpeedCommand(speed, maxAccel)
	}
}

func (r *Recorder) SetSteeringCommand(laneOffset int) {
	r.add(Command{Kind: KindSteering, LaneOffset: laneOffset})
	if r.next != nil {
		r.next.SetSteeringCommand(laneOffset)
	}
}

func (r *Recorder) add(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.At = r.now()
	if len(r.buf) == r.limit {
		r.buf = append(r.buf[:0], r.buf[1:]...)
	}
	r.buf = append(r.buf, c)
}

// Commands returns the recorded commands, oldest first.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.buf...)
}
