package metrics

import (
	"math"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

// ControlEffort is the mean of |acc| + |steer| per tick.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s dynamo.Sample) {
	for _, val := range s.Control {
		c.sum += math.Abs(val)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Saturation is the fraction of ticks where either command sits within
// tol of its bound.
type Saturation struct {
	name      string
	maxAccel  float64
	maxSteer  float64
	tol       float64
	saturated int
	samples   int
}

func NewSaturation(maxAccel, maxSteer, tol float64) *Saturation {
	return &Saturation{
		name:     "saturation",
		maxAccel: maxAccel,
		maxSteer: maxSteer,
		tol:      tol,
	}
}

func (s *Saturation) Name() string { return s.name }

func (s *Saturation) Observe(sample dynamo.Sample) {
	s.samples++
	u := sample.Control
	if math.Abs(u.Accel()) >= s.maxAccel-s.tol || math.Abs(u.Steer()) >= s.maxSteer-s.tol {
		s.saturated++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}

// Smoothness is the mean squared change of the command between
// consecutive ticks. Lower is smoother.
type Smoothness struct {
	name    string
	prev    dynamo.Control
	sum     float64
	changes int
}

func NewSmoothness() *Smoothness {
	return &Smoothness{name: "smoothness"}
}

func (s *Smoothness) Name() string { return s.name }

func (s *Smoothness) Observe(sample dynamo.Sample) {
	u := sample.Control
	if s.prev != nil {
		da := u.Accel() - s.prev.Accel()
		ds := u.Steer() - s.prev.Steer()
		s.sum += da*da + ds*ds
		s.changes++
	}
	s.prev = dynamo.Control{u.Accel(), u.Steer()}
}

func (s *Smoothness) Value() float64 {
	if s.changes == 0 {
		return 0
	}
	return s.sum / float64(s.changes)
}

func (s *Smoothness) Reset() {
	s.prev = nil
	s.sum = 0
	s.changes = 0
}
