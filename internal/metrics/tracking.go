package metrics

import (
	"math"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

func position(s dynamo.Sample) dynamo.Point {
	if len(s.State) < 2 {
		return dynamo.Point{}
	}
	return dynamo.Point{X: s.State[0], Y: s.State[1]}
}

// TrackingError is the RMS distance between the car and the waypoint of
// each tick.
type TrackingError struct {
	name    string
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{name: "tracking_rms"}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(s dynamo.Sample) {
	d := position(s).Dist(s.Target)
	e.sumSq += d * d
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}

type MaxDeviation struct {
	name string
	max  float64
}

func NewMaxDeviation() *MaxDeviation {
	return &MaxDeviation{name: "max_deviation"}
}

func (m *MaxDeviation) Name() string { return m.name }

func (m *MaxDeviation) Observe(s dynamo.Sample) {
	m.max = math.Max(m.max, position(s).Dist(s.Target))
}

func (m *MaxDeviation) Value() float64 { return m.max }

func (m *MaxDeviation) Reset() { m.max = 0 }
