package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// Control is a command vector. For the bicycle model it is
// [acceleration, steering] with steering in radians.
type Control []float64

// Accel returns u[0] or 0 when absent.
func (u Control) Accel() float64 {
	if len(u) < 1 {
		return 0
	}
	return u[0]
}

// Steer returns u[1] or 0 when absent.
func (u Control) Steer() float64 {
	if len(u) < 2 {
		return 0
	}
	return u[1]
}

// Point is a planar waypoint in world units.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) Dist(o Point) float64 { return math.Hypot(p.X-o.X, p.Y-o.Y) }

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Sample is one tick of a closed-loop run: the waypoint being tracked,
// the command applied and the state reached after applying it.
type Sample struct {
	Tick    int
	Time    float64
	Target  Point
	State   State
	Control Control
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Horizon       int
	MaxTicks      int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Horizon:       10,
		ValidateState: true,
	}
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	StepsTaken int
	Failures   []error
}

// Trajectory returns the driven positions in tick order.
func (r *Result) Trajectory() []Point {
	pts := make([]Point, 0, len(r.Samples))
	for _, s := range r.Samples {
		if len(s.State) < 2 {
			continue
		}
		pts = append(pts, Point{X: s.State[0], Y: s.State[1]})
	}
	return pts
}
