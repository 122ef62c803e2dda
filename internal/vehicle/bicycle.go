package vehicle

import (
	"math"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

const (
	StateDim   = 4
	ControlDim = 2
)

// Bicycle is the kinematic single-track model over x = [x, y, v, psi]
// and u = [acceleration, steering].
type Bicycle struct {
	Length float64
}

func (b Bicycle) StateDim() int   { return StateDim }
func (b Bicycle) ControlDim() int { return ControlDim }

func (b Bicycle) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	v, psi := x[2], x[3]
	return dynamo.State{
		v * math.Cos(psi),
		v * math.Sin(psi),
		u.Accel(),
		v * math.Tan(u.Steer()) / b.Length,
	}
}
