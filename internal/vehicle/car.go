package vehicle

import (
	"fmt"
	"math"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Car holds the authoritative kinematic state of the vehicle. The scalar
// fields and the 4x1 column vector always hold the same numbers; only
// Integrate and Step mutate them.
type Car struct {
	x, y, v, psi float64

	dt     float64
	length float64
	state  *mat.VecDense
}

// NewCar builds a car at (x0, y0) with speed v0 and heading psi0 (radians).
func NewCar(x0, y0, v0, psi0, length, dt float64) (*Car, error) {
	inputs := []struct {
		name  string
		value float64
	}{
		{"x0", x0}, {"y0", y0}, {"v0", v0}, {"psi0", psi0}, {"length", length}, {"dt", dt},
	}
	for _, in := range inputs {
		if math.IsNaN(in.value) || math.IsInf(in.value, 0) {
			return nil, fmt.Errorf("%w: %s must be finite, got %v", dynamo.ErrInvalidParameter, in.name, in.value)
		}
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: wheelbase length must be positive, got %g", dynamo.ErrInvalidParameter, length)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidParameter, dt)
	}

	c := &Car{
		dt:     dt,
		length: length,
		state:  mat.NewVecDense(StateDim, []float64{x0, y0, v0, psi0}),
	}
	c.sync()
	return c, nil
}

func (c *Car) X() float64      { return c.x }
func (c *Car) Y() float64      { return c.y }
func (c *Car) V() float64      { return c.v }
func (c *Car) Psi() float64    { return c.psi }
func (c *Car) Dt() float64     { return c.dt }
func (c *Car) Length() float64 { return c.length }

// Position returns the current planar position.
func (c *Car) Position() dynamo.Point { return dynamo.Point{X: c.x, Y: c.y} }

// State returns a copy of [x, y, v, psi].
func (c *Car) State() dynamo.State {
	return dynamo.State{c.x, c.y, c.v, c.psi}
}

// Model returns the continuous-time system this car integrates.
func (c *Car) Model() Bicycle { return Bicycle{Length: c.length} }

// Derivative returns the bicycle rates at the current state. It does not
// touch the car.
func (c *Car) Derivative(acc, steer float64) dynamo.State {
	return c.Model().Derive(c.State(), dynamo.Control{acc, steer}, 0)
}

// Integrate applies one forward-Euler update with stateDot, which must
// come from Derivative on this same car.
func (c *Car) Integrate(stateDot dynamo.State) {
	if len(stateDot) != StateDim {
		panic(fmt.Errorf("%w: state derivative has %d entries, want %d", dynamo.ErrDimensionMismatch, len(stateDot), StateDim))
	}
	c.state.AddScaledVec(c.state, c.dt, mat.NewVecDense(StateDim, stateDot.Clone()))
	c.sync()
}

// Step advances one tick under u using integ instead of the built-in
// Euler update.
func (c *Car) Step(u dynamo.Control, integ dynamo.Integrator) {
	next := integ.Step(c.Model(), c.State(), u, 0, c.dt)
	for i := 0; i < StateDim; i++ {
		c.state.SetVec(i, next[i])
	}
	c.sync()
}

// Snapshot returns an independent copy; integrating it leaves c untouched.
func (c *Car) Snapshot() *Car {
	cp := *c
	cp.state = mat.VecDenseCopyOf(c.state)
	return &cp
}

func (c *Car) String() string {
	return fmt.Sprintf("x=%.3f y=%.3f v=%.3f psi=%.3f", c.x, c.y, c.v, c.psi)
}

func (c *Car) sync() {
	c.x = c.state.AtVec(0)
	c.y = c.state.AtVec(1)
	c.v = c.state.AtVec(2)
	c.psi = c.state.AtVec(3)
}
