package integrators

import "github.com/san-kum/mpcdrive/internal/dynamo"

// Euler is the explicit first-order stepper; it matches the update the
// vehicle model applies in Integrate.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	return x.Add(dyn.Derive(x, u, t).Scale(dt))
}
