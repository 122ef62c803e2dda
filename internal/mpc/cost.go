package mpc

import (
	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/san-kum/mpcdrive/internal/vehicle"
)

// OptimizationContext is everything the objective needs for one solve.
// It is built once per Optimize call and never mutated afterwards; every
// Cost evaluation rolls out its own snapshot of the car.
type OptimizationContext struct {
	car     *vehicle.Car
	targets []dynamo.Point
	weights Weights
}

func NewOptimizationContext(car *vehicle.Car, targets []dynamo.Point, w Weights) *OptimizationContext {
	t := make([]dynamo.Point, len(targets))
	copy(t, targets)
	return &OptimizationContext{
		car:     car.Snapshot(),
		targets: t,
		weights: w,
	}
}

// Horizon is the number of control steps being optimized.
func (oc *OptimizationContext) Horizon() int { return len(oc.targets) }

// Rollout simulates u (flattened [a1, s1, ..., aH, sH]) and returns the
// predicted position after each step.
func (oc *OptimizationContext) Rollout(u []float64) []dynamo.Point {
	car := oc.car.Snapshot()
	out := make([]dynamo.Point, oc.Horizon())
	for i := range out {
		car.Integrate(car.Derivative(u[2*i], u[2*i+1]))
		out[i] = car.Position()
	}
	return out
}

// Cost is the quadratic effort + tracking + smoothness objective.
func (oc *OptimizationContext) Cost(u []float64) float64 {
	w := oc.weights
	h := oc.Horizon()
	car := oc.car.Snapshot()

	cost := 0.0
	for i := 0; i < h; i++ {
		acc, steer := u[2*i], u[2*i+1]
		car.Integrate(car.Derivative(acc, steer))

		ex := oc.targets[i].X - car.X()
		ey := oc.targets[i].Y - car.Y()

		cost += quad(w.R, acc, steer)
		cost += quad(w.Q, ex, ey)
		if i < h-1 {
			cost += quad(w.Rd, u[2*i+2]-acc, u[2*i+3]-steer)
		}
	}
	return cost
}

func quad(d [2]float64, a, b float64) float64 {
	return d[0]*a*a + d[1]*b*b
}
