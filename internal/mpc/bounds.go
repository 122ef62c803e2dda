package mpc

import "math"

// box holds per-variable limits for the flattened control vector. The
// solver searches over free variables z and maps them into the box with
// u = mid + half*sin(z), so every candidate is feasible.
type box struct {
	lower, upper []float64
}

func newBox(horizon int, maxAccel, maxSteer float64) box {
	b := box{
		lower: make([]float64, 2*horizon),
		upper: make([]float64, 2*horizon),
	}
	for i := 0; i < horizon; i++ {
		b.lower[2*i], b.upper[2*i] = -maxAccel, maxAccel
		b.lower[2*i+1], b.upper[2*i+1] = -maxSteer, maxSteer
	}
	return b
}

func (b box) toBounded(z []float64) []float64 {
	u := make([]float64, len(z))
	for i, zi := range z {
		mid := 0.5 * (b.upper[i] + b.lower[i])
		half := 0.5 * (b.upper[i] - b.lower[i])
		u[i] = mid + half*math.Sin(zi)
	}
	return u
}
