// Package dynamo provides the shared primitives of the tracking stack.
//
// The package defines the vocabulary every other package speaks:
//
//   - [State]: vector representing system state
//   - [Control]: command vector ([acceleration, steering] for the bicycle)
//   - [Point]: planar waypoint
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper over a [System]
//   - [Metric] and [Observer]: per-tick hooks fed with a [Sample]
//
// # Errors
//
// All failures surfaced by the controller are synchronous and wrap one of
// the sentinels in errors.go, so callers can branch with errors.Is:
//
//	u, err := opt.Optimize(ctx, car, targets)
//	if errors.Is(err, dynamo.ErrControlFailure) {
//	    u = dynamo.Control{0, 0}
//	}
package dynamo
