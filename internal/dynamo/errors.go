package dynamo

import "errors"

// Domain errors for vehicle control operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidParameter indicates a construction parameter outside its valid range.
	ErrInvalidParameter = errors.New("dynamo: invalid parameter")

	// ErrEmptyHorizon indicates an optimization request with no target waypoints.
	ErrEmptyHorizon = errors.New("dynamo: empty waypoint horizon")

	// ErrControlFailure indicates the optimizer did not produce a converged command.
	ErrControlFailure = errors.New("dynamo: control failure")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: run canceled by context")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with the tick it happened on.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
