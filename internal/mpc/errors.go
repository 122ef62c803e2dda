package mpc

import (
	"fmt"

	"github.com/san-kum/mpcdrive/internal/dynamo"
)

// ControlFailure is returned under PolicyStrict when the solver stopped
// without converging. Best is the first pair of the best iterate reached.
type ControlFailure struct {
	Status string
	Best   dynamo.Control
	Cause  error
}

func (e *ControlFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: solver stopped with status %s: %v", dynamo.ErrControlFailure, e.Status, e.Cause)
	}
	return fmt.Sprintf("%v: solver stopped with status %s", dynamo.ErrControlFailure, e.Status)
}

func (e *ControlFailure) Unwrap() []error {
	if e.Cause != nil {
		return []error{dynamo.ErrControlFailure, e.Cause}
	}
	return []error{dynamo.ErrControlFailure}
}
