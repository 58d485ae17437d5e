package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidState indicates a particle with a NaN or Inf position.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownObject indicates a particle handle that the solver never issued.
	ErrUnknownObject = errors.New("dynamo: unknown object id")

	// ErrGridOverflow indicates a particle whose cell fell outside the grid extent.
	ErrGridOverflow = errors.New("dynamo: particle outside grid extent")

	// ErrCapacity indicates a spawn request beyond the configured object cap.
	ErrCapacity = errors.New("dynamo: object capacity reached")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	ID      int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) object %d: %v", e.Step, e.Time, e.ID, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
