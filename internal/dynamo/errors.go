package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidRange indicates an interval whose lower bound is not strictly
	// below its upper bound.
	ErrInvalidRange = errors.New("dynamo: invalid range (low must be < high)")

	// ErrSingularity indicates two interacting bodies occupy the same point.
	ErrSingularity = errors.New("dynamo: singularity (zero separation)")

	// ErrMissingDependency indicates a universe snapshot lacking a state the
	// transition function needs. Seeing it means the caller skipped the
	// readiness barrier.
	ErrMissingDependency = errors.New("dynamo: universe missing required agent")

	// ErrInvalidState indicates a state with NaN or Inf fields.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStalled indicates an agent made no progress for too many iterations.
	ErrStalled = errors.New("dynamo: agent stalled")

	// ErrUnknownAgent indicates an agent id the simulation does not know.
	ErrUnknownAgent = errors.New("dynamo: unknown agent")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Agent     AgentID
	Iteration int
	Time      float64
	Wrapped   error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("iteration %d, agent %s (t=%.4f): %v", e.Iteration, e.Agent, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
