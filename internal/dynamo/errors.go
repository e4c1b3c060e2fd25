package dynamo

import "errors"

// Domain errors for engine operations.
var (
	// ErrInvalidDimension indicates a non-positive width, height, viewport size or resolution.
	ErrInvalidDimension = errors.New("dynamo: invalid dimension")

	// ErrIndexOutOfRange indicates a preset index or cell coordinate outside its table or grid.
	ErrIndexOutOfRange = errors.New("dynamo: index out of range")

	// ErrInvalidTimestep indicates a time step that is not strictly positive.
	ErrInvalidTimestep = errors.New("dynamo: timestep must be positive")

	// ErrNotInitialized indicates an operation on a controller that has no field yet.
	ErrNotInitialized = errors.New("dynamo: simulation not initialized")

	// ErrDimensionMismatch indicates source and destination fields of different sizes.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between fields")

	// ErrAliasedBuffers indicates an integrator was asked to read and write the same field.
	ErrAliasedBuffers = errors.New("dynamo: source and destination are the same buffer")

	// ErrParameterBounds indicates a parameter value is outside its valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnstable indicates NaN or Inf appeared in the field.
	ErrUnstable = errors.New("dynamo: simulation unstable (NaN or Inf detected)")

	// ErrBackendUnavailable indicates the requested executor cannot run on this host.
	ErrBackendUnavailable = errors.New("dynamo: compute backend unavailable")
)

// SimulationError wraps an error with the tick on which it occurred. SubStep
// is the 0-based sub-step that failed; instability is detected after a tick
// and reports its last sub-step.
type SimulationError struct {
	Tick    int
	SubStep int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
