package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model construction and stepping. None of them is
// retriable: each one means a bad configuration or a violated stability
// assumption, and the model state must be discarded.
var (
	// ErrInvalidConfiguration indicates a bad parameter caught at construction.
	ErrInvalidConfiguration = errors.New("dynamo: invalid configuration")

	// ErrGridMismatch indicates a grid field whose shape disagrees with the model grid.
	ErrGridMismatch = errors.New("dynamo: grid shape mismatch")

	// ErrTruncationMismatch indicates a spectral field whose degree exceeds the transform truncation.
	ErrTruncationMismatch = errors.New("dynamo: truncation mismatch")

	// ErrSingularMode indicates a zero Laplacian eigenvalue on a non-mean mode.
	ErrSingularMode = errors.New("dynamo: singular spectral mode")

	// ErrNonFiniteState indicates the model blew up (NaN or Inf detected).
	ErrNonFiniteState = errors.New("dynamo: non-finite state (NaN or Inf detected)")
)

// StepError wraps an error with the step and model time at which it occurred.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.1fs): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// Invalidf returns an ErrInvalidConfiguration carrying a formatted reason.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
