package sim

import "errors"

// Sentinel errors for the control surface. Configuration problems are
// rejected at Start before any state mutation; NotRunning is recoverable by
// the caller after checking state; NumericDivergence is fatal for the run.
var (
	// ErrInvalidConfig indicates non-physical vehicle or sensor parameters.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrNotIdle indicates Start was called while a run already exists.
	ErrNotIdle = errors.New("simulation not idle")
	// ErrNotRunning indicates a control call invalid for the current state.
	ErrNotRunning = errors.New("simulation not running")
	// ErrNumericDivergence indicates the propagated state exceeded sanity
	// bounds or became non-finite; the run freezes in Aborted with the last
	// valid snapshot retained.
	ErrNumericDivergence = errors.New("numeric divergence")
)
