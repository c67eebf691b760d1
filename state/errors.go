package state

import (
	"errors"
	"fmt"
)

// ErrDestroyed is returned by operations that need a live graph, such as
// Snapshot, after Destroy. Plain reads and writes on a destroyed handle are
// inert no-ops instead.
var ErrDestroyed = errors.New("state handle destroyed")

// ValidationError reports a malformed computed-property definition: an
// empty or multi-segment name, a nil getter, a duplicate definition, or a
// getter that reads its own name (self-dependency).
type ValidationError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid computed property %q: %s", e.Name, e.Reason)
}

// RecomputeError reports a computed getter failure. Failures are lazy: an
// invalidation never raises, but every subsequent Read of the property
// re-runs the getter and re-returns its error until an evaluation succeeds.
type RecomputeError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *RecomputeError) Error() string {
	return fmt.Sprintf("recompute of %q failed: %v", e.Name, e.Err)
}

// Unwrap enables error unwrapping for errors.Is and errors.As.
func (e *RecomputeError) Unwrap() error {
	return e.Err
}
