package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for the pneumatic core. All of them are deterministic:
// retrying with the same input fails the same way.
var (
	// ErrInvalidConfiguration indicates a malformed or physically impossible
	// initial configuration (non-positive length, pressure, volume, temperature).
	ErrInvalidConfiguration = errors.New("dynamo: invalid configuration")

	// ErrInvalidVolume indicates a requested gas volume that is not positive.
	ErrInvalidVolume = errors.New("dynamo: invalid volume (must be > 0)")

	// ErrInvalidGamma indicates a heat capacity ratio outside (1, +Inf).
	ErrInvalidGamma = errors.New("dynamo: invalid adiabatic exponent (must be > 1)")

	// ErrGeometryOutOfRange indicates a stroke distance outside the mechanical envelope.
	ErrGeometryOutOfRange = errors.New("dynamo: geometry out of range")

	// ErrInvalidInput indicates a malformed tick input (non-positive dt, NaN angle).
	ErrInvalidInput = errors.New("dynamo: invalid tick input")
)

// TickError wraps an error with the context of the tick that failed.
type TickError struct {
	Step    int
	Time    float64
	Corner  Corner
	Wrapped error
}

func (e *TickError) Error() string {
	if e.Corner.Valid() {
		return fmt.Sprintf("tick %d (t=%.4f) corner %s: %v", e.Step, e.Time, e.Corner, e.Wrapped)
	}
	return fmt.Sprintf("tick %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
