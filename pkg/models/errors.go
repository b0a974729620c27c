package models

import "errors"

// Error kinds shared by every algorithm package. Callers match them with
// errors.Is; the wrapped message carries the offending value.
var (
	// ErrInvalidParameter is returned when an input violates a documented
	// range or shape constraint. No work is performed when it is returned.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidState is returned when an operation is applied to a
	// structure that was never built or has been invalidated.
	ErrInvalidState = errors.New("invalid state")
)
