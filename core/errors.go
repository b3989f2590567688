package core

import "errors"

var (
	// ErrMissingField marks a required configuration key that was not supplied.
	ErrMissingField = errors.New("missing required field")
	// ErrShapeMismatch marks sequences whose lengths must agree but do not.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInvalidConfiguration marks an unknown or inconsistent model selection.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
