package domain

import "errors"

// Sentinel errors for the three failure classes every operation can hit.
// Callers wrap them with fmt.Errorf("...: %w", ...) and the HTTP boundary
// maps them to 400, 404 and 409.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)
