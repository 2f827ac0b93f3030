// Package apperr defines the sentinel error taxonomy shared by stores,
// the orchestrator, and the tool surfaces.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a required workspace document is missing.
	// Fatal to the requesting operation, not to the process.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed explicit requests, e.g. a
	// tactics update batch with a missing field, value, or evidence string.
	// The whole batch is rejected; nothing is partially applied.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a concurrent writer raced a
	// read-modify-write document update.
	ErrConflict = errors.New("conflict")

	// ErrPipelineFault wraps an unexpected failure inside one pipeline's
	// nightly sequence. It is isolated to that pipeline.
	ErrPipelineFault = errors.New("pipeline fault")
)
