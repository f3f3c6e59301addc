package service

import "errors"

var (
	// ErrValidation marks input rejected before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown interview or question id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks an operation the interview's status does not allow.
	ErrInvalidState = errors.New("invalid interview state")
	// ErrStepInProgress is returned while another step for the same interview runs.
	ErrStepInProgress = errors.New("a step is already in progress for this interview")
)
