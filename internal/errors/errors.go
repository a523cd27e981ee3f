package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrDuplicateEvent - the same inbound delivery was seen before (ignore silently)
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrInvalidInput - malformed request at an API boundary (reject)
	ErrInvalidInput = errors.New("invalid input")

	// ErrParse - expected structured fields could not be extracted from free text (re-prompt, keep state)
	ErrParse = errors.New("parse error")

	// ErrValidation - phone or time rejected locally before any remote write (re-prompt with an alternative)
	ErrValidation = errors.New("validation error")

	// ErrClosed - the salon is closed for the requested day (suggest another day)
	ErrClosed = errors.New("salon closed")

	// ErrNotFound - cancellation query matched no remote event (explain, reset, phone fallback)
	ErrNotFound = errors.New("not found")

	// ErrStaleWrite - calendar accepted the write but it could not be read back (treat as failure)
	ErrStaleWrite = errors.New("stale write")

	// ErrConflict - conflict (retry deterministically)
	ErrConflict = errors.New("conflict")

	// ErrTransient - calendar or model unreachable (degrade, apologise, phone fallback)
	ErrTransient = errors.New("transient error")

	// ErrExternalService is the name the booking core uses for unreachable collaborators.
	ErrExternalService = ErrTransient

	// ErrInvalidModelOutput - model returned something that is not an intent tag
	ErrInvalidModelOutput = errors.New("invalid model output")

	// ErrInternal - internal error (generic message + trace id)
	ErrInternal = errors.New("internal error")
)
