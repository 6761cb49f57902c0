package approval

import "errors"

var (
	// ErrNotFound is returned when a request id does not exist
	ErrNotFound = errors.New("request not found")

	// ErrInvalidState is returned when a transition is attempted from a terminal
	// state, or the current step does not match the stage being acted on
	ErrInvalidState = errors.New("invalid request state for this operation")

	// ErrForbidden is returned when the acting role does not match the stage's authorized role
	ErrForbidden = errors.New("acting role not authorized for this stage")

	// ErrAlreadyConfirmed is returned on a second execution confirmation at the same stage
	ErrAlreadyConfirmed = errors.New("execution already confirmed for this stage")

	// ErrRevisionNotAllowed is returned when a revision is attempted outside the
	// permitted stage/status window
	ErrRevisionNotAllowed = errors.New("revision not allowed in current state")

	// ErrValidation is returned for malformed request parameters
	ErrValidation = errors.New("invalid request parameters")

	// ErrConflict is returned when a concurrent transition won the version check first
	ErrConflict = errors.New("request was modified concurrently, retry")
)
