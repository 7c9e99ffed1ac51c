package service

import "errors"

// Domain errors. Handlers map these to typed response codes; all are
// recoverable at the caller and none is fatal to the process.
var (
	ErrExamNotFound        = errors.New("exam not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrInvalidTimeWindow   = errors.New("end time must be after start time")
	ErrNotYetOpen          = errors.New("exam has not opened yet")
	ErrClosed              = errors.New("exam is already closed")
	ErrAttemptLimitReached = errors.New("attempt limit reached")
	ErrNoActiveAttempt     = errors.New("no attempt in progress")
	ErrInvalidState        = errors.New("attempt is not in a gradable state")
)
