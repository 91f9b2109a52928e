package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced session does not exist.
	ErrNotFound = errors.New("session not found")
	// ErrForbidden means the caller does not own the session and is not an admin.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyCompleted means end was called on a session that is already closed.
	ErrAlreadyCompleted = errors.New("session already completed")
	// ErrSessionClosed means a record arrived for a closed session.
	ErrSessionClosed = errors.New("session closed")
	// ErrInvalidBiometricMethod means the method is outside the enum.
	ErrInvalidBiometricMethod = errors.New("invalid biometric method")
	// ErrInvalidStatus means the record status is outside the enum.
	ErrInvalidStatus = errors.New("invalid record status")
)

// ValidationError flags a malformed or missing request field. Rejected
// before any storage access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// ReferenceError flags a catalog id that does not exist or is inconsistent
// with another supplied id.
type ReferenceError struct {
	Field  string
	ID     string
	Reason string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("invalid reference %s=%s: %s", e.Field, e.ID, e.Reason)
}

// ConflictError is returned by Start when the lecturer already has an
// active session and forceNew was not set. It carries the existing session
// so the caller can resume it or force a new one.
type ConflictError struct {
	Existing Session
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("active session %s already exists (started %s)", e.Existing.ID, e.Existing.StartTime.Format("15:04:05"))
}
