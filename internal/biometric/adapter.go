package biometric

import (
	"context"
	"errors"
	"fmt"
)

// Capture is one biometric observation to be resolved to a student.
// Image carries a base64 data URL for face captures; fingerprint captures
// only trigger the scanner, which holds the actual sensor data.
type Capture struct {
	SessionID string
	Image     string
}

// Candidate is one possible identity from a 1:N search.
type Candidate struct {
	StudentID  string  `json:"student_id"`
	Confidence float64 `json:"confidence"`
}

// Match is the adapter's answer for a capture.
type Match struct {
	Matched    bool
	StudentID  string
	Confidence float64
	Reason     string
	Candidates []Candidate
}

// Adapter resolves a capture to a student identity. Implementations wrap
// the face-recognition service and the fingerprint scanner; the core never
// talks to the hardware directly.
type Adapter interface {
	Name() string
	Identify(ctx context.Context, capture Capture) (Match, error)
}

var (
	// ErrUnresolved means the adapter answered but found no confident match.
	ErrUnresolved = errors.New("no confident match")
	// ErrAmbiguousMatch means more than one candidate cleared the threshold.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrOutOfScopeMatch means the matched student is outside the session's cohort.
	ErrOutOfScopeMatch = errors.New("matched student outside session scope")
	// ErrAdapterTimeout means the adapter did not answer within its deadline.
	ErrAdapterTimeout = errors.New("adapter timeout")
)

// AdapterError wraps a transport or protocol failure from an adapter.
// Always recoverable: the caller can retry or fall back to manual entry.
type AdapterError struct {
	Adapter string
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter: %v", e.Adapter, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
