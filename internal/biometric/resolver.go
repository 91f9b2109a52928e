package biometric

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"

	"attendtrack/internal/attendance"
	"attendtrack/internal/catalog"
)

// Resolution is a resolved capture: who was seen and how sure the adapter was.
type Resolution struct {
	StudentID  string  `json:"student_id"`
	Confidence float64 `json:"confidence"`
}

// Resolver turns adapter answers into student identities and enforces the
// session's cohort scope on every match.
type Resolver struct {
	catalog catalog.Store
	logger  *zap.Logger

	// AmbiguityMargin is how close a runner-up's confidence may come to the
	// best match before the result is treated as ambiguous.
	AmbiguityMargin float64
}

// NewResolver creates a resolver.
func NewResolver(cat catalog.Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{catalog: cat, logger: logger, AmbiguityMargin: 0.05}
}

// Resolve runs the adapter and validates its answer. Failure modes:
// ErrAdapterTimeout, AdapterError, ErrUnresolved, ErrAmbiguousMatch and
// ErrOutOfScopeMatch. A matched student outside the session's
// department/option/year is rejected regardless of adapter confidence.
func (r *Resolver) Resolve(ctx context.Context, adapter Adapter, sess attendance.Session, capture Capture) (Resolution, error) {
	match, err := adapter.Identify(ctx, capture)
	if err != nil {
		if isTimeout(err) {
			return Resolution{}, fmt.Errorf("%w: %s", ErrAdapterTimeout, adapter.Name())
		}
		return Resolution{}, &AdapterError{Adapter: adapter.Name(), Err: err}
	}

	if !match.Matched {
		if match.Reason != "" {
			return Resolution{}, fmt.Errorf("%w: %s", ErrUnresolved, match.Reason)
		}
		return Resolution{}, ErrUnresolved
	}

	if r.ambiguous(match) {
		return Resolution{}, ErrAmbiguousMatch
	}

	student, err := r.catalog.Student(ctx, match.StudentID)
	if err != nil {
		return Resolution{}, err
	}
	if student == nil {
		return Resolution{}, fmt.Errorf("%w: student %s not in catalog", ErrUnresolved, match.StudentID)
	}
	if student.DepartmentID != sess.DepartmentID ||
		student.OptionID != sess.OptionID ||
		student.YearLevel != sess.YearLevel {
		r.logger.Warn("cross-cohort biometric match rejected",
			zap.String("adapter", adapter.Name()),
			zap.String("session_id", sess.ID),
			zap.String("student_id", student.ID),
		)
		return Resolution{}, ErrOutOfScopeMatch
	}

	return Resolution{StudentID: student.ID, Confidence: match.Confidence}, nil
}

// ambiguous reports whether a runner-up candidate is too close to the winner.
func (r *Resolver) ambiguous(match Match) bool {
	if len(match.Candidates) < 2 {
		return false
	}
	var best, second float64
	for _, c := range match.Candidates {
		if c.Confidence > best {
			second = best
			best = c.Confidence
		} else if c.Confidence > second {
			second = c.Confidence
		}
	}
	return best-second < r.AmbiguityMargin
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
