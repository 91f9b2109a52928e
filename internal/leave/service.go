package leave

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"attendtrack/internal/auth"
	"attendtrack/internal/catalog"
)

// Request statuses. pending is the only non-terminal state.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is a student's leave application.
type Request struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}

// RequestDetail is a request joined with student context for staff views.
type RequestDetail struct {
	Request
	StudentName    string `json:"student_name"`
	RegNo          string `json:"reg_no"`
	DepartmentName string `json:"department_name"`
}

var (
	// ErrNotFound means the request does not exist.
	ErrNotFound = errors.New("leave request not found")
	// ErrAlreadyReviewed means the request already left pending; terminal
	// states admit no further transitions.
	ErrAlreadyReviewed = errors.New("leave request already reviewed")
	// ErrInvalidDecision means the decision is neither approved nor rejected.
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
	// ErrForbidden means the caller's role does not permit the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrReasonRequired means the request body had no reason.
	ErrReasonRequired = errors.New("reason required")
	// ErrUnknownStudent means the caller is not a registered student.
	ErrUnknownStudent = errors.New("student not found")
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, req Request) (Request, error)
	Get(ctx context.Context, id string) (*Request, error)
	Review(ctx context.Context, id, decision, reviewerID string, reviewedAt time.Time) (bool, error)
	ListAll(ctx context.Context) ([]RequestDetail, error)
	ListForStudent(ctx context.Context, studentID string) ([]RequestDetail, error)
}

// Service handles leave request creation and review.
type Service struct {
	store   Store
	catalog catalog.Store
	logger  *zap.Logger
}

// NewService creates a leave service.
func NewService(store Store, cat catalog.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, catalog: cat, logger: logger}
}

// Create files a pending request for the calling student.
func (s *Service) Create(ctx context.Context, id auth.Identity, reason string) (Request, error) {
	if id.Role != auth.RoleStudent {
		return Request{}, ErrForbidden
	}
	if reason == "" {
		return Request{}, ErrReasonRequired
	}
	student, err := s.catalog.Student(ctx, id.CallerID)
	if err != nil {
		return Request{}, err
	}
	if student == nil {
		return Request{}, ErrUnknownStudent
	}

	req, err := s.store.Insert(ctx, Request{StudentID: student.ID, Reason: reason})
	if err != nil {
		return Request{}, err
	}
	s.logger.Info("leave request filed",
		zap.String("request_id", req.ID),
		zap.String("student_id", student.ID),
	)
	return req, nil
}

// List returns the requests visible to the caller: students see their own,
// staff see everything.
func (s *Service) List(ctx context.Context, id auth.Identity) ([]RequestDetail, error) {
	if id.Staff() {
		return s.store.ListAll(ctx)
	}
	return s.store.ListForStudent(ctx, id.CallerID)
}

// Review decides a pending request. pending -> approved|rejected is the
// only legal transition; anything else yields ErrAlreadyReviewed.
func (s *Service) Review(ctx context.Context, id auth.Identity, requestID, decision string) (Request, error) {
	if !id.Staff() {
		return Request{}, ErrForbidden
	}
	if decision != StatusApproved && decision != StatusRejected {
		return Request{}, ErrInvalidDecision
	}

	updated, err := s.store.Review(ctx, requestID, decision, id.CallerID, time.Now().UTC())
	if err != nil {
		return Request{}, err
	}
	if !updated {
		existing, err := s.store.Get(ctx, requestID)
		if err != nil {
			return Request{}, err
		}
		if existing == nil {
			return Request{}, ErrNotFound
		}
		return Request{}, ErrAlreadyReviewed
	}

	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req == nil {
		return Request{}, ErrNotFound
	}
	s.logger.Info("leave request reviewed",
		zap.String("request_id", requestID),
		zap.String("decision", decision),
		zap.String("reviewer_id", id.CallerID),
	)
	return *req, nil
}
