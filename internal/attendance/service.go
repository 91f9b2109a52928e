package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"attendtrack/internal/auth"
	"attendtrack/internal/catalog"
)

// Biometric methods accepted for a session or record.
const (
	MethodFace        = "face_recognition"
	MethodFingerprint = "fingerprint"
	MethodManual      = "manual"
)

// Record statuses.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Session is one lecturer-owned, time-bounded window during which
// presence is recorded for a course cohort.
type Session struct {
	ID              string     `json:"id"`
	LecturerID      string     `json:"lecturer_id"`
	CourseID        string     `json:"course_id"`
	OptionID        string     `json:"option_id"`
	DepartmentID    string     `json:"department_id"`
	YearLevel       int        `json:"year_level"`
	SessionDate     time.Time  `json:"session_date"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	BiometricMethod string     `json:"biometric_method"`
}

// Status derives the lifecycle state from end_time.
func (s Session) Status() string {
	if s.EndTime == nil {
		return "active"
	}
	return "completed"
}

// Record is one student's presence outcome within a session.
type Record struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	StudentID  string    `json:"student_id"`
	Status     string    `json:"status"`
	Method     string    `json:"method"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Summary aggregates a session's records. Absent is total minus present;
// the roster size is informational and never feeds the absent figure.
type Summary struct {
	SessionID  string `json:"session_id"`
	Total      int    `json:"total_records"`
	Present    int    `json:"present_count"`
	Absent     int    `json:"absent_count"`
	RosterSize int    `json:"roster_size"`
}

// StartRequest carries the fields needed to open a session.
type StartRequest struct {
	DepartmentID    string
	OptionID        string
	CourseID        string
	YearLevel       int
	BiometricMethod string
	ForceNew        bool
}

// StartResult is the opened session plus the cohort roster size.
type StartResult struct {
	Session    Session `json:"session"`
	RosterSize int     `json:"roster_size"`
}

// Store is the persistence surface the service needs.
type Store interface {
	ActiveSession(ctx context.Context, lecturerID string) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	StartSession(ctx context.Context, s Session) (Session, error)
	EndSession(ctx context.Context, id string, endedAt time.Time) (Session, error)
	UpsertRecord(ctx context.Context, rec Record) (Record, bool, error)
	CountRecords(ctx context.Context, sessionID string) (total, present int, err error)
	ListRecords(ctx context.Context, sessionID string) ([]Record, error)
}

// Service coordinates the session lifecycle and record writes.
type Service struct {
	store   Store
	catalog catalog.Store
	logger  *zap.Logger
}

// NewService creates the core attendance service.
func NewService(store Store, cat catalog.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, catalog: cat, logger: logger}
}

// NormalizeMethod maps the short legacy aliases onto the canonical enum.
// Returns "" for anything outside the enum.
func NormalizeMethod(m string) string {
	switch m {
	case MethodFace, "face":
		return MethodFace
	case MethodFingerprint, "finger":
		return MethodFingerprint
	case MethodManual:
		return MethodManual
	}
	return ""
}

// Start opens a session for the caller. At most one session per lecturer
// may be active at a time; an existing one yields a ConflictError unless
// forceNew is set, in which case it is closed in the same transaction
// that inserts the new session.
func (s *Service) Start(ctx context.Context, id auth.Identity, req StartRequest) (StartResult, error) {
	method := NormalizeMethod(req.BiometricMethod)
	if method == "" {
		return StartResult{}, ErrInvalidBiometricMethod
	}
	if req.DepartmentID == "" {
		return StartResult{}, &ValidationError{Field: "department_id", Reason: "required"}
	}
	if req.OptionID == "" {
		return StartResult{}, &ValidationError{Field: "option_id", Reason: "required"}
	}
	if req.CourseID == "" {
		return StartResult{}, &ValidationError{Field: "course_id", Reason: "required"}
	}
	if req.YearLevel <= 0 {
		return StartResult{}, &ValidationError{Field: "year_level", Reason: "must be positive"}
	}

	if err := s.checkReferences(ctx, id, req); err != nil {
		return StartResult{}, err
	}

	if !req.ForceNew {
		existing, err := s.store.ActiveSession(ctx, id.CallerID)
		if err != nil {
			return StartResult{}, err
		}
		if existing != nil {
			return StartResult{}, &ConflictError{Existing: *existing}
		}
	}

	sess, err := s.store.StartSession(ctx, Session{
		LecturerID:      id.CallerID,
		CourseID:        req.CourseID,
		OptionID:        req.OptionID,
		DepartmentID:    req.DepartmentID,
		YearLevel:       req.YearLevel,
		BiometricMethod: method,
	})
	if err != nil {
		return StartResult{}, err
	}

	roster, err := s.catalog.RosterSize(ctx, req.OptionID, req.YearLevel)
	if err != nil {
		// Roster size is informational; a failed count should not undo the start.
		s.logger.Warn("roster count failed", zap.String("session_id", sess.ID), zap.Error(err))
		roster = 0
	}

	s.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("lecturer_id", id.CallerID),
		zap.String("course_id", req.CourseID),
		zap.String("method", method),
		zap.Bool("force_new", req.ForceNew),
	)
	return StartResult{Session: sess, RosterSize: roster}, nil
}

func (s *Service) checkReferences(ctx context.Context, id auth.Identity, req StartRequest) error {
	dept, err := s.catalog.Department(ctx, req.DepartmentID)
	if err != nil {
		return err
	}
	if dept == nil {
		return &ReferenceError{Field: "department_id", ID: req.DepartmentID, Reason: "not found"}
	}

	opt, err := s.catalog.Option(ctx, req.OptionID)
	if err != nil {
		return err
	}
	if opt == nil {
		return &ReferenceError{Field: "option_id", ID: req.OptionID, Reason: "not found"}
	}
	if opt.DepartmentID != req.DepartmentID {
		return &ReferenceError{Field: "option_id", ID: req.OptionID, Reason: "not in stated department"}
	}

	course, err := s.catalog.Course(ctx, req.CourseID)
	if err != nil {
		return err
	}
	if course == nil {
		return &ReferenceError{Field: "course_id", ID: req.CourseID, Reason: "not found"}
	}
	if course.OptionID != req.OptionID {
		return &ReferenceError{Field: "course_id", ID: req.CourseID, Reason: "not in stated option"}
	}

	// Lecturers may only run sessions in their own department; admins are exempt.
	if id.Role != auth.RoleAdmin {
		lect, err := s.catalog.Lecturer(ctx, id.CallerID)
		if err != nil {
			return err
		}
		if lect == nil {
			return &ReferenceError{Field: "lecturer_id", ID: id.CallerID, Reason: "not found"}
		}
		if lect.DepartmentID != req.DepartmentID {
			return ErrForbidden
		}
	}
	return nil
}

// End closes the session and returns its final counts. Only the owning
// lecturer or an admin may close it; a second call yields ErrAlreadyCompleted.
func (s *Service) End(ctx context.Context, id auth.Identity, sessionID string) (Summary, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	if sess == nil {
		return Summary{}, ErrNotFound
	}
	if sess.LecturerID != id.CallerID && id.Role != auth.RoleAdmin {
		return Summary{}, ErrForbidden
	}

	closed, err := s.store.EndSession(ctx, sessionID, time.Now().UTC())
	if err != nil {
		return Summary{}, err
	}

	summary, err := s.summarize(ctx, closed)
	if err != nil {
		return Summary{}, err
	}
	s.logger.Info("session ended",
		zap.String("session_id", sessionID),
		zap.String("caller_id", id.CallerID),
		zap.Int("total_records", summary.Total),
		zap.Int("present", summary.Present),
	)
	return summary, nil
}

// ActiveSession returns the caller's open session, or nil when none.
// Used by clients to resume UI state after a reload.
func (s *Service) ActiveSession(ctx context.Context, id auth.Identity) (*Session, error) {
	return s.store.ActiveSession(ctx, id.CallerID)
}

// Session returns a session the caller owns (or any session for admins).
func (s *Service) Session(ctx context.Context, id auth.Identity, sessionID string) (Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if sess == nil {
		return Session{}, ErrNotFound
	}
	if sess.LecturerID != id.CallerID && id.Role != auth.RoleAdmin {
		return Session{}, ErrForbidden
	}
	return *sess, nil
}

// Stats returns live counts for a session the caller may see.
func (s *Service) Stats(ctx context.Context, id auth.Identity, sessionID string) (Summary, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	if sess == nil {
		return Summary{}, ErrNotFound
	}
	if sess.LecturerID != id.CallerID && id.Role != auth.RoleAdmin {
		return Summary{}, ErrForbidden
	}
	return s.summarize(ctx, *sess)
}

func (s *Service) summarize(ctx context.Context, sess Session) (Summary, error) {
	total, present, err := s.store.CountRecords(ctx, sess.ID)
	if err != nil {
		return Summary{}, err
	}
	roster, err := s.catalog.RosterSize(ctx, sess.OptionID, sess.YearLevel)
	if err != nil {
		roster = 0
	}
	return Summary{
		SessionID:  sess.ID,
		Total:      total,
		Present:    present,
		Absent:     total - present,
		RosterSize: roster,
	}, nil
}

// RecordResult is the written record plus whether it replaced an earlier
// observation for the same student.
type RecordResult struct {
	Record          Record `json:"record"`
	AlreadyRecorded bool   `json:"already_recorded"`
}

// Record registers a presence observation against an active session.
// A repeat observation for the same student updates the existing row.
func (s *Service) Record(ctx context.Context, id auth.Identity, sessionID, studentID, status, method string) (RecordResult, error) {
	normalized := NormalizeMethod(method)
	if normalized == "" {
		return RecordResult{}, ErrInvalidBiometricMethod
	}
	if status != StatusPresent && status != StatusAbsent {
		return RecordResult{}, ErrInvalidStatus
	}

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return RecordResult{}, err
	}
	if sess == nil {
		return RecordResult{}, ErrNotFound
	}
	if sess.LecturerID != id.CallerID && id.Role != auth.RoleAdmin {
		return RecordResult{}, ErrForbidden
	}

	student, err := s.catalog.Student(ctx, studentID)
	if err != nil {
		return RecordResult{}, err
	}
	if student == nil || student.Status != "active" {
		return RecordResult{}, &ReferenceError{Field: "student_id", ID: studentID, Reason: "not found or inactive"}
	}

	// The repository re-checks session status inside the write transaction;
	// the check above only gives the caller an early answer.
	rec, existed, err := s.store.UpsertRecord(ctx, Record{
		SessionID: sessionID,
		StudentID: studentID,
		Status:    status,
		Method:    normalized,
	})
	if err != nil {
		return RecordResult{}, err
	}

	s.logger.Info("attendance recorded",
		zap.String("session_id", sessionID),
		zap.String("student_id", studentID),
		zap.String("method", normalized),
		zap.Bool("already_recorded", existed),
	)
	return RecordResult{Record: rec, AlreadyRecorded: existed}, nil
}

// ResolveStudent maps a registration number to a student id. Manual entry
// works from the register, where staff have the reg number, not the id.
func (s *Service) ResolveStudent(ctx context.Context, regNo string) (string, error) {
	student, err := s.catalog.StudentByRegNo(ctx, regNo)
	if err != nil {
		return "", err
	}
	if student == nil {
		return "", &ReferenceError{Field: "reg_no", ID: regNo, Reason: "not found"}
	}
	return student.ID, nil
}

// Records lists a session's records for the owner or an admin.
func (s *Service) Records(ctx context.Context, id auth.Identity, sessionID string) ([]Record, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	if sess.LecturerID != id.CallerID && id.Role != auth.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.store.ListRecords(ctx, sessionID)
}
