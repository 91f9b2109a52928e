package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists sessions and records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, lecturer_id, course_id, option_id, department_id, year_level,
	session_date, start_time, end_time, biometric_method`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.LecturerID, &s.CourseID, &s.OptionID, &s.DepartmentID,
		&s.YearLevel, &s.SessionDate, &s.StartTime, &s.EndTime, &s.BiometricMethod)
	return s, err
}

// ActiveSession returns the lecturer's open session, or nil when none.
func (r *Repository) ActiveSession(ctx context.Context, lecturerID string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM attendance_sessions
		WHERE lecturer_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1
	`, lecturerID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetSession returns a session by id, or nil when absent.
func (r *Repository) GetSession(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM attendance_sessions WHERE id = $1
	`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// StartSession closes any open session the lecturer still has and inserts
// the new one in a single transaction. When the lecturer has no open row
// yet, two concurrent starts both lock nothing and race to the insert; the
// unique partial index on (lecturer_id) WHERE end_time IS NULL rejects the
// loser, which is reported as a ConflictError carrying the winner's session.
func (r *Repository) StartSession(ctx context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.StartTime.IsZero() {
		s.StartTime = now
	}
	if s.SessionDate.IsZero() {
		s.SessionDate = s.StartTime
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	// Lock the lecturer's open rows so a concurrent start serializes here.
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM attendance_sessions
		WHERE lecturer_id = $1 AND end_time IS NULL
		FOR UPDATE
	`, s.LecturerID)
	if err != nil {
		return Session{}, err
	}
	var openIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return Session{}, err
		}
		openIDs = append(openIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Session{}, err
	}

	for _, id := range openIDs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE attendance_sessions SET end_time = $2 WHERE id = $1 AND end_time IS NULL
		`, id, now); err != nil {
			return Session{}, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_sessions
		(id, lecturer_id, course_id, option_id, department_id, year_level,
		 session_date, start_time, end_time, biometric_method)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULL,$9)
	`, s.ID, s.LecturerID, s.CourseID, s.OptionID, s.DepartmentID, s.YearLevel,
		s.SessionDate, s.StartTime, s.BiometricMethod); err != nil {
		if isUniqueViolation(err, "idx_sessions_active_lecturer") {
			tx.Rollback()
			existing, gerr := r.ActiveSession(ctx, s.LecturerID)
			if gerr == nil && existing != nil {
				return Session{}, &ConflictError{Existing: *existing}
			}
		}
		return Session{}, err
	}

	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	s.EndTime = nil
	return s, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// EndSession sets end_time on an open session. Returns ErrAlreadyCompleted
// when the session exists but is already closed, ErrNotFound otherwise.
func (r *Repository) EndSession(ctx context.Context, id string, endedAt time.Time) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_sessions
		SET end_time = $2
		WHERE id = $1 AND end_time IS NULL
		RETURNING `+sessionColumns+`
	`, id, endedAt.UTC())
	s, err := scanSession(row)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Session{}, err
	}
	existing, gerr := r.GetSession(ctx, id)
	if gerr != nil {
		return Session{}, gerr
	}
	if existing == nil {
		return Session{}, ErrNotFound
	}
	return Session{}, ErrAlreadyCompleted
}

// UpsertRecord writes one attendance observation. The session row is
// locked for the duration of the write so a close racing with a capture
// cannot slip a record into a completed session. A second observation for
// the same (session, student) updates the existing row.
func (r *Repository) UpsertRecord(ctx context.Context, rec Record) (Record, bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, false, err
	}
	defer tx.Rollback()

	var endTime sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT end_time FROM attendance_sessions WHERE id = $1 FOR SHARE
	`, rec.SessionID).Scan(&endTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, ErrNotFound
		}
		return Record{}, false, err
	}
	if endTime.Valid {
		return Record{}, false, ErrSessionClosed
	}

	// xmax is zero on a fresh insert and non-zero when the conflict branch
	// updated an existing row, so the duplicate flag rides the upsert itself.
	var existed bool
	row := tx.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, session_id, student_id, status, method, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT ON CONSTRAINT attendance_records_session_student DO UPDATE SET
			status = EXCLUDED.status,
			method = EXCLUDED.method,
			recorded_at = EXCLUDED.recorded_at
		RETURNING id, recorded_at, (xmax <> 0)
	`, rec.ID, rec.SessionID, rec.StudentID, rec.Status, rec.Method, rec.RecordedAt)
	if err := row.Scan(&rec.ID, &rec.RecordedAt, &existed); err != nil {
		return Record{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return Record{}, false, err
	}
	return rec, existed, nil
}

// CountRecords returns total and present counts for a session.
func (r *Repository) CountRecords(ctx context.Context, sessionID string) (total, present int, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'present')
		FROM attendance_records
		WHERE session_id = $1
	`, sessionID)
	if err := row.Scan(&total, &present); err != nil {
		return 0, 0, err
	}
	return total, present, nil
}

// ListRecords returns all records for a session, newest first.
func (r *Repository) ListRecords(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, student_id, status, method, recorded_at
		FROM attendance_records
		WHERE session_id = $1
		ORDER BY recorded_at DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status, &rec.Method, &rec.RecordedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
