package report

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"attendtrack/internal/attendance"
)

// Repository runs the read-only reporting queries. It never writes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CourseSessions returns a course's sessions within a date range, newest first.
func (r *Repository) CourseSessions(ctx context.Context, courseID string, from, to time.Time) ([]attendance.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lecturer_id, course_id, option_id, department_id, year_level,
		       session_date, start_time, end_time, biometric_method
		FROM attendance_sessions
		WHERE course_id = $1 AND session_date >= $2 AND session_date <= $3
		ORDER BY start_time DESC
	`, courseID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []attendance.Session
	for rows.Next() {
		var s attendance.Session
		if err := rows.Scan(&s.ID, &s.LecturerID, &s.CourseID, &s.OptionID, &s.DepartmentID,
			&s.YearLevel, &s.SessionDate, &s.StartTime, &s.EndTime, &s.BiometricMethod); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// StudentAttendance counts a student's present records against the
// completed sessions of their cohort.
func (r *Repository) StudentAttendance(ctx context.Context, studentID string) (present, totalSessions int, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*)
			 FROM attendance_records ar
			 JOIN attendance_sessions s ON ar.session_id = s.id
			 WHERE ar.student_id = st.id AND ar.status = 'present' AND s.end_time IS NOT NULL),
			(SELECT COUNT(*)
			 FROM attendance_sessions s
			 WHERE s.option_id = st.option_id AND s.year_level = st.year_level
			   AND s.end_time IS NOT NULL)
		FROM students st
		WHERE st.id = $1
	`, studentID)
	if err := row.Scan(&present, &totalSessions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, attendance.ErrNotFound
		}
		return 0, 0, err
	}
	return present, totalSessions, nil
}

// CohortStudentIDs returns the ids of active students in a session's cohort.
func (r *Repository) CohortStudentIDs(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT st.id
		FROM students st
		JOIN attendance_sessions s ON st.option_id = s.option_id AND st.year_level = s.year_level
		WHERE s.id = $1 AND st.status = 'active'
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
