package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists leave requests in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new pending request.
func (r *Repository) Insert(ctx context.Context, req Request) (Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	req.Status = StatusPending
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leave_requests (id, student_id, reason, status, requested_at)
		VALUES ($1,$2,$3,$4,$5)
	`, req.ID, req.StudentID, req.Reason, req.Status, req.RequestedAt)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

// Get returns a request by id, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, reason, status, requested_at, reviewed_by, reviewed_at
		FROM leave_requests WHERE id = $1
	`, id)
	var req Request
	if err := row.Scan(&req.ID, &req.StudentID, &req.Reason, &req.Status, &req.RequestedAt, &req.ReviewedBy, &req.ReviewedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// Review transitions a pending request to its terminal state. The status
// guard in the WHERE clause makes a second review a no-op at the row
// level; zero rows affected means the request was already decided (or
// never existed, which the caller distinguishes via Get).
func (r *Repository) Review(ctx context.Context, id, decision, reviewerID string, reviewedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = $5
	`, id, decision, reviewerID, reviewedAt.UTC(), StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAll returns every request with student context for staff views.
func (r *Repository) ListAll(ctx context.Context) ([]RequestDetail, error) {
	return r.list(ctx, `
		SELECT lr.id, lr.student_id, lr.reason, lr.status, lr.requested_at, lr.reviewed_by, lr.reviewed_at,
		       s.first_name || ' ' || s.last_name, s.reg_no, d.name
		FROM leave_requests lr
		JOIN students s ON lr.student_id = s.id
		JOIN departments d ON s.department_id = d.id
		ORDER BY lr.requested_at DESC
	`)
}

// ListForStudent returns a single student's requests.
func (r *Repository) ListForStudent(ctx context.Context, studentID string) ([]RequestDetail, error) {
	return r.list(ctx, `
		SELECT lr.id, lr.student_id, lr.reason, lr.status, lr.requested_at, lr.reviewed_by, lr.reviewed_at,
		       s.first_name || ' ' || s.last_name, s.reg_no, d.name
		FROM leave_requests lr
		JOIN students s ON lr.student_id = s.id
		JOIN departments d ON s.department_id = d.id
		WHERE lr.student_id = $1
		ORDER BY lr.requested_at DESC
	`, studentID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]RequestDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RequestDetail
	for rows.Next() {
		var d RequestDetail
		if err := rows.Scan(&d.ID, &d.StudentID, &d.Reason, &d.Status, &d.RequestedAt, &d.ReviewedBy, &d.ReviewedAt,
			&d.StudentName, &d.RegNo, &d.DepartmentName); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}
