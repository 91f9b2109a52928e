package catalog

import (
	"context"
	"database/sql"
	"errors"
)

// Department is a reference row from the catalog.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Option is a programme option within a department.
type Option struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

// Course is a taught course within an option.
type Course struct {
	ID         string `json:"id"`
	OptionID   string `json:"option_id"`
	LecturerID string `json:"lecturer_id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
}

// Student is a registered student with cohort scope.
type Student struct {
	ID           string `json:"id"`
	RegNo        string `json:"reg_no"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DepartmentID string `json:"department_id"`
	OptionID     string `json:"option_id"`
	YearLevel    int    `json:"year_level"`
	Status       string `json:"status"`
}

// Lecturer is a teaching staff member.
type Lecturer struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

// Store is the read-only view of reference data the core validates against.
type Store interface {
	Department(ctx context.Context, id string) (*Department, error)
	Option(ctx context.Context, id string) (*Option, error)
	Course(ctx context.Context, id string) (*Course, error)
	Student(ctx context.Context, id string) (*Student, error)
	StudentByRegNo(ctx context.Context, regNo string) (*Student, error)
	Lecturer(ctx context.Context, id string) (*Lecturer, error)
	RosterSize(ctx context.Context, optionID string, yearLevel int) (int, error)
}

// Repository reads catalog rows from Postgres. The core never writes here.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a catalog repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Department returns a department or nil when absent.
func (r *Repository) Department(ctx context.Context, id string) (*Department, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM departments WHERE id = $1`, id)
	var d Department
	if err := row.Scan(&d.ID, &d.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// Option returns an option or nil when absent.
func (r *Repository) Option(ctx context.Context, id string) (*Option, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, department_id, name FROM options WHERE id = $1`, id)
	var o Option
	if err := row.Scan(&o.ID, &o.DepartmentID, &o.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Course returns a course or nil when absent.
func (r *Repository) Course(ctx context.Context, id string) (*Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, option_id, COALESCE(lecturer_id, ''), name, course_code
		FROM courses WHERE id = $1
	`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.OptionID, &c.LecturerID, &c.Name, &c.CourseCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Student returns a student or nil when absent.
func (r *Repository) Student(ctx context.Context, id string) (*Student, error) {
	return r.student(ctx, `WHERE id = $1`, id)
}

// StudentByRegNo returns a student by registration number or nil when absent.
func (r *Repository) StudentByRegNo(ctx context.Context, regNo string) (*Student, error) {
	return r.student(ctx, `WHERE reg_no = $1`, regNo)
}

func (r *Repository) student(ctx context.Context, where string, arg any) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, reg_no, first_name, last_name, department_id, option_id, year_level, status
		FROM students `+where, arg)
	var s Student
	if err := row.Scan(&s.ID, &s.RegNo, &s.FirstName, &s.LastName, &s.DepartmentID, &s.OptionID, &s.YearLevel, &s.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Lecturer returns a lecturer or nil when absent.
func (r *Repository) Lecturer(ctx context.Context, id string) (*Lecturer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, department_id, name FROM lecturers WHERE id = $1`, id)
	var l Lecturer
	if err := row.Scan(&l.ID, &l.DepartmentID, &l.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// RosterSize counts active students in an option/year cohort.
func (r *Repository) RosterSize(ctx context.Context, optionID string, yearLevel int) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM students
		WHERE option_id = $1 AND year_level = $2 AND status = 'active'
	`, optionID, yearLevel)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
