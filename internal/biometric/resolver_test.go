package biometric

import (
	"context"
	"errors"
	"testing"

	"attendtrack/internal/attendance"
	"attendtrack/internal/catalog"
)

// ── Fakes ──

type fakeAdapter struct {
	match Match
	err   error
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) Identify(context.Context, Capture) (Match, error) {
	return f.match, f.err
}

type fakeCatalog struct {
	students map[string]*catalog.Student
}

func (f *fakeCatalog) Department(context.Context, string) (*catalog.Department, error) { return nil, nil }
func (f *fakeCatalog) Option(context.Context, string) (*catalog.Option, error)         { return nil, nil }
func (f *fakeCatalog) Course(context.Context, string) (*catalog.Course, error)         { return nil, nil }
func (f *fakeCatalog) Lecturer(context.Context, string) (*catalog.Lecturer, error)     { return nil, nil }
func (f *fakeCatalog) RosterSize(context.Context, string, int) (int, error)            { return 0, nil }

func (f *fakeCatalog) Student(_ context.Context, id string) (*catalog.Student, error) {
	return f.students[id], nil
}

func (f *fakeCatalog) StudentByRegNo(context.Context, string) (*catalog.Student, error) {
	return nil, nil
}

var testSession = attendance.Session{
	ID:           "sess-1",
	DepartmentID: "dept-3",
	OptionID:     "opt-5",
	YearLevel:    2,
}

func newTestResolver() *Resolver {
	return NewResolver(&fakeCatalog{students: map[string]*catalog.Student{
		"stud-42": {ID: "stud-42", DepartmentID: "dept-3", OptionID: "opt-5", YearLevel: 2, Status: "active"},
		"stud-77": {ID: "stud-77", DepartmentID: "dept-9", OptionID: "opt-1", YearLevel: 3, Status: "active"},
	}}, nil)
}

// ── Tests ──

func TestResolveMatch(t *testing.T) {
	r := newTestResolver()
	adapter := &fakeAdapter{match: Match{Matched: true, StudentID: "stud-42", Confidence: 0.93}}

	res, err := r.Resolve(context.Background(), adapter, testSession, Capture{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.StudentID != "stud-42" || res.Confidence != 0.93 {
		t.Fatalf("resolution = %+v", res)
	}
}

func TestResolveOutOfScopeMatchRejected(t *testing.T) {
	r := newTestResolver()
	// High confidence does not matter: the student is in another cohort.
	adapter := &fakeAdapter{match: Match{Matched: true, StudentID: "stud-77", Confidence: 0.99}}

	_, err := r.Resolve(context.Background(), adapter, testSession, Capture{SessionID: "sess-1"})
	if !errors.Is(err, ErrOutOfScopeMatch) {
		t.Fatalf("err = %v, want ErrOutOfScopeMatch", err)
	}
}

func TestResolveUnresolved(t *testing.T) {
	r := newTestResolver()
	adapter := &fakeAdapter{match: Match{Matched: false, Reason: "no face detected"}}

	_, err := r.Resolve(context.Background(), adapter, testSession, Capture{SessionID: "sess-1"})
	if !errors.Is(err, ErrUnresolved) {
		t.Fatalf("err = %v, want ErrUnresolved", err)
	}
}

func TestResolveUnknownStudentUnresolved(t *testing.T) {
	r := newTestResolver()
	adapter := &fakeAdapter{match: Match{Matched: true, StudentID: "stud-404", Confidence: 0.9}}

	_, err := r.Resolve(context.Background(), adapter, testSession, Capture{SessionID: "sess-1"})
	if !errors.Is(err, ErrUnresolved) {
		t.Fatalf("err = %v, want ErrUnresolved", err)
	}
}

func TestResolveAmbiguousCandidates(t *testing.T) {
	r := newTestResolver()
	adapter := &fakeAdapter{match: Match{
		Matched:    true,
		StudentID:  "stud-42",
		Confidence: 0.81,
		Candidates: []Candidate{
			{StudentID: "stud-42", Confidence: 0.81},
			{StudentID: "stud-77", Confidence: 0.79},
		},
	}}

	_, err := r.Resolve(context.Background(), adapter, testSession, Capture{SessionID: "sess-1"})
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("err = %v, want ErrAmbiguousMatch", err)
	}
}

func TestResolveClearWinnerNotAmbiguous(t *testing.T) {
	r := newTestResolver()
	adapter := &fakeAdapter{match: Match{
		Matched:    true,
		StudentID:  "stud-42",
		Confidence: 0.92,
		Candidates: []Candidate{
			{StudentID: "stud-42", Confidence: 0.92},
			{StudentID: "stud-77", Confidence: 0.40},
		},
	}}

	res, err := r.Resolve(context.Background(), adapter, testSession, Capture{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.StudentID != "stud-42" {
		t.Fatalf("student = %s", res.StudentID)
	}
}

func TestResolveTimeout(t *testing.T) {
	r := newTestResolver()
	adapter := &fakeAdapter{err: context.DeadlineExceeded}

	_, err := r.Resolve(context.Background(), adapter, testSession, Capture{SessionID: "sess-1"})
	if !errors.Is(err, ErrAdapterTimeout) {
		t.Fatalf("err = %v, want ErrAdapterTimeout", err)
	}
}

func TestResolveTransportFailure(t *testing.T) {
	r := newTestResolver()
	adapter := &fakeAdapter{err: errors.New("connection refused")}

	_, err := r.Resolve(context.Background(), adapter, testSession, Capture{SessionID: "sess-1"})
	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("err = %v, want AdapterError", err)
	}
	if adapterErr.Adapter != "fake" {
		t.Fatalf("adapter = %s", adapterErr.Adapter)
	}
}
