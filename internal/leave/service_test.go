package leave

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"attendtrack/internal/auth"
	"attendtrack/internal/catalog"
)

// ── Mock store ──

type mockStore struct {
	requests map[string]*Request
	nextID   int
}

func newMockStore() *mockStore {
	return &mockStore{requests: make(map[string]*Request)}
}

func (m *mockStore) Insert(_ context.Context, req Request) (Request, error) {
	m.nextID++
	if req.ID == "" {
		req.ID = fmt.Sprintf("leave-%d", m.nextID)
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	req.Status = StatusPending
	cp := req
	m.requests[req.ID] = &cp
	return req, nil
}

func (m *mockStore) Get(_ context.Context, id string) (*Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockStore) Review(_ context.Context, id, decision, reviewerID string, reviewedAt time.Time) (bool, error) {
	r, ok := m.requests[id]
	if !ok || r.Status != StatusPending {
		return false, nil
	}
	r.Status = decision
	r.ReviewedBy = &reviewerID
	t := reviewedAt
	r.ReviewedAt = &t
	return true, nil
}

func (m *mockStore) ListAll(_ context.Context) ([]RequestDetail, error) {
	var res []RequestDetail
	for _, r := range m.requests {
		res = append(res, RequestDetail{Request: *r})
	}
	return res, nil
}

func (m *mockStore) ListForStudent(_ context.Context, studentID string) ([]RequestDetail, error) {
	var res []RequestDetail
	for _, r := range m.requests {
		if r.StudentID == studentID {
			res = append(res, RequestDetail{Request: *r})
		}
	}
	return res, nil
}

// ── Mock catalog ──

type mockCatalog struct {
	students map[string]*catalog.Student
}

func (m *mockCatalog) Department(context.Context, string) (*catalog.Department, error) { return nil, nil }
func (m *mockCatalog) Option(context.Context, string) (*catalog.Option, error)         { return nil, nil }
func (m *mockCatalog) Course(context.Context, string) (*catalog.Course, error)         { return nil, nil }
func (m *mockCatalog) Lecturer(context.Context, string) (*catalog.Lecturer, error)     { return nil, nil }
func (m *mockCatalog) RosterSize(context.Context, string, int) (int, error)            { return 0, nil }

func (m *mockCatalog) Student(_ context.Context, id string) (*catalog.Student, error) {
	return m.students[id], nil
}

func (m *mockCatalog) StudentByRegNo(_ context.Context, regNo string) (*catalog.Student, error) {
	for _, s := range m.students {
		if s.RegNo == regNo {
			return s, nil
		}
	}
	return nil, nil
}

// ── Tests ──

var (
	student = auth.Identity{CallerID: "stud-42", Role: auth.RoleStudent}
	hod     = auth.Identity{CallerID: "hod-1", Role: auth.RoleHoD}
)

func newTestService() (*Service, *mockStore) {
	store := newMockStore()
	cat := &mockCatalog{students: map[string]*catalog.Student{
		"stud-42": {ID: "stud-42", RegNo: "REG042", Status: "active"},
	}}
	return NewService(store, cat, nil), store
}

func TestCreateAndList(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, student, "medical appointment")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != StatusPending {
		t.Fatalf("status = %s, want pending", created.Status)
	}

	own, err := svc.List(ctx, student)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("student sees %d requests, want 1", len(own))
	}

	all, err := svc.List(ctx, hod)
	if err != nil {
		t.Fatalf("List as hod: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("hod sees %d requests, want 1", len(all))
	}
}

func TestCreateGuards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, hod, "whatever"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff Create err = %v", err)
	}
	if _, err := svc.Create(ctx, student, ""); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("empty reason err = %v", err)
	}

	ghost := auth.Identity{CallerID: "stud-404", Role: auth.RoleStudent}
	if _, err := svc.Create(ctx, ghost, "reason"); !errors.Is(err, ErrUnknownStudent) {
		t.Fatalf("unknown student err = %v", err)
	}
}

func TestReviewTerminalStates(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, student, "family emergency")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reviewed, err := svc.Review(ctx, hod, created.ID, StatusApproved)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != StatusApproved {
		t.Fatalf("status = %s, want approved", reviewed.Status)
	}
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != hod.CallerID {
		t.Fatalf("reviewed_by = %v", reviewed.ReviewedBy)
	}

	// Terminal: no second transition, and the stored row is untouched.
	if _, err := svc.Review(ctx, hod, created.ID, StatusRejected); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second Review err = %v", err)
	}
	if store.requests[created.ID].Status != StatusApproved {
		t.Fatalf("stored status changed to %s", store.requests[created.ID].Status)
	}
}

func TestReviewGuards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, student, "reason")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Review(ctx, student, created.ID, StatusApproved); !errors.Is(err, ErrForbidden) {
		t.Fatalf("student Review err = %v", err)
	}
	if _, err := svc.Review(ctx, hod, created.ID, "maybe"); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("bad decision err = %v", err)
	}
	if _, err := svc.Review(ctx, hod, "leave-404", StatusApproved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown request err = %v", err)
	}
}
