package biometric

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFaceIdentifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recognize" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["session_id"] != "sess-1" {
			t.Errorf("session_id = %s", body["session_id"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":     "success",
			"student_id": "stud-42",
			"confidence": 0.91,
		})
	}))
	defer srv.Close()

	client := NewFaceClient(srv.URL, 5*time.Second, false)
	match, err := client.Identify(context.Background(), Capture{SessionID: "sess-1", Image: "data:image/jpeg;base64,xxx"})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !match.Matched || match.StudentID != "stud-42" {
		t.Fatalf("match = %+v", match)
	}
}

func TestFaceIdentifyNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "no_match",
			"message": "no enrolled face matched",
		})
	}))
	defer srv.Close()

	client := NewFaceClient(srv.URL, 5*time.Second, false)
	match, err := client.Identify(context.Background(), Capture{SessionID: "sess-1", Image: "img"})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if match.Matched {
		t.Fatal("expected no match")
	}
	if match.Reason != "no enrolled face matched" {
		t.Fatalf("reason = %s", match.Reason)
	}
}

func TestFaceIdentifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewFaceClient(srv.URL, 5*time.Second, false)
	if _, err := client.Identify(context.Background(), Capture{SessionID: "sess-1", Image: "img"}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestFaceIdentifyRequiresImage(t *testing.T) {
	client := NewFaceClient("http://unused", 5*time.Second, false)
	if _, err := client.Identify(context.Background(), Capture{SessionID: "sess-1"}); err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestFaceIdentifySkipMode(t *testing.T) {
	client := NewFaceClient("", 5*time.Second, true)
	match, err := client.Identify(context.Background(), Capture{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !match.Matched {
		t.Fatal("skip mode should always match")
	}
}
