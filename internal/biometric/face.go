package biometric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FaceClient calls the face recognition microservice.
type FaceClient struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// NewFaceClient creates a client with a bounded timeout. Face processing
// can take a while, so the default is generous.
func NewFaceClient(baseURL string, timeout time.Duration, skip bool) *FaceClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FaceClient{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Name identifies the adapter in errors and metrics.
func (c *FaceClient) Name() string { return "face" }

// Identify sends the captured image for 1:N recognition.
func (c *FaceClient) Identify(ctx context.Context, capture Capture) (Match, error) {
	if c.Skip {
		return Match{Matched: true, StudentID: "mock-student", Confidence: 0.92}, nil
	}
	if capture.Image == "" {
		return Match{}, fmt.Errorf("image required")
	}

	body, _ := json.Marshal(map[string]string{
		"image":      capture.Image,
		"session_id": capture.SessionID,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/recognize", bytes.NewReader(body))
	if err != nil {
		return Match{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Match{}, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Match{}, fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Status     string      `json:"status"`
		StudentID  string      `json:"student_id"`
		Confidence float64     `json:"confidence"`
		Message    string      `json:"message"`
		Matches    []Candidate `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Match{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if out.Status != "success" || out.StudentID == "" {
		return Match{Matched: false, Reason: out.Message, Candidates: out.Matches}, nil
	}
	return Match{
		Matched:    true,
		StudentID:  out.StudentID,
		Confidence: out.Confidence,
		Candidates: out.Matches,
	}, nil
}
