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

// FingerprintClient talks to the fingerprint scanner's HTTP endpoint.
// The scanner holds the enrolled templates and answers with the matched
// student, so one scan is one request.
type FingerprintClient struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// NewFingerprintClient creates a client with a bounded timeout.
func NewFingerprintClient(baseURL string, timeout time.Duration, skip bool) *FingerprintClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FingerprintClient{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Name identifies the adapter in errors and metrics.
func (c *FingerprintClient) Name() string { return "fingerprint" }

// Identify triggers a scan and waits for the scanner's verdict.
func (c *FingerprintClient) Identify(ctx context.Context, capture Capture) (Match, error) {
	if c.Skip {
		return Match{Matched: true, StudentID: "mock-student", Confidence: 0.99}, nil
	}

	body, _ := json.Marshal(map[string]string{"session_id": capture.SessionID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/scan", bytes.NewReader(body))
	if err != nil {
		return Match{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Match{}, fmt.Errorf("fingerprint scanner request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Match{}, fmt.Errorf("fingerprint scanner error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Status     string  `json:"status"`
		StudentID  string  `json:"student_id"`
		Confidence float64 `json:"confidence"`
		Message    string  `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Match{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if out.Status != "success" || out.StudentID == "" {
		return Match{Matched: false, Reason: out.Message}, nil
	}
	return Match{Matched: true, StudentID: out.StudentID, Confidence: out.Confidence}, nil
}
