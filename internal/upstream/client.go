// Package upstream is the HTTP client for the assessment platform API,
// which supplies assessment definitions and grades submissions.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/config"
	"github.com/stjoseph/assessment-gateway/internal/model"
	"github.com/stjoseph/assessment-gateway/internal/session"
)

// Client talks to the assessment platform. It implements session.Grader.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Client.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.UpstreamBaseURL,
		http:    &http.Client{Timeout: cfg.UpstreamTimeout},
		log:     log.With().Str("component", "upstream_client").Logger(),
	}
}

// ListAssessments fetches the student's assessment listing. The student's
// own bearer token is forwarded so the platform scopes the list.
func (c *Client) ListAssessments(ctx context.Context, token string) ([]model.Assessment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/assessments/student", nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch assessments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &session.GradingError{Kind: session.FailureAuth, Message: "session expired", Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch assessments: upstream returned %d", resp.StatusCode)
	}

	var assessments []model.Assessment
	if err := json.NewDecoder(resp.Body).Decode(&assessments); err != nil {
		return nil, fmt.Errorf("decode assessments: %w", err)
	}
	return assessments, nil
}

// Grade submits a finished session's answers and returns the structured
// result. Failures are classified per the session error taxonomy so the
// state machine can decide between rollback and teardown.
func (c *Client) Grade(ctx context.Context, token, assessmentID string, sub model.Submission) (*model.SubmissionResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	url := fmt.Sprintf("%s/assessments/%s/submit", c.baseURL, assessmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &session.GradingError{Kind: session.FailureTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decoding below.
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &session.GradingError{
			Kind:    session.FailureValidation,
			Message: readErrorMessage(resp.Body, "invalid submission data"),
			Status:  resp.StatusCode,
		}
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &session.GradingError{
			Kind:    session.FailureAuth,
			Message: "session expired, please login again",
			Status:  resp.StatusCode,
		}
	default:
		c.log.Warn().Int("status", resp.StatusCode).Str("assessment_id", assessmentID).Msg("Unexpected grading status")
		return nil, &session.GradingError{
			Kind:    session.FailureTransient,
			Message: readErrorMessage(resp.Body, "grading service unavailable"),
			Status:  resp.StatusCode,
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &session.GradingError{Kind: session.FailureTransient, Message: err.Error()}
	}

	// A 200 that does not decode into a well-formed result is a contract
	// violation; report a generic failure instead of interpreting partially.
	var result model.SubmissionResult
	if err := json.Unmarshal(raw, &result); err != nil || result.TotalMarks == 0 {
		c.log.Error().Str("assessment_id", assessmentID).Msg("Malformed grading result")
		return nil, &session.GradingError{Kind: session.FailureMalformed, Message: "invalid response from server"}
	}

	return &result, nil
}

// readErrorMessage extracts a human-readable message from an upstream error
// body, preferring the platform's {"error": ...} shape.
func readErrorMessage(r io.Reader, fallback string) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return fallback
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fallback
}
