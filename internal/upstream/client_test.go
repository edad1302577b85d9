package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/config"
	"github.com/stjoseph/assessment-gateway/internal/model"
	"github.com/stjoseph/assessment-gateway/internal/session"
)

func newTestClient(serverURL string) *Client {
	return NewClient(&config.Config{
		UpstreamBaseURL: serverURL,
		UpstreamTimeout: 5 * time.Second,
	}, zerolog.Nop())
}

func testSubmission() model.Submission {
	return model.Submission{
		Answers: []model.AnswerPair{
			{QuestionIndex: 0, SelectedAnswer: 1},
			{QuestionIndex: 1, SelectedAnswer: model.SelectedNone},
		},
		StartedAt: "2026-03-10T09:00:00Z",
	}
}

func TestGradeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/assessments/a-1/submit" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"score": 2,
			"totalMarks": 3,
			"percentage": 66.7,
			"feedback": [
				{"question": "Q1", "selectedOption": "b", "correctOption": "b", "explanation": "", "isCorrect": true}
			]
		}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Grade(context.Background(), "tok", "a-1", testSubmission())
	if err != nil {
		t.Fatalf("Grade() = %v", err)
	}
	if result.Score != 2 || result.TotalMarks != 3 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Feedback) != 1 || !result.Feedback[0].IsCorrect {
		t.Errorf("feedback = %+v", result.Feedback)
	}
}

func TestGradeFailureClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind session.FailureKind
		wantMsg  string
	}{
		{
			"validation with server message",
			http.StatusBadRequest,
			`{"error": "answers array length mismatch"}`,
			session.FailureValidation,
			"answers array length mismatch",
		},
		{
			"validation without message",
			http.StatusBadRequest,
			`{}`,
			session.FailureValidation,
			"invalid submission data",
		},
		{
			"expired credential",
			http.StatusUnauthorized,
			`{"error": "jwt expired"}`,
			session.FailureAuth,
			"session expired, please login again",
		},
		{
			"server fault",
			http.StatusInternalServerError,
			``,
			session.FailureTransient,
			"grading service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Grade(context.Background(), "tok", "a-1", testSubmission())

			var ge *session.GradingError
			if !errors.As(err, &ge) {
				t.Fatalf("Grade() = %v, want GradingError", err)
			}
			if ge.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", ge.Kind, tt.wantKind)
			}
			if ge.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", ge.Message, tt.wantMsg)
			}
			if ge.Status != tt.status {
				t.Errorf("Status = %d, want %d", ge.Status, tt.status)
			}
		})
	}
}

func TestGradeMalformedResult(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>gateway error</html>`},
		{"zero total marks", `{"score": 0, "totalMarks": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Grade(context.Background(), "tok", "a-1", testSubmission())

			var ge *session.GradingError
			if !errors.As(err, &ge) {
				t.Fatalf("Grade() = %v, want GradingError", err)
			}
			if ge.Kind != session.FailureMalformed {
				t.Errorf("Kind = %v, want %v", ge.Kind, session.FailureMalformed)
			}
		})
	}
}

func TestGradeNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	_, err := newTestClient(srv.URL).Grade(context.Background(), "tok", "a-1", testSubmission())

	var ge *session.GradingError
	if !errors.As(err, &ge) {
		t.Fatalf("Grade() = %v, want GradingError", err)
	}
	if ge.Kind != session.FailureTransient {
		t.Errorf("Kind = %v, want %v", ge.Kind, session.FailureTransient)
	}
}

func TestListAssessments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assessments/student" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": "a-1",
			"title": "Algebra Quiz",
			"startTime": "2026-03-10T09:00:00Z",
			"endTime": "2026-03-10T11:00:00Z",
			"duration": 30,
			"totalMarks": 3,
			"questions": [{"question": "Q1", "options": ["a", "b"]}]
		}]`))
	}))
	defer srv.Close()

	assessments, err := newTestClient(srv.URL).ListAssessments(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ListAssessments() = %v", err)
	}
	if len(assessments) != 1 || assessments[0].ID != "a-1" {
		t.Fatalf("assessments = %+v", assessments)
	}
	if assessments[0].DurationSeconds() != 1800 {
		t.Errorf("DurationSeconds() = %d, want 1800", assessments[0].DurationSeconds())
	}
}

func TestListAssessmentsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListAssessments(context.Background(), "tok")

	var ge *session.GradingError
	if !errors.As(err, &ge) || ge.Kind != session.FailureAuth {
		t.Fatalf("ListAssessments() = %v, want auth GradingError", err)
	}
}
