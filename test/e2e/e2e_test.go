//go:build e2e
// +build e2e

// End-to-end flow against a running gateway. Requires the server, Redis,
// PostgreSQL and the upstream assessment platform to be up; configure via
// BASE_URL, WS_URL and JWT_SECRET (must match the gateway's).
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	defaultWSURL   = "ws://localhost:8080/ws/v1"
	testUserID     = 424242
)

var (
	baseURL      string
	wsURL        string
	studentToken string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	wsURL = os.Getenv("WS_URL")
	if wsURL == "" {
		wsURL = defaultWSURL
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("JWT_SECRET is required to mint a test student token")
		os.Exit(1)
	}

	token, err := mintStudentToken(secret)
	if err != nil {
		fmt.Printf("Token setup failed: %v\n", err)
		os.Exit(1)
	}
	studentToken = token

	os.Exit(m.Run())
}

// mintStudentToken signs a short-lived student JWT the way the portal's
// auth service does.
func mintStudentToken(secret string) (string, error) {
	claims := jwt.MapClaims{
		"token_type": "student",
		"user_id":    testUserID,
		"exp":        time.Now().Add(time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ─── HTTP helpers ───────────────────────────────────────────────────

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doRequest(t *testing.T, method, path string, body interface{}) (int, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+studentToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, &env
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestHealthCheck(t *testing.T) {
	resp, err := http.Get(baseURL[:len(baseURL)-len("/api/v1")] + "/health")
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}

func TestAssessmentFlow(t *testing.T) {
	// 1. Load the lobby and pick an active, not-yet-completed assessment.
	status, env := doRequest(t, http.MethodGet, "/student/assessments", nil)
	if status != http.StatusOK {
		t.Fatalf("lobby status = %d, error = %+v", status, env.Error)
	}

	var lobby struct {
		Assessments []struct {
			ID        string `json:"id"`
			Phase     string `json:"phase"`
			Completed bool   `json:"completed"`
		} `json:"assessments"`
	}
	if err := json.Unmarshal(env.Data, &lobby); err != nil {
		t.Fatalf("decode lobby: %v", err)
	}

	var target string
	for _, a := range lobby.Assessments {
		if a.Phase == "ACTIVE" && !a.Completed {
			target = a.ID
			break
		}
	}
	if target == "" {
		t.Skip("no active assessment available for this student")
	}

	// 2. Start a session.
	status, env = doRequest(t, http.MethodPost, "/student/assessments/"+target+"/session", nil)
	if status != http.StatusCreated {
		t.Fatalf("start status = %d, error = %+v", status, env.Error)
	}

	// Clean up whatever state this test leaves behind.
	defer doRequest(t, http.MethodDelete, "/student/session", nil)

	// 3. The paper and the live state must be served.
	status, _ = doRequest(t, http.MethodGet, "/student/session/paper", nil)
	if status != http.StatusOK {
		t.Fatalf("paper status = %d", status)
	}
	status, env = doRequest(t, http.MethodGet, "/student/session", nil)
	if status != http.StatusOK {
		t.Fatalf("state status = %d", status)
	}

	var state struct {
		Session struct {
			State            string `json:"state"`
			QuestionCount    int    `json:"question_count"`
			RemainingSeconds int    `json:"remaining_seconds"`
		} `json:"session"`
	}
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Session.State != "IN_PROGRESS" {
		t.Fatalf("state = %s, want IN_PROGRESS", state.Session.State)
	}
	if state.Session.RemainingSeconds <= 0 {
		t.Fatalf("remaining = %d, want > 0", state.Session.RemainingSeconds)
	}

	// 4. Answer the first question.
	zero := 0
	status, env = doRequest(t, http.MethodPut, "/student/session/answer",
		map[string]interface{}{"question_index": &zero, "option": &zero})
	if status != http.StatusOK {
		t.Fatalf("answer status = %d, error = %+v", status, env.Error)
	}

	// 5. Submitting without force must require confirmation when other
	// questions remain unanswered.
	if state.Session.QuestionCount > 1 {
		status, env = doRequest(t, http.MethodPost, "/student/session/submit",
			map[string]interface{}{"force": false})
		if status != http.StatusConflict || env.Error == nil || env.Error.Code != "UNANSWERED_QUESTIONS" {
			t.Fatalf("unforced submit status = %d, error = %+v", status, env.Error)
		}
	}

	// 6. Forced submit completes the session and returns a result.
	status, env = doRequest(t, http.MethodPost, "/student/session/submit",
		map[string]interface{}{"force": true})
	if status != http.StatusOK {
		t.Fatalf("submit status = %d, error = %+v", status, env.Error)
	}

	var submitted struct {
		Result struct {
			Score      int `json:"score"`
			TotalMarks int `json:"totalMarks"`
		} `json:"result"`
	}
	if err := json.Unmarshal(env.Data, &submitted); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if submitted.Result.TotalMarks == 0 {
		t.Fatalf("result = %+v, want non-zero total marks", submitted.Result)
	}

	// 7. Re-starting the same assessment must be blocked by the ledger.
	status, env = doRequest(t, http.MethodPost, "/student/assessments/"+target+"/session", nil)
	if status != http.StatusConflict || env.Error == nil || env.Error.Code != "ALREADY_COMPLETED" {
		t.Fatalf("restart status = %d, error = %+v", status, env.Error)
	}
}

func TestSessionStreamRequiresSession(t *testing.T) {
	// With no active session the upgrade must be refused.
	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/student/session/stream?token="+studentToken, nil)
	if err == nil {
		t.Fatal("dial succeeded without an active session")
	}
	if resp != nil && resp.StatusCode != http.StatusNotFound {
		t.Fatalf("upgrade status = %d, want 404", resp.StatusCode)
	}
}

func TestRejectsMissingToken(t *testing.T) {
	resp, err := http.Get(baseURL + "/student/assessments")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
