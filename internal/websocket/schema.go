package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionGoto   Action = "goto"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest records a selection for a question.
type AnswerRequest struct {
	Action        Action `json:"action"`
	QuestionIndex int    `json:"question_index"`
	Option        int    `json:"option"`
}

// GotoRequest moves the session cursor to a question.
type GotoRequest struct {
	Action        Action `json:"action"`
	QuestionIndex int    `json:"question_index"`
}

// SubmitRequest finishes the session and sends answers for grading.
// Force skips the unanswered-questions confirmation.
type SubmitRequest struct {
	Action Action `json:"action"`
	Force  bool   `json:"force"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick    Event = "tick"
	EventState   Event = "state"
	EventResult  Event = "result"
	EventConfirm Event = "confirm"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// TickResponse is pushed once per second while the session runs.
type TickResponse struct {
	Event     Event `json:"event"`
	Remaining int   `json:"remaining"`
}

// StateResponse reports the observable session state after an action.
type StateResponse struct {
	Event         Event  `json:"event"`
	State         string `json:"state"`
	QuestionIndex int    `json:"question_index"`
	Answers       []int  `json:"answers"`
	Remaining     int    `json:"remaining"`
}

// ResultResponse delivers the grading outcome once the session completes.
type ResultResponse struct {
	Event      Event   `json:"event"`
	Score      int     `json:"score"`
	TotalMarks int     `json:"totalMarks"`
	Percentage float64 `json:"percentage"`
}

// ConfirmResponse asks the client to confirm submitting with unanswered
// questions. The client resubmits with force=true to proceed.
type ConfirmResponse struct {
	Event      Event `json:"event"`
	Unanswered int   `json:"unanswered"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
