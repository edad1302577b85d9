package model

// SelectedNone marks an unanswered question slot in a submission.
const SelectedNone = -1

// AnswerPair is one (question index, selected option) entry of a submission.
// SelectedAnswer is SelectedNone when the slot was left unanswered.
type AnswerPair struct {
	QuestionIndex  int `json:"questionIndex"`
	SelectedAnswer int `json:"selectedAnswer"`
}

// Submission is the payload sent to the upstream grading endpoint,
// one per completed or expired session.
type Submission struct {
	Answers   []AnswerPair `json:"answers"`
	StartedAt string       `json:"startedAt"` // RFC 3339, recorded at session start
}

// QuestionFeedback is the upstream's per-question grading verdict.
type QuestionFeedback struct {
	Question       string `json:"question"`
	SelectedOption string `json:"selectedOption"`
	CorrectOption  string `json:"correctOption"`
	Explanation    string `json:"explanation"`
	IsCorrect      bool   `json:"isCorrect"`
}

// SubmissionResult is the structured grading outcome. Produced upstream,
// read-only once received.
type SubmissionResult struct {
	Score      int                `json:"score"`
	TotalMarks int                `json:"totalMarks"`
	Percentage float64            `json:"percentage"`
	Feedback   []QuestionFeedback `json:"feedback"`
}
