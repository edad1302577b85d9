package model

import (
	"time"
)

// Assessment is an assessment definition as supplied by the upstream
// platform. Immutable once fetched; the session engine holds it read-only.
// JSON tags follow the upstream wire contract (camelCase).
type Assessment struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	Duration    int        `json:"duration"` // time limit in minutes
	TotalMarks  int        `json:"totalMarks"`
	Questions   []Question `json:"questions"`
}

// Question is a single prompt with its ordered option labels. Correctness
// data stays upstream and only ever arrives inside SubmissionResult feedback.
type Question struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
}

// DurationSeconds returns the assessment time limit in seconds.
func (a *Assessment) DurationSeconds() int {
	return a.Duration * 60
}
