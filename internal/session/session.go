// Package session implements the timed assessment-taking engine: a guarded
// state machine that gates entry by the availability window and the
// completion ledger, runs a one-second countdown, collects answers across
// navigable questions, and submits to the grading platform exactly once per
// session even when a manual submit races the countdown's expiry.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/ledger"
	"github.com/stjoseph/assessment-gateway/internal/model"
	"github.com/stjoseph/assessment-gateway/internal/monitoring"
)

// State enumerates the session lifecycle.
type State string

const (
	StateIdle       State = "IDLE"
	StateInProgress State = "IN_PROGRESS"
	StateSubmitting State = "SUBMITTING"
	StateCompleted  State = "COMPLETED"
)

// Trigger identifies what raised a submit.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerExpiry Trigger = "expiry"
)

// Grader submits a finished session's answers to the grading platform.
// Called at most once per session; the state machine enforces that, not
// the implementation.
type Grader interface {
	Grade(ctx context.Context, token, assessmentID string, sub model.Submission) (*model.SubmissionResult, error)
}

// CompletionInfo describes a successfully completed session.
type CompletionInfo struct {
	UserID       int
	AssessmentID string
	Title        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Result       *model.SubmissionResult
}

// Notifier receives best-effort completion events. Implementations must
// never fail the completed transition; errors are logged and swallowed.
type Notifier interface {
	AssessmentCompleted(ctx context.Context, info CompletionInfo)
}

// Deps are the collaborators a session needs. Timer defaults to the real
// StartCountdown factory when nil; Notifier may be nil.
type Deps struct {
	Ledger   ledger.Ledger
	Grader   Grader
	Notifier Notifier
	Timer    TimerFactory
	Log      zerolog.Logger
}

// Session is one student's attempt at one assessment. All mutation funnels
// through the mutex; the countdown goroutine and request handlers never
// touch state without it.
type Session struct {
	mu sync.Mutex

	userID     int
	token      string
	assessment *model.Assessment

	state     State
	answers   AnswerSet
	cursor    int
	remaining int
	startedAt time.Time
	timer     Handle
	result    *model.SubmissionResult
	closed    bool

	deps Deps
	log  zerolog.Logger
}

// Snapshot is a point-in-time view of the session for state endpoints and
// the WebSocket stream.
type Snapshot struct {
	AssessmentID     string    `json:"assessment_id"`
	Title            string    `json:"title"`
	State            State     `json:"state"`
	Cursor           int       `json:"cursor"`
	QuestionCount    int       `json:"question_count"`
	Answers          []int     `json:"answers"`
	RemainingSeconds int       `json:"remaining_seconds"`
	UnansweredCount  int       `json:"unanswered_count"`
	StartedAt        time.Time `json:"started_at"`
}

// Start guards entry and, on success, returns an in-progress session with
// the countdown already ticking. The remaining time is capped by both the
// duration limit and the window close.
func Start(ctx context.Context, userID int, token string, a *model.Assessment, now time.Time, deps Deps) (*Session, error) {
	completed, err := deps.Ledger.IsCompleted(ctx, userID, a.ID)
	if err != nil {
		// The ledger is a best-effort guard; a read failure must not
		// lock students out. The upstream platform still rejects true
		// duplicates.
		deps.Log.Warn().Err(err).Str("assessment_id", a.ID).Msg("Completion check failed, allowing start")
	} else if completed {
		return nil, ErrAlreadyCompleted
	}

	switch Classify(a.StartTime, a.EndTime, now) {
	case PhaseUpcoming:
		return nil, ErrNotOpenYet
	case PhaseEnded:
		return nil, ErrWindowClosed
	}

	remaining := a.DurationSeconds()
	if window := int(a.EndTime.Sub(now) / time.Second); window < remaining {
		remaining = window
	}

	if deps.Timer == nil {
		deps.Timer = StartCountdown
	}

	s := &Session{
		userID:     userID,
		token:      token,
		assessment: a,
		state:      StateInProgress,
		answers:    NewAnswerSet(len(a.Questions)),
		remaining:  remaining,
		startedAt:  now,
		deps:       deps,
		log: deps.Log.With().
			Str("component", "session").
			Int("user_id", userID).
			Str("assessment_id", a.ID).
			Logger(),
	}
	s.timer = deps.Timer(remaining, s.onTick, s.onExpire)

	s.log.Info().Int("remaining_seconds", remaining).Msg("Session started")
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Assessment returns the read-only assessment definition for this session.
func (s *Session) Assessment() *model.Assessment {
	return s.assessment
}

// Result returns the grading outcome once the session has completed.
func (s *Session) Result() (*model.SubmissionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.result != nil
}

// Snapshot returns a copy of the observable session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make([]int, len(s.answers))
	copy(answers, s.answers)

	return Snapshot{
		AssessmentID:     s.assessment.ID,
		Title:            s.assessment.Title,
		State:            s.state,
		Cursor:           s.cursor,
		QuestionCount:    len(s.assessment.Questions),
		Answers:          answers,
		RemainingSeconds: s.remaining,
		UnansweredCount:  s.answers.UnansweredCount(),
		StartedAt:        s.startedAt,
	}
}

// Navigate moves the question cursor. Any valid index is reachable; there
// is no forward-only restriction.
func (s *Session) Navigate(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(s.assessment.Questions) {
		return ErrOutOfRange
	}
	s.cursor = index
	return nil
}

// Answer records the selected option for the question at the given index.
func (s *Session) Answer(index, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(s.assessment.Questions) {
		return ErrOutOfRange
	}
	if option < 0 || option >= len(s.assessment.Questions[index].Options) {
		return ErrOutOfRange
	}
	return s.answers.Set(index, option)
}

// Submit runs the manual submission path. Without force, unanswered slots
// surface as an UnansweredError so the caller can confirm first; the
// session stays in progress and the countdown keeps running.
func (s *Session) Submit(ctx context.Context, force bool) (*model.SubmissionResult, error) {
	return s.submit(ctx, TriggerManual, force)
}

// Close abandons the session (or dismisses a completed one). The countdown
// is stopped so a stray expiry can never fire into discarded state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.stopTimerLocked()
	s.state = StateIdle
}

// onTick runs on the countdown goroutine once per second.
func (s *Session) onTick(remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.remaining = remaining
}

// onExpire runs on the countdown goroutine when the clock hits zero. The
// expiry path bypasses the unanswered-questions confirmation.
func (s *Session) onExpire() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.submit(ctx, TriggerExpiry, true); err != nil {
		// ErrNotInProgress here means a manual submit won the race or
		// the session was closed; both are expected, not failures.
		if !errors.Is(err, ErrNotInProgress) && !errors.Is(err, ErrSubmissionInFlight) {
			s.log.Error().Err(err).Msg("Expiry submission failed")
		}
	}
}

// submit is the sole InProgress -> Submitting transition. Both the manual
// and expiry triggers funnel through it, so the state check under the
// mutex is what makes the pipeline run at most once per session.
func (s *Session) submit(ctx context.Context, trigger Trigger, force bool) (*model.SubmissionResult, error) {
	s.mu.Lock()

	switch s.state {
	case StateCompleted:
		// Duplicate trigger after success: idempotent, hand back the result.
		result := s.result
		s.mu.Unlock()
		return result, nil
	case StateSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case StateInProgress:
	default:
		s.mu.Unlock()
		return nil, ErrNotInProgress
	}

	if trigger == TriggerManual && !force {
		if n := s.answers.UnansweredCount(); n > 0 {
			s.mu.Unlock()
			return nil, &UnansweredError{Count: n}
		}
	}

	s.state = StateSubmitting
	s.stopTimerLocked() // remaining stays at its last ticked value

	sub := model.Submission{
		Answers:   s.answers.Pairs(),
		StartedAt: s.startedAt.UTC().Format(time.RFC3339),
	}
	token := s.token
	assessmentID := s.assessment.ID
	s.mu.Unlock()

	// The only suspension point: awaiting the grading platform. The state
	// machine is parked in Submitting, so no other trigger gets past the
	// guard above and the countdown stays stopped.
	result, err := s.deps.Grader.Grade(ctx, token, assessmentID, sub)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		monitoring.SubmissionCounter.WithLabelValues(string(trigger), "failed").Inc()
		var ge *GradingError
		if errors.As(err, &ge) && ge.IsFatal() {
			s.log.Warn().Str("trigger", string(trigger)).Msg("Credential rejected, tearing session down")
			s.closed = true
			s.state = StateIdle
			return nil, err
		}

		// Retryable: roll back to InProgress with answers intact. The
		// countdown stays stopped; the remaining value is frozen at
		// whatever it was when submission began, and the only way
		// forward is a manual retry.
		s.log.Warn().Err(err).Str("trigger", string(trigger)).Msg("Submission failed, session recoverable")
		s.state = StateInProgress
		return nil, err
	}

	monitoring.SubmissionCounter.WithLabelValues(string(trigger), "completed").Inc()
	s.state = StateCompleted
	s.result = result

	if err := s.deps.Ledger.MarkCompleted(ctx, s.userID, assessmentID); err != nil {
		s.log.Warn().Err(err).Msg("Completion ledger write failed")
	}
	if s.deps.Notifier != nil {
		s.deps.Notifier.AssessmentCompleted(ctx, CompletionInfo{
			UserID:       s.userID,
			AssessmentID: assessmentID,
			Title:        s.assessment.Title,
			StartedAt:    s.startedAt,
			FinishedAt:   time.Now(),
			Result:       result,
		})
	}

	s.log.Info().
		Str("trigger", string(trigger)).
		Int("score", result.Score).
		Int("total_marks", result.TotalMarks).
		Msg("Session completed")

	return result, nil
}

// stopTimerLocked stops and releases the countdown handle. Caller holds s.mu.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
