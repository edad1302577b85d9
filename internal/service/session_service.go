package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/ledger"
	"github.com/stjoseph/assessment-gateway/internal/model"
	"github.com/stjoseph/assessment-gateway/internal/session"
)

// Registry errors.
var (
	// ErrNoActiveSession: the student has no session to operate on.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSessionActive: a session is already running; exactly one may be
	// active per student at a time.
	ErrSessionActive = errors.New("an assessment session is already active")
)

// SessionService owns the per-student session registry and wires each new
// session to its collaborators.
type SessionService struct {
	mu       sync.Mutex
	sessions map[int]*session.Session

	assessments *AssessmentService
	ledger      ledger.Ledger
	grader      session.Grader
	notifiers   []session.Notifier
	timer       session.TimerFactory
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService. timer may be nil to use
// the real countdown; notifiers fan out completion events (activity log,
// result archive).
func NewSessionService(
	assessments *AssessmentService,
	ldg ledger.Ledger,
	grader session.Grader,
	timer session.TimerFactory,
	log zerolog.Logger,
	notifiers ...session.Notifier,
) *SessionService {
	return &SessionService{
		sessions:    make(map[int]*session.Session),
		assessments: assessments,
		ledger:      ldg,
		grader:      grader,
		notifiers:   notifiers,
		timer:       timer,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// Start begins a session for the given assessment, enforcing the
// one-active-session-per-student rule on top of the engine's own guards.
func (s *SessionService) Start(ctx context.Context, token string, userID int, assessmentID string) (session.Snapshot, error) {
	s.mu.Lock()
	if existing, ok := s.sessions[userID]; ok {
		switch existing.State() {
		case session.StateInProgress, session.StateSubmitting:
			s.mu.Unlock()
			return session.Snapshot{}, ErrSessionActive
		default:
			// Completed or closed leftovers are replaced.
			existing.Close()
			delete(s.sessions, userID)
		}
	}
	s.mu.Unlock()

	a, err := s.assessments.GetAssessment(ctx, token, userID, assessmentID)
	if err != nil {
		return session.Snapshot{}, err
	}

	sess, err := session.Start(ctx, userID, token, a, time.Now(), session.Deps{
		Ledger:   s.ledger,
		Grader:   s.grader,
		Notifier: fanout(s.notifiers),
		Timer:    s.timer,
		Log:      s.log,
	})
	if err != nil {
		return session.Snapshot{}, err
	}

	// The lock was released across the upstream fetch, so a concurrent
	// Start may have registered a session in the meantime. Re-check before
	// registering; the loser's countdown must not keep ticking toward an
	// auto-submit nobody can reach.
	s.mu.Lock()
	if existing, ok := s.sessions[userID]; ok {
		switch existing.State() {
		case session.StateInProgress, session.StateSubmitting:
			s.mu.Unlock()
			sess.Close()
			return session.Snapshot{}, ErrSessionActive
		default:
			existing.Close()
		}
	}
	s.sessions[userID] = sess
	s.mu.Unlock()

	return sess.Snapshot(), nil
}

// Get returns the student's live session.
func (s *SessionService) Get(userID int) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

// Snapshot returns the observable state of the student's session.
func (s *SessionService) Snapshot(userID int) (session.Snapshot, error) {
	sess, err := s.Get(userID)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Paper returns the full assessment (questions included) for the
// student's active session. Requiring a session prevents fetching papers
// for assessments that were never started.
func (s *SessionService) Paper(userID int) (*model.Assessment, error) {
	sess, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	return sess.Assessment(), nil
}

// Navigate moves the session cursor.
func (s *SessionService) Navigate(userID, index int) error {
	sess, err := s.Get(userID)
	if err != nil {
		return err
	}
	return sess.Navigate(index)
}

// Answer records a selection.
func (s *SessionService) Answer(userID, index, option int) error {
	sess, err := s.Get(userID)
	if err != nil {
		return err
	}
	return sess.Answer(index, option)
}

// Submit runs the manual submission path. A fatal credential failure tears
// the session out of the registry so re-authentication starts clean.
func (s *SessionService) Submit(ctx context.Context, userID int, force bool) (*model.SubmissionResult, error) {
	sess, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	result, err := sess.Submit(ctx, force)
	if err != nil {
		var ge *session.GradingError
		if errors.As(err, &ge) && ge.IsFatal() {
			s.remove(userID)
		}
		return nil, err
	}
	return result, nil
}

// Result returns the grading outcome of a completed session.
func (s *SessionService) Result(userID int) (*model.SubmissionResult, error) {
	sess, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	result, ok := sess.Result()
	if !ok {
		return nil, ErrNoActiveSession
	}
	return result, nil
}

// Close abandons or dismisses the student's session.
func (s *SessionService) Close(userID int) error {
	sess, err := s.Get(userID)
	if err != nil {
		return err
	}
	sess.Close()
	s.remove(userID)
	return nil
}

// ActiveCount reports how many sessions are currently registered.
func (s *SessionService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) remove(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// fanout multiplexes completion events to every configured notifier.
type fanout []session.Notifier

func (f fanout) AssessmentCompleted(ctx context.Context, info session.CompletionInfo) {
	for _, n := range f {
		n.AssessmentCompleted(ctx, info)
	}
}
