package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/ledger"
	"github.com/stjoseph/assessment-gateway/internal/model"
	"github.com/stjoseph/assessment-gateway/internal/session"
)

// blockingLister parks every listing call until release is closed, so tests
// can hold multiple Start calls inside the upstream fetch at once.
type blockingLister struct {
	entered chan struct{}
	release chan struct{}
	listing []model.Assessment
}

func (l *blockingLister) ListAssessments(ctx context.Context, token string) ([]model.Assessment, error) {
	l.entered <- struct{}{}
	<-l.release
	return l.listing, nil
}

// recordingTimerFactory tracks every countdown handed out and whether it
// was stopped.
type recordingTimerFactory struct {
	mu     sync.Mutex
	timers []*recordedTimer
}

type recordedTimer struct {
	mu      sync.Mutex
	stopped bool
}

func (t *recordedTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *recordedTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (f *recordingTimerFactory) new(seconds int, onTick func(int), onExpire func()) session.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	timer := &recordedTimer{}
	f.timers = append(f.timers, timer)
	return timer
}

func (f *recordingTimerFactory) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	live := 0
	for _, t := range f.timers {
		if !t.isStopped() {
			live++
		}
	}
	return live
}

type staticGrader struct{}

func (staticGrader) Grade(ctx context.Context, token, assessmentID string, sub model.Submission) (*model.SubmissionResult, error) {
	return &model.SubmissionResult{Score: 1, TotalMarks: 1, Percentage: 100}, nil
}

func activeAssessment() model.Assessment {
	now := time.Now()
	return model.Assessment{
		ID:         "a-1",
		Title:      "Algebra Quiz",
		StartTime:  now.Add(-time.Hour),
		EndTime:    now.Add(time.Hour),
		Duration:   30,
		TotalMarks: 1,
		Questions: []model.Question{
			{Prompt: "Q1", Options: []string{"a", "b"}},
		},
	}
}

func TestStartConcurrentSameStudentRegistersOneSession(t *testing.T) {
	lister := &blockingLister{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
		listing: []model.Assessment{activeAssessment()},
	}
	factory := &recordingTimerFactory{}

	assessments := NewAssessmentService(lister, nil, ledger.NewMemoryLedger(), nil, time.Minute, zerolog.Nop())
	svc := NewSessionService(assessments, ledger.NewMemoryLedger(), staticGrader{}, factory.new, zerolog.Nop())

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Start(context.Background(), "token", 7, "a-1")
			errs <- err
		}()
	}

	// Hold both Start calls inside the upstream fetch, past the initial
	// registry check, then let them race to register.
	<-lister.entered
	<-lister.entered
	close(lister.release)
	wg.Wait()
	close(errs)

	var successes, rejected int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrSessionActive):
			rejected++
		default:
			t.Fatalf("unexpected Start error: %v", err)
		}
	}

	if successes != 1 || rejected != 1 {
		t.Fatalf("successes = %d, rejected = %d; want 1 and 1", successes, rejected)
	}
	if got := svc.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() = %d, want 1", got)
	}
	// The losing session must be fully torn down: no orphaned countdown
	// left ticking toward an unreachable auto-submit.
	if got := factory.liveCount(); got != 1 {
		t.Errorf("live countdowns = %d, want 1", got)
	}
}

func TestStartRejectsSecondSessionWhileInProgress(t *testing.T) {
	lister := &blockingLister{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
		listing: []model.Assessment{activeAssessment()},
	}
	close(lister.release) // no blocking needed here
	factory := &recordingTimerFactory{}

	assessments := NewAssessmentService(lister, nil, ledger.NewMemoryLedger(), nil, time.Minute, zerolog.Nop())
	svc := NewSessionService(assessments, ledger.NewMemoryLedger(), staticGrader{}, factory.new, zerolog.Nop())

	if _, err := svc.Start(context.Background(), "token", 7, "a-1"); err != nil {
		t.Fatalf("first Start() = %v", err)
	}

	// The in-progress session must short-circuit the second attempt before
	// any upstream fetch happens.
	_, err := svc.Start(context.Background(), "token", 7, "a-1")
	if !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second Start() = %v, want ErrSessionActive", err)
	}
	if got := svc.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() = %d, want 1", got)
	}
}
