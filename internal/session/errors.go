package session

import (
	"errors"
	"fmt"
)

// Start-time guard failures. Non-fatal: they block entry and nothing else.
var (
	ErrNotOpenYet       = errors.New("assessment has not started yet")
	ErrWindowClosed     = errors.New("assessment has ended")
	ErrAlreadyCompleted = errors.New("assessment already completed")
)

// In-session failures.
var (
	// ErrOutOfRange indicates an index outside the valid question or
	// option range. The normal UI never produces this.
	ErrOutOfRange = errors.New("index out of range")

	// ErrNotInProgress is returned when an operation requires an
	// in-progress session (e.g. after completion or close).
	ErrNotInProgress = errors.New("session is not in progress")

	// ErrSubmissionInFlight is returned when a submit trigger arrives
	// while a submission is already awaiting the grading platform.
	ErrSubmissionInFlight = errors.New("submission already in flight")
)

// UnansweredError signals that a manual submit needs user confirmation
// because some questions have no selection. The session state is unchanged
// and the countdown keeps running.
type UnansweredError struct {
	Count int
}

func (e *UnansweredError) Error() string {
	return fmt.Sprintf("%d unanswered question(s)", e.Count)
}

// FailureKind classifies a grading submission failure.
type FailureKind string

const (
	// FailureValidation: the platform rejected the payload shape.
	// Recoverable — the session returns to in-progress with answers intact.
	FailureValidation FailureKind = "VALIDATION"
	// FailureAuth: expired or invalid credential. Fatal — the session is
	// torn down and the caller must re-authenticate.
	FailureAuth FailureKind = "AUTH"
	// FailureTransient: network or server fault. Recoverable via manual retry.
	FailureTransient FailureKind = "TRANSIENT"
	// FailureMalformed: the platform responded, but not with a well-formed
	// result. Treated like a transient failure.
	FailureMalformed FailureKind = "MALFORMED"
)

// GradingError is a classified failure from the grading platform.
type GradingError struct {
	Kind    FailureKind
	Message string
	Status  int // HTTP status when applicable, 0 otherwise
}

func (e *GradingError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("grading %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("grading %s", e.Kind)
}

// IsFatal reports whether the failure must tear the session down.
func (e *GradingError) IsFatal() bool {
	return e.Kind == FailureAuth
}
