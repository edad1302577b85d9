package session

import (
	"time"
)

// Phase classifies an assessment's availability window.
type Phase string

const (
	PhaseUpcoming Phase = "UPCOMING"
	PhaseActive   Phase = "ACTIVE"
	PhaseEnded    Phase = "ENDED"
)

// Classify returns the window phase for the given instant. Pure function,
// boundary-inclusive: the window is Active iff openAt <= now <= closeAt.
func Classify(openAt, closeAt, now time.Time) Phase {
	if now.Before(openAt) {
		return PhaseUpcoming
	}
	if now.After(closeAt) {
		return PhaseEnded
	}
	return PhaseActive
}
