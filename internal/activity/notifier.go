// Package activity publishes best-effort activity events. Delivery failures
// never surface to the student or affect session transitions.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/config"
	"github.com/stjoseph/assessment-gateway/internal/session"
)

// EventAssessmentCompleted is the activity type logged on session completion.
const EventAssessmentCompleted = "ASSESSMENT_COMPLETED"

// Event is the queued activity payload.
type Event struct {
	ID           string    `json:"id"`
	UserID       int       `json:"user_id"`
	Type         string    `json:"type"`
	AssessmentID string    `json:"assessment_id"`
	Message      string    `json:"message"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Notifier enqueues activity events onto a Redis queue for the activity
// worker to persist. Implements session.Notifier.
type Notifier struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewNotifier creates a new Notifier.
func NewNotifier(rdb *redis.Client, log zerolog.Logger) *Notifier {
	return &Notifier{
		rdb: rdb,
		log: log.With().Str("component", "activity_notifier").Logger(),
	}
}

// AssessmentCompleted records that a student finished an assessment.
// Fire-and-forget: enqueue errors are logged for diagnostics and swallowed.
func (n *Notifier) AssessmentCompleted(ctx context.Context, info session.CompletionInfo) {
	event := Event{
		ID:           uuid.New().String(),
		UserID:       info.UserID,
		Type:         EventAssessmentCompleted,
		AssessmentID: info.AssessmentID,
		Message:      "Completed assessment: " + info.Title,
		OccurredAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Warn().Err(err).Msg("Encode activity event failed")
		return
	}

	if err := n.rdb.RPush(ctx, config.WorkerKey.ActivityQueue, payload).Err(); err != nil {
		n.log.Warn().Err(err).Int("user_id", info.UserID).Msg("Activity enqueue failed")
	}
}
