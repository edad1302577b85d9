package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/config"
	"github.com/stjoseph/assessment-gateway/internal/session"
)

// ResultEnqueuer queues completed session results for the ResultWorker.
// Implements session.Notifier so archiving rides the completion event;
// enqueue failures are logged and swallowed, never surfaced to the student.
type ResultEnqueuer struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewResultEnqueuer creates a new ResultEnqueuer.
func NewResultEnqueuer(rdb *redis.Client, log zerolog.Logger) *ResultEnqueuer {
	return &ResultEnqueuer{
		rdb: rdb,
		log: log.With().Str("component", "result_enqueuer").Logger(),
	}
}

func (e *ResultEnqueuer) AssessmentCompleted(ctx context.Context, info session.CompletionInfo) {
	payload := ResultPayload{
		UserID:       info.UserID,
		AssessmentID: info.AssessmentID,
		Title:        info.Title,
		Score:        info.Result.Score,
		TotalMarks:   info.Result.TotalMarks,
		Percentage:   info.Result.Percentage,
		StartedAt:    info.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:   info.FinishedAt.UTC().Format(time.RFC3339),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		e.log.Warn().Err(err).Msg("Encode result payload failed")
		return
	}

	if err := e.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		e.log.Warn().Err(err).
			Int("user_id", info.UserID).
			Str("assessment_id", info.AssessmentID).
			Msg("Result enqueue failed")
	}
}
