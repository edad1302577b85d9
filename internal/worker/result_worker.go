package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/config"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker archives completed session results to PostgreSQL in batches,
// so the submit path never blocks on the database.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

// ResultPayload is the queued archive record for one completed session.
type ResultPayload struct {
	UserID       int     `json:"user_id"`
	AssessmentID string  `json:"assessment_id"`
	Title        string  `json:"title"`
	Score        int     `json:"score"`
	TotalMarks   int     `json:"total_marks"`
	Percentage   float64 `json:"percentage"`
	StartedAt    string  `json:"started_at"`
	FinishedAt   string  `json:"finished_at"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*ResultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p ResultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*ResultPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertResults(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk result insert failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
	}
}

// ----------------------------------------------------------------
// BULK PostgreSQL INSERT using UNNEST + alias
// ----------------------------------------------------------------

func (w *ResultWorker) bulkInsertResults(ctx context.Context, batch []*ResultPayload) error {
	n := len(batch)

	users := make([]int, 0, n)
	assessments := make([]string, 0, n)
	titles := make([]string, 0, n)
	scores := make([]int, 0, n)
	totals := make([]int, 0, n)
	percentages := make([]float64, 0, n)
	startedAts := make([]string, 0, n)
	finishedAts := make([]string, 0, n)

	for _, p := range batch {
		users = append(users, p.UserID)
		assessments = append(assessments, p.AssessmentID)
		titles = append(titles, p.Title)
		scores = append(scores, p.Score)
		totals = append(totals, p.TotalMarks)
		percentages = append(percentages, p.Percentage)
		startedAts = append(startedAts, p.StartedAt)
		finishedAts = append(finishedAts, p.FinishedAt)
	}

	query := `
		INSERT INTO assessment_results
			(user_id, assessment_id, title, score, total_marks, percentage, started_at, finished_at)
		SELECT
			u.user_id,
			u.assessment_id,
			u.title,
			u.score,
			u.total_marks,
			u.percentage,
			u.started_at::timestamptz,
			u.finished_at::timestamptz
		FROM UNNEST(
			$1::int[],
			$2::text[],
			$3::text[],
			$4::int[],
			$5::int[],
			$6::float8[],
			$7::text[],
			$8::text[]
		) AS u (user_id, assessment_id, title, score, total_marks, percentage, started_at, finished_at)
		ON CONFLICT (user_id, assessment_id) DO NOTHING
	`

	_, err := w.pool.Exec(ctx, query, users, assessments, titles, scores, totals, percentages, startedAts, finishedAts)
	return err
}

// ----------------------------------------------------------------
// FALLBACK single insert
// ----------------------------------------------------------------

func (w *ResultWorker) persistSingle(ctx context.Context, p *ResultPayload) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO assessment_results
			(user_id, assessment_id, title, score, total_marks, percentage, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::timestamptz, $8::timestamptz)
		 ON CONFLICT (user_id, assessment_id) DO NOTHING`,
		p.UserID, p.AssessmentID, p.Title, p.Score, p.TotalMarks, p.Percentage, p.StartedAt, p.FinishedAt,
	)
	return err
}
