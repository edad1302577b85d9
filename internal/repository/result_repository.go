package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ArchivedResult is one completed session as stored in the archive.
type ArchivedResult struct {
	UserID       int       `json:"user_id"`
	AssessmentID string    `json:"assessment_id"`
	Title        string    `json:"title"`
	Score        int       `json:"score"`
	TotalMarks   int       `json:"total_marks"`
	Percentage   float64   `json:"percentage"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// ResultRepository reads the completed-session archive.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// ListByUser returns a student's archived results, most recent first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID int) ([]ArchivedResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, assessment_id, title, score, total_marks, percentage, started_at, finished_at
		 FROM assessment_results
		 WHERE user_id = $1
		 ORDER BY finished_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ArchivedResult
	for rows.Next() {
		var res ArchivedResult
		if err := rows.Scan(&res.UserID, &res.AssessmentID, &res.Title, &res.Score,
			&res.TotalMarks, &res.Percentage, &res.StartedAt, &res.FinishedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// CompletedIDs returns the assessment IDs a student has archived results
// for. Used to reconcile the completion ledger at lobby load.
func (r *ResultRepository) CompletedIDs(ctx context.Context, userID int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT assessment_id FROM assessment_results WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
