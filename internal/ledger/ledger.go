// Package ledger records which assessments a student has already finished.
// The record is a best-effort, same-profile guard against re-entry; the
// grading platform remains the authority on completion.
package ledger

import (
	"context"
)

// Ledger is the completion record. MarkCompleted is idempotent: recording
// an already-present assessment ID is a no-op.
type Ledger interface {
	IsCompleted(ctx context.Context, userID int, assessmentID string) (bool, error)
	MarkCompleted(ctx context.Context, userID int, assessmentID string) error
	CompletedIDs(ctx context.Context, userID int) ([]string, error)
}
