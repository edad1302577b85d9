package ledger

import (
	"context"
	"sync"
)

// MemoryLedger is an in-process Ledger. Used in tests and as a fallback
// when no Redis is configured; it does not survive a restart.
type MemoryLedger struct {
	mu        sync.Mutex
	completed map[int]map[string]struct{}
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{completed: make(map[int]map[string]struct{})}
}

func (l *MemoryLedger) IsCompleted(_ context.Context, userID int, assessmentID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.completed[userID][assessmentID]
	return ok, nil
}

func (l *MemoryLedger) MarkCompleted(_ context.Context, userID int, assessmentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.completed[userID]
	if !ok {
		set = make(map[string]struct{})
		l.completed[userID] = set
	}
	set[assessmentID] = struct{}{}
	return nil
}

func (l *MemoryLedger) CompletedIDs(_ context.Context, userID int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.completed[userID]))
	for id := range l.completed[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}
