package ledger

import (
	"context"
	"sort"
	"testing"
)

func TestMemoryLedgerMarkAndCheck(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	completed, err := l.IsCompleted(ctx, 7, "a-1")
	if err != nil {
		t.Fatalf("IsCompleted() = %v", err)
	}
	if completed {
		t.Error("new ledger reports completion")
	}

	if err := l.MarkCompleted(ctx, 7, "a-1"); err != nil {
		t.Fatalf("MarkCompleted() = %v", err)
	}

	completed, err = l.IsCompleted(ctx, 7, "a-1")
	if err != nil || !completed {
		t.Errorf("IsCompleted() = %v, %v; want true, nil", completed, err)
	}

	// Other students are unaffected.
	completed, _ = l.IsCompleted(ctx, 8, "a-1")
	if completed {
		t.Error("completion leaked across students")
	}
}

func TestMemoryLedgerMarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	for i := 0; i < 3; i++ {
		if err := l.MarkCompleted(ctx, 7, "a-1"); err != nil {
			t.Fatalf("MarkCompleted() #%d = %v", i, err)
		}
	}
	l.MarkCompleted(ctx, 7, "a-2")

	ids, err := l.CompletedIDs(ctx, 7)
	if err != nil {
		t.Fatalf("CompletedIDs() = %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "a-1" || ids[1] != "a-2" {
		t.Errorf("CompletedIDs() = %v, want [a-1 a-2]", ids)
	}
}
