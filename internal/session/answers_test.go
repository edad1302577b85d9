package session

import (
	"testing"

	"github.com/stjoseph/assessment-gateway/internal/model"
)

func TestNewAnswerSetStartsUnanswered(t *testing.T) {
	set := NewAnswerSet(4)
	if len(set) != 4 {
		t.Fatalf("len = %d, want 4", len(set))
	}
	if got := set.UnansweredCount(); got != 4 {
		t.Errorf("UnansweredCount() = %d, want 4", got)
	}
}

func TestAnswerSetSet(t *testing.T) {
	set := NewAnswerSet(3)

	if err := set.Set(1, 2); err != nil {
		t.Fatalf("Set(1, 2) = %v", err)
	}
	if set[1] != 2 {
		t.Errorf("set[1] = %d, want 2", set[1])
	}
	if got := set.UnansweredCount(); got != 2 {
		t.Errorf("UnansweredCount() = %d, want 2", got)
	}

	// Overwriting a slot keeps the count stable.
	if err := set.Set(1, 0); err != nil {
		t.Fatalf("Set(1, 0) = %v", err)
	}
	if got := set.UnansweredCount(); got != 2 {
		t.Errorf("UnansweredCount() after overwrite = %d, want 2", got)
	}

	if err := set.Set(-1, 0); err != ErrOutOfRange {
		t.Errorf("Set(-1, 0) = %v, want ErrOutOfRange", err)
	}
	if err := set.Set(3, 0); err != ErrOutOfRange {
		t.Errorf("Set(3, 0) = %v, want ErrOutOfRange", err)
	}
}

func TestAnswerSetPairs(t *testing.T) {
	set := NewAnswerSet(3)
	set.Set(0, 1)
	set.Set(2, 0)

	pairs := set.Pairs()
	want := []model.AnswerPair{
		{QuestionIndex: 0, SelectedAnswer: 1},
		{QuestionIndex: 1, SelectedAnswer: model.SelectedNone},
		{QuestionIndex: 2, SelectedAnswer: 0},
	}

	if len(pairs) != len(want) {
		t.Fatalf("len(pairs) = %d, want %d", len(pairs), len(want))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %+v, want %+v", i, pairs[i], want[i])
		}
	}
}
