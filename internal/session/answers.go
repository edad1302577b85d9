package session

import (
	"github.com/stjoseph/assessment-gateway/internal/model"
)

// Unanswered marks a question slot with no selection yet.
const Unanswered = -1

// AnswerSet holds one selected option index per question. Its length is
// fixed at session start and always equals the assessment's question count.
type AnswerSet []int

// NewAnswerSet returns an AnswerSet of the given length, all slots unanswered.
func NewAnswerSet(questionCount int) AnswerSet {
	set := make(AnswerSet, questionCount)
	for i := range set {
		set[i] = Unanswered
	}
	return set
}

// Set records the selected option for one question slot.
func (a AnswerSet) Set(index, option int) error {
	if index < 0 || index >= len(a) {
		return ErrOutOfRange
	}
	a[index] = option
	return nil
}

// UnansweredCount returns how many slots have no selection yet.
func (a AnswerSet) UnansweredCount() int {
	count := 0
	for _, v := range a {
		if v == Unanswered {
			count++
		}
	}
	return count
}

// Pairs converts the set into the ordered submission payload entries.
func (a AnswerSet) Pairs() []model.AnswerPair {
	pairs := make([]model.AnswerPair, len(a))
	for i, v := range a {
		selected := v
		if v == Unanswered {
			selected = model.SelectedNone
		}
		pairs[i] = model.AnswerPair{QuestionIndex: i, SelectedAnswer: selected}
	}
	return pairs
}
