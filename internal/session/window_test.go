package session

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	openAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	closeAt := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"well before open", openAt.Add(-time.Hour), PhaseUpcoming},
		{"one second before open", openAt.Add(-time.Second), PhaseUpcoming},
		{"exactly at open", openAt, PhaseActive},
		{"mid window", openAt.Add(30 * time.Minute), PhaseActive},
		{"exactly at close", closeAt, PhaseActive},
		{"one second after close", closeAt.Add(time.Second), PhaseEnded},
		{"well after close", closeAt.Add(time.Hour), PhaseEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(openAt, closeAt, tt.now); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyZeroLengthWindow(t *testing.T) {
	instant := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if got := Classify(instant, instant, instant); got != PhaseActive {
		t.Errorf("Classify() = %v, want %v", got, PhaseActive)
	}
}
