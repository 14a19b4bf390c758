package services

import (
	"testing"
	"time"
)

func TestScoreInstantCorrectAnswer(t *testing.T) {
	if got := Score(1, 1, 0); got != 1000 {
		t.Errorf("Expected 1000 points for an instant correct answer, got %d", got)
	}
}

func TestScoreJustBeforeDeadline(t *testing.T) {
	// 10ms before a 10s limit still earns at least one point.
	if got := Score(2, 2, 9990*time.Millisecond); got < 1 {
		t.Errorf("Expected at least 1 point, got %d", got)
	}
}

func TestScoreLatencyPenalty(t *testing.T) {
	if got := Score(0, 0, 200*time.Millisecond); got != 980 {
		t.Errorf("Expected 980 points at 200ms, got %d", got)
	}
	if got := Score(0, 0, 5*time.Second); got != 500 {
		t.Errorf("Expected 500 points at 5s, got %d", got)
	}
}

func TestScoreFloorsAtZero(t *testing.T) {
	if got := Score(1, 1, time.Minute); got != 0 {
		t.Errorf("Expected score floored at 0, got %d", got)
	}
}

func TestScoreIncorrectAnswer(t *testing.T) {
	for _, elapsed := range []time.Duration{0, 50 * time.Millisecond, time.Hour} {
		if got := Score(0, 1, elapsed); got != 0 {
			t.Errorf("Expected 0 points for an incorrect answer at %v, got %d", elapsed, got)
		}
	}
}
