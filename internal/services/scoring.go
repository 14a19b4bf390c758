package services

import "time"

// Score returns the points one answer earns: 1000 minus one point per
// 10ms of latency for a correct answer, floored at zero; incorrect
// answers earn nothing regardless of timing.
func Score(answerIndex, correct int, elapsed time.Duration) int {
	if answerIndex != correct {
		return 0
	}
	points := 1000 - int(elapsed.Milliseconds()/10)
	if points < 0 {
		points = 0
	}
	return points
}
