package trading

import (
	"time"
)

// responseBucket maps a latency to a 1-10 responsiveness score. The scale is
// coarse on purpose: anything inside an hour is perfect, anything past four
// days is the floor.
func responseBucket(d time.Duration) int {
	switch {
	case d <= time.Hour:
		return 10
	case d <= 3*time.Hour:
		return 9
	case d <= 6*time.Hour:
		return 8
	case d <= 12*time.Hour:
		return 7
	case d <= 24*time.Hour:
		return 6
	case d <= 48*time.Hour:
		return 4
	case d <= 72*time.Hour:
		return 3
	case d <= 96*time.Hour:
		return 2
	default:
		return 1
	}
}

// ResponseScore scores a completed trade's pace: the average of how fast the
// request was accepted and how fast the open trade was wrapped up, rounded
// half to even, never below 1.
func ResponseScore(createdAt, acceptedAt, closedAt time.Time) int {
	acceptScore := responseBucket(acceptedAt.Sub(createdAt))
	completeScore := responseBucket(closedAt.Sub(acceptedAt))

	sum := acceptScore + completeScore
	score := sum / 2
	if sum%2 != 0 && score%2 != 0 {
		score++
	}
	if score < 1 {
		return 1
	}
	return score
}
