package trading

import (
	"testing"
	"time"
)

func TestResponseBucket(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want int
	}{
		{name: "instant", d: 0, want: 10},
		{name: "one hour boundary", d: time.Hour, want: 10},
		{name: "just past one hour", d: time.Hour + time.Minute, want: 9},
		{name: "three hours", d: 3 * time.Hour, want: 9},
		{name: "six hours", d: 6 * time.Hour, want: 8},
		{name: "twelve hours", d: 12 * time.Hour, want: 7},
		{name: "one day", d: 24 * time.Hour, want: 6},
		{name: "two days", d: 48 * time.Hour, want: 4},
		{name: "three days", d: 72 * time.Hour, want: 3},
		{name: "four days", d: 96 * time.Hour, want: 2},
		{name: "a week", d: 7 * 24 * time.Hour, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := responseBucket(tt.d); got != tt.want {
				t.Errorf("responseBucket(%v) = %d, want %d", tt.d, got, tt.want)
			}
		})
	}
}

func TestResponseScore(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		accepted time.Duration
		closed   time.Duration
		want     int
	}{
		{name: "fast both ways", accepted: 30 * time.Minute, closed: 45 * time.Minute, want: 10},
		{name: "fast accept slow close", accepted: 30 * time.Minute, closed: 5 * 24 * time.Hour, want: 6},
		{name: "slow both ways", accepted: 5 * 24 * time.Hour, closed: 5 * 24 * time.Hour, want: 1},
		{name: "half rounds down to even", accepted: 2 * time.Hour, closed: 30 * time.Hour, want: 6},
		{name: "half rounds down to even high", accepted: 2 * time.Hour, closed: 4 * time.Hour, want: 8},
		{name: "half rounds up to even", accepted: 30 * time.Minute, closed: 2 * time.Hour, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acceptedAt := base.Add(tt.accepted)
			closedAt := acceptedAt.Add(tt.closed)
			if got := ResponseScore(base, acceptedAt, closedAt); got != tt.want {
				t.Errorf("ResponseScore = %d, want %d", got, tt.want)
			}
		})
	}
}
