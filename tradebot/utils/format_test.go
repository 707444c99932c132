package utils

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "now"},
		{name: "negative", d: -time.Hour, want: "now"},
		{name: "seconds", d: 30 * time.Second, want: "less than a minute"},
		{name: "minutes", d: 12 * time.Minute, want: "12m"},
		{name: "whole hours", d: 5 * time.Hour, want: "5h"},
		{name: "hours and minutes", d: 5*time.Hour + 30*time.Minute, want: "5h 30m"},
		{name: "whole days", d: 48 * time.Hour, want: "2d"},
		{name: "days and hours", d: 51 * time.Hour, want: "2d 3h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
