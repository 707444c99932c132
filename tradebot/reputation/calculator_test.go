package reputation

import "testing"

func TestXP(t *testing.T) {
	tests := []struct {
		name     string
		positive int
		negative int
		want     int
	}{
		{name: "zero activity", positive: 0, negative: 0, want: 0},
		{name: "positives only", positive: 3, negative: 0, want: 30},
		{name: "mixed", positive: 5, negative: 10, want: 30},
		{name: "floors at zero", positive: 1, negative: 20, want: 0},
		{name: "negatives only", positive: 0, negative: 7, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := XP(tt.positive, tt.negative); got != tt.want {
				t.Errorf("XP(%d, %d) = %d, want %d", tt.positive, tt.negative, got, tt.want)
			}
		})
	}
}

func TestRequiredXP(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{level: 0, want: 0},
		{level: 1, want: 10},
		{level: 2, want: 30},
		{level: 3, want: 60},
		{level: 5, want: 150},
		{level: 200, want: 201000},
	}

	for _, tt := range tests {
		if got := RequiredXP(tt.level); got != tt.want {
			t.Errorf("RequiredXP(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name string
		xp   int
		want int
	}{
		{name: "zero", xp: 0, want: 0},
		{name: "just below level 1", xp: 9, want: 0},
		{name: "exactly level 1", xp: 10, want: 1},
		{name: "between 1 and 2", xp: 29, want: 1},
		{name: "exactly level 2", xp: 30, want: 2},
		{name: "exactly level 5", xp: 150, want: 5},
		{name: "saturates at cap", xp: 10_000_000, want: MaxLevel},
		{name: "exactly at cap requirement", xp: RequiredXP(MaxLevel), want: MaxLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevelFor(tt.xp); got != tt.want {
				t.Errorf("LevelFor(%d) = %d, want %d", tt.xp, got, tt.want)
			}
		})
	}
}

// The closed form must agree with the defining inequality
// RequiredXP(level) <= xp < RequiredXP(level+1) across the whole curve.
func TestLevelFor_MatchesRequirement(t *testing.T) {
	for xp := 0; xp <= RequiredXP(MaxLevel)+500; xp += 7 {
		level := LevelFor(xp)
		if RequiredXP(level) > xp {
			t.Fatalf("LevelFor(%d) = %d but RequiredXP(%d) = %d exceeds xp", xp, level, level, RequiredXP(level))
		}
		if level < MaxLevel && xp >= RequiredXP(level+1) {
			t.Fatalf("LevelFor(%d) = %d but xp already covers level %d", xp, level, level+1)
		}
	}
}

func TestLevelFor_Monotonic(t *testing.T) {
	prev := 0
	for xp := 0; xp <= 5000; xp++ {
		level := LevelFor(xp)
		if level < prev {
			t.Fatalf("LevelFor regressed at xp=%d: %d -> %d", xp, prev, level)
		}
		prev = level
	}
}
