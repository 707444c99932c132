package reputation

// Weighted reputation scale. Positive votes count five times as much as
// negatives, XP never goes below zero, and levels saturate at MaxLevel.
const (
	PositiveWeight = 10
	NegativeWeight = 2
	LevelBaseXP    = 10
	MaxLevel       = 200
)

// XP converts lifetime vote counters into experience points, floored at zero.
func XP(positive, negative int) int {
	xp := positive*PositiveWeight - negative*NegativeWeight
	if xp < 0 {
		return 0
	}
	return xp
}

// RequiredXP returns the cumulative XP needed to hold the given level:
// LevelBaseXP * level * (level + 1) / 2.
func RequiredXP(level int) int {
	if level <= 0 {
		return 0
	}
	return LevelBaseXP * level * (level + 1) / 2
}

// LevelFor returns the largest level whose cumulative requirement the XP
// covers, clamped to MaxLevel. Solved in closed form from the triangular
// requirement: level*(level+1) <= 2*xp/LevelBaseXP.
func LevelFor(xp int) int {
	if xp <= 0 {
		return 0
	}
	scaled := 2 * xp / LevelBaseXP
	level := (isqrt(1+4*scaled) - 1) / 2
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// isqrt is the integer square root, exact for the small values the level
// curve produces.
func isqrt(n int) int {
	if n < 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
