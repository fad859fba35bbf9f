// Package progression maps cumulative experience to player levels.
//
// Level L is reached once a player holds 1000 × (1 + 2 + ... + L) experience,
// so each level costs 1000 more than the previous one.
package progression

const xpPerLevelStep = 1000

// CumulativeThreshold is the total experience needed to reach level.
func CumulativeThreshold(level int) int64 {
	if level <= 0 {
		return 0
	}
	l := int64(level)
	return xpPerLevelStep * l * (l + 1) / 2
}

// LevelFromXP returns the greatest level whose threshold is <= xp. Players
// below the first threshold are still level 1.
func LevelFromXP(xp int64) int {
	if xp < CumulativeThreshold(1) {
		return 1
	}
	// T(L) <= xp  <=>  L(L+1) <= 2xp/1000; start from the integer estimate and
	// correct for rounding.
	level := int(isqrt(8*xp/xpPerLevelStep+1)-1) / 2
	if level < 1 {
		level = 1
	}
	for CumulativeThreshold(level+1) <= xp {
		level++
	}
	for level > 1 && CumulativeThreshold(level) > xp {
		level--
	}
	return level
}

// Progress is the fraction of the way from the current level to the next,
// clamped to [0, 1].
func Progress(xp int64) float64 {
	level := LevelFromXP(xp)
	lo := CumulativeThreshold(level)
	hi := CumulativeThreshold(level + 1)
	f := float64(xp-lo) / float64(hi-lo)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// XPToNextLevel is the experience still missing for the next level.
func XPToNextLevel(xp int64) int64 {
	if xp < 0 {
		xp = 0
	}
	return CumulativeThreshold(LevelFromXP(xp)+1) - xp
}

// Status bundles the derived progression fields shown next to a wallet.
type Status struct {
	Level         int     `json:"level"`
	Experience    int64   `json:"experience"`
	Progress      float64 `json:"progress"`
	XPToNextLevel int64   `json:"xp_to_next_level"`
}

func StatusFor(xp int64) Status {
	return Status{
		Level:         LevelFromXP(xp),
		Experience:    xp,
		Progress:      Progress(xp),
		XPToNextLevel: XPToNextLevel(xp),
	}
}

func isqrt(n int64) int64 {
	if n < 2 {
		return n
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
