package gamify

import "sort"

// LevelTable maps total XP to a level. Thresholds[i] is the XP needed for
// level i+1 and must start at 0 and increase. Past the last threshold every
// OverflowStep XP adds one more level.
type LevelTable struct {
	Thresholds   []int `yaml:"thresholds" validate:"required,min=1"`
	OverflowStep int   `yaml:"overflow_step" validate:"gt=0"`
}

// Level returns the level for xp. It is a step function, so it never
// decreases as xp grows.
func (t LevelTable) Level(xp int) int {
	if len(t.Thresholds) == 0 {
		return 1
	}
	// Index of the first threshold strictly greater than xp.
	i := sort.Search(len(t.Thresholds), func(i int) bool { return t.Thresholds[i] > xp })
	if i == 0 {
		return 1
	}
	if i < len(t.Thresholds) || t.OverflowStep <= 0 {
		return i
	}
	last := t.Thresholds[len(t.Thresholds)-1]
	return len(t.Thresholds) + (xp-last)/t.OverflowStep
}

// NextLevelAt returns the total XP at which the level after xp's begins.
func (t LevelTable) NextLevelAt(xp int) int {
	for _, th := range t.Thresholds {
		if th > xp {
			return th
		}
	}
	if len(t.Thresholds) == 0 || t.OverflowStep <= 0 {
		return xp
	}
	last := t.Thresholds[len(t.Thresholds)-1]
	return last + ((xp-last)/t.OverflowStep+1)*t.OverflowStep
}
