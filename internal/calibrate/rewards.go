package calibrate

import (
	"math"

	"github.com/abhisek/skilltree/internal/skillgraph"
)

// RewardTable holds the reward multiplier of each difficulty tier. Moving a
// node between tiers rescales its rewards by the ratio of multipliers.
type RewardTable struct {
	Multipliers map[skillgraph.Difficulty]float64 `yaml:"multipliers" validate:"required,dive,gt=0"`
	MinXP       int                               `yaml:"min_xp" validate:"gte=0"`
}

// DefaultRewardTable returns the default multipliers.
func DefaultRewardTable() RewardTable {
	return RewardTable{
		Multipliers: map[skillgraph.Difficulty]float64{
			skillgraph.DifficultyEasy:   1.0,
			skillgraph.DifficultyMedium: 1.5,
			skillgraph.DifficultyHard:   2.0,
		},
		MinXP: 1,
	}
}

// Apply returns a copy of node moved to difficulty to, with XP and gem
// rewards rescaled proportionally. The input node is not modified.
func Apply(node skillgraph.SkillNode, to skillgraph.Difficulty, table RewardTable) skillgraph.SkillNode {
	out := node.Clone()
	if to == node.Difficulty {
		return out
	}
	from, okFrom := table.Multipliers[node.Difficulty]
	dest, okTo := table.Multipliers[to]
	out.Difficulty = to
	if !okFrom || !okTo || from <= 0 {
		return out
	}

	ratio := dest / from
	out.XPReward = max(int(math.Round(float64(node.XPReward)*ratio)), table.MinXP)
	out.GemReward = int(math.Round(float64(node.GemReward) * ratio))
	return out
}
