package skillgraph

import "fmt"

// Subject identifies a curriculum subject, e.g. "math" or "reading".
type Subject string

// Difficulty is the discrete difficulty tier of a node.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AllDifficulties returns all tiers from easiest to hardest.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty converts a string to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Rank returns the position of the tier (easy=0, medium=1, hard=2), or -1.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	default:
		return -1
	}
}

// Lower returns the next easier tier and true, or d and false when d is
// already the easiest.
func (d Difficulty) Lower() (Difficulty, bool) {
	switch d {
	case DifficultyHard:
		return DifficultyMedium, true
	case DifficultyMedium:
		return DifficultyEasy, true
	default:
		return d, false
	}
}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	return d.Rank() >= 0
}

// SkillNode is one unit of curriculum content in the prerequisite graph.
// Difficulty and rewards may be rewritten by calibration; Active is cleared
// to retire a node. Everything else is fixed at authoring time.
type SkillNode struct {
	ID            string
	Title         string
	Subject       Subject
	Grade         int
	Difficulty    Difficulty
	XPReward      int
	GemReward     int
	Prerequisites []string
	Checkpoint    bool
	EstimatedMins int
	Active        bool
	Content       Content
}

// IsRoot reports whether the node has no prerequisites.
func (n SkillNode) IsRoot() bool {
	return len(n.Prerequisites) == 0
}

// Clone returns a deep copy of the node.
func (n SkillNode) Clone() SkillNode {
	c := n
	if n.Prerequisites != nil {
		c.Prerequisites = append([]string(nil), n.Prerequisites...)
	}
	return c
}
