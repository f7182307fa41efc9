package calibrate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

func metrics(id string, students int, completion, score, attempts, dropout float64) progress.NodeMetrics {
	return progress.NodeMetrics{
		NodeID:          id,
		UniqueStudents:  students,
		CompletionRate:  completion,
		AverageScore:    score,
		AverageAttempts: attempts,
		DropoutRate:     dropout,
	}
}

func TestSuggest_SampleGate(t *testing.T) {
	p := DefaultPolicy()

	_, err := Suggest(metrics("n1", 9, 0.95, 90, 1, 0), skillgraph.DifficultyMedium, p)
	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide), "want *InsufficientDataError, got %v", err)
	assert.Equal(t, 9, ide.Students)
	assert.Equal(t, 10, ide.Required)

	s, err := Suggest(metrics("n1", 10, 0.95, 90, 1, 0), skillgraph.DifficultyMedium, p)
	require.NoError(t, err)
	assert.Equal(t, ActionLower, s.Action)
	assert.Equal(t, skillgraph.DifficultyEasy, s.Recommended)
	assert.InDelta(t, 0.5, s.Confidence, 1e-9)
	assert.Contains(t, s.Rationale, "95%")
}

func TestSuggest_LowersExactlyOneTier(t *testing.T) {
	s, err := Suggest(metrics("n1", 40, 0.97, 92, 1.1, 0.01), skillgraph.DifficultyHard, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, skillgraph.DifficultyMedium, s.Recommended)
}

func TestSuggest_EasyStaysEasy(t *testing.T) {
	s, err := Suggest(metrics("n1", 20, 0.99, 99, 1, 0), skillgraph.DifficultyEasy, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, ActionKeep, s.Action)
	assert.Equal(t, skillgraph.DifficultyEasy, s.Recommended)
	assert.Contains(t, s.Rationale, "lowest tier")
}

func TestSuggest_StrugglingIsFlaggedNotRaised(t *testing.T) {
	tests := []struct {
		name string
		m    progress.NodeMetrics
	}{
		{"dropout", metrics("n1", 30, 0.5, 55, 2, 0.45)},
		{"attempts", metrics("n1", 30, 0.6, 62, 3.5, 0.1)},
		// Struggling wins over the too-easy rule.
		{"mixed", metrics("n1", 30, 0.95, 90, 4, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Suggest(tt.m, skillgraph.DifficultyMedium, DefaultPolicy())
			require.NoError(t, err)
			assert.Equal(t, ActionFlagSupport, s.Action)
			assert.Equal(t, skillgraph.DifficultyMedium, s.Recommended)
		})
	}
}

func TestSuggest_KeepWithinRange(t *testing.T) {
	s, err := Suggest(metrics("n1", 25, 0.8, 78, 1.5, 0.1), skillgraph.DifficultyMedium, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, ActionKeep, s.Action)
	assert.Contains(t, s.Rationale, "within range")
}

func TestApply_RescalesRewards(t *testing.T) {
	table := DefaultRewardTable()
	node := skillgraph.SkillNode{
		ID: "n1", Difficulty: skillgraph.DifficultyHard, XPReward: 40, GemReward: 3,
		Prerequisites: []string{"root"}, Content: skillgraph.Quiz{Questions: 5},
	}

	got := Apply(node, skillgraph.DifficultyMedium, table)
	assert.Equal(t, skillgraph.DifficultyMedium, got.Difficulty)
	assert.Equal(t, 30, got.XPReward)
	assert.Equal(t, 2, got.GemReward)

	// Input untouched.
	assert.Equal(t, skillgraph.DifficultyHard, node.Difficulty)
	assert.Equal(t, 40, node.XPReward)

	got = Apply(skillgraph.SkillNode{Difficulty: skillgraph.DifficultyMedium, XPReward: 1}, skillgraph.DifficultyEasy, table)
	assert.Equal(t, 1, got.XPReward, "XP never drops below the minimum")
}

func TestSupportAction_CoversEveryKind(t *testing.T) {
	contents := []skillgraph.Content{
		skillgraph.Quiz{Questions: 5, HintsPerQuestion: 1},
		skillgraph.Lesson{Sections: 2},
		skillgraph.Assignment{MaxSubmissions: 1},
		skillgraph.Exercise{Steps: 4},
		skillgraph.Exercise{Steps: 4, Scaffolded: true},
	}
	for _, c := range contents {
		assert.NotEmpty(t, SupportAction(c), "%T", c)
	}
	assert.Contains(t, SupportAction(skillgraph.Quiz{HintsPerQuestion: 1}), "from 1 to 2")
}

func TestPlan(t *testing.T) {
	nodes := []skillgraph.SkillNode{
		{ID: "easy-win", Difficulty: skillgraph.DifficultyMedium, XPReward: 30, Content: skillgraph.Quiz{Questions: 4}},
		{ID: "hard-going", Difficulty: skillgraph.DifficultyMedium, XPReward: 30, Content: skillgraph.Lesson{Sections: 2}},
		{ID: "fine", Difficulty: skillgraph.DifficultyMedium, XPReward: 30, Content: skillgraph.Quiz{Questions: 4}},
		{ID: "new", Difficulty: skillgraph.DifficultyMedium, XPReward: 30, Content: skillgraph.Quiz{Questions: 4}},
		{ID: "unseen", Difficulty: skillgraph.DifficultyMedium, XPReward: 30, Content: skillgraph.Quiz{Questions: 4}},
	}
	m := map[string]progress.NodeMetrics{
		"easy-win":   metrics("easy-win", 12, 0.95, 90, 1, 0),
		"hard-going": metrics("hard-going", 12, 0.3, 40, 5, 0.5),
		"fine":       metrics("fine", 12, 0.7, 70, 2, 0.1),
		"new":        metrics("new", 3, 1, 100, 1, 0),
	}

	r := Plan(nodes, m, DefaultPolicy(), DefaultRewardTable())
	require.Len(t, r.Proposals, 1)
	assert.Equal(t, "easy-win", r.Proposals[0].NodeID)
	assert.Equal(t, skillgraph.DifficultyMedium, r.Proposals[0].Before.Difficulty)
	assert.Equal(t, skillgraph.DifficultyEasy, r.Proposals[0].After.Difficulty)
	assert.Equal(t, 20, r.Proposals[0].After.XPReward)

	require.Len(t, r.Flagged, 1)
	assert.Equal(t, skillgraph.KindLesson, r.Flagged[0].Kind)
	assert.Contains(t, r.Flagged[0].SupportAction, "worked example")

	require.Len(t, r.Kept, 1)
	assert.Equal(t, "fine", r.Kept[0].NodeID)

	require.Len(t, r.Skipped, 2)
	assert.Equal(t, "new", r.Skipped[0].NodeID)
	assert.Equal(t, "unseen", r.Skipped[1].NodeID)

	// Inputs untouched.
	assert.Equal(t, skillgraph.DifficultyMedium, nodes[0].Difficulty)
	assert.Equal(t, 30, nodes[0].XPReward)
}

func TestPlan_FiftyNodes(t *testing.T) {
	var nodes []skillgraph.SkillNode
	m := make(map[string]progress.NodeMetrics)
	for i := range 50 {
		id := fmt.Sprintf("n%02d", i)
		nodes = append(nodes, skillgraph.SkillNode{ID: id, Difficulty: skillgraph.DifficultyHard, XPReward: 40, Content: skillgraph.Quiz{Questions: 3}})
		m[id] = metrics(id, 10, 0.95, 90, 1, 0)
	}
	r := Plan(nodes, m, DefaultPolicy(), DefaultRewardTable())
	assert.Len(t, r.Proposals, 50)
	assert.Len(t, r.Changes(), 50)
}
