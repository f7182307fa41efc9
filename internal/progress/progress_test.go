package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func TestStars(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		score int
		want  int
	}{
		{0, 0}, {59, 0}, {60, 1}, {74, 1}, {75, 2}, {89, 2}, {90, 3}, {100, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.Stars(tt.score), "score %d", tt.score)
	}
}

func TestAttemptValidate(t *testing.T) {
	ok := Attempt{LearnerID: "l1", NodeID: "n1", Score: 80, At: day0}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.Score = 101
	assert.Error(t, bad.Validate())

	bad = ok
	bad.LearnerID = ""
	assert.Error(t, bad.Validate())

	bad = ok
	bad.At = time.Time{}
	assert.Error(t, bad.Validate())
}

func TestMerge_FirstAttempt(t *testing.T) {
	cfg := DefaultConfig()
	r := Merge(Record{}, Attempt{LearnerID: "l1", NodeID: "n1", Score: 40, At: day0, TimeSpent: time.Minute}, cfg)

	assert.Equal(t, 40, r.BestScore)
	assert.Equal(t, 0, r.Stars)
	assert.Equal(t, 1, r.Attempts)
	assert.Equal(t, time.Minute, r.TimeSpent)
	assert.True(t, r.FirstCompletedAt.IsZero())
	assert.Equal(t, day0, r.LastAttemptAt)
	assert.False(t, r.Completed(cfg.MasteryThreshold))
}

func TestMerge_NeverLowersBestScore(t *testing.T) {
	cfg := DefaultConfig()
	r := Merge(Record{}, Attempt{LearnerID: "l1", NodeID: "n1", Score: 80, At: day0}, cfg)
	r = Merge(r, Attempt{LearnerID: "l1", NodeID: "n1", Score: 30, At: day0.Add(time.Hour), TimeSpent: 2 * time.Minute}, cfg)

	assert.Equal(t, 80, r.BestScore)
	assert.Equal(t, 2, r.Stars)
	assert.Equal(t, 2, r.Attempts)
	assert.Equal(t, day0, r.FirstCompletedAt)
	assert.Equal(t, day0.Add(time.Hour), r.LastAttemptAt)
}

func TestMerge_FirstCompletedWhenThresholdReached(t *testing.T) {
	cfg := DefaultConfig()
	r := Merge(Record{}, Attempt{LearnerID: "l1", NodeID: "n1", Score: 50, At: day0}, cfg)
	later := day0.Add(48 * time.Hour)
	r = Merge(r, Attempt{LearnerID: "l1", NodeID: "n1", Score: 95, At: later}, cfg)

	assert.Equal(t, later, r.FirstCompletedAt)
	assert.Equal(t, 3, r.Stars)
}

func TestMerge_OlderAttemptKeepsLastAttemptAt(t *testing.T) {
	cfg := DefaultConfig()
	r := Merge(Record{}, Attempt{LearnerID: "l1", NodeID: "n1", Score: 50, At: day0}, cfg)
	r = Merge(r, Attempt{LearnerID: "l1", NodeID: "n1", Score: 55, At: day0.Add(-time.Hour)}, cfg)
	assert.Equal(t, day0, r.LastAttemptAt)
	assert.Equal(t, 55, r.BestScore)
}

func TestMasterySet(t *testing.T) {
	records := []Record{
		{NodeID: "a", BestScore: 75, Attempts: 1},
		{NodeID: "b", BestScore: 40, Attempts: 3},
		{NodeID: "c", BestScore: 60, Attempts: 1},
	}
	set := MasterySet(records, 60)
	assert.Equal(t, map[string]bool{"a": true, "c": true}, set)
}

func TestAggregate(t *testing.T) {
	cfg := DefaultConfig()
	asOf := day0.Add(30 * 24 * time.Hour)
	records := []Record{
		{LearnerID: "l1", NodeID: "n1", BestScore: 90, Attempts: 1, LastAttemptAt: day0},
		{LearnerID: "l2", NodeID: "n1", BestScore: 70, Attempts: 2, LastAttemptAt: asOf.Add(-time.Hour)},
		// Stale and unmastered: dropped out.
		{LearnerID: "l3", NodeID: "n1", BestScore: 20, Attempts: 4, LastAttemptAt: day0},
		// Unmastered but recent: still working on it.
		{LearnerID: "l4", NodeID: "n1", BestScore: 40, Attempts: 1, LastAttemptAt: asOf.Add(-24 * time.Hour)},
		{LearnerID: "l5", NodeID: "other", BestScore: 100, Attempts: 1, LastAttemptAt: day0},
	}

	m := Aggregate("n1", records, asOf, cfg)
	assert.Equal(t, "n1", m.NodeID)
	assert.Equal(t, 4, m.UniqueStudents)
	assert.InDelta(t, 0.5, m.CompletionRate, 1e-9)
	assert.InDelta(t, 55.0, m.AverageScore, 1e-9)
	assert.InDelta(t, 2.0, m.AverageAttempts, 1e-9)
	assert.InDelta(t, 0.25, m.DropoutRate, 1e-9)
	assert.Equal(t, asOf, m.AsOf)
}

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate("n1", nil, day0, DefaultConfig())
	assert.Equal(t, NodeMetrics{NodeID: "n1", AsOf: day0}, m)
}

func TestAggregate_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	records := []Record{
		{LearnerID: "l1", NodeID: "n1", BestScore: 65, Attempts: 2, LastAttemptAt: day0},
		{LearnerID: "l2", NodeID: "n1", BestScore: 35, Attempts: 5, LastAttemptAt: day0},
	}
	assert.Equal(t, Aggregate("n1", records, day0, cfg), Aggregate("n1", records, day0, cfg))
}
