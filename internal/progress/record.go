package progress

import (
	"fmt"
	"time"
)

// Config holds the thresholds that turn raw scores into progress.
type Config struct {
	// MasteryThreshold is the minimum best score for a node to count as
	// completed for unlocking.
	MasteryThreshold int `yaml:"mastery_threshold" validate:"gte=0,lte=100"`

	// StarCutoffs are the minimum scores for 1, 2 and 3 stars.
	StarCutoffs [3]int `yaml:"star_cutoffs"`

	// StaleAfter is how long an unmastered record may sit untouched before
	// the learner counts as dropped out of the node.
	StaleAfter time.Duration `yaml:"stale_after" validate:"gt=0"`
}

// DefaultConfig returns the default progress thresholds.
func DefaultConfig() Config {
	return Config{
		MasteryThreshold: 60,
		StarCutoffs:      [3]int{60, 75, 90},
		StaleAfter:       14 * 24 * time.Hour,
	}
}

// Stars maps a score to 0..3 stars.
func (c Config) Stars(score int) int {
	stars := 0
	for _, cutoff := range c.StarCutoffs {
		if score >= cutoff {
			stars++
		}
	}
	return stars
}

// Attempt is a single completion event: a learner submitted a node's
// content and received a score.
type Attempt struct {
	LearnerID string
	NodeID    string
	Score     int
	At        time.Time
	TimeSpent time.Duration
}

// Validate checks the attempt's fields.
func (a Attempt) Validate() error {
	switch {
	case a.LearnerID == "":
		return fmt.Errorf("attempt: learner id is required")
	case a.NodeID == "":
		return fmt.Errorf("attempt: node id is required")
	case a.Score < 0 || a.Score > 100:
		return fmt.Errorf("attempt: score %d out of range 0-100", a.Score)
	case a.TimeSpent < 0:
		return fmt.Errorf("attempt: negative time spent")
	case a.At.IsZero():
		return fmt.Errorf("attempt: timestamp is required")
	}
	return nil
}

// Record is the single current progress state of one learner on one node.
type Record struct {
	LearnerID        string
	NodeID           string
	BestScore        int
	Stars            int
	Attempts         int
	TimeSpent        time.Duration
	FirstCompletedAt time.Time // zero until BestScore first reaches the threshold
	LastAttemptAt    time.Time
}

// Exists reports whether the record has seen at least one attempt.
func (r Record) Exists() bool {
	return r.Attempts > 0
}

// Completed reports whether the record meets the mastery threshold.
func (r Record) Completed(threshold int) bool {
	return r.Attempts > 0 && r.BestScore >= threshold
}

// Merge folds an attempt into the prior record for the same pair. A zero
// prior means no earlier attempt. Nothing ever decreases: the best score is
// raised only by a higher score and timestamps only move forward.
func Merge(prior Record, a Attempt, cfg Config) Record {
	r := prior
	r.LearnerID = a.LearnerID
	r.NodeID = a.NodeID
	r.Attempts++
	r.TimeSpent += a.TimeSpent

	if !prior.Exists() || a.Score > r.BestScore {
		r.BestScore = a.Score
	}
	r.Stars = cfg.Stars(r.BestScore)

	if r.FirstCompletedAt.IsZero() && r.BestScore >= cfg.MasteryThreshold {
		r.FirstCompletedAt = a.At
	}
	if a.At.After(r.LastAttemptAt) {
		r.LastAttemptAt = a.At
	}
	return r
}

// MasterySet returns the IDs of nodes whose record meets threshold.
func MasterySet(records []Record, threshold int) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, r := range records {
		if r.Completed(threshold) {
			set[r.NodeID] = true
		}
	}
	return set
}
