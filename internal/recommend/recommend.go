package recommend

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abhisek/skilltree/internal/skillgraph"
)

// Config controls how learner context is built.
type Config struct {
	// NeutralScore stands in for subjects the learner has no recent scores in.
	NeutralScore float64 `yaml:"neutral_score" validate:"gte=0,lte=100"`
	// RecentWindow is how many of the latest scores count as recent.
	RecentWindow int `yaml:"recent_window" validate:"gte=1"`
}

// DefaultConfig returns the default recommendation settings.
func DefaultConfig() Config {
	return Config{NeutralScore: 60, RecentWindow: 20}
}

// SubjectScore is one recent scored activity.
type SubjectScore struct {
	Subject skillgraph.Subject
	Score   int
	At      time.Time
}

// LearnerContext is what the selector knows about the learner.
type LearnerContext struct {
	LearnerID       string
	SubjectAverages map[skillgraph.Subject]float64
	NeutralScore    float64
}

// NewContext averages the learner's most recent scores per subject. Only
// the latest cfg.RecentWindow scores are used.
func NewContext(learnerID string, recent []SubjectScore, cfg Config) LearnerContext {
	scores := append([]SubjectScore(nil), recent...)
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].At.After(scores[j].At) })
	if len(scores) > cfg.RecentWindow {
		scores = scores[:cfg.RecentWindow]
	}

	sums := make(map[skillgraph.Subject]int)
	counts := make(map[skillgraph.Subject]int)
	for _, s := range scores {
		sums[s.Subject] += s.Score
		counts[s.Subject]++
	}
	avgs := make(map[skillgraph.Subject]float64, len(sums))
	for subj, sum := range sums {
		avgs[subj] = float64(sum) / float64(counts[subj])
	}
	return LearnerContext{LearnerID: learnerID, SubjectAverages: avgs, NeutralScore: cfg.NeutralScore}
}

// SubjectAverage returns the learner's recent average in subj, or the
// neutral score when there is none.
func (lc LearnerContext) SubjectAverage(subj skillgraph.Subject) (float64, bool) {
	avg, ok := lc.SubjectAverages[subj]
	if !ok {
		return lc.NeutralScore, false
	}
	return avg, true
}

// Recommendation is one ranked next step.
type Recommendation struct {
	Node           skillgraph.SkillNode
	SubjectAverage float64
	EstimatedMins  int
	Reason         string
}

// EstimatedMinutes returns the node's declared time or one derived from
// its content.
func EstimatedMinutes(n skillgraph.SkillNode) int {
	if n.EstimatedMins > 0 {
		return n.EstimatedMins
	}
	return skillgraph.EstimateMinutes(n.Content)
}

// NextBest ranks candidates, which should be the learner's unlocked and
// incomplete nodes, and returns at most n of them. The order is:
//
//  1. lowest recent average in the node's subject (remediation first)
//  2. checkpoints before regular nodes
//  3. shortest estimated time (quick wins)
//  4. node ID
//
// No candidates, or n <= 0, yields an empty list.
func NextBest(candidates []skillgraph.SkillNode, lc LearnerContext, n int) []Recommendation {
	if n <= 0 || len(candidates) == 0 {
		return []Recommendation{}
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		avg, _ := lc.SubjectAverage(c.Subject)
		recs = append(recs, Recommendation{
			Node:           c.Clone(),
			SubjectAverage: avg,
			EstimatedMins:  EstimatedMinutes(c),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.SubjectAverage != b.SubjectAverage {
			return a.SubjectAverage < b.SubjectAverage
		}
		if a.Node.Checkpoint != b.Node.Checkpoint {
			return a.Node.Checkpoint
		}
		if a.EstimatedMins != b.EstimatedMins {
			return a.EstimatedMins < b.EstimatedMins
		}
		return a.Node.ID < b.Node.ID
	})

	if len(recs) > n {
		recs = recs[:n]
	}
	for i := range recs {
		recs[i].Reason = reason(recs[i], lc)
	}
	return recs
}

func reason(r Recommendation, lc LearnerContext) string {
	var parts []string
	if _, ok := lc.SubjectAverage(r.Node.Subject); ok {
		parts = append(parts, fmt.Sprintf("recent %s average %.0f", r.Node.Subject, r.SubjectAverage))
	} else {
		parts = append(parts, fmt.Sprintf("no recent %s scores", r.Node.Subject))
	}
	if r.Node.Checkpoint {
		parts = append(parts, "checkpoint")
	}
	parts = append(parts, fmt.Sprintf("about %d min", r.EstimatedMins))
	return strings.Join(parts, "; ")
}
