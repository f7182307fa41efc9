package calibrate

import (
	"fmt"
	"strings"

	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

// Action is the calibration outcome for one node.
type Action string

const (
	// ActionKeep leaves the node as it is.
	ActionKeep Action = "keep"
	// ActionLower moves the node one tier easier.
	ActionLower Action = "lower"
	// ActionFlagSupport asks a human to add support (hints, scaffolding).
	// Difficulty is never raised automatically for a struggling cohort.
	ActionFlagSupport Action = "flag_support"
)

// Policy holds the calibration thresholds. Rates are fractions in [0,1];
// AverageScore thresholds are on the 0..100 score scale.
type Policy struct {
	MinUniqueStudents  int     `yaml:"min_unique_students" validate:"gte=1"`
	TooEasyCompletion  float64 `yaml:"too_easy_completion" validate:"gte=0,lte=1"`
	TooEasyScore       float64 `yaml:"too_easy_score" validate:"gte=0,lte=100"`
	StrugglingDropout  float64 `yaml:"struggling_dropout" validate:"gte=0,lte=1"`
	StrugglingAttempts float64 `yaml:"struggling_attempts" validate:"gt=0"`
}

// DefaultPolicy returns the default calibration thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinUniqueStudents:  10,
		TooEasyCompletion:  0.90,
		TooEasyScore:       85,
		StrugglingDropout:  0.40,
		StrugglingAttempts: 3,
	}
}

// Suggestion is the recommendation for one node.
type Suggestion struct {
	NodeID      string
	Action      Action
	Current     skillgraph.Difficulty
	Recommended skillgraph.Difficulty
	Confidence  float64
	Rationale   string
}

// Suggest applies p to a node's metrics. Below the sample gate it returns
// an *InsufficientDataError, which is a normal outcome rather than a fault.
//
// Struggling cohorts are checked first: high dropout or many attempts flag
// the node for support. Otherwise a node that nearly everyone completes
// with high scores is lowered one tier; easy nodes stay easy.
func Suggest(m progress.NodeMetrics, current skillgraph.Difficulty, p Policy) (Suggestion, error) {
	if m.UniqueStudents < p.MinUniqueStudents {
		return Suggestion{}, &InsufficientDataError{
			NodeID:   m.NodeID,
			Students: m.UniqueStudents,
			Required: p.MinUniqueStudents,
		}
	}

	s := Suggestion{
		NodeID:      m.NodeID,
		Action:      ActionKeep,
		Current:     current,
		Recommended: current,
		Confidence:  float64(m.UniqueStudents) / float64(m.UniqueStudents+p.MinUniqueStudents),
	}

	var reasons []string
	if m.DropoutRate > p.StrugglingDropout {
		reasons = append(reasons, fmt.Sprintf("dropout %.0f%% exceeds %.0f%%", m.DropoutRate*100, p.StrugglingDropout*100))
	}
	if m.AverageAttempts > p.StrugglingAttempts {
		reasons = append(reasons, fmt.Sprintf("average attempts %.1f exceeds %.1f", m.AverageAttempts, p.StrugglingAttempts))
	}
	if len(reasons) > 0 {
		s.Action = ActionFlagSupport
		s.Rationale = fmt.Sprintf("%s across %d students; add support instead of changing difficulty",
			strings.Join(reasons, " and "), m.UniqueStudents)
		return s, nil
	}

	if m.CompletionRate > p.TooEasyCompletion && m.AverageScore > p.TooEasyScore {
		lower, ok := current.Lower()
		if !ok {
			s.Rationale = fmt.Sprintf("completion %.0f%% and average score %.1f suggest too easy, but %s is already the lowest tier",
				m.CompletionRate*100, m.AverageScore, current)
			return s, nil
		}
		s.Action = ActionLower
		s.Recommended = lower
		s.Rationale = fmt.Sprintf("completion %.0f%% above %.0f%% and average score %.1f above %.1f across %d students; lower %s to %s",
			m.CompletionRate*100, p.TooEasyCompletion*100, m.AverageScore, p.TooEasyScore, m.UniqueStudents, current, lower)
		return s, nil
	}

	s.Rationale = fmt.Sprintf("completion %.0f%%, average score %.1f, dropout %.0f%%, average attempts %.1f across %d students are within range",
		m.CompletionRate*100, m.AverageScore, m.DropoutRate*100, m.AverageAttempts, m.UniqueStudents)
	return s, nil
}
