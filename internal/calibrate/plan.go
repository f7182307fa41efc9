package calibrate

import (
	"fmt"
	"sort"

	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

// Proposal is one intended node change.
type Proposal struct {
	Suggestion
	Before skillgraph.SkillNode
	After  skillgraph.SkillNode
}

// SupportFlag is a node that needs human attention, with a concrete
// support action for its content kind.
type SupportFlag struct {
	Suggestion
	Kind          skillgraph.ContentKind
	SupportAction string
}

// Skip is a node that produced no recommendation.
type Skip struct {
	NodeID string
	Reason string
}

// Report is the outcome of planning a calibration run. Nothing in it has
// been applied.
type Report struct {
	Proposals []Proposal
	Flagged   []SupportFlag
	Kept      []Suggestion
	Skipped   []Skip
}

// Changes returns the updated nodes the report proposes.
func (r Report) Changes() []skillgraph.SkillNode {
	out := make([]skillgraph.SkillNode, len(r.Proposals))
	for i, p := range r.Proposals {
		out[i] = p.After
	}
	return out
}

// Plan suggests a calibration for every node using its metrics. Nodes
// without metrics, and nodes below the sample gate, are skipped. Plan never
// modifies its inputs.
func Plan(nodes []skillgraph.SkillNode, metrics map[string]progress.NodeMetrics, p Policy, table RewardTable) Report {
	var r Report
	for _, n := range nodes {
		m, ok := metrics[n.ID]
		if !ok {
			r.Skipped = append(r.Skipped, Skip{NodeID: n.ID, Reason: "no metrics"})
			continue
		}
		s, err := Suggest(m, n.Difficulty, p)
		if err != nil {
			r.Skipped = append(r.Skipped, Skip{NodeID: n.ID, Reason: err.Error()})
			continue
		}

		switch s.Action {
		case ActionLower:
			r.Proposals = append(r.Proposals, Proposal{
				Suggestion: s,
				Before:     n.Clone(),
				After:      Apply(n, s.Recommended, table),
			})
		case ActionFlagSupport:
			r.Flagged = append(r.Flagged, SupportFlag{
				Suggestion:    s,
				Kind:          kindOf(n.Content),
				SupportAction: SupportAction(n.Content),
			})
		default:
			r.Kept = append(r.Kept, s)
		}
	}

	sort.Slice(r.Proposals, func(i, j int) bool { return r.Proposals[i].NodeID < r.Proposals[j].NodeID })
	sort.Slice(r.Flagged, func(i, j int) bool { return r.Flagged[i].NodeID < r.Flagged[j].NodeID })
	sort.Slice(r.Kept, func(i, j int) bool { return r.Kept[i].NodeID < r.Kept[j].NodeID })
	sort.Slice(r.Skipped, func(i, j int) bool { return r.Skipped[i].NodeID < r.Skipped[j].NodeID })
	return r
}

// SupportAction describes the support to add for a struggling node,
// specific to its content kind.
func SupportAction(c skillgraph.Content) string {
	switch v := c.(type) {
	case skillgraph.Quiz:
		return fmt.Sprintf("raise hints per question from %d to %d", v.HintsPerQuestion, v.HintsPerQuestion+1)
	case skillgraph.Lesson:
		return fmt.Sprintf("add a worked example (currently %d)", v.WorkedExamples)
	case skillgraph.Assignment:
		return fmt.Sprintf("allow another submission (currently %d) and review the rubric", v.MaxSubmissions)
	case skillgraph.Exercise:
		if v.Scaffolded {
			return fmt.Sprintf("split the %d steps into smaller ones", v.Steps)
		}
		return "enable step scaffolding"
	case nil:
		return "review node content"
	default:
		panic(fmt.Sprintf("calibrate: unhandled content type %T", c))
	}
}

func kindOf(c skillgraph.Content) skillgraph.ContentKind {
	if c == nil {
		return ""
	}
	return c.Kind()
}
