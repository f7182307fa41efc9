package tutor

import (
	"fmt"
	"strings"

	"github.com/abhisek/skilltree/internal/calibrate"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

const systemPrompt = `You write support material for a school learning platform.
A curriculum node has been flagged because learners are struggling with it.
Write short, encouraging hints a learner sees one at a time, ordered from a
gentle nudge to a near-solution. Never give the full answer. Match the
reading level of the grade. Then write a brief note for the teacher.`

func buildUserMessage(node skillgraph.SkillNode, flag calibrate.SupportFlag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Node: %s (%s)\n", node.Title, node.ID)
	fmt.Fprintf(&b, "Subject: %s, grade %d, difficulty %s\n", node.Subject, node.Grade, node.Difficulty)
	fmt.Fprintf(&b, "Activity: %s\n", describeContent(node.Content))
	fmt.Fprintf(&b, "Why it was flagged: %s\n", flag.Rationale)
	fmt.Fprintf(&b, "Planned change: %s\n", flag.SupportAction)
	return b.String()
}

func describeContent(c skillgraph.Content) string {
	switch v := c.(type) {
	case skillgraph.Quiz:
		return fmt.Sprintf("quiz with %d questions and %d hints per question", v.Questions, v.HintsPerQuestion)
	case skillgraph.Lesson:
		return fmt.Sprintf("lesson with %d sections and %d worked examples", v.Sections, v.WorkedExamples)
	case skillgraph.Assignment:
		return fmt.Sprintf("teacher-graded assignment due in %d days", v.DueDays)
	case skillgraph.Exercise:
		if v.Scaffolded {
			return fmt.Sprintf("scaffolded exercise with %d steps", v.Steps)
		}
		return fmt.Sprintf("exercise with %d steps", v.Steps)
	case nil:
		return "unknown"
	default:
		panic(fmt.Sprintf("tutor: unhandled content type %T", c))
	}
}
