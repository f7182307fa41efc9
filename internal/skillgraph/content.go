package skillgraph

import "fmt"

// ContentKind names the kind of activity a node delivers.
type ContentKind string

const (
	KindQuiz       ContentKind = "quiz"
	KindLesson     ContentKind = "lesson"
	KindAssignment ContentKind = "assignment"
	KindExercise   ContentKind = "exercise"
)

// AllContentKinds returns every content kind in display order.
func AllContentKinds() []ContentKind {
	return []ContentKind{KindQuiz, KindLesson, KindAssignment, KindExercise}
}

// Content is the closed set of node payloads. Only the four types in this
// file implement it, so a type switch over them is exhaustive.
type Content interface {
	Kind() ContentKind
	isContent()
}

// Quiz is a scored question set.
type Quiz struct {
	Questions        int `json:"questions" yaml:"questions" validate:"gte=1"`
	HintsPerQuestion int `json:"hints_per_question" yaml:"hints_per_question" validate:"gte=0"`
}

// Lesson is instructional material followed by a short check.
type Lesson struct {
	Sections       int `json:"sections" yaml:"sections" validate:"gte=1"`
	WorkedExamples int `json:"worked_examples" yaml:"worked_examples" validate:"gte=0"`
}

// Assignment is a teacher-graded submission.
type Assignment struct {
	DueDays        int `json:"due_days" yaml:"due_days" validate:"gte=0"`
	MaxSubmissions int `json:"max_submissions" yaml:"max_submissions" validate:"gte=1"`
}

// Exercise is a guided multi-step practice activity.
type Exercise struct {
	Steps      int  `json:"steps" yaml:"steps" validate:"gte=1"`
	Scaffolded bool `json:"scaffolded" yaml:"scaffolded"`
}

func (Quiz) Kind() ContentKind       { return KindQuiz }
func (Lesson) Kind() ContentKind     { return KindLesson }
func (Assignment) Kind() ContentKind { return KindAssignment }
func (Exercise) Kind() ContentKind   { return KindExercise }

func (Quiz) isContent()       {}
func (Lesson) isContent()     {}
func (Assignment) isContent() {}
func (Exercise) isContent()   {}

// EstimateMinutes derives a time estimate from the content shape. It is
// used when a node does not declare EstimatedMins.
func EstimateMinutes(c Content) int {
	switch v := c.(type) {
	case Quiz:
		return max(1, v.Questions)
	case Lesson:
		return 5*v.Sections + 3*v.WorkedExamples
	case Assignment:
		return 30
	case Exercise:
		return 2 * v.Steps
	case nil:
		return 0
	default:
		panic(fmt.Sprintf("skillgraph: unhandled content type %T", c))
	}
}
