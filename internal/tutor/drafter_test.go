package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/skilltree/internal/calibrate"
	"github.com/abhisek/skilltree/internal/llm"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

func quizNode() skillgraph.SkillNode {
	return skillgraph.SkillNode{
		ID: "frac-compare", Title: "Compare fractions", Subject: "math", Grade: 3,
		Difficulty: skillgraph.DifficultyMedium, Active: true,
		Content: skillgraph.Quiz{Questions: 8, HintsPerQuestion: 1},
	}
}

func quizFlag() calibrate.SupportFlag {
	return calibrate.SupportFlag{
		Suggestion:    calibrate.Suggestion{NodeID: "frac-compare", Action: calibrate.ActionFlagSupport, Rationale: "dropout 55% exceeds 40%"},
		Kind:          skillgraph.KindQuiz,
		SupportAction: calibrate.SupportAction(skillgraph.Quiz{Questions: 8, HintsPerQuestion: 1}),
	}
}

const goodDraft = `{"hints":["Look at the denominators.","Which piece is bigger?","Draw both fractions."],"teacher_note":"Add a visual model."}`

func TestDraftSupport(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(goodDraft)})
	d := NewDrafter(mock, DefaultConfig())

	draft, err := d.DraftSupport(context.Background(), quizNode(), quizFlag())
	require.NoError(t, err)
	assert.Equal(t, "frac-compare", draft.NodeID)
	assert.Len(t, draft.Hints, 3)
	assert.Equal(t, "Add a visual model.", draft.TeacherNote)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "support-draft", calls[0].Schema.Name)
	msg := calls[0].Messages[0].Content
	assert.Contains(t, msg, "quiz with 8 questions and 1 hints per question")
	assert.Contains(t, msg, "dropout 55% exceeds 40%")
	assert.Contains(t, msg, "raise hints per question from 1 to 2")
}

func TestDraftSupport_TooFewHintsRejected(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"hints":["one"],"teacher_note":"x"}`)})
	d := NewDrafter(mock, DefaultConfig())

	_, err := d.DraftSupport(context.Background(), quizNode(), quizFlag())
	var invalid *llm.InvalidResponseError
	require.ErrorAs(t, err, &invalid)
}

func TestDraftAll(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(goodDraft)},
		llm.MockResponse{Content: json.RawMessage(goodDraft)},
	)
	d := NewDrafter(mock, Config{MaxTokens: 100, Concurrency: 1})

	second := quizNode()
	second.ID = "frac-order"
	flag2 := quizFlag()
	flag2.NodeID = "frac-order"

	drafts, err := d.DraftAll(context.Background(),
		map[string]skillgraph.SkillNode{"frac-compare": quizNode(), "frac-order": second},
		[]calibrate.SupportFlag{quizFlag(), flag2})
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "frac-compare", drafts[0].NodeID)
	assert.Equal(t, "frac-order", drafts[1].NodeID)
}

func TestDraftAll_UnknownNode(t *testing.T) {
	d := NewDrafter(llm.NewMockProvider(), DefaultConfig())
	_, err := d.DraftAll(context.Background(), nil, []calibrate.SupportFlag{quizFlag()})
	var nf *skillgraph.NodeNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestDraftAll_ProviderFailure(t *testing.T) {
	d := NewDrafter(llm.NewMockProvider(llm.MockResponse{Err: errors.New("down")}), DefaultConfig())
	_, err := d.DraftAll(context.Background(),
		map[string]skillgraph.SkillNode{"frac-compare": quizNode()}, []calibrate.SupportFlag{quizFlag()})
	assert.ErrorContains(t, err, "down")
}

func TestDescribeContent(t *testing.T) {
	for _, c := range []skillgraph.Content{
		skillgraph.Quiz{Questions: 1}, skillgraph.Lesson{Sections: 1}, skillgraph.Assignment{DueDays: 2},
		skillgraph.Exercise{Steps: 3}, skillgraph.Exercise{Steps: 3, Scaffolded: true}, nil,
	} {
		assert.NotEmpty(t, describeContent(c))
	}
}
