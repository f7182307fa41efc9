package tutor

import "github.com/abhisek/skilltree/internal/llm"

// SupportSchema is the JSON shape of a support draft.
var SupportSchema = &llm.Schema{
	Name:        "support-draft",
	Description: "Extra support material for a curriculum node learners are struggling with",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hints": map[string]any{
				"type":        "array",
				"description": "Progressive hints, from gentle nudge to near-solution",
				"items":       map[string]any{"type": "string"},
				"minItems":    3,
				"maxItems":    5,
			},
			"teacher_note": map[string]any{
				"type":        "string",
				"description": "One or two sentences for the teacher on what to change in the node",
			},
		},
		"required":             []any{"hints", "teacher_note"},
		"additionalProperties": false,
	},
}
