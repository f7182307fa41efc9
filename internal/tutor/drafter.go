// Package tutor drafts learner-facing support for calibration flags.
package tutor

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/skilltree/internal/calibrate"
	"github.com/abhisek/skilltree/internal/llm"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

// Config controls drafting requests.
type Config struct {
	MaxTokens   int     `yaml:"max_tokens" validate:"gt=0"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=1"`
	Concurrency int     `yaml:"concurrency" validate:"gte=1"`
}

// DefaultConfig returns the drafting defaults.
func DefaultConfig() Config {
	return Config{MaxTokens: 800, Temperature: 0.4, Concurrency: 4}
}

// SupportDraft is a proposal for a teacher to review. It is never applied
// automatically.
type SupportDraft struct {
	NodeID      string   `json:"node_id"`
	Hints       []string `json:"hints"`
	TeacherNote string   `json:"teacher_note"`
}

// Drafter asks a provider for support drafts.
type Drafter struct {
	provider llm.Provider
	cfg      Config
}

// NewDrafter creates a Drafter.
func NewDrafter(p llm.Provider, cfg Config) *Drafter {
	return &Drafter{provider: p, cfg: cfg}
}

// DraftSupport drafts hints for one flagged node.
func (d *Drafter) DraftSupport(ctx context.Context, node skillgraph.SkillNode, flag calibrate.SupportFlag) (SupportDraft, error) {
	ctx = llm.WithPurpose(ctx, "support-draft")

	resp, err := d.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(node, flag)}},
		Schema:      SupportSchema,
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
	})
	if err != nil {
		return SupportDraft{}, fmt.Errorf("draft support for %s: %w", node.ID, err)
	}

	out := SupportDraft{NodeID: node.ID}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return SupportDraft{}, fmt.Errorf("parse support draft for %s: %w", node.ID, err)
	}
	out.NodeID = node.ID
	return out, nil
}

// DraftAll drafts every flag concurrently. Drafts come back in flag order;
// the first failure cancels the rest.
func (d *Drafter) DraftAll(ctx context.Context, nodes map[string]skillgraph.SkillNode, flags []calibrate.SupportFlag) ([]SupportDraft, error) {
	drafts := make([]SupportDraft, len(flags))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, d.cfg.Concurrency))
	for i, f := range flags {
		node, ok := nodes[f.NodeID]
		if !ok {
			return nil, &skillgraph.NodeNotFoundError{NodeID: f.NodeID}
		}
		g.Go(func() error {
			draft, err := d.DraftSupport(ctx, node, f)
			if err != nil {
				return err
			}
			drafts[i] = draft
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return drafts, nil
}
