package engine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

// LoadContent validates nodes together with the content already stored
// and saves them. Nodes replace stored nodes with the same ID. A content
// set that would leave the graph invalid is rejected whole with a
// *skillgraph.GraphIntegrityError and nothing is written.
func (e *Engine) LoadContent(ctx context.Context, p identity.Principal, nodes []skillgraph.SkillNode) (err error) {
	ctx, span := e.start(ctx, "LoadContent", attribute.Int("nodes", len(nodes)))
	defer func() { endSpan(span, err) }()

	if err := identity.RequireRole(p, "load content", identity.RoleTeacher, identity.RoleAdmin); err != nil {
		return err
	}

	existing, err := e.Nodes(ctx, "", 0)
	if err != nil {
		return err
	}
	incoming := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		incoming[n.ID] = true
	}
	merged := make([]skillgraph.SkillNode, 0, len(existing)+len(nodes))
	for _, n := range existing {
		if !incoming[n.ID] {
			merged = append(merged, n)
		}
	}
	merged = append(merged, nodes...)
	if _, err := skillgraph.New(merged); err != nil {
		return err
	}

	err = e.fetch(ctx, "save nodes", func(ctx context.Context) error {
		return e.repo.SaveNodes(ctx, nodes)
	})
	if err != nil {
		return err
	}
	e.log.Info("content loaded", "nodes", len(nodes), "total", len(merged))
	return nil
}
