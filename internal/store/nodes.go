package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skilltree/internal/skillgraph"
)

func (s *Store) Nodes(ctx context.Context, subject skillgraph.Subject, grade int) ([]skillgraph.SkillNode, error) {
	b := builder()
	sel := b.Select(columnNames(nodesColumns)...).From(b.Table(tableNodes))
	var preds []*entsql.Predicate
	if subject != "" {
		preds = append(preds, entsql.EQ("subject", string(subject)))
	}
	if grade != 0 {
		preds = append(preds, entsql.EQ("grade", grade))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	query, args := sel.OrderBy("id").Query()

	defer s.observe("nodes", time.Now())
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []skillgraph.SkillNode
	for rows.Next() {
		var (
			n                   skillgraph.SkillNode
			subj, diff          string
			prereqs, kind, body string
		)
		if err := rows.Scan(&n.ID, &n.Title, &subj, &n.Grade, &diff, &n.XPReward, &n.GemReward,
			&prereqs, &n.Checkpoint, &n.EstimatedMins, &n.Active, &kind, &body); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.Subject = skillgraph.Subject(subj)
		n.Difficulty = skillgraph.Difficulty(diff)
		if err := json.Unmarshal([]byte(prereqs), &n.Prerequisites); err != nil {
			return nil, fmt.Errorf("node %q prerequisites: %w", n.ID, err)
		}
		if n.Content, err = decodeContent(kind, body); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// SaveNodes inserts nodes or replaces the stored copy of nodes already present.
func (s *Store) SaveNodes(ctx context.Context, nodes []skillgraph.SkillNode) error {
	return s.InTx(ctx, func(r Repo) error {
		tx := r.(*Store)
		for _, n := range nodes {
			if err := tx.saveNode(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) saveNode(ctx context.Context, n skillgraph.SkillNode) error {
	prereqs := n.Prerequisites
	if prereqs == nil {
		prereqs = []string{}
	}
	prereqJSON, err := json.Marshal(prereqs)
	if err != nil {
		return fmt.Errorf("node %q prerequisites: %w", n.ID, err)
	}
	kind, body, err := encodeContent(n.Content)
	if err != nil {
		return fmt.Errorf("node %q: %w", n.ID, err)
	}

	query, args := builder().Insert(tableNodes).
		Columns(columnNames(nodesColumns)...).
		Values(n.ID, n.Title, string(n.Subject), n.Grade, string(n.Difficulty), n.XPReward, n.GemReward,
			string(prereqJSON), n.Checkpoint, n.EstimatedMins, n.Active, kind, body).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()

	defer s.observe("save_node", time.Now())
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save node %q: %w", n.ID, err)
	}
	return nil
}

func (s *Store) UpdateNodeRewards(ctx context.Context, n skillgraph.SkillNode) error {
	query, args := builder().Update(tableNodes).
		Set("difficulty", string(n.Difficulty)).
		Set("xp_reward", n.XPReward).
		Set("gem_reward", n.GemReward).
		Where(entsql.EQ("id", n.ID)).
		Query()

	defer s.observe("update_node", time.Now())
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update node %q: %w", n.ID, err)
	}
	affected, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if affected == 0 {
		return &skillgraph.NodeNotFoundError{NodeID: n.ID}
	}
	return nil
}
