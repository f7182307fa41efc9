package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/skilltree/internal/skillgraph"
)

// AppendActivity assigns the entry an ID and sequence number and appends it.
func (s *Store) AppendActivity(ctx context.Context, a Activity) (Activity, error) {
	seq, err := s.seq.Next(ctx, s.q)
	if err != nil {
		return a, err
	}
	a.Sequence = seq
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query, args := builder().Insert(tableActivity).
		Columns(columnNames(activityColumns)...).
		Values(a.ID, a.Sequence, a.LearnerID, a.NodeID, string(a.Subject), a.Score, a.XP, a.Gems, formatTime(a.At)).
		Query()

	defer s.observe("append_activity", time.Now())
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return a, fmt.Errorf("append activity: %w", err)
	}
	return a, nil
}

func (s *Store) RecentActivity(ctx context.Context, learnerID string, limit int) ([]Activity, error) {
	b := builder()
	sel := b.Select(columnNames(activityColumns)...).
		From(b.Table(tableActivity)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	defer s.observe("recent_activity", time.Now())
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a        Activity
			subj, at string
		)
		if err := rows.Scan(&a.ID, &a.Sequence, &a.LearnerID, &a.NodeID, &subj, &a.Score, &a.XP, &a.Gems, &at); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Subject = skillgraph.Subject(subj)
		if a.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
