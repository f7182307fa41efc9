package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skilltree/internal/progress"
)

var completionFields = columnNames(completionsColumns[1:])

func (s *Store) Completions(ctx context.Context, learnerID string) ([]progress.Record, error) {
	return s.queryCompletions(ctx, "completions", entsql.EQ("learner_id", learnerID))
}

func (s *Store) NodeCompletions(ctx context.Context, nodeID string) ([]progress.Record, error) {
	return s.queryCompletions(ctx, "node_completions", entsql.EQ("node_id", nodeID))
}

// Completion returns the learner's record for a node; ok is false when the
// learner has never attempted it.
func (s *Store) Completion(ctx context.Context, learnerID, nodeID string) (progress.Record, bool, error) {
	recs, err := s.queryCompletions(ctx, "completion",
		entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("node_id", nodeID)))
	if err != nil || len(recs) == 0 {
		return progress.Record{}, false, err
	}
	return recs[0], true, nil
}

func (s *Store) queryCompletions(ctx context.Context, op string, where *entsql.Predicate) ([]progress.Record, error) {
	b := builder()
	query, args := b.Select(completionFields...).
		From(b.Table(tableCompletions)).
		Where(where).
		OrderBy("learner_id", "node_id").
		Query()

	defer s.observe(op, time.Now())
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	var out []progress.Record
	for rows.Next() {
		var (
			r           progress.Record
			spent       int64
			first, last string
		)
		if err := rows.Scan(&r.LearnerID, &r.NodeID, &r.BestScore, &r.Stars, &r.Attempts, &spent, &first, &last); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		r.TimeSpent = time.Duration(spent)
		if r.FirstCompletedAt, err = parseTime(first); err != nil {
			return nil, err
		}
		if r.LastAttemptAt, err = parseTime(last); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertCompletion stores rec as the single record for its learner and node.
func (s *Store) UpsertCompletion(ctx context.Context, rec progress.Record) error {
	query, args := builder().Insert(tableCompletions).
		Columns(completionFields...).
		Values(rec.LearnerID, rec.NodeID, rec.BestScore, rec.Stars, rec.Attempts, int64(rec.TimeSpent),
			formatTime(rec.FirstCompletedAt), formatTime(rec.LastAttemptAt)).
		OnConflict(entsql.ConflictColumns("learner_id", "node_id"), entsql.ResolveWithNewValues()).
		Query()

	defer s.observe("upsert_completion", time.Now())
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert completion %s/%s: %w", rec.LearnerID, rec.NodeID, err)
	}
	return nil
}
