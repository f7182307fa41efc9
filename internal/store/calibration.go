package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skilltree/internal/skillgraph"
)

var calibrationFields = columnNames(calibrationColumns[1:])

func (s *Store) AppendCalibrationLog(ctx context.Context, entries []CalibrationLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ins := builder().Insert(tableCalibration).Columns(calibrationFields...)
	for _, e := range entries {
		ins.Values(e.RunID, e.NodeID, string(e.FromDifficulty), string(e.ToDifficulty),
			e.FromXP, e.ToXP, e.FromGems, e.ToGems, e.Rationale, e.Actor, formatTime(e.AppliedAt))
	}
	query, args := ins.Query()

	defer s.observe("append_calibration", time.Now())
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append calibration log: %w", err)
	}
	return nil
}

// CalibrationLog returns applied changes newest first. An empty nodeID
// returns every node's changes.
func (s *Store) CalibrationLog(ctx context.Context, nodeID string, limit int) ([]CalibrationLogEntry, error) {
	b := builder()
	sel := b.Select(columnNames(calibrationColumns)...).From(b.Table(tableCalibration))
	if nodeID != "" {
		sel.Where(entsql.EQ("node_id", nodeID))
	}
	sel.OrderBy(entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	defer s.observe("calibration_log", time.Now())
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calibration log: %w", err)
	}
	defer rows.Close()

	var out []CalibrationLogEntry
	for rows.Next() {
		var (
			e                  CalibrationLogEntry
			from, to, applied string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.NodeID, &from, &to, &e.FromXP, &e.ToXP,
			&e.FromGems, &e.ToGems, &e.Rationale, &e.Actor, &applied); err != nil {
			return nil, fmt.Errorf("scan calibration entry: %w", err)
		}
		e.FromDifficulty = skillgraph.Difficulty(from)
		e.ToDifficulty = skillgraph.Difficulty(to)
		if e.AppliedAt, err = parseTime(applied); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
