package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skilltree/internal/gamify"
)

var stateFields = columnNames(statesColumns)

func (s *Store) GamificationState(ctx context.Context, learnerID string) (gamify.State, bool, error) {
	states, err := s.queryStates(ctx, "state", entsql.EQ("learner_id", learnerID))
	if err != nil || len(states) == 0 {
		return gamify.State{}, false, err
	}
	return states[0], true, nil
}

func (s *Store) AllStates(ctx context.Context) ([]gamify.State, error) {
	return s.queryStates(ctx, "all_states", nil)
}

func (s *Store) queryStates(ctx context.Context, op string, where *entsql.Predicate) ([]gamify.State, error) {
	b := builder()
	sel := b.Select(stateFields...).From(b.Table(tableStates))
	if where != nil {
		sel.Where(where)
	}
	query, args := sel.OrderBy("learner_id").Query()

	defer s.observe(op, time.Now())
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	var out []gamify.State
	for rows.Next() {
		var (
			st     gamify.State
			league string
		)
		if err := rows.Scan(&st.LearnerID, &st.Timezone, &st.TotalXP, &st.Gems, &st.Streak, &st.LongestStreak,
			&st.LastActivity, &league, &st.WeekStart, &st.WeeklyXP, &st.PrevWeekStart, &st.PrevWeeklyXP,
			&st.Version); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		st.League = gamify.Tier(league)
		out = append(out, st)
	}
	return out, rows.Err()
}

// SaveGamificationState performs a compare-and-swap on the version column.
// Version 0 means the caller saw no row, so the write is an insert that
// loses to any concurrent insert.
func (s *Store) SaveGamificationState(ctx context.Context, st gamify.State) (gamify.State, error) {
	next := st
	next.Version = st.Version + 1
	league := string(st.Tier())

	var (
		query string
		args  []any
	)
	if st.Version == 0 {
		query, args = builder().Insert(tableStates).
			Columns(stateFields...).
			Values(st.LearnerID, st.Timezone, st.TotalXP, st.Gems, st.Streak, st.LongestStreak,
				st.LastActivity, league, st.WeekStart, st.WeeklyXP, st.PrevWeekStart, st.PrevWeeklyXP,
				next.Version).
			OnConflict(entsql.ConflictColumns("learner_id"), entsql.DoNothing()).
			Query()
	} else {
		query, args = builder().Update(tableStates).
			Set("timezone", st.Timezone).
			Set("total_xp", st.TotalXP).
			Set("gems", st.Gems).
			Set("streak", st.Streak).
			Set("longest_streak", st.LongestStreak).
			Set("last_activity", st.LastActivity).
			Set("league", league).
			Set("week_start", st.WeekStart).
			Set("weekly_xp", st.WeeklyXP).
			Set("prev_week_start", st.PrevWeekStart).
			Set("prev_weekly_xp", st.PrevWeeklyXP).
			Set("version", next.Version).
			Where(entsql.And(entsql.EQ("learner_id", st.LearnerID), entsql.EQ("version", st.Version))).
			Query()
	}

	defer s.observe("save_state", time.Now())
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return st, fmt.Errorf("save state %s: %w", st.LearnerID, err)
	}
	affected, err := rowsAffected(res)
	if err != nil {
		return st, err
	}
	if affected == 0 {
		return st, &ConflictError{Table: tableStates, Key: st.LearnerID, Expected: st.Version}
	}
	next.League = gamify.Tier(league)
	return next, nil
}
