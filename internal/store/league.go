package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/skilltree/internal/gamify"
)

var standingFields = columnNames(standingsColumns[1:])

func (s *Store) SaveStandings(ctx context.Context, standings []gamify.Standing) error {
	weeks := make(map[string]bool)
	for _, st := range standings {
		weeks[st.Week] = true
	}
	return s.InTx(ctx, func(r Repo) error {
		tx := r.(*Store)
		defer tx.observe("save_standings", time.Now())
		for week := range weeks {
			query, args := builder().Delete(tableStandings).Where(entsql.EQ("week", week)).Query()
			if _, err := tx.q.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("clear standings %s: %w", week, err)
			}
		}
		for _, st := range standings {
			for _, e := range st.Entries {
				query, args := builder().Insert(tableStandings).
					Columns(standingFields...).
					Values(st.Week, string(st.Tier), e.LearnerID, e.Rank, e.WeeklyXP, string(e.Trend), string(e.Move)).
					Query()
				if _, err := tx.q.ExecContext(ctx, query, args...); err != nil {
					return fmt.Errorf("save standing %s/%s: %w", st.Week, e.LearnerID, err)
				}
			}
		}
		return nil
	})
}

// Standings returns the week's standings, one per tier that has entries,
// from the lowest tier up.
func (s *Store) Standings(ctx context.Context, week string) ([]gamify.Standing, error) {
	b := builder()
	query, args := b.Select(standingFields...).
		From(b.Table(tableStandings)).
		Where(entsql.EQ("week", week)).
		OrderBy("tier", "rank").
		Query()

	defer s.observe("standings", time.Now())
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	byTier := make(map[gamify.Tier]*gamify.Standing)
	for rows.Next() {
		var (
			e                  gamify.StandingEntry
			wk, tier, tr, move string
		)
		if err := rows.Scan(&wk, &tier, &e.LearnerID, &e.Rank, &e.WeeklyXP, &tr, &move); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		e.Trend = gamify.Trend(tr)
		e.Move = gamify.Move(move)
		st, ok := byTier[gamify.Tier(tier)]
		if !ok {
			st = &gamify.Standing{Week: wk, Tier: gamify.Tier(tier)}
			byTier[st.Tier] = st
		}
		st.Entries = append(st.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []gamify.Standing
	for _, t := range gamify.AllTiers() {
		if st, ok := byTier[t]; ok {
			out = append(out, *st)
		}
	}
	return out, nil
}

// LatestStandingsWeek returns the most recent week with saved standings.
func (s *Store) LatestStandingsWeek(ctx context.Context) (string, bool, error) {
	b := builder()
	query, args := b.Select("week").
		From(b.Table(tableStandings)).
		OrderBy(entsql.Desc("week")).
		Limit(1).
		Query()

	var week string
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return "", false, fmt.Errorf("query latest week: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return "", false, rows.Err()
	}
	if err := rows.Scan(&week); err != nil {
		return "", false, fmt.Errorf("scan week: %w", err)
	}
	return week, true, nil
}
