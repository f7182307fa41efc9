package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/skilltree/internal/gamify"
	"github.com/abhisek/skilltree/internal/store"
)

// RolloverResult is the outcome of closing a league week.
type RolloverResult struct {
	Week      string
	Standings []gamify.Standing
	Changes   []gamify.TierChange
	// AlreadyClosed is set when standings for Week existed before the call.
	// Nothing was written and Changes is empty.
	AlreadyClosed bool
}

// Rollover closes the league week containing week (YYYY-MM-DD, league
// timezone). An empty week closes the week before the current one.
// Standings and tier changes are written in one transaction; closing the
// same week twice is a no-op.
func (e *Engine) Rollover(ctx context.Context, week string) (res RolloverResult, err error) {
	ctx, span := e.start(ctx, "Rollover")
	defer func() { endSpan(span, err) }()

	week, prevWeek, err := e.leagueWeeks(week)
	if err != nil {
		return RolloverResult{}, err
	}
	span.SetAttributes(attribute.String("week", week))

	var (
		existing []gamify.Standing
		previous []gamify.Standing
		states   []gamify.State
	)
	err = e.fetch(ctx, "load league", func(ctx context.Context) error {
		var err error
		if existing, err = e.repo.Standings(ctx, week); err != nil {
			return err
		}
		if previous, err = e.repo.Standings(ctx, prevWeek); err != nil {
			return err
		}
		states, err = e.repo.AllStates(ctx)
		return err
	})
	if err != nil {
		return RolloverResult{}, err
	}
	if len(existing) > 0 {
		e.log.Info("league week already closed", "week", week)
		return RolloverResult{Week: week, Standings: existing, AlreadyClosed: true}, nil
	}

	standings, changes := gamify.Rollover(states, week, previous, e.gamify.League)
	err = e.withRetry("", func() error {
		return e.fetch(ctx, "save league", func(ctx context.Context) error {
			return e.repo.InTx(ctx, func(r store.Repo) error {
				if err := r.SaveStandings(ctx, standings); err != nil {
					return err
				}
				for _, c := range changes {
					st, ok, err := r.GamificationState(ctx, c.LearnerID)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
					st.League = c.To
					if _, err := r.SaveGamificationState(ctx, st); err != nil {
						return err
					}
				}
				return nil
			})
		})
	})
	if err != nil {
		return RolloverResult{}, err
	}

	for _, st := range standings {
		for _, entry := range st.Entries {
			e.metrics.TierMove(string(entry.Move))
		}
	}
	e.log.Info("league week closed", "week", week, "tiers", len(standings), "moves", len(changes))
	return RolloverResult{Week: week, Standings: standings, Changes: changes}, nil
}

// Standings returns the stored standings of week, or of the latest closed
// week when week is empty. It returns the week it resolved to, which is
// empty when no week has been closed yet.
func (e *Engine) Standings(ctx context.Context, week string) (string, []gamify.Standing, error) {
	var standings []gamify.Standing
	err := e.fetch(ctx, "load standings", func(ctx context.Context) error {
		if week == "" {
			latest, ok, err := e.repo.LatestStandingsWeek(ctx)
			if err != nil || !ok {
				return err
			}
			week = latest
		} else {
			w, _, err := e.leagueWeeks(week)
			if err != nil {
				return err
			}
			week = w
		}
		var err error
		standings, err = e.repo.Standings(ctx, week)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return week, standings, nil
}

// leagueWeeks resolves week to the Monday starting it and the Monday of
// the week before.
func (e *Engine) leagueWeeks(week string) (string, string, error) {
	loc, err := time.LoadLocation(e.gamify.LeagueTimezone)
	if err != nil {
		return "", "", fmt.Errorf("league timezone %q: %w", e.gamify.LeagueTimezone, err)
	}
	var t time.Time
	if week == "" {
		t = e.clock.Now().AddDate(0, 0, -7)
	} else if t, err = time.ParseInLocation(gamify.DateLayout, week, loc); err != nil {
		return "", "", fmt.Errorf("league week %q: %w", week, err)
	}
	start := gamify.WeekStart(t, loc)
	monday, err := time.ParseInLocation(gamify.DateLayout, start, loc)
	if err != nil {
		return "", "", err
	}
	return start, monday.AddDate(0, 0, -7).Format(gamify.DateLayout), nil
}
