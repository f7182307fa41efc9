package engine

import (
	"context"
	"errors"
	"maps"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/skilltree/internal/gamify"
	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/skillgraph"
	"github.com/abhisek/skilltree/internal/store"
)

// Result is the outcome of one recorded attempt.
type Result struct {
	Record progress.Record
	State  gamify.State
	Events gamify.Events
	// NewlyUnlocked lists nodes this attempt made available, by ID.
	NewlyUnlocked []skillgraph.SkillNode
	// OutOfOrder is set when the attempt predates the learner's last
	// activity. XP and gems were applied; the streak was not touched.
	OutOfOrder bool
}

// RecordCompletion applies one attempt: the completion record, the
// activity log entry and the gamification state are written in a single
// transaction guarded by the state's version.
//
// Attempts on inactive nodes are rejected with *skillgraph.NodeInactiveError.
// Prerequisites are not checked: work done outside the tree, such as an
// imported gradebook, is recorded and rewarded like any other attempt.
func (e *Engine) RecordCompletion(ctx context.Context, p identity.Principal, a progress.Attempt) (res Result, err error) {
	ctx, span := e.start(ctx, "RecordCompletion", attribute.String("node_id", a.NodeID))
	defer func() { endSpan(span, err) }()

	if err := a.Validate(); err != nil {
		return Result{}, err
	}
	if err := identity.RequireSelfOrStaff(p, a.LearnerID, "record completion"); err != nil {
		return Result{}, err
	}

	all, err := e.Nodes(ctx, "", 0)
	if err != nil {
		e.metrics.Completion("error", 0)
		return Result{}, err
	}
	node, ok := findNode(all, a.NodeID)
	if !ok {
		e.metrics.Completion("not_found", 0)
		return Result{}, &skillgraph.NodeNotFoundError{NodeID: a.NodeID}
	}
	if !node.Active {
		e.metrics.Completion("inactive", 0)
		return Result{}, &skillgraph.NodeInactiveError{NodeID: a.NodeID}
	}

	err = e.withRetry(a.LearnerID, func() error {
		var err error
		res, err = e.recordOnce(ctx, node, all, a)
		return err
	})
	if err != nil {
		var conflict *ConcurrentUpdateError
		if errors.As(err, &conflict) {
			e.metrics.Completion("conflict", 0)
		} else {
			e.metrics.Completion("error", 0)
		}
		return Result{}, err
	}

	if err := e.cache.Delete(ctx, a.NodeID); err != nil {
		e.log.Warn("metrics cache invalidation failed", "node_id", a.NodeID, "error", err)
	}

	outcome := "ok"
	if res.OutOfOrder {
		outcome = "out_of_order"
		e.log.Info("out-of-order completion, streak unchanged",
			"learner_id", a.LearnerID, "node_id", a.NodeID, "last_activity", res.State.LastActivity)
	}
	e.metrics.Completion(outcome, res.Events.XPAwarded)
	e.log.Info("completion recorded",
		"learner_id", a.LearnerID,
		"node_id", a.NodeID,
		"score", a.Score,
		"stars", res.Record.Stars,
		"xp", res.Events.XPAwarded,
		"gems", res.Events.GemsAwarded,
		"unlocked", len(res.NewlyUnlocked))
	return res, nil
}

func (e *Engine) recordOnce(ctx context.Context, node skillgraph.SkillNode, all []skillgraph.SkillNode, a progress.Attempt) (Result, error) {
	var res Result
	err := e.fetch(ctx, "record completion", func(ctx context.Context) error {
		return e.repo.InTx(ctx, func(r store.Repo) error {
			records, err := r.Completions(ctx, a.LearnerID)
			if err != nil {
				return err
			}
			var prior progress.Record
			for _, rec := range records {
				if rec.NodeID == a.NodeID {
					prior = rec
					break
				}
			}

			st, ok, err := r.GamificationState(ctx, a.LearnerID)
			if err != nil {
				return err
			}
			if !ok {
				st = gamify.NewState(a.LearnerID, e.gamify.LeagueTimezone)
			}

			rec := progress.Merge(prior, a, e.progress)
			award := gamify.Award{
				NodeID:     node.ID,
				XPReward:   node.XPReward,
				GemReward:  node.GemReward,
				PriorStars: prior.Stars,
				NewStars:   rec.Stars,
			}
			next, ev, err := gamify.Apply(st, award, a.At, e.gamify)
			var outOfOrder *gamify.OutOfOrderEventError
			if err != nil && !errors.As(err, &outOfOrder) {
				return err
			}

			if err := r.UpsertCompletion(ctx, rec); err != nil {
				return err
			}
			if _, err := r.AppendActivity(ctx, store.Activity{
				LearnerID: a.LearnerID,
				NodeID:    a.NodeID,
				Subject:   node.Subject,
				Score:     a.Score,
				XP:        ev.XPAwarded,
				Gems:      ev.GemsAwarded,
				At:        a.At,
			}); err != nil {
				return err
			}
			saved, err := r.SaveGamificationState(ctx, next)
			if err != nil {
				return err
			}

			before := progress.MasterySet(records, e.progress.MasteryThreshold)
			after := maps.Clone(before)
			if rec.Completed(e.progress.MasteryThreshold) {
				after[rec.NodeID] = true
			}
			res = Result{
				Record:        rec,
				State:         saved,
				Events:        ev,
				NewlyUnlocked: newlyUnlocked(all, before, after),
				OutOfOrder:    outOfOrder != nil,
			}
			return nil
		})
	})
	return res, err
}

// newlyUnlocked diffs the unlocked sets before and after. Dangling
// references are skipped here; read paths report them.
func newlyUnlocked(all []skillgraph.SkillNode, before, after map[string]bool) []skillgraph.SkillNode {
	was, _ := skillgraph.ComputeUnlocked(all, before)
	now, _ := skillgraph.ComputeUnlocked(all, after)
	seen := make(map[string]bool, len(was))
	for _, id := range was {
		seen[id] = true
	}
	var ids []string
	for _, id := range now {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return pick(all, ids)
}
