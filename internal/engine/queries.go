package engine

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/skilltree/internal/gamify"
	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/recommend"
	"github.com/abhisek/skilltree/internal/skillgraph"
	"github.com/abhisek/skilltree/internal/store"
)

// Unlocked returns the learner's unlocked nodes in one subject and grade,
// sorted by ID. Prerequisites are resolved over the whole stored graph, so
// a node whose prerequisite lives in another subject still resolves.
//
// Nodes with dangling prerequisites are left out and reported in a
// *skillgraph.GraphIntegrityError returned with the valid remainder.
func (e *Engine) Unlocked(ctx context.Context, learnerID string, subject skillgraph.Subject, grade int) (nodes []skillgraph.SkillNode, err error) {
	ctx, span := e.start(ctx, "Unlocked", attribute.String("subject", string(subject)), attribute.Int("grade", grade))
	defer func() { endSpan(span, err) }()

	all, err := e.Nodes(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	records, err := e.completions(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	unlocked, err := e.unlockable(all, progress.MasterySet(records, e.progress.MasteryThreshold))
	return filterNodes(unlocked, subject, grade), err
}

// Recommend ranks the learner's unlocked nodes and returns at most n.
// Integrity problems in the graph do not stop a recommendation; they are
// logged by Unlocked and the valid nodes are ranked.
func (e *Engine) Recommend(ctx context.Context, learnerID string, subject skillgraph.Subject, grade, n int) (recs []recommend.Recommendation, err error) {
	ctx, span := e.start(ctx, "Recommend", attribute.String("subject", string(subject)), attribute.Int("n", n))
	defer func() { endSpan(span, err) }()

	candidates, err := e.Unlocked(ctx, learnerID, subject, grade)
	var integrity *skillgraph.GraphIntegrityError
	if err != nil && !errors.As(err, &integrity) {
		return nil, err
	}

	var recent []store.Activity
	err = e.fetch(ctx, "recent activity", func(ctx context.Context) error {
		var err error
		recent, err = e.repo.RecentActivity(ctx, learnerID, e.recommend.RecentWindow)
		return err
	})
	if err != nil {
		return nil, err
	}
	scores := make([]recommend.SubjectScore, len(recent))
	for i, a := range recent {
		scores[i] = recommend.SubjectScore{Subject: a.Subject, Score: a.Score, At: a.At}
	}
	lc := recommend.NewContext(learnerID, scores, e.recommend)
	return recommend.NextBest(candidates, lc, n), nil
}

// StateView is a learner's ledger with its derived values.
type StateView struct {
	gamify.State
	Level         int
	NextLevelAt   int
	CurrentStreak int
}

// State returns the learner's ledger. A learner with no activity gets the
// initial state.
func (e *Engine) State(ctx context.Context, learnerID string) (StateView, error) {
	var (
		st gamify.State
		ok bool
	)
	err := e.fetch(ctx, "load state", func(ctx context.Context) error {
		var err error
		st, ok, err = e.repo.GamificationState(ctx, learnerID)
		return err
	})
	if err != nil {
		return StateView{}, err
	}
	if !ok {
		st = gamify.NewState(learnerID, e.gamify.LeagueTimezone)
	}
	return StateView{
		State:         st,
		Level:         st.Level(e.gamify.Levels),
		NextLevelAt:   e.gamify.Levels.NextLevelAt(st.TotalXP),
		CurrentStreak: st.CurrentStreak(e.clock.Now()),
	}, nil
}

// NodeMetrics returns the aggregate metrics of one node.
func (e *Engine) NodeMetrics(ctx context.Context, nodeID string) (m progress.NodeMetrics, err error) {
	ctx, span := e.start(ctx, "NodeMetrics", attribute.String("node_id", nodeID))
	defer func() { endSpan(span, err) }()

	all, err := e.Nodes(ctx, "", 0)
	if err != nil {
		return progress.NodeMetrics{}, err
	}
	if _, ok := findNode(all, nodeID); !ok {
		return progress.NodeMetrics{}, &skillgraph.NodeNotFoundError{NodeID: nodeID}
	}
	return e.nodeMetrics(ctx, nodeID)
}

// nodeMetrics serves from the cache and falls back to a fresh aggregation.
// Cache failures are logged and never fail the call.
func (e *Engine) nodeMetrics(ctx context.Context, nodeID string) (progress.NodeMetrics, error) {
	m, ok, err := e.cache.Get(ctx, nodeID)
	if err != nil {
		e.log.Warn("metrics cache read failed", "node_id", nodeID, "error", err)
	}
	if ok {
		return m, nil
	}

	var records []progress.Record
	err = e.fetch(ctx, "node completions", func(ctx context.Context) error {
		var err error
		records, err = e.repo.NodeCompletions(ctx, nodeID)
		return err
	})
	if err != nil {
		return progress.NodeMetrics{}, err
	}
	m = progress.Aggregate(nodeID, records, e.clock.Now(), e.progress)
	if err := e.cache.Set(ctx, m); err != nil {
		e.log.Warn("metrics cache write failed", "node_id", nodeID, "error", err)
	}
	return m, nil
}
