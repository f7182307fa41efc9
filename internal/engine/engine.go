// Package engine orchestrates the skill tree: it reads and writes the store
// and runs the pure progress, ledger, calibration and recommendation logic
// over what it reads. Every learner write is an optimistic read-modify-write
// retried on version conflicts.
package engine

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/skilltree/internal/cache"
	"github.com/abhisek/skilltree/internal/calibrate"
	"github.com/abhisek/skilltree/internal/clock"
	"github.com/abhisek/skilltree/internal/gamify"
	"github.com/abhisek/skilltree/internal/logger"
	"github.com/abhisek/skilltree/internal/metrics"
	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/recommend"
	"github.com/abhisek/skilltree/internal/skillgraph"
	"github.com/abhisek/skilltree/internal/store"
)

// Options configures an Engine. Nil collaborators get working defaults.
type Options struct {
	Config    Config
	Progress  progress.Config
	Gamify    gamify.Config
	Policy    calibrate.Policy
	Rewards   calibrate.RewardTable
	Recommend recommend.Config

	Clock   clock.Clock
	Cache   cache.MetricsCache
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

// DefaultOptions returns the default settings with no collaborators set.
func DefaultOptions() Options {
	return Options{
		Config:    DefaultConfig(),
		Progress:  progress.DefaultConfig(),
		Gamify:    gamify.DefaultConfig(),
		Policy:    calibrate.DefaultPolicy(),
		Rewards:   calibrate.DefaultRewardTable(),
		Recommend: recommend.DefaultConfig(),
	}
}

// Engine runs skill tree operations against a store.
type Engine struct {
	repo store.TxRepo

	cfg       Config
	progress  progress.Config
	gamify    gamify.Config
	policy    calibrate.Policy
	rewards   calibrate.RewardTable
	recommend recommend.Config

	clock   clock.Clock
	cache   cache.MetricsCache
	log     *logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// New returns an engine over repo.
func New(repo store.TxRepo, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return &Engine{
		repo:      repo,
		cfg:       opts.Config,
		progress:  opts.Progress,
		gamify:    opts.Gamify,
		policy:    opts.Policy,
		rewards:   opts.Rewards,
		recommend: opts.Recommend,
		clock:     opts.Clock,
		cache:     opts.Cache,
		log:       opts.Log,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer("skilltree/engine"),
	}
}

// fetch runs one store call under the fetch timeout. Running out of time
// is reported as a *TimeoutError naming op.
func (e *Engine) fetch(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()
	err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	return err
}

// withRetry repeats fn while it loses a version race, up to
// MaxConflictRetries extra attempts.
func (e *Engine) withRetry(learnerID string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		var conflict *store.ConflictError
		if !errors.As(err, &conflict) {
			return err
		}
		e.metrics.Conflict()
		if learnerID == "" {
			learnerID = conflict.Key
		}
		if attempt >= e.cfg.MaxConflictRetries {
			return &ConcurrentUpdateError{LearnerID: learnerID, Attempts: attempt + 1, Err: err}
		}
		e.log.Debug("version conflict, retrying", "learner_id", learnerID, "attempt", attempt+1)
	}
}

func (e *Engine) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "engine."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Nodes returns the stored nodes of one subject and grade; an empty subject
// or zero grade matches everything.
func (e *Engine) Nodes(ctx context.Context, subject skillgraph.Subject, grade int) ([]skillgraph.SkillNode, error) {
	var nodes []skillgraph.SkillNode
	err := e.fetch(ctx, "load nodes", func(ctx context.Context) error {
		var err error
		nodes, err = e.repo.Nodes(ctx, subject, grade)
		return err
	})
	return nodes, err
}

func (e *Engine) completions(ctx context.Context, learnerID string) ([]progress.Record, error) {
	var records []progress.Record
	err := e.fetch(ctx, "load completions", func(ctx context.Context) error {
		var err error
		records, err = e.repo.Completions(ctx, learnerID)
		return err
	})
	return records, err
}

// unlockable resolves the unlocked nodes over the full stored graph.
// Integrity problems are logged and counted, then returned with the valid
// part of the result.
func (e *Engine) unlockable(all []skillgraph.SkillNode, completed map[string]bool) ([]skillgraph.SkillNode, error) {
	ids, err := skillgraph.ComputeUnlocked(all, completed)
	var integrity *skillgraph.GraphIntegrityError
	if errors.As(err, &integrity) {
		e.metrics.IntegrityProblems(len(integrity.Problems))
		e.log.Warn("skill graph integrity problems", "count", len(integrity.Problems), "problems", integrity.Problems)
	}
	return pick(all, ids), err
}

func pick(all []skillgraph.SkillNode, ids []string) []skillgraph.SkillNode {
	byID := make(map[string]skillgraph.SkillNode, len(all))
	for _, n := range all {
		byID[n.ID] = n
	}
	out := make([]skillgraph.SkillNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id].Clone())
	}
	return out
}

func findNode(nodes []skillgraph.SkillNode, id string) (skillgraph.SkillNode, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return skillgraph.SkillNode{}, false
}

func filterNodes(nodes []skillgraph.SkillNode, subject skillgraph.Subject, grade int) []skillgraph.SkillNode {
	out := make([]skillgraph.SkillNode, 0, len(nodes))
	for _, n := range nodes {
		if subject != "" && n.Subject != subject {
			continue
		}
		if grade != 0 && n.Grade != grade {
			continue
		}
		out = append(out, n)
	}
	return out
}
