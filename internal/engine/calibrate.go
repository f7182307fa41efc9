package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/skilltree/internal/calibrate"
	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/skillgraph"
	"github.com/abhisek/skilltree/internal/store"
)

// CalibrationRun is the outcome of Calibrate.
type CalibrationRun struct {
	// RunID groups the audit log entries of an applied run. It is empty for
	// a dry run and when nothing was proposed.
	RunID   string
	DryRun  bool
	Report  calibrate.Report
	Nodes   []skillgraph.SkillNode
	Metrics map[string]progress.NodeMetrics
}

// Calibrate plans difficulty changes for the active nodes of one subject
// and grade. Unless dryRun is set, proposed changes and their audit log
// are written in one transaction. A dry run never writes.
func (e *Engine) Calibrate(ctx context.Context, p identity.Principal, subject skillgraph.Subject, grade int, dryRun bool) (run CalibrationRun, err error) {
	ctx, span := e.start(ctx, "Calibrate",
		attribute.String("subject", string(subject)),
		attribute.Int("grade", grade),
		attribute.Bool("dry_run", dryRun))
	defer func() { endSpan(span, err) }()

	if err := identity.RequireRole(p, "calibrate", identity.RoleTeacher, identity.RoleAdmin); err != nil {
		return CalibrationRun{}, err
	}

	stored, err := e.Nodes(ctx, subject, grade)
	if err != nil {
		return CalibrationRun{}, err
	}
	nodes := make([]skillgraph.SkillNode, 0, len(stored))
	for _, n := range stored {
		if n.Active {
			nodes = append(nodes, n)
		}
	}

	ms, err := e.collectMetrics(ctx, nodes)
	if err != nil {
		return CalibrationRun{}, err
	}
	report := calibrate.Plan(nodes, ms, e.policy, e.rewards)
	for _, pr := range report.Proposals {
		e.metrics.Calibration(string(pr.Action), dryRun)
	}
	for _, f := range report.Flagged {
		e.metrics.Calibration(string(f.Action), dryRun)
	}
	for _, k := range report.Kept {
		e.metrics.Calibration(string(k.Action), dryRun)
	}

	run = CalibrationRun{DryRun: dryRun, Report: report, Nodes: nodes, Metrics: ms}
	if dryRun || len(report.Proposals) == 0 {
		e.log.Info("calibration planned",
			"subject", subject, "grade", grade, "dry_run", dryRun,
			"proposals", len(report.Proposals), "flagged", len(report.Flagged), "skipped", len(report.Skipped))
		return run, nil
	}

	runID := uuid.NewString()
	now := e.clock.Now()
	entries := make([]store.CalibrationLogEntry, len(report.Proposals))
	for i, pr := range report.Proposals {
		entries[i] = store.CalibrationLogEntry{
			RunID:          runID,
			NodeID:         pr.NodeID,
			FromDifficulty: pr.Before.Difficulty,
			ToDifficulty:   pr.After.Difficulty,
			FromXP:         pr.Before.XPReward,
			ToXP:           pr.After.XPReward,
			FromGems:       pr.Before.GemReward,
			ToGems:         pr.After.GemReward,
			Rationale:      pr.Rationale,
			Actor:          p.ID,
			AppliedAt:      now,
		}
	}
	err = e.fetch(ctx, "apply calibration", func(ctx context.Context) error {
		return e.repo.InTx(ctx, func(r store.Repo) error {
			for _, pr := range report.Proposals {
				if err := r.UpdateNodeRewards(ctx, pr.After); err != nil {
					return err
				}
			}
			return r.AppendCalibrationLog(ctx, entries)
		})
	})
	if err != nil {
		return CalibrationRun{}, fmt.Errorf("apply calibration: %w", err)
	}

	run.RunID = runID
	e.log.Info("calibration applied",
		"run_id", runID, "subject", subject, "grade", grade, "actor", p.ID,
		"changed", len(report.Proposals), "flagged", len(report.Flagged))
	return run, nil
}

// collectMetrics aggregates every node's metrics with bounded parallelism.
func (e *Engine) collectMetrics(ctx context.Context, nodes []skillgraph.SkillNode) (map[string]progress.NodeMetrics, error) {
	results := make([]progress.NodeMetrics, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MetricsConcurrency)
	for i, n := range nodes {
		g.Go(func() error {
			m, err := e.nodeMetrics(gctx, n.ID)
			if err != nil {
				return fmt.Errorf("metrics for %s: %w", n.ID, err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]progress.NodeMetrics, len(results))
	for _, m := range results {
		out[m.NodeID] = m
	}
	return out, nil
}
