// Package metrics holds the engine's Prometheus instruments. The CLI runs
// as short-lived jobs, so metrics are exported to a node_exporter textfile
// rather than scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a private registry with the engine's instruments.
type Metrics struct {
	reg *prometheus.Registry

	completions      *prometheus.CounterVec
	xpAwarded        prometheus.Counter
	conflicts        prometheus.Counter
	calibrations     *prometheus.CounterVec
	tierChanges      *prometheus.CounterVec
	llmRequests      *prometheus.CounterVec
	storeDuration    *prometheus.HistogramVec
	integrityProblem prometheus.Counter
}

// New creates a registry and registers every instrument on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		completions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skilltree_completions_total",
			Help: "Completion events by outcome",
		}, []string{"outcome"}),
		xpAwarded: f.NewCounter(prometheus.CounterOpts{
			Name: "skilltree_xp_awarded_total",
			Help: "XP awarded across all learners",
		}),
		conflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "skilltree_state_conflicts_total",
			Help: "Optimistic concurrency conflicts on learner state writes",
		}),
		calibrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skilltree_calibration_suggestions_total",
			Help: "Calibration outcomes by action and mode",
		}, []string{"action", "mode"}),
		tierChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skilltree_league_moves_total",
			Help: "League tier changes at weekly rollover",
		}, []string{"move"}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skilltree_llm_requests_total",
			Help: "LLM requests by provider and result",
		}, []string{"provider", "result"}),
		storeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skilltree_store_duration_seconds",
			Help:    "Store call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}, []string{"op"}),
		integrityProblem: f.NewCounter(prometheus.CounterOpts{
			Name: "skilltree_graph_integrity_problems_total",
			Help: "Dangling prerequisites seen while resolving unlocks",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Completion counts a completion event with outcome ok, out_of_order,
// not_found, conflict or error.
func (m *Metrics) Completion(outcome string, xp int) {
	m.completions.WithLabelValues(outcome).Inc()
	if xp > 0 {
		m.xpAwarded.Add(float64(xp))
	}
}

// Conflict counts one lost optimistic write.
func (m *Metrics) Conflict() { m.conflicts.Inc() }

// Calibration counts one suggestion.
func (m *Metrics) Calibration(action string, dryRun bool) {
	mode := "apply"
	if dryRun {
		mode = "dry_run"
	}
	m.calibrations.WithLabelValues(action, mode).Inc()
}

// TierMove counts one league move.
func (m *Metrics) TierMove(move string) { m.tierChanges.WithLabelValues(move).Inc() }

// LLMRequest counts one provider call.
func (m *Metrics) LLMRequest(provider string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.llmRequests.WithLabelValues(provider, result).Inc()
}

// ObserveStore records how long a store call took.
func (m *Metrics) ObserveStore(op string, started time.Time) {
	m.storeDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// IntegrityProblems counts dangling references seen at resolution time.
func (m *Metrics) IntegrityProblems(n int) { m.integrityProblem.Add(float64(n)) }

// WriteTextfile writes every metric to path in the text exposition format,
// atomically, for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
