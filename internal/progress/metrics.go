package progress

import "time"

// NodeMetrics summarizes every learner's progress on one node. It is
// derived data: a fresh Aggregate over the same records must match it.
type NodeMetrics struct {
	NodeID          string    `json:"node_id"`
	UniqueStudents  int       `json:"unique_students"`
	CompletionRate  float64   `json:"completion_rate"`
	AverageScore    float64   `json:"average_score"`
	AverageAttempts float64   `json:"average_attempts"`
	DropoutRate     float64   `json:"dropout_rate"`
	AsOf            time.Time `json:"as_of"`
}

// Aggregate computes NodeMetrics for nodeID from the node's completion
// records as of asOf. Records for other nodes, and records with no
// attempts, are ignored. A learner counts as dropped out when they have not
// reached the mastery threshold and their last attempt is older than
// cfg.StaleAfter.
func Aggregate(nodeID string, records []Record, asOf time.Time, cfg Config) NodeMetrics {
	m := NodeMetrics{NodeID: nodeID, AsOf: asOf}

	seen := make(map[string]bool, len(records))
	var completed, dropped, scoreSum, attemptSum int
	for _, r := range records {
		if r.NodeID != nodeID || !r.Exists() || seen[r.LearnerID] {
			continue
		}
		seen[r.LearnerID] = true

		scoreSum += r.BestScore
		attemptSum += r.Attempts
		switch {
		case r.Completed(cfg.MasteryThreshold):
			completed++
		case asOf.Sub(r.LastAttemptAt) > cfg.StaleAfter:
			dropped++
		}
	}

	n := len(seen)
	m.UniqueStudents = n
	if n == 0 {
		return m
	}
	m.CompletionRate = float64(completed) / float64(n)
	m.AverageScore = float64(scoreSum) / float64(n)
	m.AverageAttempts = float64(attemptSum) / float64(n)
	m.DropoutRate = float64(dropped) / float64(n)
	return m
}
