package skillgraph

import (
	"fmt"
	"sort"
)

// ComputeUnlocked returns the IDs of nodes that are unlockable for a learner
// whose completed set is completed: every prerequisite is completed and the
// node itself is not. Roots are unlockable from the start; inactive nodes
// never are.
//
// Nodes that reference a prerequisite missing from nodes are excluded and
// reported in a *GraphIntegrityError returned alongside the otherwise valid
// result, so the caller can decide whether to mask the problem. Cycles are
// not checked here; New rejects them at load time.
//
// The result is sorted by ID.
func ComputeUnlocked(nodes []SkillNode, completed map[string]bool) ([]string, error) {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	var unlocked []string
	var problems []string
	for _, n := range nodes {
		ok, missing := isUnlockable(n, completed, known)
		if missing != "" {
			problems = append(problems,
				fmt.Sprintf("node %q references nonexistent prerequisite %q", n.ID, missing))
			continue
		}
		if ok {
			unlocked = append(unlocked, n.ID)
		}
	}
	sort.Strings(unlocked)

	if len(problems) > 0 {
		return unlocked, &GraphIntegrityError{Problems: problems}
	}
	return unlocked, nil
}

// isUnlockable returns whether n is unlockable and, when n references an
// unknown prerequisite, the first such ID.
func isUnlockable(n SkillNode, completed, known map[string]bool) (bool, string) {
	for _, prereqID := range n.Prerequisites {
		if !known[prereqID] {
			return false, prereqID
		}
	}
	if !n.Active || completed[n.ID] {
		return false, ""
	}
	for _, prereqID := range n.Prerequisites {
		if !completed[prereqID] {
			return false, ""
		}
	}
	return true, ""
}

// Unlocked returns the unlockable nodes of a validated graph in topological
// order. It cannot fail because New already rejected dangling references.
func (g *Graph) Unlocked(completed map[string]bool) []SkillNode {
	known := g.knownSet()
	var result []SkillNode
	for _, n := range g.topoOrder {
		if ok, _ := isUnlockable(n, completed, known); ok {
			result = append(result, n.Clone())
		}
	}
	return result
}

// IsUnlocked reports whether every prerequisite of id is completed.
// Unknown IDs are never unlocked.
func (g *Graph) IsUnlocked(id string, completed map[string]bool) bool {
	n, ok := g.byID[id]
	if !ok {
		return false
	}
	for _, prereqID := range n.Prerequisites {
		if !completed[prereqID] {
			return false
		}
	}
	return true
}

// Blocked returns active nodes that have at least one incomplete prerequisite.
func (g *Graph) Blocked(completed map[string]bool) []SkillNode {
	var result []SkillNode
	for _, n := range g.topoOrder {
		if n.Active && !g.IsUnlocked(n.ID, completed) {
			result = append(result, n.Clone())
		}
	}
	return result
}

func (g *Graph) knownSet() map[string]bool {
	known := make(map[string]bool, len(g.byID))
	for id := range g.byID {
		known[id] = true
	}
	return known
}
