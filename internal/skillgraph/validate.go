package skillgraph

import (
	"fmt"
	"sort"
	"strings"
)

// validateNodes performs all structural checks on a content set.
// Returns a *GraphIntegrityError listing every problem, or nil if valid.
func validateNodes(nodes []SkillNode) error {
	var errs []string

	idSet := make(map[string]bool, len(nodes))

	// Check for empty and duplicate IDs
	for _, n := range nodes {
		if n.ID == "" {
			errs = append(errs, "node with empty ID")
			continue
		}
		if idSet[n.ID] {
			errs = append(errs, fmt.Sprintf("duplicate node ID: %q", n.ID))
		}
		idSet[n.ID] = true
	}

	// Check for dangling prerequisites and self references
	for _, n := range nodes {
		seen := make(map[string]bool, len(n.Prerequisites))
		for _, prereqID := range n.Prerequisites {
			switch {
			case prereqID == n.ID:
				errs = append(errs, fmt.Sprintf("node %q lists itself as a prerequisite", n.ID))
			case !idSet[prereqID]:
				errs = append(errs, fmt.Sprintf("node %q references nonexistent prerequisite %q", n.ID, prereqID))
			case seen[prereqID]:
				errs = append(errs, fmt.Sprintf("node %q lists prerequisite %q twice", n.ID, prereqID))
			}
			seen[prereqID] = true
		}
	}

	if cycle := cycleNodes(nodes, idSet); len(cycle) > 0 {
		errs = append(errs, fmt.Sprintf("cycle detected involving nodes: %s", strings.Join(cycle, ", ")))
	}

	// Check at least one root
	hasRoot := false
	for _, n := range nodes {
		if n.IsRoot() {
			hasRoot = true
			break
		}
	}
	if len(nodes) > 0 && !hasRoot {
		errs = append(errs, "no root nodes found (at least one node must have no prerequisites)")
	}

	// Check per-node fields
	for _, n := range nodes {
		prefix := fmt.Sprintf("node %q", n.ID)
		if !n.Difficulty.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown difficulty %q", prefix, n.Difficulty))
		}
		if n.XPReward < 0 {
			errs = append(errs, fmt.Sprintf("%s: XPReward must be >= 0, got %d", prefix, n.XPReward))
		}
		if n.GemReward < 0 {
			errs = append(errs, fmt.Sprintf("%s: GemReward must be >= 0, got %d", prefix, n.GemReward))
		}
		if n.Subject == "" {
			errs = append(errs, fmt.Sprintf("%s: subject is required", prefix))
		}
		if n.Content == nil {
			errs = append(errs, fmt.Sprintf("%s: content is required", prefix))
		}
	}

	if len(errs) > 0 {
		return &GraphIntegrityError{Problems: errs}
	}
	return nil
}

// cycleNodes runs Kahn's algorithm over the known edges and returns the
// sorted IDs of nodes that could not be ordered, i.e. nodes on or behind a cycle.
func cycleNodes(nodes []SkillNode, idSet map[string]bool) []string {
	inDegree := make(map[string]int, len(nodes))
	adjList := make(map[string][]string)
	for _, n := range nodes {
		if _, ok := inDegree[n.ID]; !ok {
			inDegree[n.ID] = 0
		}
		for _, prereqID := range n.Prerequisites {
			if !idSet[prereqID] || prereqID == n.ID {
				continue
			}
			inDegree[n.ID]++
			adjList[prereqID] = append(adjList[prereqID], n.ID)
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, depID := range adjList[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if visited == len(inDegree) {
		return nil
	}
	var stuck []string
	for id, deg := range inDegree {
		if deg > 0 {
			stuck = append(stuck, id)
		}
	}
	sort.Strings(stuck)
	return stuck
}
