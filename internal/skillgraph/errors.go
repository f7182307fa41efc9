package skillgraph

import (
	"fmt"
	"strings"
)

// GraphIntegrityError reports structural problems in a content set:
// duplicate IDs, unknown prerequisites, cycles, or invalid node fields.
type GraphIntegrityError struct {
	Problems []string
}

func (e *GraphIntegrityError) Error() string {
	if len(e.Problems) == 1 {
		return "skill graph integrity: " + e.Problems[0]
	}
	return fmt.Sprintf("skill graph integrity (%d problems):\n  %s",
		len(e.Problems), strings.Join(e.Problems, "\n  "))
}

// NodeNotFoundError indicates a reference to a node ID that is not in the graph.
type NodeNotFoundError struct {
	NodeID string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("skill node not found: %q", e.NodeID)
}

// NodeInactiveError indicates an attempt on a node that has been retired.
type NodeInactiveError struct {
	NodeID string
}

func (e *NodeInactiveError) Error() string {
	return fmt.Sprintf("skill node %q is inactive", e.NodeID)
}
