package skillgraph

import (
	"slices"
	"sort"
)

// Graph is a validated skill DAG with precomputed indices.
// It is immutable after New; callers rebuild it when content changes.
type Graph struct {
	nodes      []SkillNode
	byID       map[string]*SkillNode
	roots      []SkillNode
	dependents map[string][]string
	topoOrder  []SkillNode
	topoIndex  map[string]int
	depth      map[string]int
}

// New validates nodes and builds the graph indices. Any structural problem
// rejects the whole content set with a *GraphIntegrityError.
func New(nodes []SkillNode) (*Graph, error) {
	if err := validateNodes(nodes); err != nil {
		return nil, err
	}
	return buildGraph(nodes), nil
}

// buildGraph constructs the indices, including topological order (Kahn's
// algorithm). It assumes nodes already passed validateNodes.
func buildGraph(nodes []SkillNode) *Graph {
	gr := &Graph{
		nodes:      make([]SkillNode, len(nodes)),
		byID:       make(map[string]*SkillNode, len(nodes)),
		dependents: make(map[string][]string),
		topoIndex:  make(map[string]int, len(nodes)),
		depth:      make(map[string]int, len(nodes)),
	}
	for i := range nodes {
		gr.nodes[i] = nodes[i].Clone()
	}

	for i := range gr.nodes {
		gr.byID[gr.nodes[i].ID] = &gr.nodes[i]
	}

	// Reverse edges
	for i := range gr.nodes {
		for _, prereqID := range gr.nodes[i].Prerequisites {
			gr.dependents[prereqID] = append(gr.dependents[prereqID], gr.nodes[i].ID)
		}
	}
	for id := range gr.dependents {
		sort.Strings(gr.dependents[id])
	}

	inDegree := make(map[string]int, len(gr.nodes))
	for i := range gr.nodes {
		inDegree[gr.nodes[i].ID] = len(gr.nodes[i].Prerequisites)
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	// Sort initial queue for deterministic ordering
	sort.Strings(queue)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		node := gr.byID[id]
		gr.topoIndex[id] = len(gr.topoOrder)
		gr.topoOrder = append(gr.topoOrder, *node)

		for _, depID := range gr.dependents[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	// Longest path from any root, computed in topological order.
	for _, n := range gr.topoOrder {
		d := 0
		for _, prereqID := range n.Prerequisites {
			if pd := gr.depth[prereqID] + 1; pd > d {
				d = pd
			}
		}
		gr.depth[n.ID] = d
		if n.IsRoot() {
			gr.roots = append(gr.roots, n)
		}
	}

	return gr
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (SkillNode, error) {
	n, ok := g.byID[id]
	if !ok {
		return SkillNode{}, &NodeNotFoundError{NodeID: id}
	}
	return n.Clone(), nil
}

// Has reports whether the graph contains id.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns all nodes in their original order.
func (g *Graph) Nodes() []SkillNode {
	return cloneNodes(g.nodes)
}

// Roots returns all nodes with no prerequisites, in topological order.
func (g *Graph) Roots() []SkillNode {
	return cloneNodes(g.roots)
}

// TopologicalOrder returns all nodes in a deterministic topological order.
func (g *Graph) TopologicalOrder() []SkillNode {
	return cloneNodes(g.topoOrder)
}

// Prerequisites returns the direct prerequisite nodes of id.
func (g *Graph) Prerequisites(id string) []SkillNode {
	n, ok := g.byID[id]
	if !ok {
		return nil
	}
	result := make([]SkillNode, 0, len(n.Prerequisites))
	for _, prereqID := range n.Prerequisites {
		if p, ok := g.byID[prereqID]; ok {
			result = append(result, p.Clone())
		}
	}
	return result
}

// Dependents returns the nodes that directly list id as a prerequisite.
func (g *Graph) Dependents(id string) []SkillNode {
	depIDs := g.dependents[id]
	result := make([]SkillNode, 0, len(depIDs))
	for _, depID := range depIDs {
		result = append(result, g.byID[depID].Clone())
	}
	return result
}

// Depth returns the longest path length from a root to id (roots are 0).
func (g *Graph) Depth(id string) int {
	return g.depth[id]
}

// Subset returns the nodes of one subject and grade in topological order.
// An empty subject or zero grade matches everything.
func (g *Graph) Subset(subject Subject, grade int) []SkillNode {
	var out []SkillNode
	for _, n := range g.topoOrder {
		if subject != "" && n.Subject != subject {
			continue
		}
		if grade != 0 && n.Grade != grade {
			continue
		}
		out = append(out, n.Clone())
	}
	return out
}

// Subjects returns the distinct subjects in the graph, sorted.
func (g *Graph) Subjects() []Subject {
	seen := make(map[Subject]bool)
	var out []Subject
	for _, n := range g.nodes {
		if !seen[n.Subject] {
			seen[n.Subject] = true
			out = append(out, n.Subject)
		}
	}
	slices.Sort(out)
	return out
}

func cloneNodes(in []SkillNode) []SkillNode {
	out := make([]SkillNode, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
