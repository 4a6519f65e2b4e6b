package graph

import (
	"fmt"
	"sort"
)

// Graph is an immutable-after-Build directed graph of named nodes and
// guarded edges: the workflow definition a caller hands to an Engine.
//
// Type parameter S is the state type flowing through this graph.
type Graph[S any] struct {
	nodes      map[string]Node[S]
	edges      []Edge[S]
	entryPoint string
	exitPoints map[string]struct{}
}

// NewGraph returns an empty graph ready for AddNode/AddEdge calls.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:      make(map[string]Node[S]),
		exitPoints: make(map[string]struct{}),
	}
}

// AddNode registers a node. Fails with *ConfigurationError if the name is
// already taken.
func (g *Graph[S]) AddNode(node Node[S]) error {
	name := node.Name()
	if _, exists := g.nodes[name]; exists {
		return &ConfigurationError{Node: name, Message: "duplicate node name"}
	}
	g.nodes[name] = node
	return nil
}

// AddEdge registers a transition from -> to, fired when guard is nil or
// returns true. Fails with *ConfigurationError if either endpoint is
// unknown at the time of the call.
func (g *Graph[S]) AddEdge(from, to string, guard Predicate[S]) error {
	if _, ok := g.nodes[from]; !ok {
		return &ConfigurationError{Node: from, Message: "unknown source node in AddEdge"}
	}
	if _, ok := g.nodes[to]; !ok {
		return &ConfigurationError{Node: to, Message: "unknown destination node in AddEdge"}
	}
	g.edges = append(g.edges, Edge[S]{From: from, To: to, Guard: guard})
	return nil
}

// SetEntryPoint designates the node execution starts from. Fails with
// *ConfigurationError if the node is unknown.
func (g *Graph[S]) SetEntryPoint(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return &ConfigurationError{Node: name, Message: "unknown node in SetEntryPoint"}
	}
	g.entryPoint = name
	return nil
}

// AddExitPoint marks a node whose completion terminates a run. Fails with
// *ConfigurationError if the node is unknown.
func (g *Graph[S]) AddExitPoint(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return &ConfigurationError{Node: name, Message: "unknown node in AddExitPoint"}
	}
	g.exitPoints[name] = struct{}{}
	return nil
}

// EntryPoint returns the configured entry node name, empty if unset.
func (g *Graph[S]) EntryPoint() string { return g.entryPoint }

// IsExitPoint reports whether name is a registered exit node.
func (g *Graph[S]) IsExitPoint(name string) bool {
	_, ok := g.exitPoints[name]
	return ok
}

// Node returns the node registered under name, if any.
func (g *Graph[S]) Node(name string) (Node[S], bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// NodeNames returns every registered node name, sorted, for tooling that
// needs to enumerate a graph's shape without type-specific knowledge (e.g.
// cmd/wfctl's validate/inspect commands).
func (g *Graph[S]) NodeNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EdgesFrom returns the outgoing edges of name, in insertion order.
func (g *Graph[S]) EdgesFrom(name string) []Edge[S] {
	var out []Edge[S]
	for _, e := range g.edges {
		if e.From == name {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks the structural invariants (§3 invariants 1-6 of the
// distilled spec): exactly one entry point that exists, at least one exit
// point that exists, every edge references existing nodes, every node is
// reachable from the entry point by BFS over edges (ignoring guards), every
// non-exit node has at least one outgoing edge, and node names are unique
// (guaranteed by AddNode's duplicate check; Validate does not re-check it).
//
// Returns nil on success, or a combined error listing every violation
// found — validation is total: it never returns early on the first defect.
func (g *Graph[S]) Validate() error {
	var violations []string

	if g.entryPoint == "" {
		violations = append(violations, "no entry point set")
	} else if _, ok := g.nodes[g.entryPoint]; !ok {
		violations = append(violations, fmt.Sprintf("entry point %q is not a node in the graph", g.entryPoint))
	}

	if len(g.exitPoints) == 0 {
		violations = append(violations, "no exit point set")
	}
	for name := range g.exitPoints {
		if _, ok := g.nodes[name]; !ok {
			violations = append(violations, fmt.Sprintf("exit point %q is not a node in the graph", name))
		}
	}

	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			violations = append(violations, fmt.Sprintf("edge references unknown source node %q", e.From))
		}
		if _, ok := g.nodes[e.To]; !ok {
			violations = append(violations, fmt.Sprintf("edge references unknown destination node %q", e.To))
		}
	}

	if g.entryPoint != "" {
		if _, ok := g.nodes[g.entryPoint]; ok {
			reachable := g.reachableFromEntry()
			for name := range g.nodes {
				if _, ok := reachable[name]; !ok {
					violations = append(violations, fmt.Sprintf("node %q is unreachable from the entry point", name))
				}
			}
		}
	}

	for name := range g.nodes {
		if g.IsExitPoint(name) {
			continue
		}
		if len(g.EdgesFrom(name)) == 0 {
			violations = append(violations, fmt.Sprintf("non-exit node %q has no outgoing edges", name))
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ConfigurationError{Message: fmt.Sprintf("%d invariant violation(s): %v", len(violations), violations)}
}

// reachableFromEntry runs a BFS over edges, ignoring guards, starting at
// the entry point.
func (g *Graph[S]) reachableFromEntry() map[string]struct{} {
	visited := map[string]struct{}{g.entryPoint: {}}
	queue := []string{g.entryPoint}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range g.EdgesFrom(current) {
			if _, seen := visited[e.To]; seen {
				continue
			}
			visited[e.To] = struct{}{}
			queue = append(queue, e.To)
		}
	}
	return visited
}
