// Package builder provides a fluent construction API over graph.Graph,
// deferring every configuration error to a single Build() call instead of
// requiring the caller to check each AddNode/AddEdge call individually.
package builder

import (
	"fmt"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/internal/guard"
)

// Builder accumulates nodes and edges into a graph.Graph, short-circuiting
// on the first error so calls can be chained freely:
//
//	g, err := builder.New[OrderState]().
//	    AddNode(validate).
//	    AddNode(charge).
//	    AddEdge("validate", "charge").
//	    SetEntry("validate").
//	    AddExit("charge").
//	    Build()
type Builder[S any] struct {
	graph *graph.Graph[S]
	err   error
}

// New returns an empty Builder.
func New[S any]() *Builder[S] {
	return &Builder[S]{graph: graph.NewGraph[S]()}
}

// AddNode registers a node. See graph.Graph.AddNode for failure conditions.
func (b *Builder[S]) AddNode(node graph.Node[S]) *Builder[S] {
	if b.err != nil {
		return b
	}
	b.err = b.graph.AddNode(node)
	return b
}

// AddEdge registers an unconditional transition from -> to.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	return b.AddGuardedEdge(from, to, nil)
}

// AddGuardedEdge registers a transition from -> to that only fires when
// guard returns true (or unconditionally if guard is nil).
func (b *Builder[S]) AddGuardedEdge(from, to string, guardFn graph.Predicate[S]) *Builder[S] {
	if b.err != nil {
		return b
	}
	b.err = b.graph.AddEdge(from, to, guardFn)
	return b
}

// AddExprEdge registers a transition from -> to guarded by an expr-lang/expr
// boolean expression over the state's exported fields (e.g.
// "Total > 100 && Approved"), compiled via internal/guard.
func (b *Builder[S]) AddExprEdge(from, to, expression string) *Builder[S] {
	if b.err != nil {
		return b
	}
	pred, err := guard.CompilePredicate[S](expression)
	if err != nil {
		b.err = fmt.Errorf("builder: edge %s->%s: %w", from, to, err)
		return b
	}
	return b.AddGuardedEdge(from, to, pred)
}

// SetEntry designates the graph's single entry node.
func (b *Builder[S]) SetEntry(name string) *Builder[S] {
	if b.err != nil {
		return b
	}
	b.err = b.graph.SetEntryPoint(name)
	return b
}

// AddExit marks name as a node whose completion ends a run.
func (b *Builder[S]) AddExit(name string) *Builder[S] {
	if b.err != nil {
		return b
	}
	b.err = b.graph.AddExitPoint(name)
	return b
}

// Build returns the assembled graph, or the first configuration error
// encountered during construction. If construction succeeded, it runs
// graph.Graph.Validate before returning, so a Builder error return always
// reflects either a construction-time or a structural-invariant failure.
func (b *Builder[S]) Build() (*graph.Graph[S], error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.graph.Validate(); err != nil {
		return nil, err
	}
	return b.graph, nil
}
