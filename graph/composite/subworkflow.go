package composite

import (
	"context"

	"github.com/mwillis/wfgraph/graph"
)

// SubWorkflowNode embeds a whole validated sub-graph over a (possibly
// different) state type S2, mapping the parent's state into and back out
// of it.
type SubWorkflowNode[S, S2 any] struct {
	NodeName     string
	Sub          *graph.Engine[S2]
	StateMapper  func(S) S2
	ResultMapper func(S2, S) S
}

// NewSubWorkflowNode constructs a SubWorkflowNode around an already-built
// Engine for the sub-graph.
func NewSubWorkflowNode[S, S2 any](name string, sub *graph.Engine[S2], stateMapper func(S) S2, resultMapper func(S2, S) S) *SubWorkflowNode[S, S2] {
	return &SubWorkflowNode[S, S2]{NodeName: name, Sub: sub, StateMapper: stateMapper, ResultMapper: resultMapper}
}

// Name returns the node's identifier.
func (n *SubWorkflowNode[S, S2]) Name() string { return n.NodeName }

// Run maps the parent state into the sub-workflow's state type, runs the
// sub-graph to completion (propagating ctx), and maps the result back.
func (n *SubWorkflowNode[S, S2]) Run(ctx context.Context, state S) (S, error) {
	if n.StateMapper == nil {
		var zero S
		return zero, &graph.WorkflowError{Node: n.NodeName, Message: "SubWorkflowNode requires a stateMapper"}
	}
	subState := n.StateMapper(state)

	result, err := n.Sub.Run(ctx, "", subState)
	if err != nil {
		var zero S
		return zero, &graph.WorkflowError{Node: n.NodeName, Message: "sub-workflow failed", Cause: err}
	}

	if n.ResultMapper == nil {
		var zero S
		return zero, &graph.WorkflowError{Node: n.NodeName, Message: "SubWorkflowNode requires a resultMapper"}
	}
	return n.ResultMapper(result, state), nil
}
