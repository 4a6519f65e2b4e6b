package composite

import (
	"context"

	"github.com/mwillis/wfgraph/graph"
)

// DefaultNextNodeProperty is the property name DynamicBranchNode writes to
// when the caller does not supply one.
const DefaultNextNodeProperty = "NextNode"

// DynamicBranchNode runs a selector producing a target node name and
// writes it into a named property on the state. It never transfers
// control itself; the caller pairs it with guarded edges that compare
// against the written name.
type DynamicBranchNode[S any] struct {
	NodeName     string
	Selector     func(ctx context.Context, state S) (string, error)
	PropertyName string // defaults to DefaultNextNodeProperty
}

// NewDynamicBranchNode constructs a DynamicBranchNode. An empty
// propertyName defaults to DefaultNextNodeProperty.
func NewDynamicBranchNode[S any](name string, selector func(ctx context.Context, state S) (string, error), propertyName string) *DynamicBranchNode[S] {
	if propertyName == "" {
		propertyName = DefaultNextNodeProperty
	}
	return &DynamicBranchNode[S]{NodeName: name, Selector: selector, PropertyName: propertyName}
}

// Name returns the node's identifier.
func (d *DynamicBranchNode[S]) Name() string { return d.NodeName }

// Run evaluates the selector and writes its result into PropertyName via
// graph.NextNodeWriter if PropertyName is DefaultNextNodeProperty, or via
// graph.PropertyWriter otherwise. A missing/unwritable property is
// tolerated silently; guards downstream simply will not match.
func (d *DynamicBranchNode[S]) Run(ctx context.Context, state S) (S, error) {
	if d.Selector == nil {
		var zero S
		return zero, &graph.WorkflowError{Node: d.NodeName, Message: "DynamicBranchNode requires a selector"}
	}
	selected, err := d.Selector(ctx, state)
	if err != nil {
		var zero S
		return zero, &graph.WorkflowError{Node: d.NodeName, Message: "selector failed", Cause: err}
	}
	if selected == "" {
		var zero S
		return zero, &graph.WorkflowError{Node: d.NodeName, Message: "selector returned an empty node name"}
	}

	if nw, ok := any(state).(graph.NextNodeWriter); ok && d.PropertyName == DefaultNextNodeProperty {
		if next, ok := nw.WithNextNode(selected).(S); ok {
			return next, nil
		}
	}
	if pw, ok := any(state).(graph.PropertyWriter); ok {
		if next, wrote := pw.WithProperty(d.PropertyName, selected); wrote {
			if typed, ok := next.(S); ok {
				return typed, nil
			}
		}
	}
	return state, nil
}
