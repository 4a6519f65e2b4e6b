package hitl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/hitl/store"
)

// DefaultDecisionProperty is the property name DecisionNode writes to when
// the caller does not supply one.
const DefaultDecisionProperty = "Decision"

// DecisionNode suspends until an external actor selects one of an ordered,
// non-empty list of options. The resolved option is re-validated against
// the options list at read time, not just when the store accepted it, and
// written into PropertyName.
type DecisionNode[S any] struct {
	NodeName     string
	Store        store.DecisionStore[S]
	Question     string
	Options      []string
	PropertyName string // defaults to DefaultDecisionProperty
	Timeout      time.Duration
}

// NewDecisionNode constructs a DecisionNode. Options must be non-empty;
// NewDecisionNode panics otherwise, since an empty options list is a
// construction-time configuration defect, not a runtime failure.
func NewDecisionNode[S any](name string, decisionStore store.DecisionStore[S], question string, options []string, propertyName string, timeout time.Duration) *DecisionNode[S] {
	if len(options) == 0 {
		panic(&graph.ConfigurationError{Node: name, Message: "DecisionNode requires a non-empty options list"})
	}
	if propertyName == "" {
		propertyName = DefaultDecisionProperty
	}
	return &DecisionNode[S]{NodeName: name, Store: decisionStore, Question: question, Options: options, PropertyName: propertyName, Timeout: timeout}
}

// Name returns the node's identifier.
func (d *DecisionNode[S]) Name() string { return d.NodeName }

// Run requests a decision, waits for resolution, validates the resolved
// option is still a member of Options, and writes it into PropertyName.
func (d *DecisionNode[S]) Run(ctx context.Context, state S) (S, error) {
	var zero S
	runID := runIDFor(state, d.NodeName)
	key := store.Key{RunID: runID, NodeName: d.NodeName}

	if _, err := d.Store.RequestDecision(ctx, key, state, d.Question, d.Options); err != nil {
		return zero, &graph.WorkflowError{Node: d.NodeName, RunID: runID, Message: "requesting decision", Cause: err}
	}

	pollCtx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	err := waitUntilResolved(pollCtx, pollInterval(d.Timeout > 0), func(ctx context.Context) (bool, error) {
		record, err := d.Store.GetDecision(ctx, key)
		if err != nil {
			return false, err
		}
		return record.Option != "", nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, &graph.WorkflowError{Node: d.NodeName, RunID: runID, Message: "decision timed out"}
		}
		if errors.Is(err, context.Canceled) {
			return zero, &graph.CancelledError{Node: d.NodeName, RunID: runID, Cause: err}
		}
		return zero, &graph.WorkflowError{Node: d.NodeName, RunID: runID, Message: "polling decision", Cause: err}
	}

	record, err := d.Store.GetDecision(ctx, key)
	if err != nil {
		return zero, &graph.WorkflowError{Node: d.NodeName, RunID: runID, Message: "loading resolved decision", Cause: err}
	}
	if err := d.Store.RemoveDecision(ctx, key); err != nil {
		return zero, &graph.WorkflowError{Node: d.NodeName, RunID: runID, Message: "removing resolved decision", Cause: err}
	}
	if !optionInList(record.Option, d.Options) {
		return zero, &graph.WorkflowError{Node: d.NodeName, RunID: runID, Message: fmt.Sprintf("decision %q is not a declared option", record.Option)}
	}

	return writeProperty(state, d.PropertyName, record.Option), nil
}

func optionInList(option string, options []string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
