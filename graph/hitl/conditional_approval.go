package hitl

import (
	"context"
	"errors"
	"time"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/hitl/store"
)

// DefaultApprovalOutcomeProperty is the property name ConditionalApprovalNode
// writes to when the caller does not supply one.
const DefaultApprovalOutcomeProperty = "ApprovalOutcome"

// ConditionalApprovalNode suspends for an external approval decision but,
// unlike ApprovalNode, does not fail on rejection or timeout: it writes the
// outcome (Approved/Rejected/Modified, with a timeout written as Rejected)
// into a property and returns, pairing with conditional edges downstream.
type ConditionalApprovalNode[S any] struct {
	NodeName     string
	Store        store.ApprovalStore[S]
	Message      string
	PropertyName string // defaults to DefaultApprovalOutcomeProperty
	Timeout      time.Duration
}

// NewConditionalApprovalNode constructs a ConditionalApprovalNode.
func NewConditionalApprovalNode[S any](name string, approvalStore store.ApprovalStore[S], message, propertyName string, timeout time.Duration) *ConditionalApprovalNode[S] {
	if propertyName == "" {
		propertyName = DefaultApprovalOutcomeProperty
	}
	return &ConditionalApprovalNode[S]{NodeName: name, Store: approvalStore, Message: message, PropertyName: propertyName, Timeout: timeout}
}

// Name returns the node's identifier.
func (c *ConditionalApprovalNode[S]) Name() string { return c.NodeName }

// Run requests approval, waits up to Timeout, and writes the outcome into
// PropertyName -- Rejected, if the timeout elapses unresolved. It never fails on rejection or timeout. A Modified
// resolution (ApproveWithModification) also swaps in the approver's
// amended state before the outcome is written.
func (c *ConditionalApprovalNode[S]) Run(ctx context.Context, state S) (S, error) {
	var zero S
	runID := runIDFor(state, c.NodeName)
	key := store.Key{RunID: runID, NodeName: c.NodeName}

	if _, err := c.Store.RequestApproval(ctx, key, state, c.Message); err != nil {
		return zero, &graph.WorkflowError{Node: c.NodeName, RunID: runID, Message: "requesting approval", Cause: err}
	}

	pollCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	err := waitUntilResolved(pollCtx, pollInterval(c.Timeout > 0), func(ctx context.Context) (bool, error) {
		record, err := c.Store.GetApproval(ctx, key)
		if err != nil {
			return false, err
		}
		return record.Status != store.StatusPending, nil
	})

	record, getErr := c.Store.GetApproval(ctx, key)
	if getErr != nil {
		return zero, &graph.WorkflowError{Node: c.NodeName, RunID: runID, Message: "loading approval", Cause: getErr}
	}
	if record.Status != store.StatusPending {
		if removeErr := c.Store.RemoveApproval(ctx, key); removeErr != nil {
			return zero, &graph.WorkflowError{Node: c.NodeName, RunID: runID, Message: "removing resolved approval", Cause: removeErr}
		}
	}

	outcome := record.Status
	next := state
	if record.Status == store.StatusModified {
		next = record.State
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return zero, &graph.CancelledError{Node: c.NodeName, RunID: runID, Cause: err}
		}
		// DeadlineExceeded (lenient timeout) falls through and is written
		// as Rejected.
		if !errors.Is(err, context.DeadlineExceeded) {
			return zero, &graph.WorkflowError{Node: c.NodeName, RunID: runID, Message: "polling approval", Cause: err}
		}
		outcome = store.StatusRejected
	}

	return writeProperty(next, c.PropertyName, string(outcome)), nil
}
