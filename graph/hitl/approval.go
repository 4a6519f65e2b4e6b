package hitl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/hitl/store"
)

// ApprovalNode suspends until an external actor approves or rejects the
// run. Strict: rejection or timeout is fatal.
type ApprovalNode[S any] struct {
	NodeName string
	Store    store.ApprovalStore[S]
	Message  string
	// Timeout bounds the wait; zero means no timeout.
	Timeout time.Duration
}

// NewApprovalNode constructs an ApprovalNode.
func NewApprovalNode[S any](name string, approvalStore store.ApprovalStore[S], message string, timeout time.Duration) *ApprovalNode[S] {
	return &ApprovalNode[S]{NodeName: name, Store: approvalStore, Message: message, Timeout: timeout}
}

// Name returns the node's identifier.
func (a *ApprovalNode[S]) Name() string { return a.NodeName }

// Run implements the suspend-poll-resume protocol, failing with
// *graph.WorkflowError on rejection or timeout. Plain approval returns
// the state unchanged; a Modified resolution returns the approver's
// amended state.
func (a *ApprovalNode[S]) Run(ctx context.Context, state S) (S, error) {
	var zero S
	runID := runIDFor(state, a.NodeName)
	key := store.Key{RunID: runID, NodeName: a.NodeName}

	if _, err := a.Store.RequestApproval(ctx, key, state, a.Message); err != nil {
		return zero, &graph.WorkflowError{Node: a.NodeName, RunID: runID, Message: "requesting approval", Cause: err}
	}

	pollCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	err := waitUntilResolved(pollCtx, pollInterval(a.Timeout > 0), func(ctx context.Context) (bool, error) {
		record, err := a.Store.GetApproval(ctx, key)
		if err != nil {
			return false, err
		}
		return record.Status != store.StatusPending, nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, &graph.WorkflowError{Node: a.NodeName, RunID: runID, Message: "approval timed out"}
		}
		if errors.Is(err, context.Canceled) {
			return zero, &graph.CancelledError{Node: a.NodeName, RunID: runID, Cause: err}
		}
		return zero, &graph.WorkflowError{Node: a.NodeName, RunID: runID, Message: "polling approval", Cause: err}
	}

	record, err := a.Store.GetApproval(ctx, key)
	if err != nil {
		return zero, &graph.WorkflowError{Node: a.NodeName, RunID: runID, Message: "loading resolved approval", Cause: err}
	}
	if err := a.Store.RemoveApproval(ctx, key); err != nil {
		return zero, &graph.WorkflowError{Node: a.NodeName, RunID: runID, Message: "removing resolved approval", Cause: err}
	}
	switch record.Status {
	case store.StatusApproved:
		return state, nil
	case store.StatusModified:
		return record.State, nil
	default:
		return zero, &graph.WorkflowError{Node: a.NodeName, RunID: runID, Message: fmt.Sprintf("approval %s", record.Status)}
	}
}
