package hitl

import (
	"context"
	"errors"
	"time"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/hitl/store"
)

// ReviewNode presents the current state plus a context string and waits
// for a reviewer to return a (possibly modified) state. If
// AllowModification is false the caller is contractually obliged to
// return the state unchanged; the node does not re-validate this.
type ReviewNode[S any] struct {
	NodeName          string
	Store             store.ReviewStore[S]
	Context           string
	AllowModification bool
	Timeout           time.Duration
}

// NewReviewNode constructs a ReviewNode.
func NewReviewNode[S any](name string, reviewStore store.ReviewStore[S], reviewContext string, allowModification bool, timeout time.Duration) *ReviewNode[S] {
	return &ReviewNode[S]{NodeName: name, Store: reviewStore, Context: reviewContext, AllowModification: allowModification, Timeout: timeout}
}

// Name returns the node's identifier.
func (r *ReviewNode[S]) Name() string { return r.NodeName }

// Run requests a review, waits for resolution, and returns the reviewer's
// state. Timeout without resolution is fatal.
func (r *ReviewNode[S]) Run(ctx context.Context, state S) (S, error) {
	var zero S
	runID := runIDFor(state, r.NodeName)
	key := store.Key{RunID: runID, NodeName: r.NodeName}

	if _, err := r.Store.RequestReview(ctx, key, state, r.Context, r.AllowModification); err != nil {
		return zero, &graph.WorkflowError{Node: r.NodeName, RunID: runID, Message: "requesting review", Cause: err}
	}

	pollCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	err := waitUntilResolved(pollCtx, pollInterval(r.Timeout > 0), func(ctx context.Context) (bool, error) {
		record, err := r.Store.GetReview(ctx, key)
		if err != nil {
			return false, err
		}
		return record.Status != store.StatusPending, nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, &graph.WorkflowError{Node: r.NodeName, RunID: runID, Message: "review timed out"}
		}
		if errors.Is(err, context.Canceled) {
			return zero, &graph.CancelledError{Node: r.NodeName, RunID: runID, Cause: err}
		}
		return zero, &graph.WorkflowError{Node: r.NodeName, RunID: runID, Message: "polling review", Cause: err}
	}

	record, err := r.Store.GetReview(ctx, key)
	if err != nil {
		return zero, &graph.WorkflowError{Node: r.NodeName, RunID: runID, Message: "loading resolved review", Cause: err}
	}
	if err := r.Store.RemoveReview(ctx, key); err != nil {
		return zero, &graph.WorkflowError{Node: r.NodeName, RunID: runID, Message: "removing resolved review", Cause: err}
	}
	return record.ReviewedState, nil
}
