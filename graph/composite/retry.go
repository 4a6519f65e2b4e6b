package composite

import (
	"context"
	"time"

	"github.com/mwillis/wfgraph/graph"
)

// RetryNode wraps one child node, retrying it on failure per a
// graph.RetryPolicy: attempts 1..MaxRetries+1, sleeping
// InitialDelay*BackoffMultiplier^(i-1) between attempt i and i+1.
type RetryNode[S any] struct {
	NodeName string
	Child    graph.Node[S]
	Policy   graph.RetryPolicy
	// Metrics, if set, records one RecordRetry call per attempt beyond the
	// first.
	Metrics *graph.Metrics
}

// NewRetryNode constructs a RetryNode. Panics if policy is invalid --
// policy validation is a construction-time programmer error, not a
// runtime failure, so it is checked eagerly here rather than deferred to
// Run.
func NewRetryNode[S any](name string, child graph.Node[S], policy graph.RetryPolicy) *RetryNode[S] {
	if err := policy.Validate(); err != nil {
		panic(err)
	}
	return &RetryNode[S]{NodeName: name, Child: child, Policy: policy}
}

// Name returns the node's identifier.
func (r *RetryNode[S]) Name() string { return r.NodeName }

// Run attempts the child up to Policy.MaxRetries+1 times.
func (r *RetryNode[S]) Run(ctx context.Context, state S) (S, error) {
	var lastErr error
	attempts := r.Policy.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			var zero S
			return zero, &graph.CancelledError{Node: r.NodeName, Cause: err}
		}

		next, err := r.Child.Run(ctx, state)
		if err == nil {
			return next, nil
		}
		lastErr = err

		if r.Policy.Retryable != nil && !r.Policy.Retryable(err) {
			var zero S
			return zero, &graph.WorkflowError{Node: r.NodeName, Message: "child returned a non-retryable error", Cause: err}
		}

		if attempt == attempts {
			break
		}

		r.Metrics.RecordRetry(r.NodeName)
		delay := graph.ComputeBackoff(attempt, r.Policy.InitialDelay, r.Policy.BackoffMultiplier, r.Policy.Jitter, nil)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				var zero S
				return zero, &graph.CancelledError{Node: r.NodeName, Cause: ctx.Err()}
			}
		}
	}

	var zero S
	return zero, &graph.RetryExhaustedError{Node: r.NodeName, Attempts: attempts, Cause: lastErr}
}
