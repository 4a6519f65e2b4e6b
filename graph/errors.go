// Package graph provides the core graph execution engine for wfgraph.
package graph

import (
	"errors"
	"fmt"
)

// ErrMaxStepsExceeded indicates that the graph execution reached the maximum
// allowed step count without completing. This prevents infinite loops and
// runaway executions.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// ConfigurationError reports a graph invariant violation discovered at
// Validate() time: missing entry/exit, unreachable nodes, duplicate names,
// and similar structural defects. An empty options list on a DecisionNode
// is reported earlier: NewDecisionNode panics with a *ConfigurationError.
type ConfigurationError struct {
	// Node is the offending node name, empty if the violation is graph-wide
	// (e.g. "no entry point set").
	Node string
	// Message describes the violation.
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("graph configuration: node %q: %s", e.Node, e.Message)
	}
	return fmt.Sprintf("graph configuration: %s", e.Message)
}

// WorkflowError wraps any runtime failure raised while a node executes:
// handler errors, a guard-only-candidate failure, a missing next edge, a
// HITL timeout, a decision outside its options, a nil mapper result, an
// empty selector result, or an input coercion failure.
type WorkflowError struct {
	// Node is the node that raised or surfaced the error.
	Node string
	// RunID is the workflow run identifier, if known.
	RunID string
	// Message is a human-readable description of the failure.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *WorkflowError) Error() string {
	prefix := "workflow error"
	if e.RunID != "" {
		prefix += " (run " + e.RunID + ")"
	}
	if e.Node != "" {
		prefix += ": node " + e.Node
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// RetryExhaustedError is raised by RetryNode once every attempt has been
// used up. It specializes WorkflowError: callers that match on
// *WorkflowError via errors.As still succeed, through the As method below,
// and Unwrap returns the last attempt's error.
type RetryExhaustedError struct {
	Node     string
	RunID    string
	Attempts int
	Cause    error
}

func (e *RetryExhaustedError) Error() string {
	prefix := "retry exhausted"
	if e.RunID != "" {
		prefix += " (run " + e.RunID + ")"
	}
	if e.Node != "" {
		prefix += ": node " + e.Node
	}
	return fmt.Sprintf("%s: after %d attempt(s): %v", prefix, e.Attempts, e.Cause)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Cause
}

// As lets errors.As match a RetryExhaustedError as a *WorkflowError
// carrying the same node, run ID and cause.
func (e *RetryExhaustedError) As(target any) bool {
	if t, ok := target.(**WorkflowError); ok {
		*t = &WorkflowError{Node: e.Node, RunID: e.RunID, Message: fmt.Sprintf("retry exhausted after %d attempt(s)", e.Attempts), Cause: e.Cause}
		return true
	}
	return false
}

// CancelledError reports cooperative cancellation at a suspension point:
// a node invocation, an edge evaluation, a retry sleep, a HITL poll, or a
// parallel join. It is kept distinct from WorkflowError so callers can
// tell "the caller asked us to stop" apart from "something broke".
type CancelledError struct {
	Node  string
	RunID string
	Cause error
}

func (e *CancelledError) Error() string {
	prefix := "cancelled"
	if e.RunID != "" {
		prefix += " (run " + e.RunID + ")"
	}
	if e.Node != "" {
		prefix += ": node " + e.Node
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Cause)
	}
	return prefix
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// NonRetryableError marks an error as not worth retrying. RetryNode itself
// does not produce or inspect this type: when its Retryable predicate
// rejects an error it returns a *WorkflowError wrapping the child's error.
type NonRetryableError struct {
	Cause error
}

func (e *NonRetryableError) Error() string {
	return e.Cause.Error()
}

func (e *NonRetryableError) Unwrap() error {
	return e.Cause
}
