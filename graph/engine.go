package graph

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/mwillis/wfgraph/graph/emit"
)

// Engine runs a validated Graph against an initial state. It is
// single-threaded within one run: at any moment exactly one node is
// executing against the run's state. Composite nodes (graph/composite)
// may fan out internally, but each spawned child owns an independent copy
// of the state and is joined before the parent node returns control to
// the Engine.
//
// An Engine is read-only after construction and safe to share across
// concurrent Run calls, provided each call's initial state is independent.
type Engine[S any] struct {
	g   *Graph[S]
	cfg *engineConfig
}

// NewEngine builds an Engine around a graph. The graph is not re-validated
// here; callers should call g.Validate() once before the first Run, and
// every execution after that assumes validity.
func NewEngine[S any](g *Graph[S], opts ...Option) (*Engine[S], error) {
	cfg := newEngineConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return &Engine[S]{g: g, cfg: cfg}, nil
}

// Run executes the graph starting at its entry point, returning the final
// state when an exit node completes. runID is used to correlate emitted
// events and HITL pending records; if empty, a UUID is generated.
//
// Algorithm:
//  1. current <- entry point, s <- initial state.
//  2. If ctx is done, fail with *CancelledError.
//  3. Run current.Run(ctx, s); reassign s.
//  4. If current is an exit point, return s.
//  5. Scan outgoing edges of current in insertion order; follow the first
//     whose guard is nil or true. No match fails with *WorkflowError. A
//     guard panic is treated as false and warned, unless it was the only
//     remaining candidate, in which case the run fails with
//     *WorkflowError("guard evaluation failed").
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if e.cfg.runWallClockBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.runWallClockBudget)
		defer cancel()
	}

	current := e.g.EntryPoint()
	s := initial
	steps := 0

	for {
		if err := ctx.Err(); err != nil {
			return s, &CancelledError{Node: current, RunID: runID, Cause: err}
		}

		steps++
		if e.cfg.maxSteps > 0 && steps > e.cfg.maxSteps {
			return s, &WorkflowError{Node: current, RunID: runID, Message: "exceeded maximum step count", Cause: ErrMaxStepsExceeded}
		}

		node, ok := e.g.Node(current)
		if !ok {
			return s, &WorkflowError{Node: current, RunID: runID, Message: "current node not found in graph"}
		}

		nodeCtx, cancelNode := e.nodeContext(ctx)
		start := time.Now()
		next, err := e.runNode(nodeCtx, node, s)
		cancelNode()
		latency := time.Since(start)

		e.cfg.metrics.RecordStep(runID, current)
		if err != nil {
			e.cfg.metrics.RecordNodeLatency(current, "error", latency)
			e.cfg.emitter.Emit(emit.Event{RunID: runID, Step: steps, NodeID: current, Msg: "node_error", Meta: map[string]interface{}{"error": err.Error()}})
			return s, e.wrapNodeError(current, runID, err)
		}
		e.cfg.metrics.RecordNodeLatency(current, "success", latency)
		e.cfg.emitter.Emit(emit.Event{RunID: runID, Step: steps, NodeID: current, Msg: "node_end"})
		s = next

		if e.g.IsExitPoint(current) {
			return s, nil
		}

		if err := ctx.Err(); err != nil {
			return s, &CancelledError{Node: current, RunID: runID, Cause: err}
		}

		nextNode, err := e.selectEdge(current, runID, s)
		if err != nil {
			return s, err
		}
		current = nextNode
	}
}

// runNode invokes a node under ctx, which carries the per-node timeout
// configured via WithDefaultNodeTimeout (see nodeContext). A handler panic,
// or a nil returned state for a pointer, map or interface state type, is a
// bug in the handler and surfaces as a *WorkflowError.
func (e *Engine[S]) runNode(ctx context.Context, node Node[S], s S) (result S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &WorkflowError{Node: node.Name(), Message: "node handler panicked", Cause: fmt.Errorf("%v", r)}
		}
	}()
	result, err = node.Run(ctx, s)
	if err == nil {
		if rv := reflect.ValueOf(&result).Elem(); (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map || rv.Kind() == reflect.Interface) && rv.IsNil() {
			err = &WorkflowError{Node: node.Name(), Message: "node handler returned a nil state"}
		}
	}
	return result, err
}

// nodeContext derives a per-node context applying the engine's default
// node timeout, if any.
func (e *Engine[S]) nodeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.defaultNodeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.defaultNodeTimeout)
}

// wrapNodeError normalizes a handler error into the WorkflowError/
// CancelledError taxonomy, unless it is already a recognized typed error.
func (e *Engine[S]) wrapNodeError(node, runID string, err error) error {
	switch err.(type) {
	case *WorkflowError, *RetryExhaustedError, *CancelledError, *ConfigurationError:
		return err
	}
	if err == context.Canceled || err == context.DeadlineExceeded {
		return &CancelledError{Node: node, RunID: runID, Cause: err}
	}
	return &WorkflowError{Node: node, RunID: runID, Message: "handler returned an error", Cause: err}
}

// selectEdge scans current's outgoing edges in insertion order, returning
// the destination of the first satisfied guard.
func (e *Engine[S]) selectEdge(current, runID string, s S) (string, error) {
	edges := e.g.EdgesFrom(current)
	for i, edge := range edges {
		ok, panicked := e.evalGuard(edge, s)
		if panicked {
			e.cfg.metrics.RecordGuardFailure(current)
			isLastCandidate := i == len(edges)-1
			if isLastCandidate {
				return "", &WorkflowError{Node: current, RunID: runID, Message: "guard evaluation failed and no other candidate edge remained"}
			}
			if e.cfg.guardWarnFunc != nil {
				e.cfg.guardWarnFunc(current, fmt.Errorf("guard from %q to %q panicked", edge.From, edge.To))
			}
			continue
		}
		if ok {
			return edge.To, nil
		}
	}
	return "", &WorkflowError{Node: current, RunID: runID, Message: "no matching outgoing edge"}
}

// evalGuard evaluates edge.Guard against s, treating a nil guard as
// satisfied and a panic as "false, but flagged".
func (e *Engine[S]) evalGuard(edge Edge[S], s S) (satisfied bool, panicked bool) {
	if edge.Guard == nil {
		return true, false
	}
	defer func() {
		if recover() != nil {
			satisfied = false
			panicked = true
		}
	}()
	return edge.Guard(s), false
}
