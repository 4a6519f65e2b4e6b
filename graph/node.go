package graph

import "context"

// Node is the uniform execution contract shared by every node in a graph,
// including composites: a context-aware transformation of the whole state.
// Composition is unbounded because a composite node's Run method has
// exactly this same shape.
//
// Implementations must honour ctx cancellation at every suspension point,
// wrap caller errors with their own node name before returning them, and
// never mutate the state they were handed after returning — the returned
// value is what the executor sees next.
//
// Type parameter S is the state type flowing through one graph.
type Node[S any] interface {
	// Name returns the node's unique identifier within its graph.
	Name() string

	// Run executes the node against the given state. ctx carries
	// cancellation; cancellation must be observed at I/O, sleeps, polls,
	// and joins inside the handler.
	Run(ctx context.Context, state S) (S, error)
}

// NodeFunc adapts a plain function to the Node interface, the way
// http.HandlerFunc adapts a function to http.Handler.
type NodeFunc[S any] struct {
	NodeName string
	Fn       func(ctx context.Context, state S) (S, error)
}

// Name returns the node's identifier.
func (f NodeFunc[S]) Name() string { return f.NodeName }

// Run calls the wrapped function.
func (f NodeFunc[S]) Run(ctx context.Context, state S) (S, error) {
	return f.Fn(ctx, state)
}

// NewNode builds a Node from a name and a handler function. Most callers
// should prefer this over constructing NodeFunc directly.
func NewNode[S any](name string, fn func(ctx context.Context, state S) (S, error)) Node[S] {
	return NodeFunc[S]{NodeName: name, Fn: fn}
}

// HasRunID is implemented by a state type that carries its own workflow run
// identifier. The HITL nodes use it instead of reflection to correlate
// pending requests with a run; the Engine takes its runID as a Run
// argument instead.
type HasRunID interface {
	WorkflowRunID() string
}

// NextNodeWriter is implemented by a state type that can record a
// dynamically-chosen next-node name, written by DynamicBranchNode. The
// node itself never transfers control; guarded edges elsewhere in the
// graph compare against the written name.
type NextNodeWriter interface {
	WithNextNode(name string) any
}

// PropertyWriter is implemented by a state type that supports writing a
// named property by value, used by ValidationNode, DynamicBranchNode (as a
// fallback), and the HITL nodes to record outcomes (ApprovalOutcome,
// Decision, SelectedOption, and so on). The bool return reports whether the
// property was known and writable; a false return is not an error — guards
// downstream simply will not match.
type PropertyWriter interface {
	WithProperty(name string, value any) (any, bool)
}

// Cloner is implemented by a state type that knows how to produce an
// independent deep copy of itself. ParallelNode prefers this capability
// over a JSON round-trip when fanning out to children.
type Cloner[S any] interface {
	CloneState() S
}

// ExtractRunID returns the run identifier for a state, preferring the
// HasRunID capability, and falling back to the caller-supplied fallback
// when the state has none or reports an empty ID. It is
// exported so packages outside graph (notably graph/hitl, which needs this
// exact resolution to correlate pending records with a run) can reuse it
// instead of duplicating the type assertion.
func ExtractRunID(state any, fallback string) string {
	if hr, ok := state.(HasRunID); ok {
		if id := hr.WorkflowRunID(); id != "" {
			return id
		}
	}
	return fallback
}

// WriteProperty writes a named property on state if it implements
// PropertyWriter, returning the (possibly replaced) state and whether the
// write took effect. Exported for the same reason as TryClone: so
// graph/hitl and graph/composite share one implementation of the
// capability-then-fallback resolution instead of each hand-rolling it.
func WriteProperty[S any](state S, name string, value any) (S, bool) {
	pw, ok := any(state).(PropertyWriter)
	if !ok {
		return state, false
	}
	next, wrote := pw.WithProperty(name, value)
	if !wrote {
		return state, false
	}
	typed, ok := next.(S)
	if !ok {
		return state, false
	}
	return typed, true
}

// cloneState returns an independent copy of state for parallel fan-out.
// It prefers the Cloner capability; callers needing a guaranteed-isolated
// copy when S does not implement Cloner must fall back to
// composite.DeepCopyJSON, which this package does not import to avoid a
// dependency from graph -> composite.
func cloneState[S any](state S) (S, bool) {
	if c, ok := any(state).(Cloner[S]); ok {
		return c.CloneState(), true
	}
	var zero S
	return zero, false
}

// TryClone is exported so packages outside graph (notably graph/composite)
// can reuse the same Cloner-capability resolution without duplicating the
// type assertion. It does not itself warn on failure -- the bool result
// tells the caller isolation was not achieved so the caller can raise its
// own warning through whatever observability sink it holds (ParallelNode
// does this through its Emitter field).
func TryClone[S any](state S) (S, bool) {
	return cloneState(state)
}
