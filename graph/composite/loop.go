package composite

import (
	"context"
	"fmt"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/emit"
)

// LoopNode wraps one child node, re-running it while continueCondition
// holds and breakCondition does not, up to an optional iteration cap.
type LoopNode[S any] struct {
	NodeName          string
	Child             graph.Node[S]
	ContinueCondition func(S) bool
	BreakCondition    func(S) bool
	MaxIterations     int // 0 means unbounded
	// Emitter, if set, receives a "loop_max_iterations" warning event when
	// the iteration cap ends the loop, and a "loop_break_condition_failed"
	// warning event when BreakCondition panics. Nil (the default) means no
	// warning is raised.
	Emitter emit.Emitter
}

// NewLoopNode constructs a LoopNode. continueCondition is mandatory;
// breakCondition and maxIterations are optional (nil / 0 disables them).
func NewLoopNode[S any](name string, child graph.Node[S], continueCondition func(S) bool, breakCondition func(S) bool, maxIterations int) *LoopNode[S] {
	return &LoopNode[S]{
		NodeName:          name,
		Child:             child,
		ContinueCondition: continueCondition,
		BreakCondition:    breakCondition,
		MaxIterations:     maxIterations,
	}
}

// Name returns the node's identifier.
func (l *LoopNode[S]) Name() string { return l.NodeName }

// Run iterates the child: maxIterations check, then breakCondition, then
// continueCondition, each evaluated before running the child for that
// iteration.
func (l *LoopNode[S]) Run(ctx context.Context, state S) (S, error) {
	s := state
	for iteration := 0; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return s, &graph.CancelledError{Node: l.NodeName, Cause: err}
		}

		if l.MaxIterations > 0 && iteration >= l.MaxIterations {
			if l.Emitter != nil {
				l.Emitter.Emit(emit.Event{
					NodeID: l.NodeName,
					Msg:    "loop_max_iterations",
					Meta:   map[string]interface{}{"iterations": iteration},
				})
			}
			return s, nil
		}

		if l.BreakCondition != nil {
			brk, err := l.evalBreak(s)
			if err != nil {
				// BreakCondition exceptions are reported through Emitter
				// and treated as false: they do not break the loop.
				if l.Emitter != nil {
					l.Emitter.Emit(emit.Event{
						NodeID: l.NodeName,
						Msg:    "loop_break_condition_failed",
						Meta:   map[string]interface{}{"iteration": iteration, "error": err.Error()},
					})
				}
				brk = false
			}
			if brk {
				return s, nil
			}
		}

		if l.ContinueCondition == nil {
			return s, &graph.WorkflowError{Node: l.NodeName, Message: "LoopNode requires a continueCondition"}
		}
		shouldContinue, err := l.evalContinue(s)
		if err != nil {
			return s, err
		}
		if !shouldContinue {
			return s, nil
		}

		next, err := l.Child.Run(ctx, s)
		if err != nil {
			return s, &graph.WorkflowError{Node: l.NodeName, Message: "child failed during loop iteration", Cause: err}
		}
		s = next
	}
}

// evalBreak runs BreakCondition, recovering a panic into an error so the
// caller can treat it as "false" rather than crash the run.
func (l *LoopNode[S]) evalBreak(s S) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &graph.WorkflowError{Node: l.NodeName, Message: "breakCondition panicked"}
		}
	}()
	return l.BreakCondition(s), nil
}

// evalContinue runs ContinueCondition, converting a panic into a fatal
// *graph.WorkflowError (unlike BreakCondition, a ContinueCondition
// exception is not tolerated).
func (l *LoopNode[S]) evalContinue(s S) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = &graph.WorkflowError{Node: l.NodeName, Message: "continueCondition panicked", Cause: fmt.Errorf("%v", r)}
		}
	}()
	return l.ContinueCondition(s), nil
}
