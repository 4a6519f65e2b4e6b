// Package composite provides the control-flow node combinators that wrap
// one or more child nodes to add parallel fan-out, retry, looping,
// nested sub-workflows, dynamic branching, and validation gating.
package composite

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/emit"
)

// QuorumMode selects how many ParallelNode children must succeed before
// the parent returns.
type QuorumMode int

const (
	// All requires every child to succeed.
	All QuorumMode = iota
	// Any requires the first success; the rest are cancelled.
	Any
	// Majority requires floor(k/2)+1 successes.
	Majority
	// CountMode requires exactly N successes (see Count()).
	CountMode
)

// Quorum describes a ParallelNode's completion requirement.
type Quorum struct {
	mode QuorumMode
	n    int
}

// QuorumAll requires every child to succeed.
func QuorumAll() Quorum { return Quorum{mode: All} }

// QuorumAny requires the first success; siblings are cancelled.
func QuorumAny() Quorum { return Quorum{mode: Any} }

// QuorumMajority requires floor(k/2)+1 successes out of k children.
func QuorumMajority() Quorum { return Quorum{mode: Majority} }

// Count requires exactly n successes, 1 <= n <= k.
func Count(n int) Quorum { return Quorum{mode: CountMode, n: n} }

// ParallelNode fans out to its children concurrently, each against an
// independent deep copy of the input state, and joins per its Quorum.
type ParallelNode[S any] struct {
	NodeName string
	Children []graph.Node[S]
	Mode     Quorum
	// Emitter, if set, receives a "parallel_deepcopy_fallback" warning
	// event whenever a child's state cannot be deep-copied and falls back
	// to the shared reference. Nil (the default) means no warning is
	// raised.
	Emitter emit.Emitter
	// Metrics, if set, records one RecordParallelCancellation call per
	// child still running when the quorum is satisfied early.
	Metrics *graph.Metrics
}

// NewParallelNode constructs a ParallelNode. Emitter and Metrics are left
// nil; set the fields directly on the returned node (mirroring
// RetryNode.Metrics) to receive deep-copy-fallback warnings and
// cancellation counts.
func NewParallelNode[S any](name string, mode Quorum, children ...graph.Node[S]) *ParallelNode[S] {
	return &ParallelNode[S]{NodeName: name, Children: children, Mode: mode}
}

// Name returns the node's identifier.
func (p *ParallelNode[S]) Name() string { return p.NodeName }

type parallelResult[S any] struct {
	index int
	state S
	err   error
}

// Run fans out to every child, each against an isolated copy of state, and
// joins according to p.Mode. On success it returns the state produced by
// the "included" child that completes last among the required set for
// Any/Majority/Count, or the state of the last child in declaration order
// for All (a stable, declaration-order merge rather than "last
// completed").
func (p *ParallelNode[S]) Run(ctx context.Context, state S) (S, error) {
	k := len(p.Children)
	if k == 0 {
		var zero S
		return zero, &graph.WorkflowError{Node: p.NodeName, Message: "ParallelNode has no children"}
	}

	required := p.requiredCount(k)
	if required < 1 || required > k {
		var zero S
		return zero, &graph.WorkflowError{Node: p.NodeName, Message: fmt.Sprintf("invalid quorum: need %d of %d children", required, k)}
	}

	childCtx, cancelAll := context.WithCancel(ctx)
	defer cancelAll()

	results := make(chan parallelResult[S], k)
	var wg sync.WaitGroup
	for i, child := range p.Children {
		childState, ok := DeepCopy(state)
		if !ok {
			childState = state
			if p.Emitter != nil {
				p.Emitter.Emit(emit.Event{
					NodeID: p.NodeName,
					Msg:    "parallel_deepcopy_fallback",
					Meta:   map[string]interface{}{"child_index": i, "child": child.Name()},
				})
			}
		}
		wg.Add(1)
		go func(i int, child graph.Node[S], s S) {
			defer wg.Done()
			next, err := child.Run(childCtx, s)
			results <- parallelResult[S]{index: i, state: next, err: err}
		}(i, child, childState)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	succeeded := 0
	var lastIncluded S
	haveLastIncluded := false
	allByIndex := make([]S, k)
	allSet := make([]bool, k)

loop:
	for res := range results {
		if ctx.Err() != nil {
			break loop
		}
		completed++
		if res.err != nil {
			if p.Mode.mode == All {
				var zero S
				return zero, &graph.WorkflowError{Node: p.NodeName, Message: "a required child failed", Cause: res.err}
			}
			remaining := k - completed
			if succeeded+remaining < required {
				var zero S
				return zero, &graph.WorkflowError{Node: p.NodeName, Message: "insufficient children can still satisfy the quorum", Cause: res.err}
			}
			continue
		}
		succeeded++
		lastIncluded = res.state
		haveLastIncluded = true
		allByIndex[res.index] = res.state
		allSet[res.index] = true

		if p.Mode.mode != All && succeeded >= required {
			for i := completed; i < k; i++ {
				p.Metrics.RecordParallelCancellation(p.NodeName)
			}
			cancelAll()
			break loop
		}
	}

	if ctx.Err() != nil {
		var zero S
		return zero, &graph.CancelledError{Node: p.NodeName, Cause: ctx.Err()}
	}

	if p.Mode.mode == All {
		if succeeded < k {
			var zero S
			return zero, &graph.WorkflowError{Node: p.NodeName, Message: "not all children completed successfully"}
		}
		for i := k - 1; i >= 0; i-- {
			if allSet[i] {
				return allByIndex[i], nil
			}
		}
	}

	if !haveLastIncluded {
		var zero S
		return zero, &graph.WorkflowError{Node: p.NodeName, Message: "quorum not satisfied"}
	}
	return lastIncluded, nil
}

func (p *ParallelNode[S]) requiredCount(k int) int {
	switch p.Mode.mode {
	case All:
		return k
	case Any:
		return 1
	case Majority:
		return k/2 + 1
	case CountMode:
		return p.Mode.n
	default:
		return k
	}
}

// DeepCopy returns an independent copy of state for parallel fan-out,
// preferring the graph.Cloner capability and falling back to a
// serialize-then-deserialize round trip through encoding/json, which works
// for any state type built from exported fields. The bool result reports
// whether isolation was achieved; false means state is shared by reference
// across children.
func DeepCopy[S any](state S) (S, bool) {
	if cloned, ok := graph.TryClone(state); ok {
		return cloned, true
	}
	data, err := json.Marshal(state)
	if err != nil {
		return state, false
	}
	var out S
	if err := json.Unmarshal(data, &out); err != nil {
		return state, false
	}
	return out, true
}
