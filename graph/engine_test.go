package graph

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestEngine_Linear is scenario 1 of the testable-properties suite: A -> B
// -> exit, A adds 1, B doubles, initial 3 -> final 8.
func TestEngine_Linear(t *testing.T) {
	g := buildLinearGraph(t)
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	engine, err := NewEngine(g)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	final, err := engine.Run(context.Background(), "", counterState{Value: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final.Value != 8 {
		t.Errorf("expected final value 8, got %d", final.Value)
	}
}

// TestEngine_GuardedBranch is scenario 2: A -> B if s>0 else C, B
// subtracts 1, C adds 10.
func buildGuardedBranchGraph(t *testing.T) *Graph[counterState] {
	t.Helper()
	g := NewGraph[counterState]()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("graph construction: %v", err)
		}
	}
	must(g.AddNode(NewNode("A", func(_ context.Context, s counterState) (counterState, error) {
		return s, nil
	})))
	must(g.AddNode(NewNode("B", func(_ context.Context, s counterState) (counterState, error) {
		s.Value--
		return s, nil
	})))
	must(g.AddNode(NewNode("C", func(_ context.Context, s counterState) (counterState, error) {
		s.Value += 10
		return s, nil
	})))
	must(g.AddEdge("A", "B", func(s counterState) bool { return s.Value > 0 }))
	must(g.AddEdge("A", "C", func(s counterState) bool { return s.Value <= 0 }))
	must(g.SetEntryPoint("A"))
	must(g.AddExitPoint("B"))
	must(g.AddExitPoint("C"))
	return g
}

func TestEngine_GuardedBranch(t *testing.T) {
	g := buildGuardedBranchGraph(t)
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	engine, err := NewEngine(g)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	final, err := engine.Run(context.Background(), "", counterState{Value: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final.Value != 4 {
		t.Errorf("expected 4 for positive branch, got %d", final.Value)
	}

	final, err = engine.Run(context.Background(), "", counterState{Value: -1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final.Value != 9 {
		t.Errorf("expected 9 for non-positive branch, got %d", final.Value)
	}
}

// TestEngine_EdgePriority verifies the executor picks the earliest
// satisfied edge when multiple guards would match.
func TestEngine_EdgePriority(t *testing.T) {
	g := NewGraph[counterState]()
	if err := g.AddNode(NewNode("A", func(_ context.Context, s counterState) (counterState, error) { return s, nil })); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(NewNode("first", func(_ context.Context, s counterState) (counterState, error) {
		s.Value = 1
		return s, nil
	})); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(NewNode("second", func(_ context.Context, s counterState) (counterState, error) {
		s.Value = 2
		return s, nil
	})); err != nil {
		t.Fatal(err)
	}
	alwaysTrue := func(counterState) bool { return true }
	if err := g.AddEdge("A", "first", alwaysTrue); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("A", "second", alwaysTrue); err != nil {
		t.Fatal(err)
	}
	if err := g.SetEntryPoint("A"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddExitPoint("first"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddExitPoint("second"); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(g)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	final, err := engine.Run(context.Background(), "", counterState{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final.Value != 1 {
		t.Errorf("expected the earliest-inserted edge (first) to win, got %d", final.Value)
	}
}

// TestEngine_NoMatchingEdgeFails verifies a node with only unsatisfied
// guards fails with WorkflowError rather than hanging.
func TestEngine_NoMatchingEdgeFails(t *testing.T) {
	g := NewGraph[counterState]()
	if err := g.AddNode(NewNode("A", func(_ context.Context, s counterState) (counterState, error) { return s, nil })); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(NewNode("B", func(_ context.Context, s counterState) (counterState, error) { return s, nil })); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("A", "B", func(counterState) bool { return false }); err != nil {
		t.Fatal(err)
	}
	if err := g.SetEntryPoint("A"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddExitPoint("B"); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(g)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = engine.Run(context.Background(), "", counterState{})
	if err == nil {
		t.Fatal("expected WorkflowError for no matching edge, got nil")
	}
	var wfErr *WorkflowError
	if !errors.As(err, &wfErr) {
		t.Errorf("expected *WorkflowError, got %T", err)
	}
}

// TestEngine_CancellationBeforeNode verifies a pre-cancelled context fails
// with CancelledError and never invokes the entry node.
func TestEngine_CancellationBeforeNode(t *testing.T) {
	invoked := false
	g := NewGraph[counterState]()
	if err := g.AddNode(NewNode("A", func(_ context.Context, s counterState) (counterState, error) {
		invoked = true
		return s, nil
	})); err != nil {
		t.Fatal(err)
	}
	if err := g.SetEntryPoint("A"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddExitPoint("A"); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(g)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Run(ctx, "", counterState{})
	if err == nil {
		t.Fatal("expected CancelledError, got nil")
	}
	var cancelErr *CancelledError
	if !errors.As(err, &cancelErr) {
		t.Errorf("expected *CancelledError, got %T", err)
	}
	if invoked {
		t.Error("entry node should not run once the context is already cancelled")
	}
}

// TestEngine_MaxStepsExceeded verifies a misconfigured unbounded loop is
// stopped by WithMaxSteps rather than running forever.
func TestEngine_MaxStepsExceeded(t *testing.T) {
	// A -> B -> A with no exit point reachable: an intentionally
	// unbounded loop, stopped only by WithMaxSteps.
	g2 := NewGraph[counterState]()
	if err := g2.AddNode(NewNode("A", func(_ context.Context, s counterState) (counterState, error) {
		s.Value++
		return s, nil
	})); err != nil {
		t.Fatal(err)
	}
	if err := g2.AddNode(NewNode("B", func(_ context.Context, s counterState) (counterState, error) {
		return s, nil
	})); err != nil {
		t.Fatal(err)
	}
	if err := g2.AddEdge("A", "B", nil); err != nil {
		t.Fatal(err)
	}
	if err := g2.AddEdge("B", "A", nil); err != nil {
		t.Fatal(err)
	}
	if err := g2.SetEntryPoint("A"); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(g2, WithMaxSteps(10))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = engine.Run(context.Background(), "", counterState{})
	if err == nil {
		t.Fatal("expected max-steps error, got nil")
	}
}

// TestEngine_DefaultNodeTimeout verifies a node that outlives its timeout
// surfaces a Cancelled/DeadlineExceeded failure rather than hanging the
// run indefinitely.
func TestEngine_DefaultNodeTimeout(t *testing.T) {
	g := NewGraph[counterState]()
	if err := g.AddNode(NewNode("A", func(ctx context.Context, s counterState) (counterState, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return s, nil
		case <-ctx.Done():
			return s, ctx.Err()
		}
	})); err != nil {
		t.Fatal(err)
	}
	if err := g.SetEntryPoint("A"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddExitPoint("A"); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(g, WithDefaultNodeTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = engine.Run(context.Background(), "", counterState{})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}
