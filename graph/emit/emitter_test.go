package emit

import (
	"context"
	"testing"
)

// mockEmitter is a minimal Emitter implementation for exercising the
// interface contract.
type mockEmitter struct {
	events  []Event
	flushed int
}

func (m *mockEmitter) Emit(event Event) {
	m.events = append(m.events, event)
}

func (m *mockEmitter) EmitBatch(_ context.Context, events []Event) error {
	m.events = append(m.events, events...)
	return nil
}

func (m *mockEmitter) Flush(_ context.Context) error {
	m.flushed++
	return nil
}

func TestEmitter_InterfaceContract(_ *testing.T) {
	var _ Emitter = (*mockEmitter)(nil)
}

func TestEmitter_Emit(t *testing.T) {
	t.Run("emit preserves order", func(t *testing.T) {
		emitter := &mockEmitter{}

		for step := 1; step <= 3; step++ {
			emitter.Emit(Event{RunID: "run-001", Step: step, Msg: "node_end"})
		}

		if len(emitter.events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(emitter.events))
		}
		for i, event := range emitter.events {
			if event.Step != i+1 {
				t.Errorf("event %d: expected Step = %d, got %d", i, i+1, event.Step)
			}
		}
	})

	t.Run("emit with metadata", func(t *testing.T) {
		emitter := &mockEmitter{}

		emitter.Emit(Event{
			RunID:  "run-001",
			Step:   1,
			NodeID: "fetch-rates",
			Msg:    "node_end",
			Meta: map[string]interface{}{
				"attempt":     2,
				"duration_ms": 250,
			},
		})

		if len(emitter.events) != 1 {
			t.Fatal("expected 1 event")
		}
		meta := emitter.events[0].Meta
		if meta["attempt"] != 2 {
			t.Errorf("expected attempt = 2, got %v", meta["attempt"])
		}
		if meta["duration_ms"] != 250 {
			t.Errorf("expected duration_ms = 250, got %v", meta["duration_ms"])
		}
	})

	t.Run("emit zero value event", func(t *testing.T) {
		emitter := &mockEmitter{}

		emitter.Emit(Event{})

		if len(emitter.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(emitter.events))
		}
	})
}

func TestEmitter_EmitBatchAndFlush(t *testing.T) {
	emitter := &mockEmitter{}
	ctx := context.Background()

	events := []Event{
		{RunID: "run-001", Step: 1, Msg: "node_end"},
		{RunID: "run-001", Step: 2, Msg: "node_end"},
	}
	if err := emitter.EmitBatch(ctx, events); err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}
	if len(emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(emitter.events))
	}

	if err := emitter.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if emitter.flushed != 1 {
		t.Errorf("expected 1 flush, got %d", emitter.flushed)
	}
}
