package emit

import (
	"context"
	"testing"
)

// TestNullEmitter_NoOp verifies NullEmitter discards everything without
// panicking, nil Meta included.
func TestNullEmitter_NoOp(t *testing.T) {
	emitter := NewNullEmitter()

	emitter.Emit(Event{RunID: "run-001", Step: 1, NodeID: "charge", Msg: "node_end"})
	emitter.Emit(Event{RunID: "run-001", NodeID: "charge", Msg: "node_error", Meta: map[string]interface{}{"error": "boom"}})
	emitter.Emit(Event{Meta: nil})

	if err := emitter.EmitBatch(context.Background(), []Event{{Msg: "node_end"}}); err != nil {
		t.Errorf("EmitBatch returned error: %v", err)
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Flush returned error: %v", err)
	}
}

func TestNullEmitter_InterfaceContract(_ *testing.T) {
	var _ Emitter = NewNullEmitter()
}
