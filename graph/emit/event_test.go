package emit

import (
	"testing"
	"time"
)

func TestEvent_Struct(t *testing.T) {
	t.Run("complete event", func(t *testing.T) {
		event := Event{
			RunID:  "run-001",
			Step:   3,
			NodeID: "process-node",
			Msg:    "node_end",
			Meta: map[string]interface{}{
				"latency_ms": 125,
				"timestamp":  time.Unix(1700000000, 0).Unix(),
			},
		}

		if event.RunID != "run-001" || event.Step != 3 || event.NodeID != "process-node" {
			t.Errorf("unexpected identity fields: %+v", event)
		}
		if event.Meta["latency_ms"] != 125 {
			t.Errorf("expected Meta['latency_ms'] = 125, got %v", event.Meta["latency_ms"])
		}
	})

	t.Run("zero value event", func(t *testing.T) {
		var event Event

		if event.RunID != "" || event.Step != 0 || event.NodeID != "" || event.Msg != "" {
			t.Errorf("expected zero values, got %+v", event)
		}
		if event.Meta != nil {
			t.Error("expected zero value Meta to be nil")
		}
	})
}

// TestEvent_UseCases exercises the event shapes the engine and nodes emit.
func TestEvent_UseCases(t *testing.T) {
	t.Run("node error event", func(t *testing.T) {
		event := Event{
			RunID:  "run-001",
			Step:   2,
			NodeID: "validate",
			Msg:    "node_error",
			Meta: map[string]interface{}{
				"error":     "amount must be positive",
				"retryable": true,
			},
		}

		if event.Meta["retryable"] != true {
			t.Error("expected retryable = true")
		}
	})

	t.Run("suspension event", func(t *testing.T) {
		event := Event{
			RunID:  "run-001",
			Step:   5,
			NodeID: "approval-gate",
			Msg:    "hitl_suspended",
			Meta: map[string]interface{}{
				"pending_kind": "approval",
			},
		}

		kind, ok := event.Meta["pending_kind"].(string)
		if !ok || kind != "approval" {
			t.Errorf("expected pending_kind = 'approval', got %v", kind)
		}
	})

	t.Run("fan-out fallback event", func(t *testing.T) {
		event := Event{
			NodeID: "fanout",
			Msg:    "parallel_deepcopy_fallback",
			Meta: map[string]interface{}{
				"child":       "risk-check",
				"child_index": 1,
			},
		}

		if event.Meta["child"] != "risk-check" {
			t.Errorf("expected child = 'risk-check', got %v", event.Meta["child"])
		}
	})
}
