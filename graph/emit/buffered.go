package emit

import (
	"context"
	"sync"
)

// BufferedEmitter implements Emitter by storing events in memory, keyed by
// runID, with query support over the captured history. Intended for tests,
// debugging, and post-execution analysis; everything stays in memory, so
// long-running deployments should Clear finished runs or use a different
// backend.
//
//	emitter := emit.NewBufferedEmitter()
//	engine, err := graph.NewEngine(g, graph.WithEmitter(emitter))
//	...
//	errors := emitter.GetHistoryWithFilter("run-001", emit.HistoryFilter{Msg: "node_error"})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events
}

// HistoryFilter selects events from a run's history. Zero-valued fields
// don't filter; set fields combine with AND.
type HistoryFilter struct {
	NodeID  string // match this node only
	Msg     string // match this message only
	MinStep *int   // events with Step >= MinStep
	MaxStep *int   // events with Step <= MaxStep
}

// NewBufferedEmitter creates an empty BufferedEmitter. Safe for concurrent
// use.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit appends the event to its run's history.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// EmitBatch appends multiple events, preserving declaration order.
func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, event := range events {
		b.events[event.RunID] = append(b.events[event.RunID], event)
	}
	return nil
}

// Flush is a no-op: events are already held in memory, not queued for
// delivery.
func (b *BufferedEmitter) Flush(_ context.Context) error {
	return nil
}

// GetHistory returns every event recorded for runID in emission order. The
// result is a copy; mutating it does not affect the buffer. A run with no
// events yields an empty, non-nil slice.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[runID]
	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// GetHistoryWithFilter returns the events for runID that match filter, in
// emission order, as a copy. No matches yields an empty, non-nil slice.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[runID] {
		if matchesFilter(event, filter) {
			result = append(result, event)
		}
	}
	return result
}

func matchesFilter(event Event, filter HistoryFilter) bool {
	if filter.NodeID != "" && event.NodeID != filter.NodeID {
		return false
	}
	if filter.Msg != "" && event.Msg != filter.Msg {
		return false
	}
	if filter.MinStep != nil && event.Step < *filter.MinStep {
		return false
	}
	if filter.MaxStep != nil && event.Step > *filter.MaxStep {
		return false
	}
	return true
}

// Clear drops the history for runID, or every run's history when runID is
// empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, runID)
}
