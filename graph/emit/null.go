package emit

import "context"

// NullEmitter implements Emitter by discarding all events. It is the
// engine's default when no emitter is configured, for deployments where
// observability overhead is unwanted.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter. Safe for concurrent use, zero
// overhead.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(event Event) {}

// EmitBatch discards all events in the batch.
func (n *NullEmitter) EmitBatch(_ context.Context, _ []Event) error {
	return nil
}

// Flush is a no-op: there is nothing buffered to deliver.
func (n *NullEmitter) Flush(_ context.Context) error {
	return nil
}
