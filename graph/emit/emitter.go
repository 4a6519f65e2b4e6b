// Package emit provides event emission and observability for graph execution.
package emit

import "context"

// Emitter receives observability events from workflow execution and
// forwards them to a backend: structured logs (LogEmitter), OpenTelemetry
// spans (OTelEmitter), an in-memory history (BufferedEmitter), or nowhere
// at all (NullEmitter).
//
// Implementations must be safe for concurrent use -- parallel children
// emit from their own goroutines -- and must not block or panic; a slow or
// unavailable backend should buffer, drop, or hand off asynchronously
// rather than stall the run.
type Emitter interface {
	// Emit sends one event. Failures are the emitter's problem to log or
	// swallow; the engine never checks them.
	Emit(event Event)

	// EmitBatch sends events in order as a single operation, amortizing
	// per-event overhead for backends that support bulk delivery. It
	// returns an error only on failures that make the whole batch
	// undeliverable; per-event failures are handled like Emit's.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until buffered events reach the backend, or ctx ends.
	// Call it before shutdown so queued events are not lost. Must be
	// idempotent.
	Flush(ctx context.Context) error
}
