package emit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating OpenTelemetry spans.
//
// Each event becomes a span with:
//   - Span name: event.Msg (e.g., "node_end", "node_error")
//   - Attributes: runID, step, nodeID, and all event.Meta fields
//   - Status: Set to error if event.Meta["error"] exists
//
// Events represent points in time rather than durations, so every span is
// ended immediately; the span processor batches them for export.
//
// Usage:
//
//	tracer := otel.Tracer("wfgraph")
//	emitter := emit.NewOTelEmitter(tracer)
//	engine, err := graph.NewEngine(g, graph.WithEmitter(emitter))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an OTelEmitter emitting through tracer, typically
// obtained from otel.Tracer("service-name").
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates an OpenTelemetry span for the event.
func (o *OTelEmitter) Emit(event Event) {
	ctx := context.Background()
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	o.addStandardAttributes(span, event)
	o.addMetadataAttributes(span, event.Meta)

	if err, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, err)
		span.RecordError(fmt.Errorf("%s", err))
	}
}

// EmitBatch creates one span per event. All spans are created and ended
// immediately; the OpenTelemetry batch span processor amortizes the export.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, event.Msg)

		o.addStandardAttributes(span, event)
		o.addMetadataAttributes(span, event.Meta)

		if err, ok := event.Meta["error"].(string); ok {
			span.SetStatus(codes.Error, err)
			span.RecordError(fmt.Errorf("%s", err))
		}

		span.End()
	}
	return nil
}

// Flush forces export of all pending spans via the tracer provider's
// ForceFlush, when the provider supports it. Call before shutdown so
// buffered spans reach the backend. Respects ctx cancellation and
// deadlines.
func (o *OTelEmitter) Flush(ctx context.Context) error {
	tp := otel.GetTracerProvider()

	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := tp.(flusher); ok {
		return f.ForceFlush(ctx)
	}

	// Provider doesn't support flushing (e.g., noop provider).
	return nil
}

// addStandardAttributes adds core event fields as span attributes.
func (o *OTelEmitter) addStandardAttributes(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("wfgraph.run_id", event.RunID),
		attribute.Int("wfgraph.step", event.Step),
		attribute.String("wfgraph.node_id", event.NodeID),
	)
}

// addMetadataAttributes converts event metadata to span attributes.
//
// Handles common types:
//   - string, int, int64, float64, bool: Direct conversion
//   - time.Duration: Convert to milliseconds
//   - Other types: Convert to string representation
//
// These keys are mapped to namespaced attribute names; anything else
// passes through under its own key:
//   - latency_ms, duration_ms: node execution latency
//   - attempt: RetryNode attempt number
//   - child, child_index: ParallelNode child identification
func (o *OTelEmitter) addMetadataAttributes(span trace.Span, meta map[string]interface{}) {
	if meta == nil {
		return
	}

	for key, value := range meta {
		attrKey := key
		switch key {
		case "latency_ms", "duration_ms":
			attrKey = "wfgraph.node.latency_ms"
		case "attempt":
			attrKey = "wfgraph.retry.attempt"
		case "child":
			attrKey = "wfgraph.parallel.child"
		case "child_index":
			attrKey = "wfgraph.parallel.child_index"
		}

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, int64(v/time.Millisecond)))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
}
