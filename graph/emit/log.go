package emit

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogEmitter implements Emitter by writing structured log output through
// zerolog.
//
// Supports two output modes:
//   - Text mode (default): zerolog's console writer, human-readable.
//   - JSON mode: zerolog's native line-delimited JSON.
//
// Usage:
//
//	// Human-readable to stdout.
//	emitter := emit.NewLogEmitter(os.Stdout, false)
//
//	// JSON to a file.
//	f, _ := os.Create("events.jsonl")
//	defer f.Close()
//	emitter := emit.NewLogEmitter(f, true)
type LogEmitter struct {
	logger zerolog.Logger
}

// NewLogEmitter creates a new LogEmitter.
//
// Parameters:
//   - writer: where to write log output (e.g. os.Stdout, a file).
//   - jsonMode: if true, emit newline-delimited JSON; if false, a
//     human-readable console format.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	if !jsonMode {
		writer = zerolog.ConsoleWriter{Out: writer, NoColor: false}
	}
	return &LogEmitter{logger: zerolog.New(writer).With().Timestamp().Logger()}
}

// Emit writes a single event as a structured log line.
func (l *LogEmitter) Emit(event Event) {
	l.write(event)
}

func (l *LogEmitter) write(event Event) {
	ev := l.logger.Info()
	if _, ok := event.Meta["error"]; ok {
		ev = l.logger.Error()
	}
	ev = ev.Str("run_id", event.RunID).
		Int("step", event.Step).
		Str("node_id", event.NodeID)
	for k, v := range event.Meta {
		ev = ev.Interface(k, v)
	}
	ev.Msg(event.Msg)
}

// EmitBatch sends multiple events in declaration order.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		l.write(event)
	}
	return nil
}

// Flush is a no-op: zerolog writes synchronously to the underlying writer.
// Wrap the writer in a bufio.Writer and flush that directly if buffering is
// introduced upstream.
func (l *LogEmitter) Flush(_ context.Context) error {
	return nil
}
