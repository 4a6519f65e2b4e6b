package hitl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mwillis/wfgraph/graph"
	"github.com/mwillis/wfgraph/graph/hitl/store"
)

// InputNode suspends until an external actor supplies a typed value for a
// named property. The resolved value is coerced to
// InputType before being written; coercion failure is a WorkflowError.
type InputNode[S any] struct {
	NodeName       string
	Store          store.InputStore[S]
	PropertyName   string
	Type           store.InputType
	Prompt         string
	DefaultValue   any
	ValidationRule string
	Timeout        time.Duration
}

// NewInputNode constructs an InputNode.
func NewInputNode[S any](name string, inputStore store.InputStore[S], propertyName string, typ store.InputType, prompt string, defaultValue any, validationRule string, timeout time.Duration) *InputNode[S] {
	return &InputNode[S]{
		NodeName: name, Store: inputStore, PropertyName: propertyName, Type: typ,
		Prompt: prompt, DefaultValue: defaultValue, ValidationRule: validationRule, Timeout: timeout,
	}
}

// Name returns the node's identifier.
func (n *InputNode[S]) Name() string { return n.NodeName }

// Run requests an input, waits for resolution, coerces the resolved value
// to Type, and writes it into PropertyName.
func (n *InputNode[S]) Run(ctx context.Context, state S) (S, error) {
	var zero S
	runID := runIDFor(state, n.NodeName)
	key := store.Key{RunID: runID, NodeName: n.NodeName, PropertyName: n.PropertyName}

	if _, err := n.Store.RequestInput(ctx, key, state, n.Type, n.Prompt, n.DefaultValue, n.ValidationRule); err != nil {
		return zero, &graph.WorkflowError{Node: n.NodeName, RunID: runID, Message: "requesting input", Cause: err}
	}

	pollCtx := ctx
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	err := waitUntilResolved(pollCtx, pollInterval(n.Timeout > 0), func(ctx context.Context) (bool, error) {
		record, err := n.Store.GetInput(ctx, key)
		if err != nil {
			return false, err
		}
		return record.Status != store.StatusPending, nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, &graph.WorkflowError{Node: n.NodeName, RunID: runID, Message: "input timed out"}
		}
		if errors.Is(err, context.Canceled) {
			return zero, &graph.CancelledError{Node: n.NodeName, RunID: runID, Cause: err}
		}
		return zero, &graph.WorkflowError{Node: n.NodeName, RunID: runID, Message: "polling input", Cause: err}
	}

	record, err := n.Store.GetInput(ctx, key)
	if err != nil {
		return zero, &graph.WorkflowError{Node: n.NodeName, RunID: runID, Message: "loading resolved input", Cause: err}
	}
	if err := n.Store.RemoveInput(ctx, key); err != nil {
		return zero, &graph.WorkflowError{Node: n.NodeName, RunID: runID, Message: "removing resolved input", Cause: err}
	}

	coerced, err := coerce(record.Type, record.Value)
	if err != nil {
		return zero, &graph.WorkflowError{Node: n.NodeName, RunID: runID, Message: "coercing input value", Cause: err}
	}

	return writeProperty(state, n.PropertyName, coerced), nil
}

// coerce converts a resolved value (typically decoded from JSON, so numbers
// arrive as float64 and missing values as nil) to the shape InputType
// declares, including the nullable case where value is nil.
func coerce(typ store.InputType, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch typ {
	case store.InputNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number: %w", v, err)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to Number", value)
		}
	case store.InputBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%q is not a boolean: %w", v, err)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("cannot coerce %T to Boolean", value)
		}
	case store.InputText, store.InputTextArea, store.InputEmail, store.InputURL, store.InputDate, store.InputDateTime, store.InputFile:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("cannot coerce %T to %s", value, typ)
		}
		return s, nil
	case store.InputJSON:
		return value, nil
	default:
		return nil, fmt.Errorf("unknown input type %q", typ)
	}
}
