package composite

import (
	"context"

	"github.com/mwillis/wfgraph/graph"
)

// DefaultValidationResultProperty is the property name ValidationNode
// writes to when the caller does not supply one.
const DefaultValidationResultProperty = "ValidationResult"

// ValidationResult is the outcome of a ValidationNode's validator.
type ValidationResult struct {
	OK     bool
	Errors []string
}

// ValidationNode runs a validator and writes its ValidationResult into a
// named property, accepting fields typed as ValidationResult, bool, or
// string (the joined Errors). By default a failed validation is fatal.
type ValidationNode[S any] struct {
	NodeName       string
	Validator      func(ctx context.Context, state S) (ValidationResult, error)
	PropertyName   string // defaults to DefaultValidationResultProperty
	ThrowOnFailure bool   // zero value would be false; use NewValidationNode for the true default
}

// NewValidationNode constructs a ValidationNode with ThrowOnFailure
// defaulting to true.
func NewValidationNode[S any](name string, validator func(ctx context.Context, state S) (ValidationResult, error), propertyName string) *ValidationNode[S] {
	if propertyName == "" {
		propertyName = DefaultValidationResultProperty
	}
	return &ValidationNode[S]{NodeName: name, Validator: validator, PropertyName: propertyName, ThrowOnFailure: true}
}

// Name returns the node's identifier.
func (v *ValidationNode[S]) Name() string { return v.NodeName }

// Run evaluates the validator, writes the outcome into PropertyName, and
// either fails the run or returns the state depending on ThrowOnFailure.
func (v *ValidationNode[S]) Run(ctx context.Context, state S) (S, error) {
	if v.Validator == nil {
		var zero S
		return zero, &graph.WorkflowError{Node: v.NodeName, Message: "ValidationNode requires a validator"}
	}
	result, err := v.Validator(ctx, state)
	if err != nil {
		var zero S
		return zero, &graph.WorkflowError{Node: v.NodeName, Message: "validator failed", Cause: err}
	}

	next := v.writeResult(state, result)

	if !result.OK && v.ThrowOnFailure {
		return next, &graph.WorkflowError{Node: v.NodeName, Message: "validation failed", Cause: joinErrors(result.Errors)}
	}
	return next, nil
}

func (v *ValidationNode[S]) writeResult(state S, result ValidationResult) S {
	pw, ok := any(state).(graph.PropertyWriter)
	if !ok {
		return state
	}
	candidates := []any{result, result.OK, joinStrings(result.Errors)}
	for _, value := range candidates {
		if next, wrote := pw.WithProperty(v.PropertyName, value); wrote {
			if typed, ok := next.(S); ok {
				return typed
			}
		}
	}
	return state
}

func joinStrings(errs []string) string {
	out := ""
	for i, e := range errs {
		if i > 0 {
			out += "; "
		}
		out += e
	}
	return out
}

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return &graph.WorkflowError{Message: joinStrings(errs)}
}
