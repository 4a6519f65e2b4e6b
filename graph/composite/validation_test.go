package composite

import (
	"context"
	"testing"

	"github.com/mwillis/wfgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationNode_FailureThrowsByDefault(t *testing.T) {
	node := NewValidationNode[propOnlyState]("validate", func(context.Context, propOnlyState) (ValidationResult, error) {
		return ValidationResult{OK: false, Errors: []string{"missing field"}}, nil
	}, "")

	_, err := node.Run(context.Background(), propOnlyState{})
	require.Error(t, err)
	var wfErr *graph.WorkflowError
	assert.ErrorAs(t, err, &wfErr)
}

func TestValidationNode_FailureToleratedWhenThrowOnFailureFalse(t *testing.T) {
	node := &ValidationNode[propOnlyState]{
		NodeName: "validate",
		Validator: func(context.Context, propOnlyState) (ValidationResult, error) {
			return ValidationResult{OK: false, Errors: []string{"warn only"}}, nil
		},
		PropertyName:   DefaultValidationResultProperty,
		ThrowOnFailure: false,
	}

	result, err := node.Run(context.Background(), propOnlyState{})
	require.NoError(t, err)
	written, ok := result.Props[DefaultValidationResultProperty].(ValidationResult)
	require.True(t, ok)
	assert.False(t, written.OK)
}

func TestValidationNode_SuccessWritesResult(t *testing.T) {
	node := NewValidationNode[propOnlyState]("validate", func(context.Context, propOnlyState) (ValidationResult, error) {
		return ValidationResult{OK: true}, nil
	}, "checked")

	result, err := node.Run(context.Background(), propOnlyState{})
	require.NoError(t, err)
	written, ok := result.Props["checked"].(ValidationResult)
	require.True(t, ok)
	assert.True(t, written.OK)
}

func TestValidationNode_ValidatorErrorPropagates(t *testing.T) {
	node := NewValidationNode[propOnlyState]("validate", func(context.Context, propOnlyState) (ValidationResult, error) {
		return ValidationResult{}, assertError("boom")
	}, "")

	_, err := node.Run(context.Background(), propOnlyState{})
	require.Error(t, err)
}
