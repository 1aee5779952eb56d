package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/convobase/convobase/pkg/models"
)

func TestEvaluate_MessageField(t *testing.T) {
	execCtx := &models.ExecutionContext{
		Message: "I need Pricing for the Pro plan",
	}

	tests := []struct {
		name      string
		condition models.Condition
		expected  bool
	}{
		{"equals case-insensitive", models.Condition{Field: "message", Operator: models.OperatorEquals, Value: "i need pricing for the pro plan"}, true},
		{"equals mismatch", models.Condition{Field: "message", Operator: models.OperatorEquals, Value: "something else"}, false},
		{"contains", models.Condition{Field: "message", Operator: models.OperatorContains, Value: "PRICING"}, true},
		{"starts_with", models.Condition{Field: "message", Operator: models.OperatorStartsWith, Value: "i need"}, true},
		{"ends_with", models.Condition{Field: "message", Operator: models.OperatorEndsWith, Value: "pro PLAN"}, true},
		{"regex case-insensitive", models.Condition{Field: "message", Operator: models.OperatorRegex, Value: "pricing.*plan"}, true},
		{"regex mismatch", models.Condition{Field: "message", Operator: models.OperatorRegex, Value: "^pricing"}, false},
		{"malformed regex is false", models.Condition{Field: "message", Operator: models.OperatorRegex, Value: "([unclosed"}, false},
		{"unknown operator is false", models.Condition{Field: "message", Operator: "matches", Value: "pricing"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(&tt.condition, execCtx))
		})
	}
}

func TestEvaluate_VariableFields(t *testing.T) {
	execCtx := &models.ExecutionContext{
		Variables: map[string]any{
			"plan":  "Pro",
			"price": 100,
			"empty": nil,
		},
	}

	assert.True(t, Evaluate(&models.Condition{
		Field: "variables.plan", Operator: models.OperatorEquals, Value: "pro",
	}, execCtx))

	assert.True(t, Evaluate(&models.Condition{
		Field: "variables.price", Operator: models.OperatorEquals, Value: "100",
	}, execCtx))

	// A nil value never matches.
	assert.False(t, Evaluate(&models.Condition{
		Field: "variables.empty", Operator: models.OperatorEquals, Value: "",
	}, execCtx))

	// An absent variable never matches.
	assert.False(t, Evaluate(&models.Condition{
		Field: "variables.missing", Operator: models.OperatorContains, Value: "",
	}, execCtx))
}

func TestEvaluate_Degenerate(t *testing.T) {
	execCtx := &models.ExecutionContext{Message: "hi"}

	assert.False(t, Evaluate(nil, execCtx))
	assert.False(t, Evaluate(&models.Condition{Field: "message", Operator: models.OperatorEquals, Value: "hi"}, nil))
	assert.False(t, Evaluate(&models.Condition{Field: "unknown", Operator: models.OperatorEquals, Value: "hi"}, execCtx))
}
