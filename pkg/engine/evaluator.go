package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/convobase/convobase/pkg/models"
)

const variablesFieldPrefix = "variables."

// Evaluate applies a condition node's comparison to the execution
// context. A nil condition, an unresolvable field, an unknown operator
// or a malformed regex all evaluate to false rather than failing the
// run. String comparison is case-insensitive throughout.
func Evaluate(condition *models.Condition, execCtx *models.ExecutionContext) bool {
	if condition == nil || execCtx == nil {
		return false
	}

	actual, ok := resolveField(condition.Field, execCtx)
	if !ok {
		return false
	}

	left := strings.ToLower(fmt.Sprintf("%v", actual))
	right := strings.ToLower(condition.Value)

	switch condition.Operator {
	case models.OperatorEquals:
		return left == right
	case models.OperatorContains:
		return strings.Contains(left, right)
	case models.OperatorStartsWith:
		return strings.HasPrefix(left, right)
	case models.OperatorEndsWith:
		return strings.HasSuffix(left, right)
	case models.OperatorRegex:
		re, err := regexp.Compile("(?i)" + condition.Value)
		if err != nil {
			return false
		}

		return re.MatchString(fmt.Sprintf("%v", actual))
	default:
		return false
	}
}

// resolveField maps a condition field name to a context value. Supported
// fields are "message" and "variables.<name>".
func resolveField(field string, execCtx *models.ExecutionContext) (any, bool) {
	if field == "message" {
		return execCtx.Message, true
	}

	if name, ok := strings.CutPrefix(field, variablesFieldPrefix); ok {
		value, exists := execCtx.Variables[name]
		if !exists || value == nil {
			return nil, false
		}

		return value, true
	}

	return nil, false
}
