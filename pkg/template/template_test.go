package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_Substitution(t *testing.T) {
	variables := map[string]any{
		"contact_name": "Maria",
		"price":        100,
	}

	result := Render("Hi {{contact_name}}, your total is {{price}}", variables)
	assert.Equal(t, "Hi Maria, your total is 100", result)
}

func TestRender_WhitespaceInsidePlaceholder(t *testing.T) {
	variables := map[string]any{"name": "Ana"}

	assert.Equal(t, "Ana", Render("{{ name }}", variables))
	assert.Equal(t, "Ana", Render("{{name }}", variables))
	assert.Equal(t, "Ana", Render("{{  name  }}", variables))
}

func TestRender_MissingVariableLeftUnchanged(t *testing.T) {
	result := Render("Hello {{name}}, welcome to {{company}}", map[string]any{
		"name": "Leo",
	})

	assert.Equal(t, "Hello Leo, welcome to {{company}}", result)
}

func TestRender_NilVariables(t *testing.T) {
	assert.Equal(t, "Hello {{name}}", Render("Hello {{name}}", nil))
	assert.Equal(t, "plain text", Render("plain text", nil))
}

func TestRender_SinglePass(t *testing.T) {
	// A substituted value containing a placeholder must not be expanded
	// again.
	variables := map[string]any{
		"outer": "{{inner}}",
		"inner": "should not appear",
	}

	assert.Equal(t, "{{inner}}", Render("{{outer}}", variables))
}

func TestRender_NonStringValues(t *testing.T) {
	variables := map[string]any{
		"count":  3,
		"ratio":  1.5,
		"active": true,
	}

	result := Render("{{count}} {{ratio}} {{active}}", variables)
	assert.Equal(t, "3 1.5 true", result)
}

func TestRender_DottedNames(t *testing.T) {
	variables := map[string]any{
		"contact.name": "Rui",
	}

	assert.Equal(t, "Rui", Render("{{contact.name}}", variables))
}

func TestRender_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Render("", map[string]any{"a": 1}))
}
