package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	payload := map[string]any{
		"deal": map[string]any{
			"stage": "won",
			"owner": map[string]any{
				"id": "u-1",
			},
		},
		"amount": 1500,
	}

	tests := []struct {
		name     string
		path     string
		expected any
		found    bool
	}{
		{"top level", "amount", 1500, true},
		{"nested", "deal.stage", "won", true},
		{"deeply nested", "deal.owner.id", "u-1", true},
		{"missing segment", "deal.missing", nil, false},
		{"traversal through scalar", "amount.value", nil, false},
		{"missing root", "contact.name", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, found := ResolvePath(payload, tt.path)
			assert.Equal(t, tt.found, found)

			if tt.found {
				assert.Equal(t, tt.expected, value)
			}
		})
	}
}

func TestNode_MatchesPayload(t *testing.T) {
	payload := map[string]any{
		"deal": map[string]any{
			"stage":  "won",
			"amount": 2000,
		},
	}

	tests := []struct {
		name    string
		filter  map[string]any
		matches bool
	}{
		{"no filter matches everything", nil, true},
		{"exact match", map[string]any{"deal.stage": "won"}, true},
		{"numeric comparison via string form", map[string]any{"deal.amount": 2000}, true},
		{"all keys must match", map[string]any{"deal.stage": "won", "deal.amount": 1}, false},
		{"mismatch", map[string]any{"deal.stage": "lost"}, false},
		{"unresolvable path", map[string]any{"deal.owner": "u-1"}, false},
		{"regex expectation", map[string]any{"deal.stage": "/^w.n$/"}, true},
		{"regex mismatch", map[string]any{"deal.stage": "/^lost$/"}, false},
		{"malformed regex rejects", map[string]any{"deal.stage": "/([/"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &Node{ID: "t1", Type: NodeTypeTrigger, PayloadMatch: tt.filter}
			assert.Equal(t, tt.matches, node.MatchesPayload(payload))
		})
	}
}

func TestContainsKeyword(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		keywords []string
		expected bool
	}{
		{"whole word match", "I want pricing info", []string{"pricing"}, true},
		{"case insensitive", "PRICING please", []string{"pricing"}, true},
		{"substring does not match", "repricing is different", []string{"pricing"}, false},
		{"any keyword suffices", "tell me about demo", []string{"pricing", "demo"}, true},
		{"no keywords", "hello", nil, false},
		{"empty keyword skipped", "hello", []string{""}, false},
		{"punctuation boundary", "pricing?", []string{"pricing"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsKeyword(tt.message, tt.keywords))
		})
	}
}

func TestAutomation_Keywords(t *testing.T) {
	withConditions := &Automation{
		TriggerConditions: &TriggerConditions{Keywords: []string{"price"}},
		Nodes: []*Node{
			{ID: "t", Type: NodeTypeTrigger, Data: NodeData{Keywords: []string{"demo"}}},
		},
	}
	assert.Equal(t, []string{"price"}, withConditions.Keywords())

	nodeOnly := &Automation{
		Nodes: []*Node{
			{ID: "t", Type: NodeTypeTrigger, Data: NodeData{Keywords: []string{"demo"}}},
		},
	}
	assert.Equal(t, []string{"demo"}, nodeOnly.Keywords())

	none := &Automation{}
	assert.Nil(t, none.Keywords())
}

func TestAutomationSettings_HasTriggered(t *testing.T) {
	settings := &AutomationSettings{
		AutomationHistory: []AutomationHistoryEntry{
			{AutomationType: "greeting"},
		},
	}

	assert.True(t, settings.HasTriggered("greeting"))
	assert.False(t, settings.HasTriggered("welcome"))
}
