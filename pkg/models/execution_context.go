package models

// ExecutionContext is the ephemeral variable bag and identifiers passed
// through one automation run. It is constructed per invocation and
// never persisted.
type ExecutionContext struct {
	ConversationID string         `json:"conversationId,omitempty"`
	OrganizationID string         `json:"organizationId"`
	Contact        string         `json:"contact,omitempty"`
	Message        string         `json:"message,omitempty"`
	IsFirstMessage bool           `json:"isFirstMessage,omitempty"`
	Variables      map[string]any `json:"variables,omitempty"`
}
