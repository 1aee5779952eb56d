package models

import "time"

// MessageDirection marks a message as inbound (from the contact) or
// outbound (sent by an automation or an agent).
type MessageDirection string

const (
	MessageDirectionInbound  MessageDirection = "inbound"
	MessageDirectionOutbound MessageDirection = "outbound"
)

// Message is one entry in a conversation's append-only message history.
type Message struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversationId"`
	OrganizationID string           `json:"organizationId"`
	Direction      MessageDirection `json:"direction"`
	Body           string           `json:"body"`
	ProviderID     string           `json:"providerId,omitempty"`
	SentBy         string           `json:"sentBy,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// MessagingCredentials are the per-organization credentials for the
// outbound chat provider, resolved from the integrations store.
type MessagingCredentials struct {
	OrganizationID string `json:"organizationId"`
	PhoneNumberID  string `json:"phoneNumberId"`
	AccessToken    string `json:"accessToken"`
	BaseURL        string `json:"baseUrl,omitempty"`
}

// ExecutionStatus is the recorded outcome of one automation run.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// ExecutionLogEntry is one append-only record of an automation run.
type ExecutionLogEntry struct {
	ID             string          `json:"id"`
	AutomationID   string          `json:"automationId"`
	OrganizationID string          `json:"organizationId"`
	ConversationID string          `json:"conversationId,omitempty"`
	Status         ExecutionStatus `json:"status"`
	Error          string          `json:"error,omitempty"`
	TriggeredBy    string          `json:"triggeredBy"`
	StartedAt      time.Time       `json:"startedAt"`
	FinishedAt     time.Time       `json:"finishedAt"`
}
