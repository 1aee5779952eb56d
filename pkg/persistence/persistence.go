// Package persistence provides the data storage abstraction layer for
// automations, conversations, messages and execution history.
package persistence

import (
	"context"
	"time"

	"github.com/convobase/convobase/pkg/models"
)

// Persistence aggregates the repositories backing the automation engine.
type Persistence interface {
	AutomationRepository() AutomationRepository
	ConversationRepository() ConversationRepository
	MessageRepository() MessageRepository
	IntegrationRepository() IntegrationRepository
	ExecutionLogRepository() ExecutionLogRepository
	SocialPostRepository() SocialPostRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// AutomationRepository stores organization-scoped automation documents.
// GetByID returns (nil, nil) when the automation does not exist.
type AutomationRepository interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]*models.Automation, error)
	ListActiveByOrganization(ctx context.Context, organizationID string) ([]*models.Automation, error)
	GetByID(ctx context.Context, id string) (*models.Automation, error)
	Save(ctx context.Context, automation *models.Automation) error
	Delete(ctx context.Context, id string) error

	// IncrementStats atomically bumps totalExecutions plus the
	// success or failure counter and refreshes lastExecutedAt.
	IncrementStats(ctx context.Context, id string, success bool) error
}

// ConversationRepository stores conversations with their embedded
// automation settings. GetByID returns (nil, nil) when missing.
type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	Save(ctx context.Context, conversation *models.Conversation) error
	UpdateAutomationSettings(ctx context.Context, id string, settings models.AutomationSettings) error

	// AppendAutomationHistory atomically appends one history entry and
	// updates lastAutomationTriggered.
	AppendAutomationHistory(ctx context.Context, id string, entry models.AutomationHistoryEntry) error
	SetPriority(ctx context.Context, id, priority string) error
	ListPaused(ctx context.Context) ([]*models.Conversation, error)
}

// MessageRepository is the append-only conversation message history.
type MessageRepository interface {
	Append(ctx context.Context, message *models.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
}

// IntegrationRepository resolves per-organization provider credentials.
// MessagingCredentials returns (nil, nil) when the organization has no
// messaging integration configured.
type IntegrationRepository interface {
	MessagingCredentials(ctx context.Context, organizationID string) (*models.MessagingCredentials, error)
	SaveMessagingCredentials(ctx context.Context, credentials *models.MessagingCredentials) error
}

// ExecutionLogRepository is the append-only automation run history.
type ExecutionLogRepository interface {
	Append(ctx context.Context, entry *models.ExecutionLogEntry) error
	ListByAutomation(ctx context.Context, automationID string) ([]*models.ExecutionLogEntry, error)
}

// SocialPostRepository stores scheduled social posts for the periodic
// publisher.
type SocialPostRepository interface {
	Save(ctx context.Context, post *models.SocialPost) error
	GetByID(ctx context.Context, id string) (*models.SocialPost, error)
	ListDue(ctx context.Context, before time.Time) ([]*models.SocialPost, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
