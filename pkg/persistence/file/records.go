package file

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
)

// MessageRepository stores one JSON array per conversation.
type MessageRepository struct {
	dir string
	mu  sync.Mutex
}

func (r *MessageRepository) path(conversationID string) string {
	return filepath.Join(r.dir, conversationID+".json")
}

func (r *MessageRepository) Append(ctx context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages, err := r.ListByConversation(ctx, message.ConversationID)
	if err != nil {
		return err
	}

	messages = append(messages, message)

	return writeDocument(r.path(message.ConversationID), messages)
}

func (r *MessageRepository) ListByConversation(_ context.Context, conversationID string) ([]*models.Message, error) {
	messages := make([]*models.Message, 0)

	if _, err := readDocument(r.path(conversationID), &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

// IntegrationRepository stores one credentials document per organization.
type IntegrationRepository struct {
	dir string
}

func (r *IntegrationRepository) path(organizationID string) string {
	return filepath.Join(r.dir, organizationID+".json")
}

func (r *IntegrationRepository) MessagingCredentials(_ context.Context, organizationID string) (*models.MessagingCredentials, error) {
	var credentials models.MessagingCredentials

	found, err := readDocument(r.path(organizationID), &credentials)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &credentials, nil
}

func (r *IntegrationRepository) SaveMessagingCredentials(_ context.Context, credentials *models.MessagingCredentials) error {
	return writeDocument(r.path(credentials.OrganizationID), credentials)
}

// ExecutionLogRepository stores one JSON array per automation.
type ExecutionLogRepository struct {
	dir string
	mu  sync.Mutex
}

func (r *ExecutionLogRepository) path(automationID string) string {
	return filepath.Join(r.dir, automationID+".json")
}

func (r *ExecutionLogRepository) Append(ctx context.Context, entry *models.ExecutionLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.ListByAutomation(ctx, entry.AutomationID)
	if err != nil {
		return err
	}

	entries = append(entries, entry)

	return writeDocument(r.path(entry.AutomationID), entries)
}

func (r *ExecutionLogRepository) ListByAutomation(_ context.Context, automationID string) ([]*models.ExecutionLogEntry, error) {
	entries := make([]*models.ExecutionLogEntry, 0)

	if _, err := readDocument(r.path(automationID), &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// SocialPostRepository stores one JSON document per scheduled post.
type SocialPostRepository struct {
	dir string
	mu  sync.Mutex
}

func (r *SocialPostRepository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *SocialPostRepository) Save(_ context.Context, post *models.SocialPost) error {
	return writeDocument(r.path(post.ID), post)
}

func (r *SocialPostRepository) GetByID(_ context.Context, id string) (*models.SocialPost, error) {
	var post models.SocialPost

	found, err := readDocument(r.path(id), &post)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &post, nil
}

func (r *SocialPostRepository) ListDue(ctx context.Context, before time.Time) ([]*models.SocialPost, error) {
	due := make([]*models.SocialPost, 0)

	err := listDocuments(r.dir, func(data []byte) error {
		var post models.SocialPost
		if err := decodeJSON(data, &post); err != nil {
			return err
		}

		if post.Due(before) {
			due = append(due, &post)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return due, nil
}

func (r *SocialPostRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if post == nil {
		return persistence.ErrSocialPostNotFound
	}

	publishedAt := at
	post.Status = models.SocialPostStatusPublished
	post.PublishedAt = &publishedAt
	post.Error = ""
	post.UpdatedAt = time.Now().UTC()

	return r.Save(ctx, post)
}

func (r *SocialPostRepository) MarkFailed(ctx context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if post == nil {
		return persistence.ErrSocialPostNotFound
	}

	post.Status = models.SocialPostStatusFailed
	post.Error = reason
	post.UpdatedAt = time.Now().UTC()

	return r.Save(ctx, post)
}
