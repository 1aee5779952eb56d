package file

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
)

// ConversationRepository stores one JSON document per conversation.
type ConversationRepository struct {
	dir string
	mu  sync.Mutex
}

func (r *ConversationRepository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *ConversationRepository) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	var conversation models.Conversation

	found, err := readDocument(r.path(id), &conversation)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &conversation, nil
}

func (r *ConversationRepository) Save(_ context.Context, conversation *models.Conversation) error {
	return writeDocument(r.path(conversation.ID), conversation)
}

func (r *ConversationRepository) UpdateAutomationSettings(ctx context.Context, id string, settings models.AutomationSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mutate(ctx, "UpdateAutomationSettings", id, func(conversation *models.Conversation) {
		conversation.AutomationSettings = settings
	})
}

func (r *ConversationRepository) AppendAutomationHistory(ctx context.Context, id string, entry models.AutomationHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mutate(ctx, "AppendAutomationHistory", id, func(conversation *models.Conversation) {
		conversation.AutomationSettings.AutomationHistory = append(
			conversation.AutomationSettings.AutomationHistory, entry)
		triggeredAt := entry.TriggeredAt
		conversation.AutomationSettings.LastAutomationTriggered = &triggeredAt
	})
}

func (r *ConversationRepository) SetPriority(ctx context.Context, id, priority string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mutate(ctx, "SetPriority", id, func(conversation *models.Conversation) {
		conversation.Priority = priority
	})
}

func (r *ConversationRepository) ListPaused(_ context.Context) ([]*models.Conversation, error) {
	paused := make([]*models.Conversation, 0)

	err := listDocuments(r.dir, func(data []byte) error {
		var conversation models.Conversation
		if err := json.Unmarshal(data, &conversation); err != nil {
			return fmt.Errorf("failed to decode conversation: %w", err)
		}

		if conversation.AutomationSettings.IsPaused {
			paused = append(paused, &conversation)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return paused, nil
}

// mutate applies fn to a stored conversation and writes it back. Callers
// hold the repository mutex.
func (r *ConversationRepository) mutate(ctx context.Context, op, id string, fn func(*models.Conversation)) error {
	conversation, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if conversation == nil {
		return persistence.NewConversationError(op, id, persistence.ErrConversationNotFound)
	}

	fn(conversation)
	conversation.UpdatedAt = time.Now().UTC()

	return r.Save(ctx, conversation)
}
