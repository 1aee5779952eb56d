package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
)

// ConversationRepository stores conversation documents. Settings and
// history updates go through jsonb_set so concurrent automation runs
// compose instead of overwriting each other's documents.
type ConversationRepository struct {
	db *sql.DB
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var data []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM conversations WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, persistence.NewConversationError("GetByID", id, err)
	}

	var conversation models.Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, fmt.Errorf("failed to decode conversation document: %w", err)
	}

	return &conversation, nil
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *models.Conversation) error {
	data, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("failed to encode conversation document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversations (id, organization_id, is_paused, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			is_paused = EXCLUDED.is_paused,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		conversation.ID, conversation.OrganizationID,
		conversation.AutomationSettings.IsPaused, data,
		conversation.CreatedAt, conversation.UpdatedAt)
	if err != nil {
		return persistence.NewConversationError("Save", conversation.ID, err)
	}

	return nil
}

func (r *ConversationRepository) UpdateAutomationSettings(ctx context.Context, id string, settings models.AutomationSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode automation settings: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET
			data = jsonb_set(data, '{automationSettings}', $2::jsonb),
			is_paused = $3,
			updated_at = NOW()
		WHERE id = $1`,
		id, data, settings.IsPaused)
	if err != nil {
		return persistence.NewConversationError("UpdateAutomationSettings", id, err)
	}

	return ensureConversationFound(result, "UpdateAutomationSettings", id)
}

// AppendAutomationHistory appends one entry and refreshes
// lastAutomationTriggered in a single statement.
func (r *ConversationRepository) AppendAutomationHistory(ctx context.Context, id string, entry models.AutomationHistoryEntry) error {
	entryData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}

	triggeredAt, err := json.Marshal(entry.TriggeredAt)
	if err != nil {
		return fmt.Errorf("failed to encode trigger timestamp: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET
			data = jsonb_set(
				jsonb_set(data, '{automationSettings,automationHistory}',
					COALESCE(data#>'{automationSettings,automationHistory}', '[]'::jsonb) || $2::jsonb),
				'{automationSettings,lastAutomationTriggered}', $3::jsonb),
			updated_at = NOW()
		WHERE id = $1`,
		id, entryData, triggeredAt)
	if err != nil {
		return persistence.NewConversationError("AppendAutomationHistory", id, err)
	}

	return ensureConversationFound(result, "AppendAutomationHistory", id)
}

func (r *ConversationRepository) SetPriority(ctx context.Context, id, priority string) error {
	value, err := json.Marshal(priority)
	if err != nil {
		return fmt.Errorf("failed to encode priority: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET
			data = jsonb_set(data, '{priority}', $2::jsonb),
			updated_at = NOW()
		WHERE id = $1`,
		id, value)
	if err != nil {
		return persistence.NewConversationError("SetPriority", id, err)
	}

	return ensureConversationFound(result, "SetPriority", id)
}

func (r *ConversationRepository) ListPaused(ctx context.Context) ([]*models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM conversations WHERE is_paused ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query paused conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}

		var conversation models.Conversation
		if err := json.Unmarshal(data, &conversation); err != nil {
			return nil, fmt.Errorf("failed to decode conversation document: %w", err)
		}

		conversations = append(conversations, &conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return conversations, nil
}

func ensureConversationFound(result sql.Result, op, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewConversationError(op, id, err)
	}

	if affected == 0 {
		return persistence.NewConversationError(op, id, persistence.ErrConversationNotFound)
	}

	return nil
}
