package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
)

// MessageRepository is the append-only message history.
type MessageRepository struct {
	db *sql.DB
}

func (r *MessageRepository) Append(ctx context.Context, message *models.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, organization_id, data, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		message.ID, message.ConversationID, message.OrganizationID, data, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM messages WHERE conversation_id = $1 ORDER BY created_at`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		var message models.Message
		if err := json.Unmarshal(data, &message); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}

		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// IntegrationRepository resolves per-organization provider credentials.
type IntegrationRepository struct {
	db *sql.DB
}

func (r *IntegrationRepository) MessagingCredentials(ctx context.Context, organizationID string) (*models.MessagingCredentials, error) {
	var data []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT messaging FROM integrations WHERE organization_id = $1`, organizationID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to query integration: %w", err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var credentials models.MessagingCredentials
	if err := json.Unmarshal(data, &credentials); err != nil {
		return nil, fmt.Errorf("failed to decode messaging credentials: %w", err)
	}

	return &credentials, nil
}

func (r *IntegrationRepository) SaveMessagingCredentials(ctx context.Context, credentials *models.MessagingCredentials) error {
	data, err := json.Marshal(credentials)
	if err != nil {
		return fmt.Errorf("failed to encode messaging credentials: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO integrations (organization_id, messaging, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (organization_id) DO UPDATE SET
			messaging = EXCLUDED.messaging,
			updated_at = NOW()`,
		credentials.OrganizationID, data)
	if err != nil {
		return fmt.Errorf("failed to save messaging credentials: %w", err)
	}

	return nil
}

// ExecutionLogRepository is the append-only automation run history.
type ExecutionLogRepository struct {
	db *sql.DB
}

func (r *ExecutionLogRepository) Append(ctx context.Context, entry *models.ExecutionLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode execution log entry: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO execution_logs (id, automation_id, organization_id, data, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.AutomationID, entry.OrganizationID, data, entry.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to append execution log entry: %w", err)
	}

	return nil
}

func (r *ExecutionLogRepository) ListByAutomation(ctx context.Context, automationID string) ([]*models.ExecutionLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM execution_logs WHERE automation_id = $1 ORDER BY started_at DESC`, automationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.ExecutionLogEntry

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan execution log entry: %w", err)
		}

		var entry models.ExecutionLogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to decode execution log entry: %w", err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate execution logs: %w", err)
	}

	return entries, nil
}

// SocialPostRepository stores scheduled social posts.
type SocialPostRepository struct {
	db *sql.DB
}

func (r *SocialPostRepository) Save(ctx context.Context, post *models.SocialPost) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to encode social post: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO social_posts (id, organization_id, status, scheduled_at, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			scheduled_at = EXCLUDED.scheduled_at,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		post.ID, post.OrganizationID, post.Status, post.ScheduledAt,
		data, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save social post: %w", err)
	}

	return nil
}

func (r *SocialPostRepository) GetByID(ctx context.Context, id string) (*models.SocialPost, error) {
	var data []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM social_posts WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, persistence.ErrSocialPostNotFound
		}

		return nil, fmt.Errorf("failed to query social post: %w", err)
	}

	var post models.SocialPost
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("failed to decode social post: %w", err)
	}

	return &post, nil
}

func (r *SocialPostRepository) ListDue(ctx context.Context, before time.Time) ([]*models.SocialPost, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM social_posts
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at`,
		models.SocialPostStatusScheduled, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query due social posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.SocialPost

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan social post: %w", err)
		}

		var post models.SocialPost
		if err := json.Unmarshal(data, &post); err != nil {
			return nil, fmt.Errorf("failed to decode social post: %w", err)
		}

		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate social posts: %w", err)
	}

	return posts, nil
}

func (r *SocialPostRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	publishedAt, err := json.Marshal(at)
	if err != nil {
		return fmt.Errorf("failed to encode publish timestamp: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE social_posts SET
			status = $2,
			data = jsonb_set(
				jsonb_set(data, '{status}', to_jsonb($2::text)),
				'{publishedAt}', $3::jsonb),
			updated_at = NOW()
		WHERE id = $1`,
		id, string(models.SocialPostStatusPublished), publishedAt)
	if err != nil {
		return fmt.Errorf("failed to mark social post published: %w", err)
	}

	return ensureSocialPostFound(result)
}

func (r *SocialPostRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	errValue, err := json.Marshal(reason)
	if err != nil {
		return fmt.Errorf("failed to encode failure reason: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE social_posts SET
			status = $2,
			data = jsonb_set(
				jsonb_set(data, '{status}', to_jsonb($2::text)),
				'{error}', $3::jsonb),
			updated_at = NOW()
		WHERE id = $1`,
		id, string(models.SocialPostStatusFailed), errValue)
	if err != nil {
		return fmt.Errorf("failed to mark social post failed: %w", err)
	}

	return ensureSocialPostFound(result)
}

func ensureSocialPostFound(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrSocialPostNotFound
	}

	return nil
}
