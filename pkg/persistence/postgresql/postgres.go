// Package postgresql provides PostgreSQL persistence for automations,
// conversations and their histories. Documents are stored as JSONB with
// the hot fields (active flag, pause flag, counters) promoted to columns
// for indexing and atomic updates.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the postgres driver.
	_ "github.com/lib/pq"

	"github.com/convobase/convobase/pkg/persistence"
	"github.com/convobase/convobase/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	automations   *AutomationRepository
	conversations *ConversationRepository
	messages      *MessageRepository
	integrations  *IntegrationRepository
	executions    *ExecutionLogRepository
	socialPosts   *SocialPostRepository
}

// NewPersistence connects, migrates and returns a PostgreSQL-backed
// persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		automations:   &AutomationRepository{db: database},
		conversations: &ConversationRepository{db: database},
		messages:      &MessageRepository{db: database},
		integrations:  &IntegrationRepository{db: database},
		executions:    &ExecutionLogRepository{db: database},
		socialPosts:   &SocialPostRepository{db: database},
	}, nil
}

func (p *Persistence) AutomationRepository() persistence.AutomationRepository {
	return p.automations
}

func (p *Persistence) ConversationRepository() persistence.ConversationRepository {
	return p.conversations
}

func (p *Persistence) MessageRepository() persistence.MessageRepository {
	return p.messages
}

func (p *Persistence) IntegrationRepository() persistence.IntegrationRepository {
	return p.integrations
}

func (p *Persistence) ExecutionLogRepository() persistence.ExecutionLogRepository {
	return p.executions
}

func (p *Persistence) SocialPostRepository() persistence.SocialPostRepository {
	return p.socialPosts
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
