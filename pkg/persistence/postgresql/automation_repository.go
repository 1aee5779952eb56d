package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
)

// AutomationRepository stores automation documents. The JSONB document
// is authoritative for the definition; the counter columns are
// authoritative for stats and only ever move through IncrementStats.
type AutomationRepository struct {
	db *sql.DB
}

const automationColumns = `data, total_executions, successful_executions, failed_executions, last_executed_at`

func (r *AutomationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Automation, error) {
	return r.list(ctx,
		`SELECT `+automationColumns+` FROM automations WHERE organization_id = $1 ORDER BY created_at`,
		organizationID)
}

func (r *AutomationRepository) ListActiveByOrganization(ctx context.Context, organizationID string) ([]*models.Automation, error) {
	return r.list(ctx,
		`SELECT `+automationColumns+` FROM automations WHERE organization_id = $1 AND is_active ORDER BY created_at`,
		organizationID)
}

func (r *AutomationRepository) list(ctx context.Context, query string, args ...any) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}
	defer rows.Close()

	var automations []*models.Automation

	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}

		automations = append(automations, automation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate automations: %w", err)
	}

	return automations, nil
}

func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+automationColumns+` FROM automations WHERE id = $1`, id)

	automation, err := scanAutomation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return automation, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAutomation(row rowScanner) (*models.Automation, error) {
	var (
		data  []byte
		stats models.AutomationStats
	)

	err := row.Scan(&data, &stats.TotalExecutions, &stats.SuccessfulExecutions,
		&stats.FailedExecutions, &stats.LastExecutedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan automation: %w", err)
	}

	var automation models.Automation
	if err := json.Unmarshal(data, &automation); err != nil {
		return nil, fmt.Errorf("failed to decode automation document: %w", err)
	}

	automation.Stats = stats

	return &automation, nil
}

func (r *AutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	data, err := json.Marshal(automation)
	if err != nil {
		return fmt.Errorf("failed to encode automation document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO automations (id, organization_id, is_active, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			is_active = EXCLUDED.is_active,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		automation.ID, automation.OrganizationID, automation.IsActive,
		data, automation.CreatedAt, automation.UpdatedAt)
	if err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	return nil
}

func (r *AutomationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM automations WHERE id = $1`, id)
	if err != nil {
		return persistence.NewAutomationError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewAutomationError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewAutomationError("Delete", id, persistence.ErrAutomationNotFound)
	}

	return nil
}

// IncrementStats bumps the counters in a single statement so concurrent
// executions never lose updates.
func (r *AutomationRepository) IncrementStats(ctx context.Context, id string, success bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE automations SET
			total_executions = total_executions + 1,
			successful_executions = successful_executions + CASE WHEN $2 THEN 1 ELSE 0 END,
			failed_executions = failed_executions + CASE WHEN $2 THEN 0 ELSE 1 END,
			last_executed_at = NOW()
		WHERE id = $1`,
		id, success)
	if err != nil {
		return persistence.NewAutomationError("IncrementStats", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewAutomationError("IncrementStats", id, err)
	}

	if affected == 0 {
		return persistence.NewAutomationError("IncrementStats", id, persistence.ErrAutomationNotFound)
	}

	return nil
}
