package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
)

// AutomationRepository stores one JSON document per automation.
type AutomationRepository struct {
	dir string
	mu  sync.Mutex
}

func (r *AutomationRepository) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *AutomationRepository) ListByOrganization(_ context.Context, organizationID string) ([]*models.Automation, error) {
	automations := make([]*models.Automation, 0)

	err := listDocuments(r.dir, func(data []byte) error {
		var automation models.Automation
		if err := json.Unmarshal(data, &automation); err != nil {
			return fmt.Errorf("failed to decode automation: %w", err)
		}

		if automation.OrganizationID == organizationID {
			automations = append(automations, &automation)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return automations, nil
}

func (r *AutomationRepository) ListActiveByOrganization(ctx context.Context, organizationID string) ([]*models.Automation, error) {
	all, err := r.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	active := make([]*models.Automation, 0, len(all))

	for _, automation := range all {
		if automation.IsActive {
			active = append(active, automation)
		}
	}

	return active, nil
}

func (r *AutomationRepository) GetByID(_ context.Context, id string) (*models.Automation, error) {
	var automation models.Automation

	found, err := readDocument(r.path(id), &automation)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &automation, nil
}

func (r *AutomationRepository) Save(_ context.Context, automation *models.Automation) error {
	return writeDocument(r.path(automation.ID), automation)
}

func (r *AutomationRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewAutomationError("Delete", id, persistence.ErrAutomationNotFound)
		}

		return fmt.Errorf("failed to delete automation %s: %w", id, err)
	}

	return nil
}

// IncrementStats is atomic with respect to other increments through this
// repository instance.
func (r *AutomationRepository) IncrementStats(ctx context.Context, id string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	automation, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if automation == nil {
		return persistence.NewAutomationError("IncrementStats", id, persistence.ErrAutomationNotFound)
	}

	now := time.Now().UTC()
	automation.Stats.TotalExecutions++

	if success {
		automation.Stats.SuccessfulExecutions++
	} else {
		automation.Stats.FailedExecutions++
	}

	automation.Stats.LastExecutedAt = &now

	return r.Save(ctx, automation)
}
