package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
)

// ErrAutomationNotFound is returned when an automation is not found.
var ErrAutomationNotFound = persistence.ErrAutomationNotFound

// Automation is the CRUD service over automation definitions.
type Automation struct {
	persistence persistence.Persistence
	validator   *validator.Validate
	now         func() time.Time
}

// NewAutomation creates a new automation service.
func NewAutomation(p persistence.Persistence) *Automation {
	return &Automation{
		persistence: p,
		validator:   validator.New(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Automation) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates and stores a new automation. The caller provides the
// definition; ID, timestamps and zeroed stats are assigned here.
func (s *Automation) Create(ctx context.Context, automation *models.Automation) (*models.Automation, error) {
	if automation == nil {
		return nil, ErrAutomationNil
	}

	if automation.AutomationType == "" {
		automation.AutomationType = models.AutomationTypeConversation
	}

	if err := s.validate(automation); err != nil {
		return nil, err
	}

	now := s.now()
	automation.ID = uuid.New().String()
	automation.CreatedAt = now
	automation.UpdatedAt = now
	automation.Stats = models.AutomationStats{}

	if err := s.persistence.AutomationRepository().Save(ctx, automation); err != nil {
		return nil, fmt.Errorf("failed to create automation: %w", err)
	}

	return automation, nil
}

// FetchByID retrieves one automation, scoped to the organization.
func (s *Automation) FetchByID(ctx context.Context, organizationID, id string) (*models.Automation, error) {
	if organizationID == "" {
		return nil, ErrEmptyOrganizationID
	}

	automation, err := s.persistence.AutomationRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if automation == nil || automation.OrganizationID != organizationID {
		return nil, persistence.NewAutomationError("FetchByID", id, persistence.ErrAutomationNotFound)
	}

	return automation, nil
}

// ListByOrganization retrieves every automation of an organization.
func (s *Automation) ListByOrganization(ctx context.Context, organizationID string) ([]*models.Automation, error) {
	if organizationID == "" {
		return nil, ErrEmptyOrganizationID
	}

	return s.persistence.AutomationRepository().ListByOrganization(ctx, organizationID)
}

// Update replaces the mutable fields of an existing automation. Stats,
// creation metadata and the organization binding are preserved.
func (s *Automation) Update(ctx context.Context, organizationID, id string, updated *models.Automation) (*models.Automation, error) {
	if updated == nil {
		return nil, ErrAutomationNil
	}

	existing, err := s.FetchByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}

	existing.Name = updated.Name
	existing.Description = updated.Description
	existing.IsActive = updated.IsActive
	existing.TriggerType = updated.TriggerType
	existing.TriggerConditions = updated.TriggerConditions
	existing.Nodes = updated.Nodes

	if updated.AutomationType != "" {
		existing.AutomationType = updated.AutomationType
	}

	if err := s.validate(existing); err != nil {
		return nil, err
	}

	existing.UpdatedAt = s.now()

	if err := s.persistence.AutomationRepository().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update automation: %w", err)
	}

	return existing, nil
}

// SetActive toggles the active flag of an automation.
func (s *Automation) SetActive(ctx context.Context, organizationID, id string, active bool) (*models.Automation, error) {
	existing, err := s.FetchByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}

	existing.IsActive = active
	existing.UpdatedAt = s.now()

	if err := s.persistence.AutomationRepository().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update automation status: %w", err)
	}

	return existing, nil
}

// Delete removes an automation, scoped to the organization.
func (s *Automation) Delete(ctx context.Context, organizationID, id string) error {
	if _, err := s.FetchByID(ctx, organizationID, id); err != nil {
		return err
	}

	return s.persistence.AutomationRepository().Delete(ctx, id)
}

func (s *Automation) validate(automation *models.Automation) error {
	if err := s.validator.Struct(automation); err != nil {
		return NewValidationError("Validate", "INVALID_AUTOMATION",
			"automation failed validation", err)
	}

	if len(automation.Name) < 3 {
		return NewValidationError("Validate", "NAME_TOO_SHORT",
			"automation name must be at least 3 characters", ErrAutomationNameShort)
	}

	if automation.TriggerType == "" && len(automation.TriggerNodes()) == 0 {
		return NewValidationError("Validate", "NO_TRIGGER",
			"automation declares neither a trigger type nor trigger nodes", ErrNoTriggerNode)
	}

	return nil
}
