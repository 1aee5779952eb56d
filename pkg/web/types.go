// Package web provides the HTTP handlers and request/response types for
// the automation API.
package web

import "github.com/convobase/convobase/pkg/models"

// OrganizationHeader carries the tenant on every scoped request.
const OrganizationHeader = "X-Organization-ID"

// CreateAutomationRequest is the body for creating an automation.
type CreateAutomationRequest struct {
	Name              string                    `json:"name"              validate:"required,min=3"`
	Description       string                    `json:"description"`
	IsActive          bool                      `json:"isActive"`
	AutomationType    models.AutomationType     `json:"automationType"    validate:"omitempty,oneof=conversation workflow"`
	TriggerType       models.TriggerType        `json:"triggerType"`
	TriggerConditions *models.TriggerConditions `json:"triggerConditions,omitempty"`
	Nodes             []*models.Node            `json:"nodes"`
	CreatedBy         string                    `json:"createdBy,omitempty"`
}

// ToModel builds the automation for the given organization.
func (r *CreateAutomationRequest) ToModel(organizationID string) *models.Automation {
	return &models.Automation{
		OrganizationID:    organizationID,
		Name:              r.Name,
		Description:       r.Description,
		IsActive:          r.IsActive,
		AutomationType:    r.AutomationType,
		TriggerType:       r.TriggerType,
		TriggerConditions: r.TriggerConditions,
		Nodes:             r.Nodes,
		CreatedBy:         r.CreatedBy,
	}
}

// UpdateAutomationRequest is the body for replacing an automation's
// mutable fields.
type UpdateAutomationRequest struct {
	Name              string                    `json:"name"              validate:"required,min=3"`
	Description       string                    `json:"description"`
	IsActive          bool                      `json:"isActive"`
	AutomationType    models.AutomationType     `json:"automationType"    validate:"omitempty,oneof=conversation workflow"`
	TriggerType       models.TriggerType        `json:"triggerType"`
	TriggerConditions *models.TriggerConditions `json:"triggerConditions,omitempty"`
	Nodes             []*models.Node            `json:"nodes"`
}

// AutomationResponse decorates an automation with its derived status.
type AutomationResponse struct {
	*models.Automation

	Status string `json:"status"`
}

// NewAutomationResponse wraps the automation for API output.
func NewAutomationResponse(automation *models.Automation) AutomationResponse {
	return AutomationResponse{Automation: automation, Status: automation.Status()}
}

// NewAutomationResponses wraps a listing for API output.
func NewAutomationResponses(automations []*models.Automation) []AutomationResponse {
	responses := make([]AutomationResponse, 0, len(automations))
	for _, automation := range automations {
		responses = append(responses, NewAutomationResponse(automation))
	}

	return responses
}

// PauseRequest is the body for pausing a conversation's automations.
// Duration is "forever" or one of 30m, 1h, 3h, 6h, 12h, 1d.
type PauseRequest struct {
	Duration string `json:"duration" validate:"required"`
	PausedBy string `json:"pausedBy"`
}

// ResumeRequest is the body for resuming a conversation's automations.
type ResumeRequest struct {
	ResumedBy string `json:"resumedBy"`
}

// MessageEventRequest is the body for the inbound message entry point.
type MessageEventRequest struct {
	ConversationID string         `json:"conversationId" validate:"required"`
	Message        string         `json:"message"`
	Contact        string         `json:"contact,omitempty"`
	IsFirstMessage bool           `json:"isFirstMessage"`
	Variables      map[string]any `json:"variables,omitempty"`
}

// WebhookResponse reports how many automations a webhook triggered.
type WebhookResponse struct {
	Triggered int `json:"triggered"`
}
