// Package models defines the core domain models for conversation automation.
package models

import "time"

// AutomationType distinguishes conversation-scoped automations from
// general-purpose workflows.
type AutomationType string

const (
	AutomationTypeConversation AutomationType = "conversation"
	AutomationTypeWorkflow     AutomationType = "workflow"
)

// TriggerType is the legacy (non-visual) trigger classification. Visual
// automations additionally declare trigger nodes; both paths are matched
// by the selector.
type TriggerType string

const (
	TriggerTypeManual              TriggerType = "manual"
	TriggerTypeMessageReceived     TriggerType = "message_received"
	TriggerTypeConversationStarted TriggerType = "conversation_started"
	TriggerTypeKeyword             TriggerType = "keyword"
	TriggerTypeWhatsAppMessage     TriggerType = "whatsapp_message"
	TriggerTypeWebhook             TriggerType = "webhook"
	TriggerTypeDeal                TriggerType = "deal"
	TriggerTypeContact             TriggerType = "contact"
	TriggerTypeTask                TriggerType = "task"
)

// TriggerConditions carries trigger-level configuration for legacy
// automations, e.g. the keyword list for keyword triggers.
type TriggerConditions struct {
	Keywords []string `json:"keywords,omitempty"`
}

// AutomationStats tracks execution counters for an automation. Counters
// are monotonic and must only be updated through atomic repository
// increments, never read-modify-write.
type AutomationStats struct {
	TotalExecutions      int64      `json:"totalExecutions"`
	SuccessfulExecutions int64      `json:"successfulExecutions"`
	FailedExecutions     int64      `json:"failedExecutions"`
	LastExecutedAt       *time.Time `json:"lastExecutedAt,omitempty"`
}

// Automation is an organization-scoped workflow definition composed of
// graph nodes. Execution always starts from a node of type trigger.
type Automation struct {
	ID                string             `json:"id"`
	OrganizationID    string             `json:"organizationId"    validate:"required"`
	Name              string             `json:"name"              validate:"required,min=3"`
	Description       string             `json:"description"`
	IsActive          bool               `json:"isActive"`
	AutomationType    AutomationType     `json:"automationType"    validate:"omitempty,oneof=conversation workflow"`
	TriggerType       TriggerType        `json:"triggerType"`
	TriggerConditions *TriggerConditions `json:"triggerConditions,omitempty"`
	Nodes             []*Node            `json:"nodes"`
	Stats             AutomationStats    `json:"stats"`
	CreatedBy         string             `json:"createdBy,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// Status derives the externally visible status from the active flag.
func (a *Automation) Status() string {
	if a.IsActive {
		return "active"
	}

	return "inactive"
}

// NodeByID looks up a node within the automation by its ID.
func (a *Automation) NodeByID(id string) (*Node, bool) {
	for _, node := range a.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// TriggerNodes returns every node of type trigger, in declaration order.
func (a *Automation) TriggerNodes() []*Node {
	var triggers []*Node

	for _, node := range a.Nodes {
		if node.Type == NodeTypeTrigger {
			triggers = append(triggers, node)
		}
	}

	return triggers
}

// Keywords returns the configured keyword list for keyword-triggered
// automations, falling back to keywords declared on trigger nodes.
func (a *Automation) Keywords() []string {
	if a.TriggerConditions != nil && len(a.TriggerConditions.Keywords) > 0 {
		return a.TriggerConditions.Keywords
	}

	for _, node := range a.TriggerNodes() {
		if len(node.Data.Keywords) > 0 {
			return node.Data.Keywords
		}
	}

	return nil
}
