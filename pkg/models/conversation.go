package models

import "time"

// PausedBySystem is the actor recorded when the engine resumes a
// conversation whose pause window elapsed.
const PausedBySystem = "system"

// AutomationHistoryEntry records one automation firing for a
// conversation. AutomationType holds the identity (ID) of the automation
// that fired; the name is kept for compatibility with the stored
// document shape.
type AutomationHistoryEntry struct {
	AutomationType string    `json:"automationType"`
	TriggeredAt    time.Time `json:"triggeredAt"`
	TriggeredBy    string    `json:"triggeredBy"`
}

// AutomationSettings governs whether automations may fire for a
// conversation. A pause with no PausedUntil is a pause forever. An
// elapsed PausedUntil is treated as unpaused lazily: the flag is cleared
// on the next gate check, not by a timer.
type AutomationSettings struct {
	IsPaused                bool                     `json:"isPaused"`
	PausedUntil             *time.Time               `json:"pausedUntil,omitempty"`
	PausedBy                string                   `json:"pausedBy,omitempty"`
	PauseReason             string                   `json:"pauseReason,omitempty"`
	AutomationHistory       []AutomationHistoryEntry `json:"automationHistory,omitempty"`
	LastAutomationTriggered *time.Time               `json:"lastAutomationTriggered,omitempty"`
}

// HasTriggered reports whether an automation identity appears in the
// conversation's history.
func (s *AutomationSettings) HasTriggered(automationID string) bool {
	for _, entry := range s.AutomationHistory {
		if entry.AutomationType == automationID {
			return true
		}
	}

	return false
}

// Conversation is the per-contact message thread an automation runs
// against. Variables feed template rendering and condition evaluation.
type Conversation struct {
	ID                 string             `json:"id"`
	OrganizationID     string             `json:"organizationId"`
	ContactID          string             `json:"contactId,omitempty"`
	ContactName        string             `json:"contactName,omitempty"`
	ContactNumber      string             `json:"contactNumber,omitempty"`
	Priority           string             `json:"priority,omitempty"`
	Variables          map[string]any     `json:"variables,omitempty"`
	AutomationSettings AutomationSettings `json:"automationSettings"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}
