package services

import (
	"context"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
)

// Selector finds the active automations that should fire for an event.
// Two matcher strategies run side by side: the legacy triggerType match
// and the node-based match over declared trigger nodes. A single
// automation is reported at most once even when both strategies agree.
type Selector struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

// NewSelector creates a new trigger selector.
func NewSelector(p persistence.Persistence, logger *slog.Logger) *Selector {
	return &Selector{
		persistence: p,
		logger:      logger.With("module", "trigger_selector"),
	}
}

// MatchMessage returns the automations triggered by an inbound message.
// isFirstMessage widens the match to conversation_started triggers.
func (s *Selector) MatchMessage(ctx context.Context, organizationID, message string, isFirstMessage bool) ([]models.AutomationMatch, error) {
	if organizationID == "" {
		return nil, ErrEmptyOrganizationID
	}

	automations, err := s.persistence.AutomationRepository().ListActiveByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var matches []models.AutomationMatch

	seen := make(map[string]struct{})

	for _, automation := range automations {
		if match, ok := s.matchLegacy(automation, message, isFirstMessage); ok {
			if _, dup := seen[automation.ID]; !dup {
				seen[automation.ID] = struct{}{}
				matches = append(matches, match)
			}

			continue
		}

		if match, ok := s.matchTriggerNodes(automation, message, isFirstMessage); ok {
			if _, dup := seen[automation.ID]; !dup {
				seen[automation.ID] = struct{}{}
				matches = append(matches, match)
			}
		}
	}

	s.logger.Debug("Matched message against automations",
		"organization_id", organizationID,
		"candidates", len(automations),
		"matches", len(matches))

	return matches, nil
}

// matchLegacy applies the triggerType strategy. It only fires for
// automations without trigger nodes so node-declared filters keep
// authority when present.
func (s *Selector) matchLegacy(automation *models.Automation, message string, isFirstMessage bool) (models.AutomationMatch, bool) {
	if len(automation.TriggerNodes()) > 0 {
		return models.AutomationMatch{}, false
	}

	switch automation.TriggerType {
	case models.TriggerTypeMessageReceived, models.TriggerTypeWhatsAppMessage:
		return models.AutomationMatch{Automation: automation}, true
	case models.TriggerTypeConversationStarted:
		if isFirstMessage {
			return models.AutomationMatch{Automation: automation}, true
		}
	case models.TriggerTypeKeyword:
		if models.ContainsKeyword(message, automation.Keywords()) {
			return models.AutomationMatch{Automation: automation}, true
		}
	}

	return models.AutomationMatch{}, false
}

// matchTriggerNodes applies the node-based strategy: the first trigger
// node whose event matches wins.
func (s *Selector) matchTriggerNodes(automation *models.Automation, message string, isFirstMessage bool) (models.AutomationMatch, bool) {
	for _, node := range automation.TriggerNodes() {
		switch node.Event {
		case models.NodeEventMessageReceived:
			return models.AutomationMatch{Automation: automation, TriggerNode: node}, true
		case models.NodeEventConversationStarted:
			if isFirstMessage {
				return models.AutomationMatch{Automation: automation, TriggerNode: node}, true
			}
		case models.NodeEventKeyword:
			if models.ContainsKeyword(message, node.Data.Keywords) {
				return models.AutomationMatch{Automation: automation, TriggerNode: node}, true
			}
		}
	}

	return models.AutomationMatch{}, false
}

// MatchWebhook returns the automations whose trigger nodes subscribe to
// the given module/event pair and accept the payload. Webhook matching
// is node-based only; legacy triggerType automations have no
// module/event identity to match against.
func (s *Selector) MatchWebhook(ctx context.Context, organizationID, module, event string, payload map[string]any) ([]models.AutomationMatch, error) {
	if organizationID == "" {
		return nil, ErrEmptyOrganizationID
	}

	automations, err := s.persistence.AutomationRepository().ListActiveByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var matches []models.AutomationMatch

	for _, automation := range automations {
		for _, node := range automation.TriggerNodes() {
			if node.Module != module || node.Event != event {
				continue
			}

			if !node.MatchesPayload(payload) {
				continue
			}

			if !s.payloadSchemaAccepts(node, payload) {
				continue
			}

			matches = append(matches, models.AutomationMatch{Automation: automation, TriggerNode: node})

			break
		}
	}

	s.logger.Debug("Matched webhook against automations",
		"organization_id", organizationID,
		"webhook_module", module,
		"webhook_event", event,
		"matches", len(matches))

	return matches, nil
}

// payloadSchemaAccepts validates the payload against the trigger node's
// optional JSON schema. A schema that fails to compile rejects the
// payload rather than letting malformed definitions match everything.
func (s *Selector) payloadSchemaAccepts(node *models.Node, payload map[string]any) bool {
	if len(node.PayloadSchema) == 0 {
		return true
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(node.PayloadSchema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		s.logger.Warn("Invalid payload schema on trigger node", "node_id", node.ID, "error", err)

		return false
	}

	return result.Valid()
}
