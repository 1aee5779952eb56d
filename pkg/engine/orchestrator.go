package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/convobase/convobase/pkg/eventbus"
	"github.com/convobase/convobase/pkg/events"
	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/otelhelper"
	"github.com/convobase/convobase/pkg/persistence"
	"github.com/convobase/convobase/pkg/services"
)

var tracer = otel.Tracer("convobase/engine")

// ExecutionSummary reports the outcome of processing one event against
// an organization's automations.
type ExecutionSummary struct {
	Matched   int `json:"matched"`
	Triggered int `json:"triggered"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Orchestrator ties the selector, gate and walker together: it resolves
// which automations fire for an event and runs each one in isolation,
// so a failing automation never blocks its siblings.
type Orchestrator struct {
	persistence persistence.Persistence
	selector    *services.Selector
	gate        *services.Gate
	walker      *Walker
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	now         func() time.Time
}

// NewOrchestrator creates an execution orchestrator. eventBus may be nil
// when lifecycle events are not wanted.
func NewOrchestrator(
	p persistence.Persistence,
	selector *services.Selector,
	gate *services.Gate,
	walker *Walker,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		persistence: p,
		selector:    selector,
		gate:        gate,
		walker:      walker,
		eventBus:    eventBus,
		logger:      logger.With("module", "orchestrator"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ProcessIncomingMessage runs every automation triggered by an inbound
// conversation message. The message is recorded, the conversation's
// variables are merged into the execution context, and each matched
// automation passes through the gate before walking its graph.
func (o *Orchestrator) ProcessIncomingMessage(ctx context.Context, execCtx *models.ExecutionContext) (*ExecutionSummary, error) {
	if execCtx.OrganizationID == "" {
		return nil, services.ErrEmptyOrganizationID
	}

	if execCtx.ConversationID == "" {
		return nil, services.ErrEmptyConversationID
	}

	conversation, err := o.persistence.ConversationRepository().GetByID(ctx, execCtx.ConversationID)
	if err != nil {
		return nil, err
	}

	if conversation == nil {
		return nil, persistence.NewConversationError("ProcessIncomingMessage", execCtx.ConversationID, persistence.ErrConversationNotFound)
	}

	o.hydrateContext(execCtx, conversation)

	if err := o.recordInbound(ctx, execCtx); err != nil {
		o.logger.Warn("Failed to record inbound message", "conversation_id", execCtx.ConversationID, "error", err)
	}

	// A paused conversation short-circuits before candidate selection;
	// an expired window falls through to the gate, which clears it.
	status, err := o.gate.Status(ctx, execCtx.ConversationID)
	if err != nil {
		return nil, err
	}

	if status == services.PauseStatusPaused {
		o.logger.Info("Automations paused, skipping",
			"conversation_id", execCtx.ConversationID)

		return &ExecutionSummary{}, nil
	}

	matches, err := o.selector.MatchMessage(ctx, execCtx.OrganizationID, execCtx.Message, execCtx.IsFirstMessage)
	if err != nil {
		return nil, err
	}

	summary := &ExecutionSummary{Matched: len(matches)}

	for _, match := range matches {
		automation := match.Automation

		allowed, err := o.gate.CanTrigger(ctx, execCtx.ConversationID, automation.ID)
		if err != nil {
			o.logger.Error("Gate check failed",
				"automation_id", automation.ID,
				"conversation_id", execCtx.ConversationID,
				"error", err)

			continue
		}

		if !allowed {
			continue
		}

		// History is written before the walk: a one-time automation
		// counts as fired once it starts executing, even when its graph
		// errors. Concurrent deliveries would otherwise both pass the
		// dedup check.
		if _, err := o.gate.RecordTriggered(ctx, execCtx.ConversationID, automation.ID, "message"); err != nil {
			o.logger.Error("Failed to record trigger",
				"automation_id", automation.ID,
				"conversation_id", execCtx.ConversationID,
				"error", err)

			continue
		}

		summary.Triggered++

		o.run(ctx, automation, match.TriggerNode, execCtx, "message", summary)
	}

	o.logger.Info("Processed incoming message",
		"organization_id", execCtx.OrganizationID,
		"conversation_id", execCtx.ConversationID,
		"matched", summary.Matched,
		"triggered", summary.Triggered,
		"failed", summary.Failed)

	return summary, nil
}

// ProcessWebhook runs every automation whose trigger nodes subscribe to
// the module/event pair. Webhook entries carry no conversation, so the
// gate never applies; the count of triggered automations is returned.
func (o *Orchestrator) ProcessWebhook(ctx context.Context, organizationID, module, event string, payload map[string]any) (*ExecutionSummary, error) {
	matches, err := o.selector.MatchWebhook(ctx, organizationID, module, event, payload)
	if err != nil {
		return nil, err
	}

	summary := &ExecutionSummary{Matched: len(matches)}

	for _, match := range matches {
		execCtx := &models.ExecutionContext{
			OrganizationID: organizationID,
			Variables: map[string]any{
				"payload": payload,
			},
		}

		summary.Triggered++

		o.run(ctx, match.Automation, match.TriggerNode, execCtx, module+"/"+event, summary)
	}

	o.logger.Info("Processed webhook",
		"organization_id", organizationID,
		"webhook_module", module,
		"webhook_event", event,
		"triggered", summary.Triggered)

	return summary, nil
}

// run executes one automation and records the outcome: stats increment,
// execution log entry and lifecycle events. Walk errors are contained
// here.
func (o *Orchestrator) run(ctx context.Context, automation *models.Automation, triggerNode *models.Node, execCtx *models.ExecutionContext, triggeredBy string, summary *ExecutionSummary) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "automation.execute",
		attribute.String(otelhelper.OrganizationIDKey, execCtx.OrganizationID),
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.ConversationIDKey, execCtx.ConversationID),
	)
	defer span.End()

	start := o.entryNode(automation, triggerNode)
	startedAt := o.now()

	o.publishEvent(ctx, automation.ID, events.AutomationTriggered{
		BaseEvent:      o.baseEvent(events.AutomationTriggeredEvent, execCtx.OrganizationID),
		AutomationID:   automation.ID,
		ConversationID: execCtx.ConversationID,
		TriggeredBy:    triggeredBy,
	})

	steps, walkErr := o.walker.Walk(ctx, automation, start, execCtx)

	success := walkErr == nil
	if success {
		summary.Succeeded++
	} else {
		summary.Failed++

		otelhelper.SetError(span, walkErr,
			attribute.String(otelhelper.AutomationIDKey, automation.ID))
		o.logger.Error("Automation execution failed",
			"automation_id", automation.ID,
			"steps", steps,
			"error", walkErr)
	}

	if err := o.persistence.AutomationRepository().IncrementStats(ctx, automation.ID, success); err != nil {
		o.logger.Warn("Failed to increment automation stats", "automation_id", automation.ID, "error", err)
	}

	o.appendExecutionLog(ctx, automation, execCtx, triggeredBy, startedAt, walkErr)

	if success {
		o.publishEvent(ctx, automation.ID, events.AutomationCompleted{
			BaseEvent:      o.baseEvent(events.AutomationCompletedEvent, execCtx.OrganizationID),
			AutomationID:   automation.ID,
			ConversationID: execCtx.ConversationID,
			Steps:          steps,
		})

		return
	}

	o.publishEvent(ctx, automation.ID, events.AutomationFailed{
		BaseEvent:      o.baseEvent(events.AutomationFailedEvent, execCtx.OrganizationID),
		AutomationID:   automation.ID,
		ConversationID: execCtx.ConversationID,
		Error:          walkErr.Error(),
	})
}

// entryNode resolves where the walk starts: the matched trigger node,
// else the automation's first declared trigger, else its first node
// (legacy definitions without explicit triggers).
func (o *Orchestrator) entryNode(automation *models.Automation, triggerNode *models.Node) *models.Node {
	if triggerNode != nil {
		return triggerNode
	}

	if triggers := automation.TriggerNodes(); len(triggers) > 0 {
		return triggers[0]
	}

	if len(automation.Nodes) > 0 {
		return automation.Nodes[0]
	}

	return nil
}

// hydrateContext merges conversation state into the execution context.
// Explicitly provided variables win over stored conversation variables.
func (o *Orchestrator) hydrateContext(execCtx *models.ExecutionContext, conversation *models.Conversation) {
	if execCtx.Contact == "" {
		execCtx.Contact = conversation.ContactNumber
	}

	variables := map[string]any{
		"contact_name":   conversation.ContactName,
		"contact_number": conversation.ContactNumber,
		"message":        execCtx.Message,
		"timestamp":      o.now().Format(time.RFC3339),
	}

	for name, value := range conversation.Variables {
		variables[name] = value
	}

	for name, value := range execCtx.Variables {
		variables[name] = value
	}

	execCtx.Variables = variables
}

func (o *Orchestrator) recordInbound(ctx context.Context, execCtx *models.ExecutionContext) error {
	if execCtx.Message == "" {
		return nil
	}

	return o.persistence.MessageRepository().Append(ctx, &models.Message{
		ID:             uuid.New().String(),
		ConversationID: execCtx.ConversationID,
		OrganizationID: execCtx.OrganizationID,
		Direction:      models.MessageDirectionInbound,
		Body:           execCtx.Message,
		CreatedAt:      o.now(),
	})
}

func (o *Orchestrator) appendExecutionLog(ctx context.Context, automation *models.Automation, execCtx *models.ExecutionContext, triggeredBy string, startedAt time.Time, walkErr error) {
	entry := &models.ExecutionLogEntry{
		ID:             uuid.New().String(),
		AutomationID:   automation.ID,
		OrganizationID: execCtx.OrganizationID,
		ConversationID: execCtx.ConversationID,
		Status:         models.ExecutionStatusSuccess,
		TriggeredBy:    triggeredBy,
		StartedAt:      startedAt,
		FinishedAt:     o.now(),
	}

	if walkErr != nil {
		entry.Status = models.ExecutionStatusFailed
		entry.Error = walkErr.Error()
	}

	if err := o.persistence.ExecutionLogRepository().Append(ctx, entry); err != nil {
		o.logger.Warn("Failed to append execution log", "automation_id", automation.ID, "error", err)
	}
}

func (o *Orchestrator) baseEvent(eventType events.EventType, organizationID string) events.BaseEvent {
	id := uuid.New().String()
	if o.eventBus != nil {
		id = o.eventBus.GenerateID()
	}

	return events.BaseEvent{
		ID:             id,
		Type:           eventType,
		Timestamp:      o.now(),
		OrganizationID: organizationID,
	}
}

func (o *Orchestrator) publishEvent(ctx context.Context, key string, event eventbus.Event) {
	if o.eventBus == nil {
		return
	}

	if err := o.eventBus.Publish(ctx, key, event); err != nil {
		o.logger.Warn("Failed to publish lifecycle event", "event_type", event.GetType(), "error", err)
	}
}
