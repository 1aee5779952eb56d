package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/convobase/convobase/pkg/eventbus"
	"github.com/convobase/convobase/pkg/events"
	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
)

// PauseStatus is the read-only pause state of a conversation.
type PauseStatus int

const (
	// PauseStatusActive means automations may run.
	PauseStatusActive PauseStatus = iota
	// PauseStatusPausedExpired means a temporary pause window has
	// elapsed but the flag has not been cleared yet.
	PauseStatusPausedExpired
	// PauseStatusPaused means automations are paused, either forever or
	// until a future time.
	PauseStatusPaused
)

// PauseForever is the sentinel duration for an open-ended pause.
const PauseForever = "forever"

// pauseWindows is the closed set of relative pause durations.
var pauseWindows = map[string]time.Duration{
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"3h":  3 * time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// oneTimeAutomations may fire at most once per conversation. Every other
// automation identity may retrigger without limit; the asymmetry is
// deliberate.
var oneTimeAutomations = map[string]struct{}{
	"greeting": {},
	"welcome":  {},
}

// Gate decides whether an automation may fire for a conversation: it
// owns the pause state and the per-conversation dedup history.
type Gate struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	now         func() time.Time
}

// NewGate creates a new automation gate. eventBus may be nil when pause
// lifecycle events are not wanted.
func NewGate(p persistence.Persistence, eventBus eventbus.EventBus, logger *slog.Logger) *Gate {
	return &Gate{
		persistence: p,
		eventBus:    eventBus,
		logger:      logger.With("module", "automation_gate"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Pause suspends automations for a conversation. duration is either
// "forever" or one of 30m, 1h, 3h, 6h, 12h, 1d.
func (g *Gate) Pause(ctx context.Context, conversationID, duration, actorID string) (*models.Conversation, error) {
	if conversationID == "" {
		return nil, ErrEmptyConversationID
	}

	conversation, err := g.conversation(ctx, "Pause", conversationID)
	if err != nil {
		return nil, err
	}

	settings := conversation.AutomationSettings
	settings.IsPaused = true
	settings.PausedBy = actorID
	settings.PauseReason = duration

	if duration == PauseForever {
		settings.PausedUntil = nil
	} else {
		window, ok := pauseWindows[duration]
		if !ok {
			return nil, NewValidationError("Pause", "INVALID_PAUSE_DURATION",
				fmt.Sprintf("unknown pause duration %q", duration), ErrInvalidPauseDuration)
		}

		until := g.now().Add(window)
		settings.PausedUntil = &until
	}

	if err := g.persistence.ConversationRepository().UpdateAutomationSettings(ctx, conversationID, settings); err != nil {
		return nil, fmt.Errorf("failed to pause automations: %w", err)
	}

	g.logger.Info("Automations paused",
		"conversation_id", conversationID,
		"duration", duration,
		"paused_by", actorID)

	conversation.AutomationSettings = settings

	g.publishEvent(ctx, conversationID, events.ConversationPaused{
		BaseEvent:      g.baseEvent(events.ConversationPausedEvent, conversation.OrganizationID),
		ConversationID: conversationID,
		PausedBy:       actorID,
		PausedUntil:    settings.PausedUntil,
	})

	return conversation, nil
}

// Resume clears the pause state of a conversation.
func (g *Gate) Resume(ctx context.Context, conversationID, actorID string) (*models.Conversation, error) {
	if conversationID == "" {
		return nil, ErrEmptyConversationID
	}

	conversation, err := g.conversation(ctx, "Resume", conversationID)
	if err != nil {
		return nil, err
	}

	settings := conversation.AutomationSettings
	settings.IsPaused = false
	settings.PausedUntil = nil
	settings.PausedBy = actorID
	settings.PauseReason = ""

	if err := g.persistence.ConversationRepository().UpdateAutomationSettings(ctx, conversationID, settings); err != nil {
		return nil, fmt.Errorf("failed to resume automations: %w", err)
	}

	g.logger.Info("Automations resumed", "conversation_id", conversationID, "resumed_by", actorID)

	conversation.AutomationSettings = settings

	g.publishEvent(ctx, conversationID, events.ConversationResumed{
		BaseEvent:      g.baseEvent(events.ConversationResumedEvent, conversation.OrganizationID),
		ConversationID: conversationID,
		ResumedBy:      actorID,
	})

	return conversation, nil
}

// Status reports the pause state without writing anything.
func (g *Gate) Status(ctx context.Context, conversationID string) (PauseStatus, error) {
	if conversationID == "" {
		return PauseStatusActive, ErrEmptyConversationID
	}

	conversation, err := g.conversation(ctx, "Status", conversationID)
	if err != nil {
		return PauseStatusActive, err
	}

	settings := conversation.AutomationSettings

	if !settings.IsPaused {
		return PauseStatusActive, nil
	}

	if settings.PausedUntil == nil {
		return PauseStatusPaused, nil
	}

	if settings.PausedUntil.After(g.now()) {
		return PauseStatusPaused, nil
	}

	return PauseStatusPausedExpired, nil
}

// EnsureActive reports whether automations may run, clearing an elapsed
// pause window through an explicit system resume. Pause expiry is lazy:
// correctness depends on callers invoking this check before relying on
// automation activity.
func (g *Gate) EnsureActive(ctx context.Context, conversationID string) (bool, error) {
	status, err := g.Status(ctx, conversationID)
	if err != nil {
		return false, err
	}

	switch status {
	case PauseStatusActive:
		return true, nil
	case PauseStatusPausedExpired:
		if _, err := g.Resume(ctx, conversationID, models.PausedBySystem); err != nil {
			return false, err
		}

		return true, nil
	default:
		return false, nil
	}
}

// CanTrigger reports whether the automation identity may fire for the
// conversation. One-time identities (greeting, welcome) are deduplicated
// against the conversation history; all others may always retrigger.
func (g *Gate) CanTrigger(ctx context.Context, conversationID, automationID string) (bool, error) {
	active, err := g.EnsureActive(ctx, conversationID)
	if err != nil {
		return false, err
	}

	if !active {
		return false, nil
	}

	if _, oneTime := oneTimeAutomations[automationID]; !oneTime {
		return true, nil
	}

	conversation, err := g.conversation(ctx, "CanTrigger", conversationID)
	if err != nil {
		return false, err
	}

	return !conversation.AutomationSettings.HasTriggered(automationID), nil
}

// RecordTriggered appends one history entry for the automation firing.
func (g *Gate) RecordTriggered(ctx context.Context, conversationID, automationID, triggeredBy string) (*models.Conversation, error) {
	if conversationID == "" {
		return nil, ErrEmptyConversationID
	}

	entry := models.AutomationHistoryEntry{
		AutomationType: automationID,
		TriggeredAt:    g.now(),
		TriggeredBy:    triggeredBy,
	}

	err := g.persistence.ConversationRepository().AppendAutomationHistory(ctx, conversationID, entry)
	if err != nil {
		return nil, err
	}

	return g.conversation(ctx, "RecordTriggered", conversationID)
}

func (g *Gate) baseEvent(eventType events.EventType, organizationID string) events.BaseEvent {
	id := uuid.New().String()
	if g.eventBus != nil {
		id = g.eventBus.GenerateID()
	}

	return events.BaseEvent{
		ID:             id,
		Type:           eventType,
		Timestamp:      g.now(),
		OrganizationID: organizationID,
	}
}

func (g *Gate) publishEvent(ctx context.Context, key string, event eventbus.Event) {
	if g.eventBus == nil {
		return
	}

	if err := g.eventBus.Publish(ctx, key, event); err != nil {
		g.logger.Warn("Failed to publish pause lifecycle event", "event_type", event.GetType(), "error", err)
	}
}

func (g *Gate) conversation(ctx context.Context, op, conversationID string) (*models.Conversation, error) {
	conversation, err := g.persistence.ConversationRepository().GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if conversation == nil {
		return nil, persistence.NewConversationError(op, conversationID, persistence.ErrConversationNotFound)
	}

	return conversation, nil
}
