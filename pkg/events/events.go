// Package events defines event types for automation lifecycle notifications.
package events

import (
	"time"
)

type EventType string

// Topic is the bus topic every lifecycle event is published to.
const Topic = "convobase.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Automation lifecycle events.
	AutomationTriggeredEvent EventType = "automation.triggered"
	AutomationCompletedEvent EventType = "automation.completed"
	AutomationFailedEvent    EventType = "automation.failed"

	// Conversation pause lifecycle.
	ConversationPausedEvent  EventType = "conversation.paused"
	ConversationResumedEvent EventType = "conversation.resumed"

	// Scheduler events.
	SocialPostPublishedEvent EventType = "socialpost.published"
)

// BaseEvent carries the fields shared by every event.
type BaseEvent struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	Timestamp      time.Time      `json:"timestamp"`
	OrganizationID string         `json:"organizationId"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type AutomationTriggered struct {
	BaseEvent

	AutomationID   string `json:"automationId"`
	ConversationID string `json:"conversationId,omitempty"`
	TriggeredBy    string `json:"triggeredBy"`
}

func (e AutomationTriggered) GetType() EventType {
	return AutomationTriggeredEvent
}

type AutomationCompleted struct {
	BaseEvent

	AutomationID   string `json:"automationId"`
	ConversationID string `json:"conversationId,omitempty"`
	Steps          int    `json:"steps"`
}

func (e AutomationCompleted) GetType() EventType {
	return AutomationCompletedEvent
}

type AutomationFailed struct {
	BaseEvent

	AutomationID   string `json:"automationId"`
	ConversationID string `json:"conversationId,omitempty"`
	Error          string `json:"error"`
}

func (e AutomationFailed) GetType() EventType {
	return AutomationFailedEvent
}

type ConversationPaused struct {
	BaseEvent

	ConversationID string     `json:"conversationId"`
	PausedBy       string     `json:"pausedBy"`
	PausedUntil    *time.Time `json:"pausedUntil,omitempty"`
}

func (e ConversationPaused) GetType() EventType {
	return ConversationPausedEvent
}

type ConversationResumed struct {
	BaseEvent

	ConversationID string `json:"conversationId"`
	ResumedBy      string `json:"resumedBy"`
}

func (e ConversationResumed) GetType() EventType {
	return ConversationResumedEvent
}

type SocialPostPublished struct {
	BaseEvent

	PostID   string `json:"postId"`
	Platform string `json:"platform"`
}

func (e SocialPostPublished) GetType() EventType {
	return SocialPostPublishedEvent
}
