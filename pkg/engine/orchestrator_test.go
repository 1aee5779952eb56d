package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/convobase/convobase/pkg/log"
	"github.com/convobase/convobase/pkg/mocks"
	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence/file"
	"github.com/convobase/convobase/pkg/realtime"
	"github.com/convobase/convobase/pkg/services"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	provider     *mocks.MockMessagingProvider
	publisher    *realtime.MemoryPublisher
	persistence  *file.Persistence
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	provider := &mocks.MockMessagingProvider{}
	publisher := realtime.NewMemoryPublisher()
	logger := log.WithModule("test")

	dispatcher := NewDispatcher(persistence, provider, publisher, logger)
	walker := NewWalker(dispatcher, logger)
	gate := services.NewGate(persistence, nil, logger)
	selector := services.NewSelector(persistence, logger)
	orchestrator := NewOrchestrator(persistence, selector, gate, walker, nil, logger)

	err := persistence.IntegrationRepository().SaveMessagingCredentials(t.Context(), &models.MessagingCredentials{
		OrganizationID: "org-1",
		PhoneNumberID:  "pn-1",
		AccessToken:    "token",
	})
	require.NoError(t, err)

	err = persistence.ConversationRepository().Save(t.Context(), &models.Conversation{
		ID:             "c-1",
		OrganizationID: "org-1",
		ContactName:    "Maria",
		ContactNumber:  "+551199",
		Variables:      map[string]any{"price": 100},
	})
	require.NoError(t, err)

	return &orchestratorFixture{
		orchestrator: orchestrator,
		provider:     provider,
		publisher:    publisher,
		persistence:  persistence,
	}
}

func (f *orchestratorFixture) saveAutomation(t *testing.T, automation *models.Automation) {
	t.Helper()

	automation.CreatedAt = time.Now().UTC()
	automation.UpdatedAt = automation.CreatedAt

	require.NoError(t, f.persistence.AutomationRepository().Save(t.Context(), automation))
}

func keywordAutomation(id, keyword, message string) *models.Automation {
	return &models.Automation{
		ID:             id,
		OrganizationID: "org-1",
		Name:           "Keyword responder",
		IsActive:       true,
		AutomationType: models.AutomationTypeConversation,
		Nodes: []*models.Node{
			{
				ID:    "trigger",
				Type:  models.NodeTypeTrigger,
				Event: models.NodeEventKeyword,
				Next:  []string{"reply"},
				Data:  models.NodeData{Keywords: []string{keyword}},
			},
			{
				ID:    "reply",
				Type:  models.NodeTypeAction,
				Event: models.NodeEventSendMessage,
				Data:  models.NodeData{Message: message},
			},
		},
	}
}

func TestProcessIncomingMessage_RendersConversationVariables(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.saveAutomation(t, keywordAutomation("a-1", "pricing", "Hi {{contact_name}}, the price is {{price}}"))

	f.provider.On("Send", mock.Anything, "+551199", "Hi Maria, the price is 100", mock.Anything).Return("prov-1", nil)

	summary, err := f.orchestrator.ProcessIncomingMessage(t.Context(), &models.ExecutionContext{
		ConversationID: "c-1",
		OrganizationID: "org-1",
		Message:        "what is your pricing?",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.Triggered)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Failed)

	f.provider.AssertExpectations(t)

	automation, err := f.persistence.AutomationRepository().GetByID(t.Context(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), automation.Stats.TotalExecutions)
	assert.Equal(t, int64(1), automation.Stats.SuccessfulExecutions)

	conversation, err := f.persistence.ConversationRepository().GetByID(t.Context(), "c-1")
	require.NoError(t, err)
	require.Len(t, conversation.AutomationSettings.AutomationHistory, 1)
	assert.Equal(t, "a-1", conversation.AutomationSettings.AutomationHistory[0].AutomationType)
}

func TestProcessIncomingMessage_FailureIsolation(t *testing.T) {
	f := newOrchestratorFixture(t)

	// First automation has a cyclic graph and must fail.
	cyclic := keywordAutomation("a-bad", "pricing", "never sent")
	cyclic.Nodes = []*models.Node{
		{ID: "trigger", Type: models.NodeTypeTrigger, Event: models.NodeEventKeyword,
			Next: []string{"loop"}, Data: models.NodeData{Keywords: []string{"pricing"}}},
		{ID: "loop", Type: models.NodeTypeAction, Event: "noop", Next: []string{"loop"}},
	}
	f.saveAutomation(t, cyclic)
	f.saveAutomation(t, keywordAutomation("a-good", "pricing", "still works"))

	f.provider.On("Send", mock.Anything, mock.Anything, "still works", mock.Anything).Return("prov-1", nil)

	summary, err := f.orchestrator.ProcessIncomingMessage(t.Context(), &models.ExecutionContext{
		ConversationID: "c-1",
		OrganizationID: "org-1",
		Message:        "pricing please",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Triggered)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	f.provider.AssertNumberOfCalls(t, "Send", 1)

	bad, err := f.persistence.AutomationRepository().GetByID(t.Context(), "a-bad")
	require.NoError(t, err)
	assert.Equal(t, int64(1), bad.Stats.FailedExecutions)

	good, err := f.persistence.AutomationRepository().GetByID(t.Context(), "a-good")
	require.NoError(t, err)
	assert.Equal(t, int64(1), good.Stats.SuccessfulExecutions)

	entries, err := f.persistence.ExecutionLogRepository().ListByAutomation(t.Context(), "a-bad")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ExecutionStatusFailed, entries[0].Status)
}

// A paused conversation returns before any candidate is selected, so
// the summary stays empty and only the inbound message is recorded.
func TestProcessIncomingMessage_PausedConversation(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.saveAutomation(t, keywordAutomation("a-1", "pricing", "reply"))

	conversation, err := f.persistence.ConversationRepository().GetByID(t.Context(), "c-1")
	require.NoError(t, err)

	conversation.AutomationSettings.IsPaused = true
	require.NoError(t, f.persistence.ConversationRepository().UpdateAutomationSettings(
		t.Context(), "c-1", conversation.AutomationSettings))

	summary, err := f.orchestrator.ProcessIncomingMessage(t.Context(), &models.ExecutionContext{
		ConversationID: "c-1",
		OrganizationID: "org-1",
		Message:        "pricing please",
	})
	require.NoError(t, err)

	assert.Equal(t, &ExecutionSummary{}, summary)
	f.provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	messages, err := f.persistence.MessageRepository().ListByConversation(t.Context(), "c-1")
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

// An elapsed pause window does not short-circuit: the gate clears it
// and the automations run.
func TestProcessIncomingMessage_ExpiredPauseRunsAutomations(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.saveAutomation(t, keywordAutomation("a-1", "pricing", "reply"))

	conversation, err := f.persistence.ConversationRepository().GetByID(t.Context(), "c-1")
	require.NoError(t, err)

	until := time.Now().UTC().Add(-time.Hour)
	conversation.AutomationSettings.IsPaused = true
	conversation.AutomationSettings.PausedUntil = &until
	require.NoError(t, f.persistence.ConversationRepository().UpdateAutomationSettings(
		t.Context(), "c-1", conversation.AutomationSettings))

	f.provider.On("Send", mock.Anything, mock.Anything, "reply", mock.Anything).Return("prov-1", nil)

	summary, err := f.orchestrator.ProcessIncomingMessage(t.Context(), &models.ExecutionContext{
		ConversationID: "c-1",
		OrganizationID: "org-1",
		Message:        "pricing please",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Triggered)
	assert.Equal(t, 1, summary.Succeeded)

	stored, err := f.persistence.ConversationRepository().GetByID(t.Context(), "c-1")
	require.NoError(t, err)
	assert.False(t, stored.AutomationSettings.IsPaused)
}

func TestProcessIncomingMessage_OneTimeAutomationDeduplicated(t *testing.T) {
	f := newOrchestratorFixture(t)

	greeting := keywordAutomation("greeting", "hello", "welcome!")
	greeting.Nodes[0].Event = models.NodeEventConversationStarted
	greeting.Nodes[0].Data = models.NodeData{}
	f.saveAutomation(t, greeting)

	f.provider.On("Send", mock.Anything, mock.Anything, "welcome!", mock.Anything).Return("prov-1", nil)

	execCtx := func() *models.ExecutionContext {
		return &models.ExecutionContext{
			ConversationID: "c-1",
			OrganizationID: "org-1",
			Message:        "hello",
			IsFirstMessage: true,
		}
	}

	first, err := f.orchestrator.ProcessIncomingMessage(t.Context(), execCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Triggered)

	second, err := f.orchestrator.ProcessIncomingMessage(t.Context(), execCtx())
	require.NoError(t, err)
	assert.Zero(t, second.Triggered)

	f.provider.AssertNumberOfCalls(t, "Send", 1)
}

// History is recorded when the walk starts, so a one-time automation
// counts as fired even when its graph errors.
func TestProcessIncomingMessage_OneTimeRecordedWhenWalkFails(t *testing.T) {
	f := newOrchestratorFixture(t)

	greeting := keywordAutomation("greeting", "hello", "never sent")
	greeting.Nodes = []*models.Node{
		{ID: "trigger", Type: models.NodeTypeTrigger, Event: models.NodeEventKeyword,
			Next: []string{"loop"}, Data: models.NodeData{Keywords: []string{"hello"}}},
		{ID: "loop", Type: models.NodeTypeAction, Event: "noop", Next: []string{"loop"}},
	}
	f.saveAutomation(t, greeting)

	execCtx := func() *models.ExecutionContext {
		return &models.ExecutionContext{
			ConversationID: "c-1",
			OrganizationID: "org-1",
			Message:        "hello",
		}
	}

	first, err := f.orchestrator.ProcessIncomingMessage(t.Context(), execCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Triggered)
	assert.Equal(t, 1, first.Failed)

	conversation, err := f.persistence.ConversationRepository().GetByID(t.Context(), "c-1")
	require.NoError(t, err)
	assert.True(t, conversation.AutomationSettings.HasTriggered("greeting"))

	second, err := f.orchestrator.ProcessIncomingMessage(t.Context(), execCtx())
	require.NoError(t, err)
	assert.Zero(t, second.Triggered)
}

func TestProcessIncomingMessage_TimestampVariableSeeded(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.saveAutomation(t, keywordAutomation("a-1", "when", "At {{timestamp}}"))

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.orchestrator.now = func() time.Time { return fixed }

	f.provider.On("Send", mock.Anything, mock.Anything, "At "+fixed.Format(time.RFC3339), mock.Anything).
		Return("prov-1", nil)

	summary, err := f.orchestrator.ProcessIncomingMessage(t.Context(), &models.ExecutionContext{
		ConversationID: "c-1",
		OrganizationID: "org-1",
		Message:        "when do you open?",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	f.provider.AssertExpectations(t)
}

func TestProcessIncomingMessage_RecordsInboundMessage(t *testing.T) {
	f := newOrchestratorFixture(t)

	_, err := f.orchestrator.ProcessIncomingMessage(t.Context(), &models.ExecutionContext{
		ConversationID: "c-1",
		OrganizationID: "org-1",
		Message:        "hello there",
	})
	require.NoError(t, err)

	messages, err := f.persistence.MessageRepository().ListByConversation(t.Context(), "c-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.MessageDirectionInbound, messages[0].Direction)
	assert.Equal(t, "hello there", messages[0].Body)
}

func TestProcessIncomingMessage_UnknownConversation(t *testing.T) {
	f := newOrchestratorFixture(t)

	_, err := f.orchestrator.ProcessIncomingMessage(t.Context(), &models.ExecutionContext{
		ConversationID: "ghost",
		OrganizationID: "org-1",
		Message:        "hi",
	})
	assert.Error(t, err)
}

func TestProcessWebhook_MatchesAndCounts(t *testing.T) {
	f := newOrchestratorFixture(t)

	automation := &models.Automation{
		ID:             "a-hook",
		OrganizationID: "org-1",
		Name:           "Deal won hook",
		IsActive:       true,
		AutomationType: models.AutomationTypeWorkflow,
		Nodes: []*models.Node{
			{
				ID:           "trigger",
				Type:         models.NodeTypeTrigger,
				Module:       "deal",
				Event:        "stage_changed",
				PayloadMatch: map[string]any{"deal.stage": "won"},
			},
		},
	}
	f.saveAutomation(t, automation)

	payload := map[string]any{"deal": map[string]any{"stage": "won"}}

	summary, err := f.orchestrator.ProcessWebhook(t.Context(), "org-1", "deal", "stage_changed", payload)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Triggered)
	assert.Equal(t, 1, summary.Succeeded)

	noMatch, err := f.orchestrator.ProcessWebhook(t.Context(), "org-1", "deal", "stage_changed",
		map[string]any{"deal": map[string]any{"stage": "lost"}})
	require.NoError(t, err)
	assert.Zero(t, noMatch.Triggered)
}

// Webhook executions bypass the pause gate entirely.
func TestProcessWebhook_IgnoresPause(t *testing.T) {
	f := newOrchestratorFixture(t)

	conversation, err := f.persistence.ConversationRepository().GetByID(t.Context(), "c-1")
	require.NoError(t, err)

	conversation.AutomationSettings.IsPaused = true
	require.NoError(t, f.persistence.ConversationRepository().UpdateAutomationSettings(
		t.Context(), "c-1", conversation.AutomationSettings))

	automation := &models.Automation{
		ID:             "a-hook",
		OrganizationID: "org-1",
		Name:           "Contact hook",
		IsActive:       true,
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeTrigger, Module: "contact", Event: "created"},
		},
	}
	f.saveAutomation(t, automation)

	summary, err := f.orchestrator.ProcessWebhook(t.Context(), "org-1", "contact", "created", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Triggered)
}
