package engine

import (
	"context"
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
)

func newTestWalker(t *testing.T) (*Walker, *mocks.MockMessagingProvider, *realtime.MemoryPublisher, *file.Persistence) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	provider := &mocks.MockMessagingProvider{}
	publisher := realtime.NewMemoryPublisher()
	logger := log.WithModule("test")

	dispatcher := NewDispatcher(persistence, provider, publisher, logger)
	walker := NewWalker(dispatcher, logger)

	err := persistence.IntegrationRepository().SaveMessagingCredentials(t.Context(), &models.MessagingCredentials{
		OrganizationID: "org-1",
		PhoneNumberID:  "pn-1",
		AccessToken:    "token",
	})
	require.NoError(t, err)

	return walker, provider, publisher, persistence
}

func messageNode(id, message string, next ...string) *models.Node {
	return &models.Node{
		ID:    id,
		Type:  models.NodeTypeAction,
		Event: models.NodeEventSendMessage,
		Next:  next,
		Data:  models.NodeData{Message: message},
	}
}

func TestWalk_ConditionBranchExclusivity(t *testing.T) {
	walker, provider, _, _ := newTestWalker(t)
	provider.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("prov-1", nil)

	automation := &models.Automation{
		ID: "a-1",
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeTrigger, Next: []string{"check"}},
			{
				ID:          "check",
				Type:        models.NodeTypeCondition,
				TrueBranch:  "yes",
				FalseBranch: "no",
				Data: models.NodeData{Condition: &models.Condition{
					Field:    "message",
					Operator: models.OperatorContains,
					Value:    "pricing",
				}},
			},
			messageNode("yes", "true path"),
			messageNode("no", "false path"),
		},
	}

	execCtx := &models.ExecutionContext{
		ConversationID: "c-1",
		OrganizationID: "org-1",
		Contact:        "+5511999",
		Message:        "what is your pricing?",
	}

	steps, err := walker.Walk(t.Context(), automation, automation.Nodes[0], execCtx)
	require.NoError(t, err)
	assert.Equal(t, 3, steps)

	// Only the true branch may fire.
	provider.AssertNumberOfCalls(t, "Send", 1)
	provider.AssertCalled(t, "Send", mock.Anything, "+5511999", "true path", mock.Anything)
}

func TestWalk_FalseBranchWithoutTarget(t *testing.T) {
	walker, provider, _, _ := newTestWalker(t)

	automation := &models.Automation{
		ID: "a-1",
		Nodes: []*models.Node{
			{
				ID:         "check",
				Type:       models.NodeTypeCondition,
				TrueBranch: "yes",
				Data: models.NodeData{Condition: &models.Condition{
					Field:    "message",
					Operator: models.OperatorEquals,
					Value:    "never",
				}},
			},
			messageNode("yes", "true path"),
		},
	}

	steps, err := walker.Walk(t.Context(), automation, automation.Nodes[0], &models.ExecutionContext{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1, steps)
	provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWalk_CycleDetected(t *testing.T) {
	walker, _, _, _ := newTestWalker(t)

	automation := &models.Automation{
		ID: "a-1",
		Nodes: []*models.Node{
			{ID: "a", Type: models.NodeTypeTrigger, Next: []string{"b"}},
			{ID: "b", Type: models.NodeTypeAction, Event: "noop", Next: []string{"a"}},
		},
	}

	_, err := walker.Walk(t.Context(), automation, automation.Nodes[0], &models.ExecutionContext{})
	assert.ErrorIs(t, err, ErrCyclicGraph)
}

func TestWalk_DiamondIsNotACycle(t *testing.T) {
	walker, _, _, _ := newTestWalker(t)

	automation := &models.Automation{
		ID: "a-1",
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeTrigger, Next: []string{"left", "right"}},
			{ID: "left", Type: models.NodeTypeAction, Event: "noop", Next: []string{"join"}},
			{ID: "right", Type: models.NodeTypeAction, Event: "noop", Next: []string{"join"}},
			{ID: "join", Type: models.NodeTypeAction, Event: "noop"},
		},
	}

	steps, err := walker.Walk(t.Context(), automation, automation.Nodes[0], &models.ExecutionContext{})
	require.NoError(t, err)

	// The join node is visited once per incoming path.
	assert.Equal(t, 5, steps)
}

func TestWalk_StepBudget(t *testing.T) {
	walker, _, _, _ := newTestWalker(t)
	walker.stepBudget = 3

	automation := &models.Automation{
		ID: "a-1",
		Nodes: []*models.Node{
			{ID: "n1", Type: models.NodeTypeTrigger, Next: []string{"n2"}},
			{ID: "n2", Type: models.NodeTypeAction, Event: "noop", Next: []string{"n3"}},
			{ID: "n3", Type: models.NodeTypeAction, Event: "noop", Next: []string{"n4"}},
			{ID: "n4", Type: models.NodeTypeAction, Event: "noop"},
		},
	}

	_, err := walker.Walk(t.Context(), automation, automation.Nodes[0], &models.ExecutionContext{})
	assert.ErrorIs(t, err, ErrStepBudgetExceeded)
}

func TestWalk_DelayNode(t *testing.T) {
	walker, _, _, _ := newTestWalker(t)

	var slept []time.Duration

	walker.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)

		return nil
	}

	automation := &models.Automation{
		ID: "a-1",
		Nodes: []*models.Node{
			{ID: "wait", Type: models.NodeTypeDelay, Data: models.NodeData{Delay: 30}, Next: []string{"defaulted"}},
			{ID: "defaulted", Type: models.NodeTypeDelay},
		},
	}

	steps, err := walker.Walk(t.Context(), automation, automation.Nodes[0], &models.ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, 2, steps)
	assert.Equal(t, []time.Duration{30 * time.Second, 5 * time.Second}, slept)
}

func TestWalk_DelayHonorsContextCancellation(t *testing.T) {
	walker, _, _, _ := newTestWalker(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	automation := &models.Automation{
		ID: "a-1",
		Nodes: []*models.Node{
			{ID: "wait", Type: models.NodeTypeDelay, Data: models.NodeData{Delay: 60}},
		},
	}

	_, err := walker.Walk(ctx, automation, automation.Nodes[0], &models.ExecutionContext{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalk_UnresolvableTargetsStopSilently(t *testing.T) {
	walker, _, _, _ := newTestWalker(t)

	automation := &models.Automation{
		ID: "a-1",
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeTrigger, Next: []string{"ghost", "real"}},
			{ID: "real", Type: models.NodeTypeAction, Event: "noop"},
		},
	}

	steps, err := walker.Walk(t.Context(), automation, automation.Nodes[0], &models.ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, 2, steps)
}

func TestWalk_NilStart(t *testing.T) {
	walker, _, _, _ := newTestWalker(t)

	steps, err := walker.Walk(t.Context(), &models.Automation{ID: "a-1"}, nil, &models.ExecutionContext{})
	require.NoError(t, err)
	assert.Zero(t, steps)
}
