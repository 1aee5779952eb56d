package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convobase/convobase/pkg/channels/gochannel"
	"github.com/convobase/convobase/pkg/events"
)

func newTestEventBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)
	bus := NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishAndHandle(t *testing.T) {
	bus := newTestEventBus(t)

	received := make(chan any, 1)

	err := bus.Handle(events.AutomationCompletedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(t.Context()))

	err = bus.Publish(t.Context(), "a-1", events.AutomationCompleted{
		BaseEvent: events.BaseEvent{
			ID:             bus.GenerateID(),
			Type:           events.AutomationCompletedEvent,
			Timestamp:      time.Now().UTC(),
			OrganizationID: "org-1",
		},
		AutomationID:   "a-1",
		ConversationID: "c-1",
		Steps:          3,
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		completed, ok := event.(*events.AutomationCompleted)
		require.True(t, ok)
		assert.Equal(t, "a-1", completed.AutomationID)
		assert.Equal(t, "org-1", completed.OrganizationID)
		assert.Equal(t, 3, completed.Steps)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

// Events without a registered handler are acknowledged and dropped, not
// redelivered.
func TestUnhandledEventTypeIsSkipped(t *testing.T) {
	bus := newTestEventBus(t)

	received := make(chan any, 2)

	err := bus.Handle(events.AutomationFailedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(t.Context()))

	base := events.BaseEvent{Type: events.AutomationTriggeredEvent, OrganizationID: "org-1"}
	require.NoError(t, bus.Publish(t.Context(), "a-1", events.AutomationTriggered{BaseEvent: base}))

	failedBase := events.BaseEvent{Type: events.AutomationFailedEvent, OrganizationID: "org-1"}
	require.NoError(t, bus.Publish(t.Context(), "a-1", events.AutomationFailed{
		BaseEvent: failedBase,
		Error:     "cyclic graph",
	}))

	select {
	case event := <-received:
		failed, ok := event.(*events.AutomationFailed)
		require.True(t, ok)
		assert.Equal(t, "cyclic graph", failed.Error)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	assert.Empty(t, received)
}

func TestGenerateID(t *testing.T) {
	bus := newTestEventBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
