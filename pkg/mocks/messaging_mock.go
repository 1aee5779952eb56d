package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/convobase/convobase/pkg/models"
)

// MockMessagingProvider is a mock implementation of the
// messaging.Provider interface.
type MockMessagingProvider struct {
	mock.Mock
}

func (m *MockMessagingProvider) Send(ctx context.Context, to, body string, credentials *models.MessagingCredentials) (string, error) {
	args := m.Called(ctx, to, body, credentials)

	return args.String(0), args.Error(1)
}
