// Package messaging defines the outbound chat provider boundary and its
// WhatsApp Cloud API implementation.
package messaging

import (
	"context"

	"github.com/convobase/convobase/pkg/models"
)

// Provider sends a text message to a contact address using the
// organization's credentials and returns the provider message ID.
type Provider interface {
	Send(ctx context.Context, to, body string, credentials *models.MessagingCredentials) (string, error)
}
