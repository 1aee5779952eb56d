package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/convobase/convobase/pkg/models"
)

const (
	defaultGraphBaseURL = "https://graph.facebook.com/v19.0"
	sendTimeout         = 15 * time.Second
)

// ErrMissingCredentials is returned when the credentials record lacks a
// phone number ID or access token.
var ErrMissingCredentials = errors.New("messaging credentials are incomplete")

// WhatsAppProvider implements Provider against the WhatsApp Cloud API.
type WhatsAppProvider struct {
	client *http.Client
	logger *slog.Logger
}

// NewWhatsAppProvider creates a WhatsApp Cloud API provider.
func NewWhatsAppProvider(logger *slog.Logger) *WhatsAppProvider {
	return &WhatsAppProvider{
		client: &http.Client{Timeout: sendTimeout},
		logger: logger.With("module", "whatsapp_provider"),
	}
}

type textMessage struct {
	MessagingProduct string  `json:"messaging_product"`
	To               string  `json:"to"`
	Type             string  `json:"type"`
	Text             textObj `json:"text"`
}

type textObj struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send posts a text message through the Cloud API graph endpoint.
func (p *WhatsAppProvider) Send(ctx context.Context, to, body string, credentials *models.MessagingCredentials) (string, error) {
	if credentials == nil || credentials.PhoneNumberID == "" || credentials.AccessToken == "" {
		return "", ErrMissingCredentials
	}

	baseURL := credentials.BaseURL
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}

	payload, err := json.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textObj{Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", baseURL, credentials.PhoneNumberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credentials.AccessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			p.logger.Error("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("send failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Messages) == 0 {
		return "", errors.New("provider response contained no message id")
	}

	p.logger.Debug("Message sent", "to", to, "provider_id", parsed.Messages[0].ID)

	return parsed.Messages[0].ID, nil
}
