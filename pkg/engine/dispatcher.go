package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/convobase/convobase/pkg/messaging"
	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
	"github.com/convobase/convobase/pkg/realtime"
	"github.com/convobase/convobase/pkg/template"
)

const httpRequestTimeout = 10 * time.Second

// Dispatcher executes action nodes. Dispatch is best-effort: a failing
// action is logged and recorded, never propagated, so one broken action
// cannot abort the rest of the walk.
type Dispatcher struct {
	persistence persistence.Persistence
	provider    messaging.Provider
	realtime    realtime.Publisher
	httpClient  *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// NewDispatcher creates an action dispatcher.
func NewDispatcher(p persistence.Persistence, provider messaging.Provider, rt realtime.Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		provider:    provider,
		realtime:    rt,
		httpClient:  &http.Client{Timeout: httpRequestTimeout},
		logger:      logger.With("module", "action_dispatcher"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch runs one action node against the execution context.
func (d *Dispatcher) Dispatch(ctx context.Context, node *models.Node, execCtx *models.ExecutionContext) {
	logger := d.logger.With("node_id", node.ID, "node_event", node.Event, "organization_id", execCtx.OrganizationID)

	var err error

	switch node.Event {
	case models.NodeEventSendMessage:
		err = d.sendMessage(ctx, node, execCtx)
	case models.NodeEventHTTPRequest:
		err = d.httpRequest(ctx, node, execCtx)
	case models.NodeEventSendEmail:
		err = d.sendEmail(ctx, node, execCtx)
	case models.NodeEventNotifyTeam:
		err = d.notifyTeam(ctx, node, execCtx)
	default:
		logger.Warn("Unknown action event, skipping")

		return
	}

	if err != nil {
		logger.Error("Action failed", "error", err)

		return
	}

	logger.Debug("Action dispatched")
}

// sendMessage renders the message template and delivers it through the
// organization's messaging provider, recording the outbound message.
func (d *Dispatcher) sendMessage(ctx context.Context, node *models.Node, execCtx *models.ExecutionContext) error {
	body := template.Render(node.Data.Message, execCtx.Variables)

	credentials, err := d.persistence.IntegrationRepository().MessagingCredentials(ctx, execCtx.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to resolve messaging credentials: %w", err)
	}

	if credentials == nil {
		return fmt.Errorf("organization %s has no messaging integration", execCtx.OrganizationID)
	}

	providerID, err := d.provider.Send(ctx, execCtx.Contact, body, credentials)
	if err != nil {
		return fmt.Errorf("provider send failed: %w", err)
	}

	message := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: execCtx.ConversationID,
		OrganizationID: execCtx.OrganizationID,
		Direction:      models.MessageDirectionOutbound,
		Body:           body,
		ProviderID:     providerID,
		SentBy:         models.PausedBySystem,
		CreatedAt:      d.now(),
	}

	if err := d.persistence.MessageRepository().Append(ctx, message); err != nil {
		return fmt.Errorf("failed to record outbound message: %w", err)
	}

	d.publish(ctx, execCtx.OrganizationID, "message_sent", map[string]any{
		"conversationId": execCtx.ConversationID,
		"messageId":      message.ID,
		"body":           body,
	})

	return nil
}

// httpRequest fires a webhook call. URL and body are template-rendered;
// the method defaults to POST.
func (d *Dispatcher) httpRequest(ctx context.Context, node *models.Node, execCtx *models.ExecutionContext) error {
	url := template.Render(node.Data.URL, execCtx.Variables)
	if url == "" {
		return fmt.Errorf("http_request node %s has no url", node.ID)
	}

	method := strings.ToUpper(node.Data.Method)
	if method == "" {
		method = http.MethodPost
	}

	var reqBody io.Reader
	if node.Data.Body != "" {
		reqBody = strings.NewReader(template.Render(node.Data.Body, execCtx.Variables))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if reqBody != nil && node.Data.Headers["Content-Type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range node.Data.Headers {
		req.Header.Set(key, template.Render(value, execCtx.Variables))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request to %s returned status %d", url, resp.StatusCode)
	}

	return nil
}

// sendEmail publishes an email request for the delivery worker. Outbound
// SMTP lives outside this process.
func (d *Dispatcher) sendEmail(ctx context.Context, node *models.Node, execCtx *models.ExecutionContext) error {
	to := template.Render(node.Data.To, execCtx.Variables)
	if to == "" {
		return fmt.Errorf("send_email node %s has no recipient", node.ID)
	}

	d.publish(ctx, execCtx.OrganizationID, "email_requested", map[string]any{
		"to":      to,
		"subject": template.Render(node.Data.Subject, execCtx.Variables),
		"body":    template.Render(node.Data.Message, execCtx.Variables),
	})

	d.logger.Info("Email requested", "node_id", node.ID, "to", to)

	return nil
}

// notifyTeam raises the conversation priority and pushes a realtime
// notification to the organization's agents.
func (d *Dispatcher) notifyTeam(ctx context.Context, node *models.Node, execCtx *models.ExecutionContext) error {
	if node.Data.Priority != "" && execCtx.ConversationID != "" {
		err := d.persistence.ConversationRepository().SetPriority(ctx, execCtx.ConversationID, node.Data.Priority)
		if err != nil {
			return fmt.Errorf("failed to set conversation priority: %w", err)
		}
	}

	d.publish(ctx, execCtx.OrganizationID, "team_notification", map[string]any{
		"conversationId": execCtx.ConversationID,
		"priority":       node.Data.Priority,
		"message":        template.Render(node.Data.Message, execCtx.Variables),
	})

	return nil
}

func (d *Dispatcher) publish(ctx context.Context, room, event string, payload map[string]any) {
	if d.realtime == nil {
		return
	}

	if err := d.realtime.Publish(ctx, room, event, payload); err != nil {
		d.logger.Warn("Realtime publish failed", "event", event, "error", err)
	}
}
