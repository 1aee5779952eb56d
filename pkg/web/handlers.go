package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/convobase/convobase/pkg/engine"
	"github.com/convobase/convobase/pkg/models"
	"github.com/convobase/convobase/pkg/persistence"
	"github.com/convobase/convobase/pkg/services"
)

type APIHandlers struct {
	automationService *services.Automation
	gate              *services.Gate
	orchestrator      *engine.Orchestrator
	persistence       persistence.Persistence
	validator         *validator.Validate
}

func NewAPIHandlers(
	automationService *services.Automation,
	gate *services.Gate,
	orchestrator *engine.Orchestrator,
	p persistence.Persistence,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		automationService: automationService,
		gate:              gate,
		orchestrator:      orchestrator,
		persistence:       p,
		validator:         validate,
	}
}

// organizationID resolves the tenant from the request header.
func organizationID(c fiber.Ctx) string {
	return c.Get(OrganizationHeader)
}

func (h *APIHandlers) ListAutomations(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	automations, err := h.automationService.ListByOrganization(c.Context(), orgID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"automations": NewAutomationResponses(automations),
		"count":       len(automations),
	})
}

func (h *APIHandlers) CreateAutomation(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	var req CreateAutomationRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	automation, err := h.automationService.Create(c.Context(), req.ToModel(orgID))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(NewAutomationResponse(automation))
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	automation, err := h.automationService.FetchByID(c.Context(), orgID, c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(NewAutomationResponse(automation))
}

func (h *APIHandlers) UpdateAutomation(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	var req UpdateAutomationRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	automation, err := h.automationService.Update(c.Context(), orgID, c.Params("id"), &models.Automation{
		Name:              req.Name,
		Description:       req.Description,
		IsActive:          req.IsActive,
		AutomationType:    req.AutomationType,
		TriggerType:       req.TriggerType,
		TriggerConditions: req.TriggerConditions,
		Nodes:             req.Nodes,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(NewAutomationResponse(automation))
}

func (h *APIHandlers) DeleteAutomation(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	if err := h.automationService.Delete(c.Context(), orgID, c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateAutomation(c fiber.Ctx) error {
	return h.setAutomationActive(c, true)
}

func (h *APIHandlers) DeactivateAutomation(c fiber.Ctx) error {
	return h.setAutomationActive(c, false)
}

func (h *APIHandlers) setAutomationActive(c fiber.Ctx, active bool) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	automation, err := h.automationService.SetActive(c.Context(), orgID, c.Params("id"), active)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(NewAutomationResponse(automation))
}

func (h *APIHandlers) ListExecutions(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	// Scope check before exposing the run history.
	if _, err := h.automationService.FetchByID(c.Context(), orgID, c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	entries, err := h.persistence.ExecutionLogRepository().ListByAutomation(c.Context(), c.Params("id"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": entries,
		"count":      len(entries),
	})
}

func (h *APIHandlers) PauseConversation(c fiber.Ctx) error {
	var req PauseRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	conversation, err := h.gate.Pause(c.Context(), c.Params("id"), req.Duration, req.PausedBy)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(conversation)
}

func (h *APIHandlers) ResumeConversation(c fiber.Ctx) error {
	var req ResumeRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	conversation, err := h.gate.Resume(c.Context(), c.Params("id"), req.ResumedBy)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(conversation)
}

// Webhook is the external entry point: POST /hooks/:module/:event. It
// never consults the conversation gate; webhook events carry no
// conversation.
func (h *APIHandlers) Webhook(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	payload := map[string]any{}
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&payload); err != nil {
			return badRequest(c, "Invalid webhook payload: "+err.Error())
		}
	}

	summary, err := h.orchestrator.ProcessWebhook(c.Context(), orgID, c.Params("module"), c.Params("event"), payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(WebhookResponse{Triggered: summary.Triggered})
}

// MessageEvent is the inbound message entry point: POST /events/message.
func (h *APIHandlers) MessageEvent(c fiber.Ctx) error {
	orgID := organizationID(c)
	if orgID == "" {
		return badRequest(c, OrganizationHeader+" header is required")
	}

	var req MessageEventRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	summary, err := h.orchestrator.ProcessIncomingMessage(c.Context(), &models.ExecutionContext{
		ConversationID: req.ConversationID,
		OrganizationID: orgID,
		Contact:        req.Contact,
		Message:        req.Message,
		IsFirstMessage: req.IsFirstMessage,
		Variables:      req.Variables,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	detail, healthy := h.automationService.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if !healthy {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"detail":    detail,
		"timestamp": time.Now().UTC(),
	})
}
