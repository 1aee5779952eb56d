// Package main provides the Convobase API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/convobase/convobase/pkg/engine"
	"github.com/convobase/convobase/pkg/eventbus"
	"github.com/convobase/convobase/pkg/messaging"
	"github.com/convobase/convobase/pkg/persistence"
	"github.com/convobase/convobase/pkg/realtime"
	"github.com/convobase/convobase/pkg/services"
	"github.com/convobase/convobase/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	realtime    realtime.Publisher
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	rt realtime.Publisher,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		realtime:    rt,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	automationService := services.NewAutomation(a.persistence)
	gate := services.NewGate(a.persistence, a.eventBus, a.logger)
	selector := services.NewSelector(a.persistence, a.logger)

	provider := messaging.NewWhatsAppProvider(a.logger)
	dispatcher := engine.NewDispatcher(a.persistence, provider, a.realtime, a.logger)
	walker := engine.NewWalker(dispatcher, a.logger)
	orchestrator := engine.NewOrchestrator(a.persistence, selector, gate, walker, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(automationService, gate, orchestrator, a.persistence, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Convobase API")
	})

	automations := app.Group("/automations")
	automations.Get("/", handlers.ListAutomations)
	automations.Post("/", handlers.CreateAutomation)
	automations.Get("/:id", handlers.GetAutomation)
	automations.Put("/:id", handlers.UpdateAutomation)
	automations.Delete("/:id", handlers.DeleteAutomation)
	automations.Post("/:id/activate", handlers.ActivateAutomation)
	automations.Post("/:id/deactivate", handlers.DeactivateAutomation)
	automations.Get("/:id/executions", handlers.ListExecutions)

	conversations := app.Group("/conversations")
	conversations.Post("/:id/pause", handlers.PauseConversation)
	conversations.Post("/:id/resume", handlers.ResumeConversation)

	app.Post("/hooks/:module/:event", handlers.Webhook)
	app.Post("/events/message", handlers.MessageEvent)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
