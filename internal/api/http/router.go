package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/http/handlers"
	"github.com/spec-kit/support-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Post("/tickets/:id/interactions", cfg.Tickets.AddInteraction)
	api.Post("/tickets/:id/validations/:interactionID", cfg.Tickets.ProvideValidation)
	api.Get("/attachments/:id", cfg.Tickets.DownloadAttachment)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Patch("/tickets/:id", cfg.Admin.UpdateTicket)
	admin.Delete("/tickets/:id", cfg.Admin.DeleteTicket)
	admin.Post("/tickets/:id/stages", cfg.Admin.AddStage)
	admin.Patch("/interactions/:id/status", cfg.Admin.OverrideValidation)
	admin.Delete("/interactions/:id", cfg.Admin.DeleteInteraction)
	admin.Put("/stages/:id", cfg.Admin.EditStage)
	admin.Patch("/stages/:id/status", cfg.Admin.UpdateStageStatus)
	admin.Delete("/stages/:id", cfg.Admin.DeleteStage)
	admin.Delete("/attachments/:id", cfg.Admin.DeleteAttachment)
}
