package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/service"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// AdminHandler exposes the administrative ticket, stage and validation
// endpoints. Routes are mounted behind auth.RequireAdmin.
type AdminHandler struct {
	tickets *service.TicketService
	engine  *service.InteractionService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(tickets *service.TicketService, engine *service.InteractionService) *AdminHandler {
	return &AdminHandler{tickets: tickets, engine: engine}
}

// UpdateTicket PATCH /api/admin/tickets/:id.
func (h *AdminHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AdminUpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateAdmin(c.UserContext(), actor, id, service.AdminUpdateInput{
		Status:        req.Status,
		AssigneeEmail: req.AssigneeEmail,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket, ticket.Progress())})
}

// DeleteTicket DELETE /api/admin/tickets/:id.
func (h *AdminHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteInteraction DELETE /api/admin/interactions/:id.
func (h *AdminHandler) DeleteInteraction(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.engine.DeleteInteraction(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// OverrideValidation PATCH /api/admin/interactions/:id/status.
func (h *AdminHandler) OverrideValidation(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ValidationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.engine.OverrideValidationStatus(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return err
	}
	if entry == nil {
		return c.SendStatus(http.StatusNoContent)
	}
	return c.JSON(fiber.Map{"data": interactionResponse(entry)})
}

// AddStage POST /api/admin/tickets/:id/stages.
func (h *AdminHandler) AddStage(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	form, err := multipartForm(c)
	if err != nil {
		return err
	}
	input := service.StageInput{
		Name:     c.FormValue("name"),
		Deadline: c.FormValue("deadline"),
	}
	if input.Uploads, err = formUploads(form, "files[]", "files"); err != nil {
		return err
	}
	stage, err := h.tickets.AddStage(c.UserContext(), actor, ticketID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": stageResponse(stage)})
}

// EditStage PUT /api/admin/stages/:id. Absent form fields are left untouched.
func (h *AdminHandler) EditStage(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stageID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	form, err := multipartForm(c)
	if err != nil {
		return err
	}
	input := service.EditStageInput{
		Name:     optionalFormValue(c, form, "name"),
		Deadline: optionalFormValue(c, form, "deadline"),
	}
	if raw := optionalFormValue(c, form, "status"); raw != nil {
		status := domain.StageStatus(*raw)
		input.Status = &status
	}
	if input.Uploads, err = formUploads(form, "files[]", "files"); err != nil {
		return err
	}
	stage, err := h.tickets.EditStage(c.UserContext(), actor, stageID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stageResponse(stage)})
}

// UpdateStageStatus PATCH /api/admin/stages/:id/status.
func (h *AdminHandler) UpdateStageStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stageID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.StageStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.tickets.UpdateStageStatus(c.UserContext(), actor, stageID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StageStatusResponse{Updated: updated}})
}

// DeleteStage DELETE /api/admin/stages/:id.
func (h *AdminHandler) DeleteStage(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stageID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteStage(c.UserContext(), actor, stageID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteAttachment DELETE /api/admin/attachments/:id.
func (h *AdminHandler) DeleteAttachment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteAttachment(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
