package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/service"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// TicketsHandler manages the ticket endpoints shared by every role.
type TicketsHandler struct {
	tickets *service.TicketService
	engine  *service.InteractionService
	query   *service.QueryService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, engine *service.InteractionService, query *service.QueryService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, engine: engine, query: query}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	form, err := multipartForm(c)
	if err != nil {
		return err
	}

	input := service.CreateTicketInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Urgency:     domain.Urgency(c.FormValue("urgency")),
		Sector:      domain.Sector(c.FormValue("sector")),
		TicketType:  domain.TicketType(c.FormValue("ticket_type", string(domain.TicketTypeRequest))),
		Deadline:    c.FormValue("deadline"),
	}
	if input.Uploads, err = formUploads(form, "attachments[]", "attachments"); err != nil {
		return err
	}

	if input.TicketType == domain.TicketTypeProject {
		names := formValues(form, "stage_name[]", "stage_name")
		deadlines := formValues(form, "stage_deadline[]", "stage_deadline")
		for i, name := range names {
			if strings.TrimSpace(name) == "" {
				continue
			}
			stage := service.StageInput{Name: name}
			if i < len(deadlines) {
				stage.Deadline = deadlines[i]
			}
			idx := strconv.Itoa(i)
			if stage.Uploads, err = formUploads(form, "stage_files_"+idx+"[]", "stage_files_"+idx); err != nil {
				return err
			}
			input.Stages = append(input.Stages, stage)
		}
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.IDResponse{ID: ticket.ID}})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter := service.TicketFilter{
		Statuses:      valueSet[domain.TicketStatus](c, "status"),
		Urgencies:     valueSet[domain.Urgency](c, "urgency"),
		Sectors:       valueSet[domain.Sector](c, "sector"),
		TitleContains: c.Query("title"),
		SortBy:        c.Query("sort_by"),
		Order:         c.Query("order"),
		Limit:         parseInt(c.Query("limit"), 0),
		Offset:        parseInt(c.Query("offset"), 0),
	}
	rows, err := h.query.ListTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(rows))
	for i := range rows {
		items = append(items, ticketSummary(&rows[i].Ticket, rows[i].Progress))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.tickets.GetTicket(c.UserContext(), actor, id, domain.ParseStageScope(c.Query("stage")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(view)})
}

// AddInteraction POST /api/tickets/:id/interactions. Users post comments and
// replies; administrators may also open validation requests.
func (h *TicketsHandler) AddInteraction(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.CreateInteractionRequest
	form, err := multipartForm(c)
	if err != nil {
		return err
	}
	if form != nil {
		req.ActionType = domain.ActionType(c.FormValue("action_type"))
		req.Text = c.FormValue("text")
		req.Deadline = c.FormValue("deadline")
		if req.ParentID, err = optionalID(c.FormValue("parent_id")); err != nil {
			return err
		}
		if req.StageID, err = optionalID(c.FormValue("stage_id")); err != nil {
			return err
		}
	} else if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	uploads, err := formUploads(form, "attachments[]", "attachments")
	if err != nil {
		return err
	}

	var created *domain.Interaction
	switch req.ActionType {
	case "", domain.ActionComment:
		if strings.TrimSpace(req.Text) == "" && len(uploads) == 0 {
			return apperrors.NewValidationError("text or attachment required", nil)
		}
		created, err = h.engine.Record(c.UserContext(), actor, service.RecordInput{
			TicketID: ticketID,
			Text:     req.Text,
			Deadline: req.Deadline,
			ParentID: req.ParentID,
			StageID:  req.StageID,
			Uploads:  uploads,
		})
	case domain.ActionRequestValidation:
		if !actor.IsAdmin() {
			return apperrors.NewForbidden("admin role required")
		}
		created, err = h.engine.RequestValidation(c.UserContext(), actor, ticketID, req.Text, req.Deadline, req.StageID, uploads)
	default:
		return apperrors.NewValidationError("unsupported action type", map[string]any{"action_type": req.ActionType})
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": interactionResponse(created)})
}

// ProvideValidation POST /api/tickets/:id/validations/:interactionID.
func (h *TicketsHandler) ProvideValidation(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "interactionID")
	if err != nil {
		return err
	}
	var req dto.ProvideValidationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	response, err := h.engine.RespondValidation(c.UserContext(), actor, ticketID, requestID, req.Decision)
	if err != nil {
		return err
	}
	if response == nil {
		return c.SendStatus(http.StatusNoContent)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": interactionResponse(response)})
}

// DownloadAttachment GET /api/attachments/:id.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	att, f, err := h.tickets.OpenAttachment(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	c.Attachment(att.FileName)
	return c.SendStream(f, int(att.SizeBytes))
}
