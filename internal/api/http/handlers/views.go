package handlers

import (
	"strconv"

	"github.com/spec-kit/support-portal/internal/api/dto"
	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/service"
)

func ticketSummary(ticket *domain.Ticket, progress float64) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              ticket.ID,
		Title:           ticket.Title,
		Urgency:         ticket.Urgency,
		Sector:          ticket.Sector,
		Status:          ticket.Status,
		TicketType:      ticket.Type,
		CreatorEmail:    ticket.CreatorEmail,
		AssigneeEmail:   ticket.AssigneeEmail,
		CreatedAt:       ticket.CreatedAt,
		Deadline:        ticket.Deadline,
		CompletedStages: ticket.CompletedStages,
		TotalStages:     ticket.TotalStages,
		Progress:        progress,
	}
}

func ticketDetail(view *service.TicketView) dto.TicketDetailResponse {
	stages := make([]dto.StageResponse, 0, len(view.Stages))
	for i := range view.Stages {
		stages = append(stages, stageResponse(&view.Stages[i]))
	}

	scope := "all"
	if id, ok := view.Scope.StageID(); ok {
		scope = strconv.FormatInt(id, 10)
	} else if view.Scope == domain.GeneralScope() {
		scope = "general"
	}

	return dto.TicketDetailResponse{
		TicketSummary: ticketSummary(&view.Ticket, view.Progress),
		Description:   view.Ticket.Description,
		Stages:        stages,
		Attachments:   attachmentResponses(view.Attachments),
		Thread:        threadResponse(view.Thread),
		Stage:         scope,
	}
}

func stageResponse(stage *domain.ProjectStage) dto.StageResponse {
	return dto.StageResponse{
		ID:       stage.ID,
		Name:     stage.Name,
		Deadline: stage.Deadline,
		Status:   stage.Status,
	}
}

func threadResponse(thread *domain.Thread) []dto.InteractionResponse {
	if thread == nil {
		return []dto.InteractionResponse{}
	}
	roots := thread.Roots()
	out := make([]dto.InteractionResponse, 0, len(roots))
	for _, root := range roots {
		resp := interactionResponse(root)
		for _, child := range thread.Children(root.ID) {
			resp.Replies = append(resp.Replies, interactionResponse(child))
		}
		out = append(out, resp)
	}
	return out
}

func interactionResponse(in *domain.Interaction) dto.InteractionResponse {
	return dto.InteractionResponse{
		ID:          in.ID,
		ActionType:  in.ActionType,
		AuthorEmail: in.AuthorEmail,
		Text:        in.Text,
		Payload:     in.Payload,
		Deadline:    in.Deadline,
		ParentID:    in.ParentID,
		StageID:     in.StageID,
		CreatedAt:   in.CreatedAt,
		Attachments: attachmentResponses(in.Attachments),
	}
}

func attachmentResponses(atts []domain.Attachment) []dto.AttachmentResponse {
	out := make([]dto.AttachmentResponse, 0, len(atts))
	for _, att := range atts {
		out = append(out, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			SizeBytes: att.SizeBytes,
			Checksum:  att.Checksum,
			CreatedAt: att.CreatedAt,
			URL:       "/api/attachments/" + strconv.FormatInt(att.ID, 10),
		})
	}
	return out
}
