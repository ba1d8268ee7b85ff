package dto

import "github.com/spec-kit/support-portal/internal/domain"

// AdminUpdateTicketRequest payload. Omitted fields are left untouched.
type AdminUpdateTicketRequest struct {
	Status        *domain.TicketStatus `json:"status"`
	AssigneeEmail *string              `json:"assignee_email"`
}

// ValidationStatusRequest payload for an administrative override.
type ValidationStatusRequest struct {
	Status domain.ValidationStatus `json:"status"`
}

// StageStatusRequest payload.
type StageStatusRequest struct {
	Status domain.StageStatus `json:"status"`
}

// StageStatusResponse reports whether the stage existed.
type StageStatusResponse struct {
	Updated bool `json:"updated"`
}

// CreateInteractionRequest is the JSON form of a new interaction. Multipart
// requests carry the same fields as form values plus attachments[].
type CreateInteractionRequest struct {
	ActionType domain.ActionType `json:"action_type"`
	Text       string            `json:"text"`
	Deadline   string            `json:"deadline"`
	ParentID   *int64            `json:"parent_id"`
	StageID    *int64            `json:"stage_id"`
}

// ProvideValidationRequest payload.
type ProvideValidationRequest struct {
	Decision domain.ValidationStatus `json:"decision"`
}
