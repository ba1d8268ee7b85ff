package dto

import (
	"time"

	"github.com/spec-kit/support-portal/internal/domain"
)

// TicketSummary is one row of the ticket list.
type TicketSummary struct {
	ID              int64               `json:"id"`
	Title           string              `json:"title"`
	Urgency         domain.Urgency      `json:"urgency"`
	Sector          domain.Sector       `json:"sector"`
	Status          domain.TicketStatus `json:"status"`
	TicketType      domain.TicketType   `json:"ticket_type"`
	CreatorEmail    string              `json:"creator_email"`
	AssigneeEmail   *string             `json:"assignee_email"`
	CreatedAt       time.Time           `json:"created_at"`
	Deadline        *time.Time          `json:"deadline"`
	CompletedStages int                 `json:"completed_stages"`
	TotalStages     int                 `json:"total_stages"`
	Progress        float64             `json:"progress"`
}

// TicketDetailResponse provides full ticket info with its thread.
type TicketDetailResponse struct {
	TicketSummary
	Description string                `json:"description"`
	Stages      []StageResponse       `json:"stages"`
	Attachments []AttachmentResponse  `json:"attachments"`
	Thread      []InteractionResponse `json:"thread"`
	Stage       string                `json:"stage"`
}

// StageResponse represents a project stage.
type StageResponse struct {
	ID       int64              `json:"id"`
	Name     string             `json:"name"`
	Deadline *time.Time         `json:"deadline"`
	Status   domain.StageStatus `json:"status"`
}

// InteractionResponse is one thread entry. Replies are nested one level.
type InteractionResponse struct {
	ID          int64                 `json:"id"`
	ActionType  domain.ActionType     `json:"action_type"`
	AuthorEmail string                `json:"author_email"`
	Text        string                `json:"text"`
	Payload     any                   `json:"payload,omitempty"`
	Deadline    *time.Time            `json:"deadline"`
	ParentID    *int64                `json:"parent_id"`
	StageID     *int64                `json:"stage_id"`
	CreatedAt   time.Time             `json:"created_at"`
	Attachments []AttachmentResponse  `json:"attachments"`
	Replies     []InteractionResponse `json:"replies,omitempty"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        int64     `json:"id"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// IDResponse wraps the id of a created resource.
type IDResponse struct {
	ID int64 `json:"id"`
}
