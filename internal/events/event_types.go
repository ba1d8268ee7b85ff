package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventInteractionRecorded EventType = "interaction_recorded"
	EventInteractionDeleted  EventType = "interaction_deleted"
	EventValidationResolved  EventType = "validation_resolved"
	EventStageChanged        EventType = "stage_changed"
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketAssigned,
	EventTicketDeleted,
	EventInteractionRecorded,
	EventInteractionDeleted,
	EventValidationResolved,
	EventStageChanged,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, ticketID int64, actor domain.ActorContext, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor.Email,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title      string            `json:"title"`
	Urgency    domain.Urgency    `json:"urgency"`
	Sector     domain.Sector     `json:"sector"`
	TicketType domain.TicketType `json:"ticket_type"`
	Stages     int               `json:"stages"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OldAssignee string `json:"old_assignee,omitempty"`
	NewAssignee string `json:"new_assignee,omitempty"`
}

// InteractionRecordedPayload payload.
type InteractionRecordedPayload struct {
	InteractionID int64             `json:"interaction_id"`
	ActionType    domain.ActionType `json:"action_type"`
	ParentID      *int64            `json:"parent_id,omitempty"`
	StageID       *int64            `json:"stage_id,omitempty"`
	TextPreview   string            `json:"text_preview,omitempty"`
}

// InteractionDeletedPayload counts the replies removed with the interaction.
type InteractionDeletedPayload struct {
	InteractionID int64             `json:"interaction_id"`
	ActionType    domain.ActionType `json:"action_type"`
	Replies       int               `json:"replies"`
}

// ValidationResolvedPayload payload.
type ValidationResolvedPayload struct {
	RequestID int64                   `json:"request_id"`
	Status    domain.ValidationStatus `json:"status"`
	Manual    bool                    `json:"manual"`
}

// StageChangedPayload payload. Change is one of added, edited, status, deleted.
type StageChangedPayload struct {
	StageID int64              `json:"stage_id"`
	Name    string             `json:"name,omitempty"`
	Status  domain.StageStatus `json:"status,omitempty"`
	Change  string             `json:"change"`
}
