package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/support-portal/internal/domain"
)

// ErrNotFound is returned by lookups of a missing row, whatever the backend.
var ErrNotFound = errors.New("repository: record not found")

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, query TicketQuery) ([]domain.Ticket, error)
	// Delete removes the ticket with its stages, interactions and attachments.
	Delete(ctx context.Context, id int64) error
}

// InteractionRepository manages ticket thread entries.
type InteractionRepository interface {
	Create(ctx context.Context, interaction *domain.Interaction) error
	GetByID(ctx context.Context, id int64) (*domain.Interaction, error)
	// UpdatePayload rewrites only the payload document of an interaction.
	UpdatePayload(ctx context.Context, interaction *domain.Interaction) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Interaction, error)
	ListChildren(ctx context.Context, parentID int64) ([]domain.Interaction, error)
	// Delete removes the interaction with its children and attachments.
	Delete(ctx context.Context, id int64) error
}

// StageRepository manages project stages.
type StageRepository interface {
	Create(ctx context.Context, stage *domain.ProjectStage) error
	Update(ctx context.Context, stage *domain.ProjectStage) error
	GetByID(ctx context.Context, id int64) (*domain.ProjectStage, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.ProjectStage, error)
	CountByTickets(ctx context.Context, ticketIDs []int64) (map[int64]StageCounts, error)
	// Delete removes the stage with its scoped interactions and their attachments.
	Delete(ctx context.Context, id int64) error
}

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id int64) (*domain.Attachment, error)
	// ListByTicket returns attachments owned directly by the ticket.
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Attachment, error)
	ListByInteractions(ctx context.Context, interactionIDs []int64) ([]domain.Attachment, error)
	Delete(ctx context.Context, id int64) error
}

// StageCounts aggregates stage progress for one ticket.
type StageCounts struct {
	Completed int
	Total     int
}

// Set bundles the repositories of one backend.
type Set struct {
	Tickets      TicketRepository
	Interactions InteractionRepository
	Stages       StageRepository
	Attachments  AttachmentRepository
}
