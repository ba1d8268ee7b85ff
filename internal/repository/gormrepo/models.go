package gormrepo

import (
	"time"

	"gorm.io/datatypes"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
)

type ticketRow struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	Title         string  `gorm:"size:150;not null"`
	TitleSearch   string  `gorm:"size:150;not null;default:'';index"`
	Description   string  `gorm:"type:text;not null"`
	Urgency       string  `gorm:"size:50;not null"`
	Sector        string  `gorm:"size:50;not null"`
	Status        string  `gorm:"size:50;not null;default:Aberto;index"`
	TicketType    string  `gorm:"size:50;not null;default:chamado"`
	CreatorEmail  string  `gorm:"size:120;not null;index"`
	AssigneeEmail *string `gorm:"size:120"`
	Deadline      *time.Time
	CreatedAt     time.Time
}

func (ticketRow) TableName() string { return "tickets" }

type stageRow struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	TicketID int64  `gorm:"not null;index"`
	Name     string `gorm:"size:150;not null"`
	Deadline *time.Time
	Status   string `gorm:"size:50;not null;default:Pendente"`
}

func (stageRow) TableName() string { return "project_stages" }

type interactionRow struct {
	ID          int64          `gorm:"primaryKey;autoIncrement"`
	TicketID    int64          `gorm:"not null;index"`
	AuthorEmail string         `gorm:"size:120;not null"`
	ActionType  string         `gorm:"size:50;not null;default:comment"`
	Text        string         `gorm:"type:text"`
	Payload     datatypes.JSON `gorm:"type:json"`
	Deadline    *time.Time
	ParentID    *int64 `gorm:"index"`
	StageID     *int64 `gorm:"column:project_stage_id;index"`
	CreatedAt   time.Time
}

func (interactionRow) TableName() string { return "interactions" }

type attachmentRow struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	TicketID      *int64 `gorm:"index"`
	InteractionID *int64 `gorm:"index"`
	FilePath      string `gorm:"size:300;not null"`
	FileName      string `gorm:"size:150;not null"`
	SizeBytes     int64
	Checksum      string `gorm:"size:128"`
	CreatedAt     time.Time
}

func (attachmentRow) TableName() string { return "attachments" }

func ticketFromDomain(t *domain.Ticket) ticketRow {
	return ticketRow{
		ID:            t.ID,
		Title:         t.Title,
		TitleSearch:   repository.FoldTitle(t.Title),
		Description:   t.Description,
		Urgency:       string(t.Urgency),
		Sector:        string(t.Sector),
		Status:        string(t.Status),
		TicketType:    string(t.Type),
		CreatorEmail:  t.CreatorEmail,
		AssigneeEmail: t.AssigneeEmail,
		Deadline:      t.Deadline,
	}
}

func (r ticketRow) toDomain() domain.Ticket {
	return domain.Ticket{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Urgency:       domain.Urgency(r.Urgency),
		Sector:        domain.Sector(r.Sector),
		Status:        domain.TicketStatus(r.Status),
		Type:          domain.TicketType(r.TicketType),
		CreatorEmail:  r.CreatorEmail,
		AssigneeEmail: r.AssigneeEmail,
		Deadline:      r.Deadline,
		CreatedAt:     r.CreatedAt,
	}
}

func (r stageRow) toDomain() domain.ProjectStage {
	return domain.ProjectStage{
		ID:       r.ID,
		TicketID: r.TicketID,
		Name:     r.Name,
		Deadline: r.Deadline,
		Status:   domain.StageStatus(r.Status),
	}
}

func (r interactionRow) toDomain() (domain.Interaction, error) {
	payload, err := domain.DecodePayload(domain.ActionType(r.ActionType), r.Payload)
	if err != nil {
		return domain.Interaction{}, err
	}
	return domain.Interaction{
		ID:          r.ID,
		TicketID:    r.TicketID,
		AuthorEmail: r.AuthorEmail,
		ActionType:  domain.ActionType(r.ActionType),
		Text:        r.Text,
		Payload:     payload,
		Deadline:    r.Deadline,
		ParentID:    r.ParentID,
		StageID:     r.StageID,
		CreatedAt:   r.CreatedAt,
	}, nil
}

func (r attachmentRow) toDomain() domain.Attachment {
	return domain.Attachment{
		ID:            r.ID,
		TicketID:      r.TicketID,
		InteractionID: r.InteractionID,
		FilePath:      r.FilePath,
		FileName:      r.FileName,
		SizeBytes:     r.SizeBytes,
		Checksum:      r.Checksum,
		CreatedAt:     r.CreatedAt,
	}
}
