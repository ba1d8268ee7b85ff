package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
)

type ticketRepository struct {
	db *gorm.DB
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	row := ticketFromDomain(ticket)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	ticket.ID = row.ID
	ticket.CreatedAt = row.CreatedAt
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &ticketRow{}, ticket.ID); err != nil {
			return err
		}
		return tx.Model(&ticketRow{}).Where("id = ?", ticket.ID).Updates(map[string]any{
			"title":          ticket.Title,
			"title_search":   repository.FoldTitle(ticket.Title),
			"description":    ticket.Description,
			"urgency":        string(ticket.Urgency),
			"sector":         string(ticket.Sector),
			"status":         string(ticket.Status),
			"ticket_type":    string(ticket.Type),
			"assignee_email": ticket.AssigneeEmail,
			"deadline":       ticket.Deadline,
		}).Error
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	var row ticketRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	ticket := row.toDomain()
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, q repository.TicketQuery) ([]domain.Ticket, error) {
	where, args := q.WhereSQL(func(int) string { return "?" })
	stmt := r.db.WithContext(ctx).Where(where, args...).Order(q.Sort.OrderSQL())
	if q.Limit > 0 {
		stmt = stmt.Limit(q.Limit).Offset(max(q.Offset, 0))
	}

	var rows []ticketRow
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Ticket, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &ticketRow{}, id); err != nil {
			return err
		}
		var interactionIDs []int64
		if err := tx.Model(&interactionRow{}).Where("ticket_id = ?", id).Pluck("id", &interactionIDs).Error; err != nil {
			return err
		}
		if err := deleteInteractions(tx, interactionIDs); err != nil {
			return err
		}
		if err := tx.Where("ticket_id = ?", id).Delete(&attachmentRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ticket_id = ?", id).Delete(&stageRow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ticketRow{}, id).Error
	})
}
