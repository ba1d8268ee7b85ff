package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/spec-kit/support-portal/internal/domain"
)

type interactionRepository struct {
	db *gorm.DB
}

func (r *interactionRepository) Create(ctx context.Context, in *domain.Interaction) error {
	payload, err := domain.EncodePayload(in.Payload)
	if err != nil {
		return err
	}
	row := interactionRow{
		TicketID:    in.TicketID,
		AuthorEmail: in.AuthorEmail,
		ActionType:  string(in.ActionType),
		Text:        in.Text,
		Payload:     datatypes.JSON(payload),
		Deadline:    in.Deadline,
		ParentID:    in.ParentID,
		StageID:     in.StageID,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	in.ID = row.ID
	in.CreatedAt = row.CreatedAt
	return nil
}

func (r *interactionRepository) GetByID(ctx context.Context, id int64) (*domain.Interaction, error) {
	var row interactionRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	in, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("interaction %d: %w", row.ID, err)
	}
	return &in, nil
}

func (r *interactionRepository) UpdatePayload(ctx context.Context, in *domain.Interaction) error {
	payload, err := domain.EncodePayload(in.Payload)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &interactionRow{}, in.ID); err != nil {
			return err
		}
		return tx.Model(&interactionRow{}).Where("id = ?", in.ID).
			Update("payload", datatypes.JSON(payload)).Error
	})
}

func (r *interactionRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Interaction, error) {
	return r.list(r.db.WithContext(ctx).Where("ticket_id = ?", ticketID))
}

func (r *interactionRepository) ListChildren(ctx context.Context, parentID int64) ([]domain.Interaction, error) {
	return r.list(r.db.WithContext(ctx).Where("parent_id = ?", parentID))
}

func (r *interactionRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &interactionRow{}, id); err != nil {
			return err
		}
		ids, err := withReplies(tx, []int64{id})
		if err != nil {
			return err
		}
		return deleteInteractions(tx, ids)
	})
}

func (r *interactionRepository) list(stmt *gorm.DB) ([]domain.Interaction, error) {
	var rows []interactionRow
	if err := stmt.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Interaction, 0, len(rows))
	for _, row := range rows {
		in, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("interaction %d: %w", row.ID, err)
		}
		result = append(result, in)
	}
	return result, nil
}
