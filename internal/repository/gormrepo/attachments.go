package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
)

type attachmentRepository struct {
	db *gorm.DB
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	row := attachmentRow{
		TicketID:      attachment.TicketID,
		InteractionID: attachment.InteractionID,
		FilePath:      attachment.FilePath,
		FileName:      attachment.FileName,
		SizeBytes:     attachment.SizeBytes,
		Checksum:      attachment.Checksum,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	attachment.ID = row.ID
	attachment.CreatedAt = row.CreatedAt
	return nil
}

func (r *attachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	var row attachmentRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	attachment := row.toDomain()
	return &attachment, nil
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Attachment, error) {
	return r.list(r.db.WithContext(ctx).Where("ticket_id = ?", ticketID))
}

func (r *attachmentRepository) ListByInteractions(ctx context.Context, interactionIDs []int64) ([]domain.Attachment, error) {
	if len(interactionIDs) == 0 {
		return nil, nil
	}
	return r.list(r.db.WithContext(ctx).Where("interaction_id IN ?", interactionIDs))
}

func (r *attachmentRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&attachmentRow{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *attachmentRepository) list(stmt *gorm.DB) ([]domain.Attachment, error) {
	var rows []attachmentRow
	if err := stmt.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Attachment, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}
