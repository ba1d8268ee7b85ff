package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
)

type stageRepository struct {
	db *gorm.DB
}

func (r *stageRepository) Create(ctx context.Context, stage *domain.ProjectStage) error {
	row := stageRow{
		TicketID: stage.TicketID,
		Name:     stage.Name,
		Deadline: stage.Deadline,
		Status:   string(stage.Status),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	stage.ID = row.ID
	return nil
}

func (r *stageRepository) Update(ctx context.Context, stage *domain.ProjectStage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &stageRow{}, stage.ID); err != nil {
			return err
		}
		return tx.Model(&stageRow{}).Where("id = ?", stage.ID).Updates(map[string]any{
			"name":     stage.Name,
			"deadline": stage.Deadline,
			"status":   string(stage.Status),
		}).Error
	})
}

func (r *stageRepository) GetByID(ctx context.Context, id int64) (*domain.ProjectStage, error) {
	var row stageRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	stage := row.toDomain()
	return &stage, nil
}

func (r *stageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.ProjectStage, error) {
	var rows []stageRow
	if err := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.ProjectStage, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (r *stageRepository) CountByTickets(ctx context.Context, ticketIDs []int64) (map[int64]repository.StageCounts, error) {
	counts := make(map[int64]repository.StageCounts, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		TicketID  int64
		Total     int
		Completed int
	}
	err := r.db.WithContext(ctx).Model(&stageRow{}).
		Select("ticket_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed", string(domain.StageStatusDone)).
		Where("ticket_id IN ?", ticketIDs).
		Group("ticket_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TicketID] = repository.StageCounts{Completed: row.Completed, Total: row.Total}
	}
	return counts, nil
}

func (r *stageRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &stageRow{}, id); err != nil {
			return err
		}
		var scoped []int64
		if err := tx.Model(&interactionRow{}).Where("project_stage_id = ?", id).Pluck("id", &scoped).Error; err != nil {
			return err
		}
		ids, err := withReplies(tx, scoped)
		if err != nil {
			return err
		}
		if err := deleteInteractions(tx, ids); err != nil {
			return err
		}
		return tx.Delete(&stageRow{}, id).Error
	})
}
