// Package gormrepo implements the repository interfaces on GORM for the MySQL
// and SQLite backends. Neither backend declares foreign keys, so owned rows
// are removed explicitly inside one transaction.
package gormrepo

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/spec-kit/support-portal/internal/repository"
)

// NewSet wires every GORM repository on db.
func NewSet(db *gorm.DB) repository.Set {
	return repository.Set{
		Tickets:      &ticketRepository{db: db},
		Interactions: &interactionRepository{db: db},
		Stages:       &stageRepository{db: db},
		Attachments:  &attachmentRepository{db: db},
	}
}

// Migrate creates or updates the portal tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&ticketRow{}, &stageRow{}, &interactionRow{}, &attachmentRow{}); err != nil {
		return fmt.Errorf("gormrepo: migrate: %w", err)
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}

// requireRow returns ErrNotFound unless a row of model with id exists. MySQL
// reports zero affected rows for no-op updates, so RowsAffected alone is not
// enough.
func requireRow(tx *gorm.DB, model any, id int64) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// deleteInteractions removes interactions by id together with their attachments.
func deleteInteractions(tx *gorm.DB, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("interaction_id IN ?", ids).Delete(&attachmentRow{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&interactionRow{}).Error
}

// withReplies extends roots with the ids of their direct children.
func withReplies(tx *gorm.DB, roots []int64) ([]int64, error) {
	if len(roots) == 0 {
		return nil, nil
	}
	var children []int64
	if err := tx.Model(&interactionRow{}).Where("parent_id IN ?", roots).Pluck("id", &children).Error; err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(roots)+len(children))
	out := make([]int64, 0, len(roots)+len(children))
	for _, id := range append(roots, children...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
