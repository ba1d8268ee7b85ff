package service

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/spec-kit/support-portal/internal/domain"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/storage"
	"github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// FileStore persists raw upload bytes. storage.LocalStore implements it.
type FileStore interface {
	Admit(up storage.Upload) error
	Save(owner domain.Owner, up storage.Upload) (domain.Attachment, error)
	Open(path string) (*os.File, error)
	Remove(path string) error
}

// AttachmentStore binds uploaded files to their owning ticket or interaction.
type AttachmentStore struct {
	files       FileStore
	attachments repository.AttachmentRepository
	logger      *zap.Logger
}

// NewAttachmentStore constructs the store.
func NewAttachmentStore(files FileStore, attachments repository.AttachmentRepository, logger *zap.Logger) *AttachmentStore {
	return &AttachmentStore{files: files, attachments: attachments, logger: orNop(logger)}
}

// Admit checks every upload against the size limit before anything is
// written for the owning record.
func (s *AttachmentStore) Admit(batches ...[]storage.Upload) error {
	for _, uploads := range batches {
		for _, up := range uploads {
			if errors.Is(s.files.Admit(up), storage.ErrTooLarge) {
				return tooLarge(up)
			}
		}
	}
	return nil
}

// Attach saves every upload for owner. Uploads without a file name are
// skipped, as browsers submit empty file inputs.
func (s *AttachmentStore) Attach(ctx context.Context, owner domain.Owner, uploads []storage.Upload) ([]domain.Attachment, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	saved := make([]domain.Attachment, 0, len(uploads))
	for _, up := range uploads {
		att, err := s.files.Save(owner, up)
		switch {
		case errors.Is(err, storage.ErrEmptyName):
			continue
		case errors.Is(err, storage.ErrTooLarge):
			return saved, tooLarge(up)
		case err != nil:
			return saved, errorutil.NewInternalError(err)
		}
		if err := s.attachments.Create(ctx, &att); err != nil {
			if rmErr := s.files.Remove(att.FilePath); rmErr != nil {
				s.logger.Warn("orphaned upload", zap.String("path", att.FilePath), zap.Error(rmErr))
			}
			return saved, errorutil.NewInternalError(err)
		}
		s.logger.Debug("attachment stored",
			zap.String("owner", string(owner.Kind)),
			zap.Int64("owner_id", owner.ID),
			zap.String("file", att.FileName),
			zap.Int64("size", att.SizeBytes))
		saved = append(saved, att)
	}
	return saved, nil
}

// Get loads attachment metadata.
func (s *AttachmentStore) Get(ctx context.Context, id int64) (*domain.Attachment, error) {
	att, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "attachment", id)
	}
	return att, nil
}

// Open returns the stored bytes of att.
func (s *AttachmentStore) Open(att *domain.Attachment) (*os.File, error) {
	f, err := s.files.Open(att.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errorutil.NewNotFound("attachment file", map[string]any{"id": att.ID})
	}
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return f, nil
}

// Delete removes the attachment row. The file stays on disk.
func (s *AttachmentStore) Delete(ctx context.Context, id int64) error {
	return storeError(s.attachments.Delete(ctx, id), "attachment", id)
}

// ForTicket returns the attachments owned directly by a ticket.
func (s *AttachmentStore) ForTicket(ctx context.Context, ticketID int64) ([]domain.Attachment, error) {
	atts, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return atts, nil
}

// ForInteractions groups attachments by owning interaction id.
func (s *AttachmentStore) ForInteractions(ctx context.Context, ids []int64) (map[int64][]domain.Attachment, error) {
	atts, err := s.attachments.ListByInteractions(ctx, ids)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	grouped := make(map[int64][]domain.Attachment, len(ids))
	for _, att := range atts {
		if att.InteractionID != nil {
			grouped[*att.InteractionID] = append(grouped[*att.InteractionID], att)
		}
	}
	return grouped, nil
}

func tooLarge(up storage.Upload) error {
	return errorutil.NewValidationError("attachment too large", map[string]any{"file": up.Filename})
}
