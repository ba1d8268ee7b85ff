package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

const attachmentColumns = `id, ticket_id, interaction_id, file_path, file_name, size_bytes, checksum, created_at`

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs the Postgres attachment repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, interaction_id, file_path, file_name, size_bytes, checksum)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.InteractionID,
		attachment.FilePath,
		attachment.FileName,
		attachment.SizeBytes,
		attachment.Checksum,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id=$1`
	attachment, err := scanAttachment(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return attachment, err
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE ticket_id=$1 ORDER BY id ASC`
	return r.list(ctx, query, ticketID)
}

func (r *attachmentRepository) ListByInteractions(ctx context.Context, interactionIDs []int64) ([]domain.Attachment, error) {
	if len(interactionIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE interaction_id = ANY($1) ORDER BY id ASC`
	return r.list(ctx, query, interactionIDs)
}

func (r *attachmentRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *attachmentRepository) list(ctx context.Context, query string, arg any) ([]domain.Attachment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *attachment)
	}
	return result, rows.Err()
}

func scanAttachment(row pgx.Row) (*domain.Attachment, error) {
	var attachment domain.Attachment
	if err := row.Scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.InteractionID,
		&attachment.FilePath,
		&attachment.FileName,
		&attachment.SizeBytes,
		&attachment.Checksum,
		&attachment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &attachment, nil
}
