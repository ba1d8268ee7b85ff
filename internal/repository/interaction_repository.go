package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

const interactionColumns = `id, ticket_id, author_email, action_type, COALESCE(text, ''), payload,
               deadline, parent_id, project_stage_id, created_at`

type interactionRepository struct {
	pool *pgxpool.Pool
}

// NewInteractionRepository builds the Postgres interaction repository.
func NewInteractionRepository(pool *pgxpool.Pool) InteractionRepository {
	return &interactionRepository{pool: pool}
}

func (r *interactionRepository) Create(ctx context.Context, in *domain.Interaction) error {
	payload, err := encodeNullablePayload(in.Payload)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO interactions (ticket_id, author_email, action_type, text, payload, deadline, parent_id, project_stage_id)
        VALUES ($1,$2,$3,NULLIF($4, ''),$5::jsonb,$6,$7,$8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		in.TicketID,
		in.AuthorEmail,
		in.ActionType,
		in.Text,
		payload,
		in.Deadline,
		in.ParentID,
		in.StageID,
	).Scan(&in.ID, &in.CreatedAt)
}

func (r *interactionRepository) GetByID(ctx context.Context, id int64) (*domain.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE id=$1`
	in, err := scanInteraction(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return in, err
}

func (r *interactionRepository) UpdatePayload(ctx context.Context, in *domain.Interaction) error {
	payload, err := encodeNullablePayload(in.Payload)
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE interactions SET payload=$1::jsonb WHERE id=$2`, payload, in.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *interactionRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, ticketID)
}

func (r *interactionRepository) ListChildren(ctx context.Context, parentID int64) ([]domain.Interaction, error) {
	query := `SELECT ` + interactionColumns + ` FROM interactions WHERE parent_id=$1 ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, parentID)
}

func (r *interactionRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM interactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *interactionRepository) list(ctx context.Context, query string, arg any) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *in)
	}
	return result, rows.Err()
}

func scanInteraction(row pgx.Row) (*domain.Interaction, error) {
	var (
		in  domain.Interaction
		raw []byte
	)
	if err := row.Scan(
		&in.ID,
		&in.TicketID,
		&in.AuthorEmail,
		&in.ActionType,
		&in.Text,
		&raw,
		&in.Deadline,
		&in.ParentID,
		&in.StageID,
		&in.CreatedAt,
	); err != nil {
		return nil, err
	}
	payload, err := domain.DecodePayload(in.ActionType, raw)
	if err != nil {
		return nil, fmt.Errorf("interaction %d: %w", in.ID, err)
	}
	in.Payload = payload
	return &in, nil
}

// encodeNullablePayload returns the JSON document as text, or nil for SQL NULL.
func encodeNullablePayload(p domain.Payload) (*string, error) {
	raw, err := domain.EncodePayload(p)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	doc := string(raw)
	return &doc, nil
}
