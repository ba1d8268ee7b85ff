package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

const ticketColumns = `id, title, description, urgency, sector, status, ticket_type,
               creator_email, assignee_email, deadline, created_at`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

// NewPostgresSet wires every Postgres repository on one pool.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Tickets:      NewTicketRepository(pool),
		Interactions: NewInteractionRepository(pool),
		Stages:       NewStageRepository(pool),
		Attachments:  NewAttachmentRepository(pool),
	}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, title_search, description, urgency, sector, status, ticket_type, creator_email, assignee_email, deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		FoldTitle(ticket.Title),
		ticket.Description,
		ticket.Urgency,
		ticket.Sector,
		ticket.Status,
		ticket.Type,
		ticket.CreatorEmail,
		ticket.AssigneeEmail,
		ticket.Deadline,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, title_search=$2, description=$3, urgency=$4, sector=$5,
            status=$6, ticket_type=$7, assignee_email=$8, deadline=$9
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		FoldTitle(ticket.Title),
		ticket.Description,
		ticket.Urgency,
		ticket.Sector,
		ticket.Status,
		ticket.Type,
		ticket.AssigneeEmail,
		ticket.Deadline,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *ticketRepository) List(ctx context.Context, q TicketQuery) ([]domain.Ticket, error) {
	where, args := q.WhereSQL(func(n int) string { return fmt.Sprintf("$%d", n) })
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s`, ticketColumns, where, q.Sort.OrderSQL())
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, max(q.Offset, 0))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Urgency,
		&ticket.Sector,
		&ticket.Status,
		&ticket.Type,
		&ticket.CreatorEmail,
		&ticket.AssigneeEmail,
		&ticket.Deadline,
		&ticket.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
