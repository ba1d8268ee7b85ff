package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

type stageRepository struct {
	pool *pgxpool.Pool
}

// NewStageRepository builds the Postgres project stage repository.
func NewStageRepository(pool *pgxpool.Pool) StageRepository {
	return &stageRepository{pool: pool}
}

func (r *stageRepository) Create(ctx context.Context, stage *domain.ProjectStage) error {
	const query = `
        INSERT INTO project_stages (ticket_id, name, deadline, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		stage.TicketID,
		stage.Name,
		stage.Deadline,
		stage.Status,
	).Scan(&stage.ID)
}

func (r *stageRepository) Update(ctx context.Context, stage *domain.ProjectStage) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE project_stages SET name=$1, deadline=$2, status=$3 WHERE id=$4`,
		stage.Name, stage.Deadline, stage.Status, stage.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *stageRepository) GetByID(ctx context.Context, id int64) (*domain.ProjectStage, error) {
	const query = `SELECT id, ticket_id, name, deadline, status FROM project_stages WHERE id=$1`
	var stage domain.ProjectStage
	err := r.pool.QueryRow(ctx, query, id).Scan(&stage.ID, &stage.TicketID, &stage.Name, &stage.Deadline, &stage.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *stageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.ProjectStage, error) {
	const query = `
        SELECT id, ticket_id, name, deadline, status
        FROM project_stages WHERE ticket_id=$1 ORDER BY id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProjectStage
	for rows.Next() {
		var stage domain.ProjectStage
		if err := rows.Scan(&stage.ID, &stage.TicketID, &stage.Name, &stage.Deadline, &stage.Status); err != nil {
			return nil, err
		}
		result = append(result, stage)
	}
	return result, rows.Err()
}

func (r *stageRepository) CountByTickets(ctx context.Context, ticketIDs []int64) (map[int64]StageCounts, error) {
	counts := make(map[int64]StageCounts, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return counts, nil
	}
	const query = `
        SELECT ticket_id, COUNT(*), COUNT(*) FILTER (WHERE status=$2)
        FROM project_stages WHERE ticket_id = ANY($1) GROUP BY ticket_id`
	rows, err := r.pool.Query(ctx, query, ticketIDs, domain.StageStatusDone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ticketID int64
			c        StageCounts
		)
		if err := rows.Scan(&ticketID, &c.Total, &c.Completed); err != nil {
			return nil, err
		}
		counts[ticketID] = c
	}
	return counts, rows.Err()
}

func (r *stageRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM project_stages WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
