package postgres

import (
	"context"
	"fmt"

	"github.com/creatorjobs/creatorjobs-api/internal/saga"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OutboxRepository is the durable compensation outbox. Rows survive
// restarts, so an orphaned sheet record is eventually deleted even if the
// process died between the failed CMS create and the compensating delete.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a repository over the given pool.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, task *saga.CompensationTask) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO compensation_outbox (id, idempotency_key, sheet_record_id, attempts, last_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		task.ID,
		task.IdempotencyKey,
		task.SheetRecordID,
		task.Attempts,
		task.LastError,
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue compensation task: %w", err)
	}
	return nil
}

func (r *OutboxRepository) Pending(ctx context.Context, limit int) ([]*saga.CompensationTask, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, idempotency_key, sheet_record_id, attempts, last_error, created_at
		FROM compensation_outbox
		ORDER BY created_at
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending compensation tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*saga.CompensationTask
	for rows.Next() {
		var task saga.CompensationTask
		if err := rows.Scan(
			&task.ID,
			&task.IdempotencyKey,
			&task.SheetRecordID,
			&task.Attempts,
			&task.LastError,
			&task.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan compensation task: %w", err)
		}
		tasks = append(tasks, &task)
	}
	return tasks, rows.Err()
}

func (r *OutboxRepository) MarkDone(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM compensation_outbox WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove compensation task: %w", err)
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, lastError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE compensation_outbox
		SET attempts = attempts + 1, last_error = $2
		WHERE id = $1`,
		id, lastError,
	)
	if err != nil {
		return fmt.Errorf("failed to record compensation attempt: %w", err)
	}
	return nil
}

func (r *OutboxRepository) PendingCount(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM compensation_outbox`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count compensation tasks: %w", err)
	}
	return count, nil
}
