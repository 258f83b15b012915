package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PublishLogRepository persists transaction state transitions. One row per
// idempotency key, updated in place as the transaction advances; the row is
// the audit trail support reads when reconciling a partial publish.
type PublishLogRepository struct {
	pool *pgxpool.Pool
}

// NewPublishLogRepository creates a repository over the given pool.
func NewPublishLogRepository(pool *pgxpool.Pool) *PublishLogRepository {
	return &PublishLogRepository{pool: pool}
}

// Save upserts the state under its idempotency key.
func (r *PublishLogRepository) Save(ctx context.Context, state *models.TransactionState) error {
	var completedAt *time.Time
	if !state.CompletedAt.IsZero() {
		completedAt = &state.CompletedAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO publish_log (
			idempotency_key, member_ref, sheet_record_id, cms_item_id,
			stage, failed_stage, started_at, completed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (idempotency_key) DO UPDATE SET
			member_ref = EXCLUDED.member_ref,
			sheet_record_id = EXCLUDED.sheet_record_id,
			cms_item_id = EXCLUDED.cms_item_id,
			stage = EXCLUDED.stage,
			failed_stage = EXCLUDED.failed_stage,
			completed_at = EXCLUDED.completed_at,
			updated_at = now()`,
		state.IdempotencyKey,
		state.MemberRef,
		state.SheetRecordID,
		state.CMSItemID,
		string(state.Stage),
		string(state.FailedStage),
		state.StartedAt,
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save publish log entry: %w", err)
	}
	return nil
}

// Get loads the state for one idempotency key.
func (r *PublishLogRepository) Get(ctx context.Context, idempotencyKey string) (*models.TransactionState, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT idempotency_key, member_ref, sheet_record_id, cms_item_id,
		       stage, failed_stage, started_at, completed_at
		FROM publish_log
		WHERE idempotency_key = $1`,
		idempotencyKey,
	)

	var state models.TransactionState
	var stage, failedStage string
	var completedAt *time.Time
	if err := row.Scan(
		&state.IdempotencyKey,
		&state.MemberRef,
		&state.SheetRecordID,
		&state.CMSItemID,
		&stage,
		&failedStage,
		&state.StartedAt,
		&completedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to load publish log entry: %w", err)
	}
	state.Stage = models.Stage(stage)
	state.FailedStage = models.Stage(failedStage)
	if completedAt != nil {
		state.CompletedAt = *completedAt
	}
	return &state, nil
}
