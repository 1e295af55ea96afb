package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sfoufcat/coachhub/internal/models"
)

type OutboxRepository struct {
	db DBTX
}

func NewOutboxRepository(db DBTX) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Insert(ctx context.Context, id string, orgID string, kind string, payload json.RawMessage) error {
	query := `
		INSERT INTO outbox_jobs (id, org_id, kind, payload, status)
		VALUES ($1, $2, $3, $4, 'pending')
	`
	_, err := r.db.Exec(ctx, query, id, orgID, kind, payload)
	return err
}

// ClaimPending picks up to limit runnable jobs and marks them in-flight by
// bumping attempts, using SKIP LOCKED so concurrent workers never double-run
// a job.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int, now time.Time) ([]models.OutboxJob, error) {
	query := `
		UPDATE outbox_jobs
		SET attempts = attempts + 1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox_jobs
			WHERE status = 'pending' AND run_after <= $2
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, org_id, kind, payload, status, attempts, run_after, created_at, updated_at
	`
	rows, err := r.db.Query(ctx, query, limit, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]models.OutboxJob, 0)
	for rows.Next() {
		var job models.OutboxJob
		if err := rows.Scan(
			&job.ID,
			&job.OrgID,
			&job.Kind,
			&job.Payload,
			&job.Status,
			&job.Attempts,
			&job.RunAfter,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func (r *OutboxRepository) MarkDone(ctx context.Context, jobID string) error {
	query := `UPDATE outbox_jobs SET status = 'done', updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, jobID)
	return err
}

// MarkRetry reschedules a failed attempt; after maxAttempts the job parks as
// failed for manual inspection.
func (r *OutboxRepository) MarkRetry(ctx context.Context, jobID string, maxAttempts int, backoff time.Duration) error {
	query := `
		UPDATE outbox_jobs
		SET status = CASE WHEN attempts >= $2 THEN 'failed' ELSE 'pending' END,
		    run_after = NOW() + $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, jobID, maxAttempts, backoff)
	return err
}
