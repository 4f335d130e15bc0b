package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"fleetops/internal/ports"
)

func (db *DB) EnqueueAssignment(ctx context.Context, taskID string) (string, error) {
	var jobID string
	err := db.Pool.QueryRow(ctx, `INSERT INTO assignment_jobs (task_id) VALUES ($1) RETURNING id`, taskID).Scan(&jobID)
	return jobID, mapErr("enqueue assignment", err)
}

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.AssignmentJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		SELECT id, task_id FROM assignment_jobs
		WHERE status = 'queued'
		ORDER BY queued_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`).Scan(&job.ID, &job.TaskID)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE assignment_jobs SET status = 'running', started_at = now(), attempts = attempts + 1 WHERE id = $1
	`, job.ID); err != nil {
		return job, false, err
	}
	return job, true, nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, `UPDATE assignment_jobs SET status = 'completed', finished_at = now() WHERE id = $1`, jobID)
	return affected("complete job", tag, err)
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, `
		UPDATE assignment_jobs SET status = 'failed', last_error = $2, finished_at = now() WHERE id = $1`, jobID, reason)
	return affected("fail job", tag, err)
}

func (db *DB) JobStatus(ctx context.Context, jobID string) (string, error) {
	var status string
	err := db.Pool.QueryRow(ctx, `SELECT status FROM assignment_jobs WHERE id = $1`, jobID).Scan(&status)
	return status, mapErr("job status", err)
}
