package ports

import "context"

type AssignmentJob struct {
	ID     string
	TaskID string
}

// JobRepository supports claiming and updating task assignment jobs.
type JobRepository interface {
	EnqueueAssignment(ctx context.Context, taskID string) (jobID string, err error)
	ClaimNext(ctx context.Context) (job AssignmentJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	JobStatus(ctx context.Context, jobID string) (status string, err error)
}
