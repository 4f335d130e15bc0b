package assignrunner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"fleetops/internal/ports"
)

// Processor performs the assignment for a job's task id.
type Processor interface {
	Process(ctx context.Context, taskID string) error
}

type ProcessorFunc func(ctx context.Context, taskID string) error

func (f ProcessorFunc) Process(ctx context.Context, taskID string) error { return f(ctx, taskID) }

// Run starts a dispatcher that claims queued jobs and concurrency workers that
// process them. It blocks until ctx is cancelled and every worker has exited.
func Run(ctx context.Context, repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration, log *zap.Logger) {
	if concurrency < 1 {
		return
	}
	jobsCh := make(chan ports.AssignmentJob, concurrency)
	var wg sync.WaitGroup

	// dispatcher loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobsCh)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						if ctx.Err() == nil {
							log.Warn("job claim error", zap.Error(err))
						}
						break
					}
					if !found {
						break
					}
					select {
					case jobsCh <- job:
					case <-ctx.Done():
						_ = repo.MarkFailed(context.WithoutCancel(ctx), job.ID, "shutdown before processing")
						return
					}
				}
			}
		}
	}()

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for job := range jobsCh {
				process(ctx, repo, processor, job, log.With(zap.Int("worker", idx)))
			}
		}(i)
	}
	wg.Wait()
}

func process(ctx context.Context, repo ports.JobRepository, processor Processor, job ports.AssignmentJob, log *zap.Logger) {
	// finish bookkeeping even when shutdown cancels ctx mid-job
	done := context.WithoutCancel(ctx)
	if err := processor.Process(ctx, job.TaskID); err != nil {
		if merr := repo.MarkFailed(done, job.ID, err.Error()); merr != nil {
			log.Error("mark failed", zap.String("job_id", job.ID), zap.Error(merr))
		}
		log.Warn("assignment job failed", zap.String("job_id", job.ID), zap.String("task_id", job.TaskID), zap.Error(err))
		return
	}
	if err := repo.MarkCompleted(done, job.ID); err != nil {
		log.Error("mark completed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	log.Info("assignment job completed", zap.String("job_id", job.ID), zap.String("task_id", job.TaskID))
}
