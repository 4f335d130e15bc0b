package assignrunner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"fleetops/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunProcessesQueuedJobs(t *testing.T) {
	mem := testutil.NewMemory()
	ctx := context.Background()
	okJob, err := mem.EnqueueAssignment(ctx, "task-ok")
	require.NoError(t, err)
	badJob, err := mem.EnqueueAssignment(ctx, "task-bad")
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []string
	)
	proc := ProcessorFunc(func(_ context.Context, taskID string) error {
		mu.Lock()
		seen = append(seen, taskID)
		mu.Unlock()
		if taskID == "task-bad" {
			return errors.New("no eligible technician")
		}
		return nil
	})

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		Run(runCtx, mem, proc, 2, 5*time.Millisecond, zap.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return mem.JobSnapshot(okJob).Status == "completed" && mem.JobSnapshot(badJob).Status == "failed"
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "no eligible technician", mem.JobSnapshot(badJob).Reason)
	mu.Lock()
	assert.ElementsMatch(t, []string{"task-ok", "task-bad"}, seen)
	mu.Unlock()
}

func TestRunWithoutWorkersReturns(t *testing.T) {
	Run(context.Background(), testutil.NewMemory(), ProcessorFunc(func(context.Context, string) error { return nil }), 0, time.Millisecond, zap.NewNop())
}
