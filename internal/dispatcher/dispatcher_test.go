package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	queuememory "github.com/JakeFAU/adforge/internal/queue/memory"
	"github.com/JakeFAU/adforge/internal/storage/memory"
	"github.com/JakeFAU/adforge/internal/worker"
)

// TestDispatcherRunStartsWorkers ensures workers begin processing and stop on cancel.
func TestDispatcherRunStartsWorkers(t *testing.T) {
	t.Parallel()

	queue := &blockingQueue{started: make(chan struct{}, 1)}
	w := worker.New(queue, nil, nil, nil, nil, nil, worker.Config{}, zap.NewNop())
	dispatch := New(queue, []*worker.Worker{w}, zap.NewNop())
	require.Equal(t, 1, dispatch.Size())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatch.Run(ctx)
		close(done)
	}()

	select {
	case <-queue.started:
	case <-time.After(time.Second):
		t.Fatal("worker did not begin dequeuing")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after context cancel")
	}
}

// TestDispatcherEnqueueForwardsErrors verifies queue errors are wrapped for callers.
func TestDispatcherEnqueueForwardsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	dispatch := New(&errorQueue{err: boom}, nil, nil)
	err := dispatch.Enqueue(context.Background(), adforge.QueueItem{JobID: "job-1"})
	require.EqualError(t, err, "enqueue job job-1: boom")
	require.ErrorIs(t, err, boom)
}

func TestDispatcherRunWithoutWorkersWaitsForContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	New(&errorQueue{}, nil, nil).Run(ctx)
	require.Error(t, ctx.Err())
}

type blockingRunner struct {
	started chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context, _ adforge.JobKind, _ json.RawMessage) ([]byte, error) {
	close(r.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDispatcherWaitDrainsInFlightJobs(t *testing.T) {
	t.Parallel()

	queue := queuememory.NewQueue(1)
	store := memory.NewJobStore()
	runner := &blockingRunner{started: make(chan struct{})}
	w := worker.New(queue, store, nil, runner, nil, nil, worker.Config{}, zap.NewNop())
	dispatch := New(queue, []*worker.Worker{w}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	dispatch.Start(ctx)
	require.NoError(t, store.CreateJob(ctx, adforge.Job{ID: "job-1", Status: adforge.JobStatusQueued}))
	require.NoError(t, dispatch.Enqueue(ctx, adforge.QueueItem{JobID: "job-1"}))

	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("job did not start")
	}
	cancel()
	queue.Close()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, dispatch.Wait(waitCtx))

	job, err := store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, adforge.JobStatusFailed, job.Status)
	require.Equal(t, "worker shutdown", job.ErrorText)
}

func TestDispatcherWaitBeforeStartAndDeadline(t *testing.T) {
	t.Parallel()

	dispatch := New(&blockingQueue{started: make(chan struct{}, 1)}, nil, nil)
	require.NoError(t, dispatch.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatch.Start(ctx)
	short, shortCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer shortCancel()
	require.ErrorIs(t, dispatch.Wait(short), context.DeadlineExceeded)
}

type blockingQueue struct {
	started chan struct{}
}

func (q *blockingQueue) Enqueue(context.Context, adforge.QueueItem) error {
	return nil
}

func (q *blockingQueue) Dequeue(ctx context.Context) (adforge.QueueItem, error) {
	select {
	case q.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return adforge.QueueItem{}, fmt.Errorf("blocking dequeue canceled: %w", ctx.Err())
}

type errorQueue struct {
	err error
}

func (q *errorQueue) Enqueue(context.Context, adforge.QueueItem) error {
	return q.err
}

func (q *errorQueue) Dequeue(context.Context) (adforge.QueueItem, error) {
	return adforge.QueueItem{}, nil
}
