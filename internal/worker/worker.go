// Package worker implements the creative job execution loop.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/clock/system"
	"github.com/JakeFAU/adforge/internal/metrics"
)

// Runner executes one job payload and returns its JSON result.
type Runner interface {
	Run(ctx context.Context, kind adforge.JobKind, payload json.RawMessage) ([]byte, error)
}

// Config controls Worker behavior.
type Config struct {
	Topic   string
	Timeout time.Duration
}

// Cancels tracks the cancel functions of running jobs.
type Cancels struct {
	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewCancels constructs an empty registry.
func NewCancels() *Cancels {
	return &Cancels{running: make(map[string]context.CancelFunc)}
}

func (c *Cancels) register(jobID string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running[jobID] = cancel
}

func (c *Cancels) release(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.running, jobID)
}

// Cancel stops a running job. It reports whether the job was running.
func (c *Cancels) Cancel(jobID string) bool {
	c.mu.Lock()
	cancel, ok := c.running[jobID]
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Completion is published when a job reaches a terminal state.
type Completion struct {
	JobID     string            `json:"job_id"`
	Kind      adforge.JobKind   `json:"kind"`
	Status    adforge.JobStatus `json:"status"`
	Error     string            `json:"error,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Worker consumes queue items and runs the creative pipeline.
type Worker struct {
	queue     adforge.Queue
	jobStore  adforge.JobStore
	publisher adforge.Publisher
	runner    Runner
	clock     adforge.Clock
	cancels   *Cancels
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Worker.
func New(
	queue adforge.Queue,
	jobStore adforge.JobStore,
	publisher adforge.Publisher,
	runner Runner,
	clock adforge.Clock,
	cancels *Cancels,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cancels == nil {
		cancels = NewCancels()
	}
	if clock == nil {
		clock = system.New()
	}
	return &Worker{
		queue:     queue,
		jobStore:  jobStore,
		publisher: publisher,
		runner:    runner,
		clock:     clock,
		cancels:   cancels,
		cfg:       cfg,
		logger:    logger.Named("worker"),
	}
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, adforge.ErrQueueClosed) {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued job", zap.String("job_id", item.JobID))
		w.processJob(ctx, item)
	}
}

func (w *Worker) processJob(ctx context.Context, item adforge.QueueItem) {
	job, err := w.jobStore.GetJob(ctx, item.JobID)
	if err != nil {
		w.logger.Error("load job failed", zap.String("job_id", item.JobID), zap.Error(err))
		return
	}
	if job.Status.Terminal() {
		w.logger.Info("skipping finished job", zap.String("job_id", item.JobID), zap.String("status", string(job.Status)))
		return
	}
	if w.runner == nil {
		w.finish(ctx, item, adforge.JobStatusFailed, "no job runner configured")
		return
	}
	// The cancel func is registered before the job is visible as running so a
	// cancel that observes the running status always reaches this context.
	jobCtx, cancel := w.jobContext(ctx)
	w.cancels.register(item.JobID, cancel)
	defer cancel()
	if err := w.jobStore.UpdateJobStatus(ctx, item.JobID, adforge.JobStatusRunning, ""); err != nil {
		w.cancels.release(item.JobID)
		w.logger.Error("update job status failed", zap.String("job_id", item.JobID), zap.Error(err))
		return
	}
	if current, err := w.jobStore.GetJob(ctx, item.JobID); err == nil && current.Status.Terminal() {
		w.cancels.release(item.JobID)
		w.logger.Info("job finished before it started", zap.String("job_id", item.JobID), zap.String("status", string(current.Status)))
		return
	}

	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	result, runErr := w.runner.Run(jobCtx, item.Kind, item.Payload)
	ctxErr := jobCtx.Err()
	shutdownErr := ctx.Err()
	w.cancels.release(item.JobID)
	cancel()

	// Final bookkeeping outlives a shutdown of the worker context.
	ctx = context.WithoutCancel(ctx)
	status, errText := deriveFinalStatus(shutdownErr, ctxErr, runErr)
	if status == adforge.JobStatusSucceeded {
		if err := w.jobStore.SetJobResult(ctx, item.JobID, result); err != nil {
			w.logger.Error("store job result failed", zap.String("job_id", item.JobID), zap.Error(err))
			status, errText = adforge.JobStatusFailed, fmt.Sprintf("store result: %v", err)
		}
	}
	w.finish(ctx, item, status, errText)
}

func (w *Worker) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, w.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (w *Worker) finish(ctx context.Context, item adforge.QueueItem, status adforge.JobStatus, errText string) {
	if err := w.jobStore.UpdateJobStatus(ctx, item.JobID, status, errText); err != nil {
		// A job canceled through the API is already terminal.
		w.logger.Warn("final job status update failed", zap.String("job_id", item.JobID), zap.Error(err))
		return
	}
	metrics.ObserveJob(string(item.Kind), string(status))
	w.logger.Info("job finished",
		zap.String("job_id", item.JobID),
		zap.String("kind", string(item.Kind)),
		zap.String("status", string(status)),
		zap.String("error", errText),
	)
	w.publishCompletion(ctx, item, status, errText)
}

func (w *Worker) publishCompletion(ctx context.Context, item adforge.QueueItem, status adforge.JobStatus, errText string) {
	if w.cfg.Topic == "" || w.publisher == nil {
		return
	}
	payload := Completion{
		JobID:     item.JobID,
		Kind:      item.Kind,
		Status:    status,
		Error:     errText,
		Timestamp: w.clock.Now().UTC().Format(time.RFC3339),
	}
	if _, err := w.publisher.Publish(ctx, w.cfg.Topic, payload); err != nil {
		w.logger.Warn("publish job completion failed", zap.String("job_id", item.JobID), zap.Error(err))
	}
}

// deriveFinalStatus maps the worker context, job context and runner errors
// to a terminal status. A job interrupted by worker shutdown failed; only an
// explicit cancel yields canceled.
func deriveFinalStatus(shutdownErr, ctxErr, runErr error) (adforge.JobStatus, string) {
	switch {
	case ctxErr != nil && shutdownErr != nil:
		return adforge.JobStatusFailed, "worker shutdown"
	case errors.Is(ctxErr, context.Canceled):
		return adforge.JobStatusCanceled, "job canceled"
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return adforge.JobStatusFailed, "job timed out"
	case runErr != nil:
		return adforge.JobStatusFailed, runErr.Error()
	default:
		return adforge.JobStatusSucceeded, ""
	}
}
