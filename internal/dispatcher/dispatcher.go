// Package dispatcher runs the creative worker pool over the job queue.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/worker"
)

// Dispatcher owns the job queue's producer side and its worker pool.
type Dispatcher struct {
	queue   adforge.Queue
	workers []*worker.Worker
	logger  *zap.Logger

	mu   sync.Mutex
	done chan struct{}
}

// New creates a Dispatcher.
func New(queue adforge.Queue, workers []*worker.Worker, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		queue:   queue,
		workers: workers,
		logger:  logger.Named("dispatcher"),
	}
}

// Size reports the number of workers in the pool.
func (d *Dispatcher) Size() int {
	return len(d.workers)
}

// Start launches the pool and returns. Workers stop when ctx ends or the
// queue is closed; Wait observes that.
func (d *Dispatcher) Start(ctx context.Context) {
	done := make(chan struct{})
	d.mu.Lock()
	d.done = done
	d.mu.Unlock()
	go func() {
		defer close(done)
		d.run(ctx)
	}()
}

// Run starts the pool and blocks until every worker has returned.
func (d *Dispatcher) Run(ctx context.Context) {
	d.Start(ctx)
	_ = d.Wait(context.Background())
}

// Wait blocks until a started pool has stopped or ctx ends. It returns nil
// immediately when the pool was never started.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for workers: %w", ctx.Err())
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	if len(d.workers) == 0 {
		d.logger.Warn("no workers configured, submitted jobs will not run")
		<-ctx.Done()
		return
	}
	d.logger.Info("starting workers", zap.Int("count", len(d.workers)))
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	wg.Wait()
	d.logger.Info("workers stopped")
}

// Enqueue hands a job to the pool. When the queue is full it blocks until ctx
// ends and returns the context error wrapped.
func (d *Dispatcher) Enqueue(ctx context.Context, item adforge.QueueItem) error {
	if err := d.queue.Enqueue(ctx, item); err != nil {
		return fmt.Errorf("enqueue job %s: %w", item.JobID, err)
	}
	d.logger.Debug("job enqueued", zap.String("job_id", item.JobID), zap.String("kind", string(item.Kind)))
	return nil
}
