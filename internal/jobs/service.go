// Package jobs runs creative requests asynchronously: submissions are stored,
// queued and picked up by the worker pool.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/clock/system"
	"github.com/JakeFAU/adforge/internal/creative"
	"github.com/JakeFAU/adforge/internal/worker"
)

var (
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = adforge.ErrJobNotFound
	// ErrInvalidKind is returned when the job kind is not supported.
	ErrInvalidKind = errors.New("kind must be static-ads or video-ads")
	// ErrInvalidRequest wraps creative request decoding and validation errors.
	ErrInvalidRequest = errors.New("invalid job request")
	// ErrFinished is returned when canceling a job that already ended.
	ErrFinished = errors.New("job already finished")
)

// Enqueuer hands queue items to the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, item adforge.QueueItem) error
}

// Config wires a Service.
type Config struct {
	Store    adforge.JobStore
	Enqueuer Enqueuer
	IDs      adforge.IDGenerator
	Clock    adforge.Clock
	Cancels  *worker.Cancels
	Logger   *zap.Logger
}

// Service submits, inspects and cancels jobs.
type Service struct {
	store    adforge.JobStore
	enqueuer Enqueuer
	ids      adforge.IDGenerator
	clock    adforge.Clock
	cancels  *worker.Cancels
	logger   *zap.Logger
}

// NewService constructs a Service.
func NewService(cfg Config) *Service {
	s := &Service{
		store:    cfg.Store,
		enqueuer: cfg.Enqueuer,
		ids:      cfg.IDs,
		clock:    cfg.Clock,
		cancels:  cfg.Cancels,
		logger:   cfg.Logger,
	}
	if s.clock == nil {
		s.clock = system.New()
	}
	if s.cancels == nil {
		s.cancels = worker.NewCancels()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("jobs")
	return s
}

// Submit validates the request, stores a queued job and enqueues it.
func (s *Service) Submit(ctx context.Context, kind adforge.JobKind, request json.RawMessage) (adforge.Job, error) {
	if !kind.Valid() {
		return adforge.Job{}, ErrInvalidKind
	}
	if _, err := DecodeRequest(request); err != nil {
		return adforge.Job{}, err
	}
	id, err := s.ids.NewID()
	if err != nil {
		return adforge.Job{}, fmt.Errorf("job id: %w", err)
	}
	job := adforge.Job{
		ID:        id,
		Kind:      kind,
		Status:    adforge.JobStatusQueued,
		Submitted: s.clock.Now().UTC(),
		Request:   request,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return adforge.Job{}, fmt.Errorf("create job: %w", err)
	}
	item := adforge.QueueItem{JobID: id, Kind: kind, Payload: request, Attempt: 1, Submitted: job.Submitted.Unix()}
	if err := s.enqueuer.Enqueue(ctx, item); err != nil {
		if uerr := s.store.UpdateJobStatus(ctx, id, adforge.JobStatusFailed, err.Error()); uerr != nil {
			s.logger.Error("mark unqueued job failed", zap.String("job_id", id), zap.Error(uerr))
		}
		return adforge.Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	s.logger.Info("job submitted", zap.String("job_id", id), zap.String("kind", string(kind)))
	return job, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, id string) (adforge.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return adforge.Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Cancel stops a queued or running job. A running job is interrupted and the
// worker records the canceled status.
func (s *Service) Cancel(ctx context.Context, id string) (adforge.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return adforge.Job{}, err
	}
	if job.Status.Terminal() {
		return job, ErrFinished
	}
	if s.cancels.Cancel(id) {
		s.logger.Info("running job canceled", zap.String("job_id", id))
		job.Status = adforge.JobStatusCanceled
		return job, nil
	}
	if err := s.store.UpdateJobStatus(ctx, id, adforge.JobStatusCanceled, "canceled via API"); err != nil {
		return adforge.Job{}, fmt.Errorf("cancel job: %w", err)
	}
	// A worker may have started the job between the lookup and the write.
	if s.cancels.Cancel(id) {
		s.logger.Info("job canceled as it started", zap.String("job_id", id))
		return s.Get(ctx, id)
	}
	s.logger.Info("queued job canceled", zap.String("job_id", id))
	return s.Get(ctx, id)
}

// DecodeRequest parses and validates a creative request payload.
func DecodeRequest(raw json.RawMessage) (creative.Request, error) {
	var req creative.Request
	if len(raw) == 0 {
		return req, fmt.Errorf("%w: request is required", ErrInvalidRequest)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return req, nil
}
