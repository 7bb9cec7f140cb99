package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	appreconciliation "github.com/sellerhub/backend/internal/application/reconciliation"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Config holds configuration for the reconciliation job runner
type Config struct {
	// Workers is the number of concurrent job workers
	Workers int
	// QueueSize is the capacity of the pending-job queue
	QueueSize int
	// JobTimeout is the maximum time one reconciliation job can run
	JobTimeout time.Duration
	// MaxTracked caps how many finished jobs stay queryable
	MaxTracked int
}

// DefaultConfig returns default runner configuration
func DefaultConfig() Config {
	return Config{
		Workers:    2,
		QueueSize:  50,
		JobTimeout: 30 * time.Minute,
		MaxTracked: 200,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Workers <= 0 || c.QueueSize <= 0 || c.JobTimeout <= 0 || c.MaxTracked <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Runner executes bulk reconciliation runs as cancellable background jobs.
// It is the in-process stand-in for an external job-queue transport: same
// contract (progress callbacks, cooperative cancel), no broker.
type Runner struct {
	config   Config
	executor appreconciliation.ExecuteService
	logger   *zap.Logger

	queue  chan *Job
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	isRunning bool
	jobs      map[uuid.UUID]*Job
	order     []uuid.UUID
}

// NewRunner creates a new reconciliation job runner
func NewRunner(config Config, executor appreconciliation.ExecuteService, logger *zap.Logger) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		config:   config,
		executor: executor,
		logger:   logger,
		queue:    make(chan *Job, config.QueueSize),
		jobs:     make(map[uuid.UUID]*Job),
	}, nil
}

// Start starts the worker pool
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}

	r.logger.Info("reconciliation job runner started",
		zap.Int("workers", r.config.Workers),
		zap.Duration("job_timeout", r.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the runner, waiting for in-flight jobs up to the
// given context's deadline.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	close(r.queue)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("reconciliation job runner stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("reconciliation job runner stop timed out")
		return ctx.Err()
	}
}

// Submit enqueues a new bulk reconciliation job for a seller
func (r *Runner) Submit(sellerID uuid.UUID, marketplaces []marketplace.Code, options appreconciliation.RunOptions) (*Job, error) {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil, ErrRunnerNotRunning
	}

	job := NewJob(sellerID, marketplaces, options)
	r.jobs[job.ID()] = job
	r.order = append(r.order, job.ID())
	r.evictLocked()
	r.mu.Unlock()

	select {
	case r.queue <- job:
		r.logger.Debug("reconciliation job submitted",
			zap.String("job_id", job.ID().String()),
			zap.String("seller_id", sellerID.String()),
		)
		return job, nil
	default:
		r.mu.Lock()
		delete(r.jobs, job.ID())
		for i, id := range r.order {
			if id == job.ID() {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
		return nil, ErrQueueFull
	}
}

// Get returns the job with the given id
func (r *Runner) Get(id uuid.UUID) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Cancel requests cooperative cancellation of a job. A running job stops
// before its next group transaction; a pending one never starts.
func (r *Runner) Cancel(id uuid.UUID) error {
	job, err := r.Get(id)
	if err != nil {
		return err
	}
	if !job.requestCancel() {
		return ErrJobNotCancellable
	}
	r.logger.Info("reconciliation job cancel requested",
		zap.String("job_id", id.String()),
		zap.String("status", string(job.currentStatus())),
	)
	return nil
}

// evictLocked drops the oldest finished jobs beyond the tracking cap.
// Caller holds r.mu.
func (r *Runner) evictLocked() {
	for len(r.order) > r.config.MaxTracked {
		oldest := r.order[0]
		if job, ok := r.jobs[oldest]; ok {
			switch job.currentStatus() {
			case StatusPending, StatusRunning:
				return // never evict live jobs
			}
			delete(r.jobs, oldest)
		}
		r.order = r.order[1:]
	}
}

func (r *Runner) worker(ctx context.Context, workerID int) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-r.queue:
			if !ok {
				return
			}
			r.runJob(ctx, job, workerID)
		}
	}
}

func (r *Runner) runJob(ctx context.Context, job *Job, workerID int) {
	jobCtx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	defer cancel()
	// Seller-scope the job context the same way the HTTP middleware does, so
	// downstream logs correlate even without a request.
	jobCtx, _ = logger.WithSellerID(jobCtx, r.logger, job.SellerID().String())

	if !job.start(cancel) {
		return
	}
	r.logger.Info("reconciliation job started",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID().String()),
		zap.String("seller_id", job.SellerID().String()),
	)

	report, err := r.executor.Execute(jobCtx, job.sellerID, job.marketplaces, job.options, job.setProgress)
	switch {
	case err == nil:
		job.complete(report)
		r.logger.Info("reconciliation job completed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID().String()),
			zap.Int("saved", report.Saved),
			zap.Int("skipped", report.Skipped),
			zap.Int("errors", len(report.Errors)),
		)
	case errors.Is(err, context.Canceled):
		job.markCancelled(report)
		r.logger.Info("reconciliation job cancelled",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID().String()),
		)
	default:
		job.fail(report, err.Error())
		r.logger.Error("reconciliation job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID().String()),
			zap.Error(err),
		)
	}
}
