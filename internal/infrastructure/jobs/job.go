package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	appreconciliation "github.com/sellerhub/backend/internal/application/reconciliation"
	"github.com/sellerhub/backend/internal/domain/marketplace"
)

// Status represents the status of a reconciliation job
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Job is one queued bulk reconciliation run. Fields are guarded by mu: the
// worker mutates them while HTTP status polls read them.
type Job struct {
	mu sync.RWMutex

	id           uuid.UUID
	sellerID     uuid.UUID
	marketplaces []marketplace.Code
	options      appreconciliation.RunOptions

	status      Status
	progress    int
	report      *appreconciliation.ExecutionReport
	errMsg      string
	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time

	cancel context.CancelFunc
}

// NewJob creates a pending reconciliation job
func NewJob(sellerID uuid.UUID, marketplaces []marketplace.Code, options appreconciliation.RunOptions) *Job {
	return &Job{
		id:           uuid.New(),
		sellerID:     sellerID,
		marketplaces: marketplaces,
		options:      options,
		status:       StatusPending,
		createdAt:    time.Now(),
	}
}

// ID returns the job identifier
func (j *Job) ID() uuid.UUID {
	return j.id
}

// SellerID returns the seller the job runs for
func (j *Job) SellerID() uuid.UUID {
	return j.sellerID
}

// start transitions the job to running. Returns false when the job was
// cancelled while still queued.
func (j *Job) start(cancel context.CancelFunc) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusPending {
		return false
	}
	now := time.Now()
	j.status = StatusRunning
	j.startedAt = &now
	j.cancel = cancel
	return true
}

// setProgress records a completion percentage. Progress is monotonic: a
// report lower than the current value is ignored.
func (j *Job) setProgress(percent int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if percent > 100 {
		percent = 100
	}
	if percent > j.progress {
		j.progress = percent
	}
}

func (j *Job) complete(report *appreconciliation.ExecutionReport) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.status = StatusSucceeded
	j.progress = 100
	j.report = report
	j.completedAt = &now
	j.cancel = nil
}

func (j *Job) fail(report *appreconciliation.ExecutionReport, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.status = StatusFailed
	j.report = report
	j.errMsg = errMsg
	j.completedAt = &now
	j.cancel = nil
}

func (j *Job) markCancelled(report *appreconciliation.ExecutionReport) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.status = StatusCancelled
	j.report = report
	j.completedAt = &now
	j.cancel = nil
}

// requestCancel asks a pending or running job to stop. A pending job is
// cancelled immediately; a running one stops before its next group
// transaction. Terminal jobs are left untouched.
func (j *Job) requestCancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.status {
	case StatusPending:
		now := time.Now()
		j.status = StatusCancelled
		j.completedAt = &now
		return true
	case StatusRunning:
		if j.cancel != nil {
			j.cancel()
		}
		return true
	default:
		return false
	}
}

func (j *Job) currentStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Snapshot is the serializable view of a job at one point in time
type Snapshot struct {
	ID           uuid.UUID                          `json:"id"`
	SellerID     uuid.UUID                          `json:"seller_id"`
	Marketplaces []marketplace.Code                 `json:"marketplaces"`
	Status       Status                             `json:"status"`
	Progress     int                                `json:"progress"`
	Report       *appreconciliation.ExecutionReport `json:"report,omitempty"`
	Error        string                             `json:"error,omitempty"`
	CreatedAt    time.Time                          `json:"created_at"`
	StartedAt    *time.Time                         `json:"started_at,omitempty"`
	CompletedAt  *time.Time                         `json:"completed_at,omitempty"`
}

// Snapshot returns a consistent copy of the job's observable state
func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Snapshot{
		ID:           j.id,
		SellerID:     j.sellerID,
		Marketplaces: j.marketplaces,
		Status:       j.status,
		Progress:     j.progress,
		Report:       j.report,
		Error:        j.errMsg,
		CreatedAt:    j.createdAt,
		StartedAt:    j.startedAt,
		CompletedAt:  j.completedAt,
	}
}
