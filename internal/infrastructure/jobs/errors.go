package jobs

import "errors"

var (
	// ErrInvalidConfig indicates the runner configuration is invalid
	ErrInvalidConfig = errors.New("jobs: invalid runner configuration")

	// ErrRunnerNotRunning indicates a submit against a stopped runner
	ErrRunnerNotRunning = errors.New("jobs: runner is not running")

	// ErrQueueFull indicates the job queue is at capacity
	ErrQueueFull = errors.New("jobs: job queue is full")

	// ErrJobNotFound indicates the job id is unknown
	ErrJobNotFound = errors.New("jobs: job not found")

	// ErrJobNotCancellable indicates the job already reached a terminal state
	ErrJobNotCancellable = errors.New("jobs: job already finished")
)
