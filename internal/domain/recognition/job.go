package recognition

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/idintake/internal/domain"
)

// Job is a single in-flight recognition. Owned by one request, never shared.
type Job struct {
	id          string
	image       []byte
	handle      Handle
	status      Status
	attempt     int
	maxAttempts int
	lines       []string
}

// NewJob creates a submitted job for the given image and poll budget.
func NewJob(image []byte, handle Handle, maxAttempts int) (*Job, error) {
	if len(image) == 0 {
		return nil, domain.ErrEmptyImage
	}
	if handle == "" {
		return nil, domain.ErrMissingJobHandle
	}
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
	}
	return &Job{
		id:          uuid.NewString(),
		image:       image,
		handle:      handle,
		status:      StatusSubmitted,
		maxAttempts: maxAttempts,
	}, nil
}

// ID returns the correlation id used in logs.
func (j *Job) ID() string { return j.id }

// Image returns the image bytes, nil once the job is terminal.
func (j *Job) Image() []byte { return j.image }

// Handle returns the recognizer job location.
func (j *Job) Handle() Handle { return j.handle }

// Status returns the current status.
func (j *Job) Status() Status { return j.status }

// Attempt returns the number of polls consumed so far.
func (j *Job) Attempt() int { return j.attempt }

// MaxAttempts returns the poll ceiling.
func (j *Job) MaxAttempts() int { return j.maxAttempts }

// Lines returns recognized lines of a succeeded job.
func (j *Job) Lines() []string { return j.lines }

// CanPoll reports whether another poll is allowed.
func (j *Job) CanPoll() bool {
	return !j.status.IsTerminal() && j.attempt < j.maxAttempts
}

// Observe applies a poll result and consumes one attempt.
// submitted -> running -> succeeded|failed; submitted may jump straight to a terminal status.
func (j *Job) Observe(s Snapshot) error {
	if j.status.IsTerminal() {
		return domain.ErrJobFinished
	}
	if s.Status == StatusTimedOut {
		return fmt.Errorf("timed-out is not an observable status")
	}
	if j.status == StatusRunning && s.Status == StatusSubmitted {
		return fmt.Errorf("invalid transition %s -> %s", j.status, s.Status)
	}
	j.attempt++
	j.status = s.Status
	if s.Status == StatusSucceeded {
		j.lines = s.Lines
		if j.lines == nil {
			j.lines = []string{}
		}
	}
	j.settle()
	return nil
}

// Miss consumes one attempt without a usable observation.
func (j *Job) Miss() error {
	if j.status.IsTerminal() {
		return domain.ErrJobFinished
	}
	j.attempt++
	j.settle()
	return nil
}

func (j *Job) settle() {
	if !j.status.IsTerminal() && j.attempt >= j.maxAttempts {
		j.status = StatusTimedOut
	}
	if j.status.IsTerminal() {
		j.image = nil
	}
}
