package recognition

import "fmt"

// Status is the lifecycle state of a recognition job.
type Status string

const (
	// StatusSubmitted means the recognizer accepted the job but has not started it.
	StatusSubmitted Status = "submitted"
	// StatusRunning means the recognizer is processing the image.
	StatusRunning Status = "running"
	// StatusSucceeded is terminal: lines are available.
	StatusSucceeded Status = "succeeded"
	// StatusFailed is terminal: the recognizer gave up on the image.
	StatusFailed Status = "failed"
	// StatusTimedOut is terminal: the poll budget ran out.
	StatusTimedOut Status = "timed-out"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusTimedOut
}

// ParseUpstreamStatus maps the recognizer wire status to a job status.
func ParseUpstreamStatus(s string) (Status, error) {
	switch s {
	case "notStarted":
		return StatusSubmitted, nil
	case "running":
		return StatusRunning, nil
	case "succeeded":
		return StatusSucceeded, nil
	case "failed":
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("unknown recognizer status %q", s)
	}
}

// Handle is the opaque job location returned by the recognizer on submission.
type Handle string

// Snapshot is one poll observation.
type Snapshot struct {
	Status Status
	Lines  []string // set only when Status is StatusSucceeded
}
