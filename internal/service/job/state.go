package job

import (
	"errors"
	"fmt"
	"sync"
)

// Status represents the lifecycle state of a transcription job.
type Status int

const (
	// StatusSubmitted - the service accepted the job; no status check yet.
	StatusSubmitted Status = iota
	// StatusInProgress - the job is queued or running.
	StatusInProgress
	// StatusCompleted - a transcript document is available.
	StatusCompleted
	// StatusFailed - the job ended without a transcript.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSubmitted:
		return "SUBMITTED"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the job will not change state again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus maps a provider status string onto a Status.
// QUEUED is reported by some services before a job starts and counts as in progress.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "QUEUED", "IN_PROGRESS":
		return StatusInProgress, nil
	case "COMPLETED":
		return StatusCompleted, nil
	case "FAILED":
		return StatusFailed, nil
	default:
		return StatusInProgress, fmt.Errorf("unknown job status %q", s)
	}
}

// ErrJobTerminal is returned when a status is observed after the job already finished.
var ErrJobTerminal = errors.New("job already in a terminal state")

// Lifecycle tracks the state of a single job.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	SUBMITTED ──→ IN_PROGRESS ──→ COMPLETED
//	    │           │  ↺            ↑
//	    │           └──────────→ FAILED
//	    └──────────────────────→ COMPLETED | FAILED
//
// IN_PROGRESS may repeat any number of times; terminal states accept nothing.
type Lifecycle struct {
	mu      sync.RWMutex
	jobName string
	state   Status
	polls   int
}

// NewLifecycle creates a job lifecycle in SUBMITTED state.
func NewLifecycle(jobName string) *Lifecycle {
	return &Lifecycle{
		jobName: jobName,
		state:   StatusSubmitted,
	}
}

// JobName returns the job name.
func (l *Lifecycle) JobName() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.jobName
}

// State returns the current status.
func (l *Lifecycle) State() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Polls returns how many statuses have been observed.
func (l *Lifecycle) Polls() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.polls
}

// Observe records a status returned by a status check.
func (l *Lifecycle) Observe(s Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.IsTerminal() {
		return ErrJobTerminal
	}

	switch s {
	case StatusInProgress, StatusCompleted, StatusFailed:
		l.state = s
		l.polls++
		return nil
	default:
		return fmt.Errorf("unexpected observed status: %v", s)
	}
}
