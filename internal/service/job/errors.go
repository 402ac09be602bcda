package job

import (
	"errors"
	"fmt"
)

// Errors that stop AwaitCompletion before a terminal status is seen.
var (
	ErrMaxAttempts = errors.New("job did not finish within the maximum number of status checks")
	ErrWaitTimeout = errors.New("job did not finish before the wait timeout")
)

// SubmissionError wraps any error returned by the remote service while starting a job.
// The workflow is expected to stop; submissions are never retried.
type SubmissionError struct {
	JobName  string
	Provider string
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit job %q to %s: %v", e.JobName, e.Provider, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// PollError wraps a failed status check. Polling stops on the first one.
type PollError struct {
	JobName string
	Attempt int
	Err     error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("status check %d for job %q: %v", e.Attempt, e.JobName, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}
