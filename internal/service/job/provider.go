// Package job submits transcription jobs to a remote service and waits for them to finish.
package job

import "context"

// Request describes one transcription job submission.
type Request struct {
	JobName      string
	MediaURI     string
	Format       string
	LanguageCode string
	SampleRateHz int
}

// Snapshot is the result of one status check.
type Snapshot struct {
	Status        Status
	TranscriptURI string
	FailureReason string
}

// Provider is the remote transcription service boundary (AWS, Google, mock).
type Provider interface {
	// Name identifies the provider in logs, metrics and events.
	Name() string

	// StartJob submits the job and returns the service request ID.
	StartJob(ctx context.Context, req Request) (string, error)

	// JobStatus performs a single status check.
	JobStatus(ctx context.Context, jobName string) (Snapshot, error)
}
