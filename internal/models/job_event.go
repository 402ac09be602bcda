package models

// JobEvent is published on every transcription job lifecycle transition.
type JobEvent struct {
	EventID       string `json:"eventId"`
	EventType     string `json:"eventType"`
	JobName       string `json:"jobName"`
	Provider      string `json:"provider"`
	Status        string `json:"status"`
	RequestID     string `json:"requestId,omitempty"`
	MediaURI      string `json:"mediaUri,omitempty"`
	TranscriptURI string `json:"transcriptUri,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
	ElapsedMs     int64  `json:"elapsedMs,omitempty"`
	Polls         int    `json:"polls,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// Job event types.
const (
	EventJobSubmitted = "transcription.job.submitted"
	EventJobCompleted = "transcription.job.completed"
	EventJobFailed    = "transcription.job.failed"
)
