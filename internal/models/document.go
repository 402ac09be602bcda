// Package models defines the transcription result document and job event payloads.
package models

import "errors"

// ErrMalformedDocument is returned when a result document lacks the expected structure.
var ErrMalformedDocument = errors.New("malformed result document")

// Job status values as they appear in result documents.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Word item types.
const (
	ItemPronunciation = "pronunciation"
	ItemPunctuation   = "punctuation"
)

// ResultDocument is the decoded transcription result.
// Results is nil until the job has completed.
type ResultDocument struct {
	JobName   string          `json:"jobName"`
	AccountID string          `json:"accountId,omitempty"`
	Status    string          `json:"status"`
	Results   *ResultsSection `json:"results,omitempty"`
}

// ResultsSection holds the transcript blocks and the per-token items, both in spoken order.
type ResultsSection struct {
	Transcripts []TranscriptSegment `json:"transcripts"`
	Items       []WordItem          `json:"items"`
}

// TranscriptSegment is one contiguous block of recognized speech.
type TranscriptSegment struct {
	Transcript string `json:"transcript"`
}

// WordItem is one recognized token. Punctuation items carry no timing.
type WordItem struct {
	Type         string        `json:"type"`
	StartTime    *string       `json:"start_time,omitempty"`
	EndTime      *string       `json:"end_time,omitempty"`
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one recognition hypothesis; index 0 is the accepted one.
type Alternative struct {
	Content    string `json:"content"`
	Confidence string `json:"confidence"`
}

// HasResults reports whether the document carries a results section.
func (d *ResultDocument) HasResults() bool {
	return d != nil && d.Results != nil
}

// IsPunctuation reports whether the item is a punctuation token.
func (w WordItem) IsPunctuation() bool {
	return w.Type == ItemPunctuation
}
