// Package extract derives the plain transcript and the timestamped word table
// from a decoded result document. Extraction is pure: no I/O, no shared state.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"speech-batch-transcriber/internal/models"
)

// ErrMissingAlternative is reported for a word item that has no alternatives.
var ErrMissingAlternative = errors.New("word item has no alternatives")

// defaultTime replaces an absent start_time or end_time.
const defaultTime = "0"

// MissingAlternativeError identifies the skipped item.
type MissingAlternativeError struct {
	Index int
	Type  string
}

func (e *MissingAlternativeError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.Type, ErrMissingAlternative)
}

func (e *MissingAlternativeError) Unwrap() error {
	return ErrMissingAlternative
}

// Reporter receives per-item data-integrity problems found during extraction.
type Reporter interface {
	Warn(err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err error)

// Warn calls f(err).
func (f ReporterFunc) Warn(err error) { f(err) }

// Line is one row of the timestamped word table.
type Line struct {
	StartTime  string
	EndTime    string
	Confidence string
	Content    string
}

// String formats the row as "start end confidence content".
func (l Line) String() string {
	return l.StartTime + " " + l.EndTime + " " + l.Confidence + " " + l.Content
}

// Transcript concatenates every transcript segment followed by a newline.
// It returns "" when the document has no results.
func Transcript(doc *models.ResultDocument) string {
	if !doc.HasResults() {
		return ""
	}

	var b strings.Builder
	for _, seg := range doc.Results.Transcripts {
		b.WriteString(seg.Transcript)
		b.WriteByte('\n')
	}
	return b.String()
}

// Records projects each word item onto a Line using its first alternative.
// Items without alternatives are passed to r and left out. r may be nil.
func Records(doc *models.ResultDocument, r Reporter) []Line {
	if !doc.HasResults() {
		return nil
	}

	lines := make([]Line, 0, len(doc.Results.Items))
	for i, item := range doc.Results.Items {
		if len(item.Alternatives) == 0 {
			if r != nil {
				r.Warn(&MissingAlternativeError{Index: i, Type: item.Type})
			}
			continue
		}

		alt := item.Alternatives[0]
		lines = append(lines, Line{
			StartTime:  timeOrDefault(item.StartTime),
			EndTime:    timeOrDefault(item.EndTime),
			Confidence: alt.Confidence,
			Content:    alt.Content,
		})
	}
	return lines
}

// Timestamped renders one "start end confidence content" line per word item.
// It returns "" when the document has no results.
func Timestamped(doc *models.ResultDocument, r Reporter) string {
	var b strings.Builder
	for _, l := range Records(doc, r) {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Words joins the first-alternative content of every pronunciation item with single spaces.
func Words(doc *models.ResultDocument) string {
	if !doc.HasResults() {
		return ""
	}

	words := make([]string, 0, len(doc.Results.Items))
	for _, item := range doc.Results.Items {
		if item.IsPunctuation() || len(item.Alternatives) == 0 {
			continue
		}
		words = append(words, item.Alternatives[0].Content)
	}
	return strings.Join(words, " ")
}

func timeOrDefault(v *string) string {
	if v == nil {
		return defaultTime
	}
	return *v
}
