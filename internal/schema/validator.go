// Package schema decodes untrusted transcription result payloads into typed documents.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"speech-batch-transcriber/internal/models"
	"speech-batch-transcriber/internal/observability/logging"
	"speech-batch-transcriber/internal/observability/metrics"
)

// rawResults uses pointers so a missing key can be told apart from an empty list.
type rawResults struct {
	Transcripts *[]models.TranscriptSegment `json:"transcripts"`
	Items       *[]models.WordItem          `json:"items"`
}

type rawDocument struct {
	JobName   string      `json:"jobName"`
	AccountID string      `json:"accountId"`
	Status    string      `json:"status"`
	Results   *rawResults `json:"results"`
}

// DecodeBytes decodes a result payload. Unknown keys are ignored.
// The returned error wraps models.ErrMalformedDocument when the payload is not a
// JSON object, a known field has the wrong type, or results lacks transcripts or items.
func DecodeBytes(data []byte) (*models.ResultDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: payload is not a JSON object", models.ErrMalformedDocument)
	}

	var raw rawDocument
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedDocument, err)
	}

	doc := &models.ResultDocument{
		JobName:   raw.JobName,
		AccountID: raw.AccountID,
		Status:    raw.Status,
	}
	if raw.Results == nil {
		return doc, nil
	}

	switch {
	case raw.Results.Transcripts == nil:
		return nil, fmt.Errorf("%w: results has no transcripts", models.ErrMalformedDocument)
	case raw.Results.Items == nil:
		return nil, fmt.Errorf("%w: results has no items", models.ErrMalformedDocument)
	}

	doc.Results = &models.ResultsSection{
		Transcripts: *raw.Results.Transcripts,
		Items:       *raw.Results.Items,
	}
	return doc, nil
}

// Validator decodes documents and records the outcome.
type Validator struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a validator. A nil metrics uses metrics.DefaultMetrics.
func New(m *metrics.Metrics) *Validator {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Validator{
		logger:  logging.WithComponent("schema"),
		metrics: m,
	}
}

// Decode reads the whole payload from r and decodes it.
func (v *Validator) Decode(r io.Reader) (*models.ResultDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return v.DecodeBytes(data)
}

// DecodeBytes decodes data and records whether the document was accepted.
func (v *Validator) DecodeBytes(data []byte) (*models.ResultDocument, error) {
	doc, err := DecodeBytes(data)
	if err != nil {
		if errors.Is(err, models.ErrMalformedDocument) {
			v.metrics.RecordDocument("malformed")
		}
		v.logger.Debug().Err(err).Int("bytes", len(data)).Msg("Result document rejected")
		return nil, err
	}

	v.metrics.RecordDocument("ok")
	v.logger.Debug().
		Str("jobName", doc.JobName).
		Str("status", doc.Status).
		Bool("hasResults", doc.HasResults()).
		Msg("Result document decoded")
	return doc, nil
}
