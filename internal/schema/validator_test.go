package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"speech-batch-transcriber/internal/models"
	"speech-batch-transcriber/internal/observability/metrics"
)

const scenarioA = `{"results": {"transcripts": [{"transcript": "hello world."}], "items": [` +
	`{"start_time":"0.0","end_time":"0.5","alternatives":[{"content":"hello","confidence":"0.98"}],"type":"pronunciation"},` +
	`{"start_time":"0.5","end_time":"1.0","alternatives":[{"content":"world","confidence":"0.95"}],"type":"pronunciation"},` +
	`{"alternatives":[{"content":".","confidence":"0.99"}],"type":"punctuation"}]}}`

func TestDecodeBytes_ScenarioA(t *testing.T) {
	doc, err := DecodeBytes([]byte(scenarioA))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.HasResults() {
		t.Fatal("expected results section")
	}
	if len(doc.Results.Transcripts) != 1 {
		t.Fatalf("expected 1 transcript, got %d", len(doc.Results.Transcripts))
	}
	if len(doc.Results.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(doc.Results.Items))
	}

	first := doc.Results.Items[0]
	if first.StartTime == nil || *first.StartTime != "0.0" {
		t.Errorf("expected start_time 0.0, got %v", first.StartTime)
	}
	punct := doc.Results.Items[2]
	if !punct.IsPunctuation() {
		t.Error("expected third item to be punctuation")
	}
	if punct.StartTime != nil || punct.EndTime != nil {
		t.Error("expected punctuation item to have no timing")
	}
}

func TestDecodeBytes_FullAWSDocument(t *testing.T) {
	payload := `{
		"jobName": "job-1",
		"accountId": "123456789012",
		"status": "COMPLETED",
		"results": {
			"language_code": "en-US",
			"transcripts": [{"transcript": "hi"}],
			"items": [{"start_time":"0.1","end_time":"0.2","alternatives":[{"content":"hi","confidence":"1.0"}],"type":"pronunciation"}]
		},
		"extra": {"nested": [1, 2, 3]}
	}`

	doc, err := DecodeBytes([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.JobName != "job-1" {
		t.Errorf("expected jobName 'job-1', got %s", doc.JobName)
	}
	if doc.AccountID != "123456789012" {
		t.Errorf("expected accountId, got %s", doc.AccountID)
	}
	if doc.Status != models.StatusCompleted {
		t.Errorf("expected status COMPLETED, got %s", doc.Status)
	}
}

func TestDecodeBytes_NoResults(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"absent", `{"jobName":"j","status":"IN_PROGRESS"}`},
		{"null", `{"jobName":"j","status":"IN_PROGRESS","results":null}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeBytes([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.HasResults() {
				t.Error("expected no results section")
			}
		})
	}
}

func TestDecodeBytes_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ``},
		{"array", `[1,2,3]`},
		{"string", `"results"`},
		{"null", `null`},
		{"truncated", `{"results": {"transcripts": [`},
		{"missing transcripts", `{"results": {"items": []}}`},
		{"missing items", `{"results": {"transcripts": []}}`},
		{"null items", `{"results": {"transcripts": [], "items": null}}`},
		{"empty results", `{"results": {}}`},
		{"wrong items type", `{"results": {"transcripts": [], "items": "nope"}}`},
		{"wrong results type", `{"results": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, models.ErrMalformedDocument) {
				t.Errorf("expected ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestDecodeBytes_EmptyListsAreValid(t *testing.T) {
	doc, err := DecodeBytes([]byte(`{"results": {"transcripts": [], "items": []}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.HasResults() {
		t.Fatal("expected results section")
	}
}

func TestValidator_Decode(t *testing.T) {
	v := New(metrics.NewMetrics(prometheus.NewRegistry()))

	doc, err := v.Decode(strings.NewReader(scenarioA))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Results.Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(doc.Results.Items))
	}

	if _, err := v.Decode(strings.NewReader(`{"results": {}}`)); !errors.Is(err, models.ErrMalformedDocument) {
		t.Errorf("expected ErrMalformedDocument, got %v", err)
	}
}
