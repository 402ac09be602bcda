// Package mock provides an offline transcription provider for dry runs and tests.
// Each job reports IN_PROGRESS a configurable number of times and then
// COMPLETED with a canned single-speaker result document.
package mock

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"speech-batch-transcriber/internal/models"
	"speech-batch-transcriber/internal/service/job"
)

// SimulatedUtterance is the speech a mock job "recognizes".
type SimulatedUtterance struct {
	Text       string
	Confidence float64
}

// DefaultUtterances provides sample utterances; jobs cycle through them.
var DefaultUtterances = []SimulatedUtterance{
	{Text: "I want to cancel my subscription", Confidence: 0.94},
	{Text: "Yes please go ahead", Confidence: 0.97},
	{Text: "Can you help me with my account", Confidence: 0.91},
	{Text: "I've been waiting for over an hour", Confidence: 0.89},
	{Text: "Thank you very much", Confidence: 0.98},
}

// FailScheme marks media URIs whose jobs end in FAILED.
const FailScheme = "fail://"

// wordDuration is the simulated length of each spoken word in seconds.
const wordDuration = 0.4

type mockJob struct {
	req           job.Request
	utterance     SimulatedUtterance
	polls         int
	transcriptURI string
}

// Provider implements job.Provider without any network access.
type Provider struct {
	mu              sync.Mutex
	inProgressPolls int
	outputDir       string
	jobs            map[string]*mockJob
	counter         int
}

// New creates a mock provider. Completed documents are written to outputDir;
// an empty outputDir reports mock:// transcript URIs instead.
func New(inProgressPolls int, outputDir string) *Provider {
	if inProgressPolls < 0 {
		inProgressPolls = 0
	}
	return &Provider{
		inProgressPolls: inProgressPolls,
		outputDir:       outputDir,
		jobs:            make(map[string]*mockJob),
	}
}

// Name returns "mock".
func (p *Provider) Name() string { return "mock" }

// StartJob registers the job. Job names must be unique, like on the real services.
func (p *Provider) StartJob(ctx context.Context, req job.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.jobs[req.JobName]; ok {
		return "", fmt.Errorf("ConflictException: the requested job name already exists: %s", req.JobName)
	}

	utt := DefaultUtterances[p.counter%len(DefaultUtterances)]
	p.counter++
	p.jobs[req.JobName] = &mockJob{req: req, utterance: utt}

	return fmt.Sprintf("mock-request-%d", p.counter), nil
}

// JobStatus advances the simulated job by one status check.
func (p *Provider) JobStatus(ctx context.Context, jobName string) (job.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	j, ok := p.jobs[jobName]
	if !ok {
		return job.Snapshot{}, fmt.Errorf("BadRequestException: the requested job couldn't be found: %s", jobName)
	}

	j.polls++
	if j.polls <= p.inProgressPolls {
		return job.Snapshot{Status: job.StatusInProgress}, nil
	}

	if strings.HasPrefix(j.req.MediaURI, FailScheme) {
		return job.Snapshot{
			Status:        job.StatusFailed,
			FailureReason: "The media file could not be read: " + j.req.MediaURI,
		}, nil
	}

	if j.transcriptURI == "" {
		uri, err := p.transcriptURI(jobName, j)
		if err != nil {
			return job.Snapshot{}, err
		}
		j.transcriptURI = uri
	}
	return job.Snapshot{Status: job.StatusCompleted, TranscriptURI: j.transcriptURI}, nil
}

func (p *Provider) transcriptURI(jobName string, j *mockJob) (string, error) {
	if p.outputDir == "" {
		return "mock://" + jobName, nil
	}
	return job.WriteDocument(p.outputDir, jobName, Document(jobName, j.utterance))
}

// Document builds the completed result document for an utterance:
// one pronunciation item per word and a trailing full stop.
func Document(jobName string, utt SimulatedUtterance) *models.ResultDocument {
	words := strings.Fields(utt.Text)
	conf := strconv.FormatFloat(utt.Confidence, 'f', 2, 64)

	items := make([]models.WordItem, 0, len(words)+1)
	for i, w := range words {
		start := formatSeconds(float64(i) * wordDuration)
		end := formatSeconds(float64(i+1) * wordDuration)
		items = append(items, models.WordItem{
			Type:         models.ItemPronunciation,
			StartTime:    &start,
			EndTime:      &end,
			Alternatives: []models.Alternative{{Content: w, Confidence: conf}},
		})
	}
	items = append(items, models.WordItem{
		Type:         models.ItemPunctuation,
		Alternatives: []models.Alternative{{Content: ".", Confidence: "0.0"}},
	})

	return &models.ResultDocument{
		JobName: jobName,
		Status:  models.StatusCompleted,
		Results: &models.ResultsSection{
			Transcripts: []models.TranscriptSegment{{Transcript: utt.Text + "."}},
			Items:       items,
		},
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
