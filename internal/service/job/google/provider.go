// Package google provides a Google Cloud Speech-to-Text batch provider built
// on LongRunningRecognize operations.
package google

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"speech-batch-transcriber/internal/models"
	"speech-batch-transcriber/internal/observability"
	"speech-batch-transcriber/internal/observability/metrics"
	"speech-batch-transcriber/internal/service/job"
)

// Config holds Google provider configuration.
type Config struct {
	Endpoint  string // optional API endpoint override
	ProjectID string // optional quota/billing project
	OutputDir string // where completed result documents are written
}

// Recognizer starts and polls long-running recognition operations.
type Recognizer interface {
	Start(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (string, error)
	// Poll returns done=true with a non-nil error when the operation itself failed.
	Poll(ctx context.Context, operation string) (resp *speechpb.LongRunningRecognizeResponse, done bool, err error)
	Close() error
}

type speechRecognizer struct {
	client *speech.Client
}

func (r *speechRecognizer) Start(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (string, error) {
	op, err := r.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return "", err
	}
	return op.Name(), nil
}

func (r *speechRecognizer) Poll(ctx context.Context, operation string) (*speechpb.LongRunningRecognizeResponse, bool, error) {
	op := r.client.LongRunningRecognizeOperation(operation)
	resp, err := op.Poll(ctx)
	return resp, op.Done(), err
}

func (r *speechRecognizer) Close() error {
	return r.client.Close()
}

// Provider implements job.Provider using Google Cloud Speech-to-Text.
// Google has no job names, so the operation name is remembered per job;
// an unknown job name is treated as an operation name.
type Provider struct {
	recognizer Recognizer
	outputDir  string

	mu          sync.Mutex
	operations  map[string]string
	transcripts map[string]string
}

// New creates a Google provider.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config, m *metrics.Metrics) (*Provider, error) {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	opts := []option.ClientOption{
		option.WithGRPCDialOption(grpc.WithChainUnaryInterceptor(observability.UnaryClientInterceptor(m))),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}

	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithRecognizer(&speechRecognizer{client: c}, cfg.OutputDir), nil
}

// NewWithRecognizer wraps an existing recognizer.
func NewWithRecognizer(r Recognizer, outputDir string) *Provider {
	if outputDir == "" {
		outputDir = "."
	}
	return &Provider{
		recognizer:  r,
		outputDir:   outputDir,
		operations:  make(map[string]string),
		transcripts: make(map[string]string),
	}
}

// Name returns "google".
func (p *Provider) Name() string { return "google" }

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.recognizer.Close()
}

// StartJob starts a LongRunningRecognize operation and returns its name as the request ID.
func (p *Provider) StartJob(ctx context.Context, req job.Request) (string, error) {
	p.mu.Lock()
	_, dup := p.operations[req.JobName]
	p.mu.Unlock()
	if dup {
		return "", errors.New("job name already in use: " + req.JobName)
	}

	name, err := p.recognizer.Start(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   parseAudioEncoding(req.Format),
			SampleRateHertz:            int32(req.SampleRateHz),
			LanguageCode:               req.LanguageCode,
			EnableWordTimeOffsets:      true,
			EnableWordConfidence:       true,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: req.MediaURI},
		},
	})
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.operations[req.JobName] = name
	p.mu.Unlock()
	return name, nil
}

// JobStatus polls the operation once. A completed operation is converted to a
// result document, written under the output directory, and reported by file:// URI.
func (p *Provider) JobStatus(ctx context.Context, jobName string) (job.Snapshot, error) {
	p.mu.Lock()
	operation, ok := p.operations[jobName]
	uri := p.transcripts[jobName]
	p.mu.Unlock()
	if !ok {
		operation = jobName
	}
	if uri != "" {
		return job.Snapshot{Status: job.StatusCompleted, TranscriptURI: uri}, nil
	}

	resp, done, err := p.recognizer.Poll(ctx, operation)
	switch {
	case err != nil && done:
		return job.Snapshot{Status: job.StatusFailed, FailureReason: status.Convert(err).Message()}, nil
	case err != nil:
		return job.Snapshot{}, err
	case !done:
		return job.Snapshot{Status: job.StatusInProgress}, nil
	}

	uri, err = job.WriteDocument(p.outputDir, jobName, ToDocument(jobName, resp))
	if err != nil {
		return job.Snapshot{}, err
	}

	p.mu.Lock()
	p.transcripts[jobName] = uri
	p.mu.Unlock()
	return job.Snapshot{Status: job.StatusCompleted, TranscriptURI: uri}, nil
}

// ToDocument converts a recognition response into the single-channel result
// document shape. Result transcripts are joined into one segment; trailing
// punctuation on a word becomes its own punctuation item.
func ToDocument(jobName string, resp *speechpb.LongRunningRecognizeResponse) *models.ResultDocument {
	var parts []string
	items := []models.WordItem{}

	for _, r := range resp.GetResults() {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if t := strings.TrimSpace(alt.Transcript); t != "" {
			parts = append(parts, t)
		}

		for _, w := range alt.Words {
			word, punct := splitPunctuation(w.Word)
			conf := strconv.FormatFloat(float64(w.Confidence), 'f', 3, 32)

			if word != "" {
				start := formatOffset(w.StartTime)
				end := formatOffset(w.EndTime)
				items = append(items, models.WordItem{
					Type:         models.ItemPronunciation,
					StartTime:    &start,
					EndTime:      &end,
					Alternatives: []models.Alternative{{Content: word, Confidence: conf}},
				})
			}
			if punct != "" {
				items = append(items, models.WordItem{
					Type:         models.ItemPunctuation,
					Alternatives: []models.Alternative{{Content: punct, Confidence: "0.0"}},
				})
			}
		}
	}

	return &models.ResultDocument{
		JobName: jobName,
		Status:  models.StatusCompleted,
		Results: &models.ResultsSection{
			Transcripts: []models.TranscriptSegment{{Transcript: strings.Join(parts, " ")}},
			Items:       items,
		},
	}
}

func splitPunctuation(w string) (string, string) {
	core := strings.TrimRight(w, ".,?!;:")
	return core, w[len(core):]
}

func formatOffset(d *durationpb.Duration) string {
	return strconv.FormatFloat(d.AsDuration().Seconds(), 'f', 3, 64)
}

// parseAudioEncoding accepts Google encoding names and common container names.
// Anything else lets the service read the encoding from the file header.
func parseAudioEncoding(format string) speechpb.RecognitionConfig_AudioEncoding {
	switch format {
	case "LINEAR16", "wav":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC", "flac":
		return speechpb.RecognitionConfig_FLAC
	case "AMR", "amr":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS", "ogg":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS", "webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
