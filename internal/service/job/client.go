package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"speech-batch-transcriber/internal/config"
	"speech-batch-transcriber/internal/models"
	"speech-batch-transcriber/internal/observability/logging"
	"speech-batch-transcriber/internal/observability/metrics"
)

// DefaultPollInterval is the fixed delay between status checks.
const DefaultPollInterval = 5 * time.Second

// Publisher receives job lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// WaitOptions bounds AwaitCompletion. Zero MaxAttempts and zero Timeout wait indefinitely.
type WaitOptions struct {
	PollInterval time.Duration
	MaxAttempts  int
	Timeout      time.Duration
}

// DefaultWaitOptions polls every five seconds with no upper bound.
func DefaultWaitOptions() WaitOptions {
	return WaitOptions{PollInterval: DefaultPollInterval}
}

// WaitOptionsFrom converts the poll configuration.
func WaitOptionsFrom(cfg config.PollConfig) WaitOptions {
	return WaitOptions{
		PollInterval: cfg.Interval,
		MaxAttempts:  cfg.MaxAttempts,
		Timeout:      cfg.Timeout,
	}
}

// Submission is returned by a successful Submit.
type Submission struct {
	JobName     string
	RequestID   string
	SubmittedAt time.Time
}

// Result describes a job that reached a terminal status.
type Result struct {
	JobName       string
	Status        Status
	TranscriptURI string
	FailureReason string
	Elapsed       time.Duration
	Polls         int
}

// Client drives a job through submit and poll against a Provider.
type Client struct {
	provider   Provider
	publisher  Publisher
	metrics    *metrics.Metrics
	wait       WaitOptions
	httpClient *http.Client
}

// NewClient creates a lifecycle client. publisher may be nil; a nil metrics uses metrics.DefaultMetrics.
func NewClient(p Provider, publisher Publisher, m *metrics.Metrics, wait WaitOptions) *Client {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	if wait.PollInterval <= 0 {
		wait.PollInterval = DefaultPollInterval
	}
	return &Client{
		provider:   p,
		publisher:  publisher,
		metrics:    m,
		wait:       wait,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Provider returns the provider the client talks to.
func (c *Client) Provider() Provider {
	return c.provider
}

// Submit validates req and starts the job once. Validation failures are
// *config.UsageError and reach no service; service failures are *SubmissionError.
func (c *Client) Submit(ctx context.Context, req Request) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logging.WithJob(req.JobName, c.provider.Name())

	requestID, err := c.provider.StartJob(ctx, req)
	c.metrics.RecordSubmission(c.provider.Name(), err)
	if err != nil {
		log.Error().Err(err).Str("mediaUri", req.MediaURI).Msg("Job submission rejected")
		return nil, &SubmissionError{JobName: req.JobName, Provider: c.provider.Name(), Err: err}
	}

	sub := &Submission{
		JobName:     req.JobName,
		RequestID:   requestID,
		SubmittedAt: time.Now().UTC(),
	}

	log.Info().
		Str("requestId", requestID).
		Str("mediaUri", req.MediaURI).
		Str("format", req.Format).
		Str("language", req.LanguageCode).
		Int("sampleRateHz", req.SampleRateHz).
		Msg("Request submitted")

	c.publish(ctx, log, models.JobEvent{
		EventType: models.EventJobSubmitted,
		JobName:   req.JobName,
		Status:    StatusSubmitted.String(),
		RequestID: requestID,
		MediaURI:  req.MediaURI,
	})

	return sub, nil
}

// AwaitCompletion checks the job status immediately and then every poll interval
// until it is COMPLETED or FAILED. It blocks the caller. A failed status check
// ends the wait with *PollError. With default options the only other ways out
// are ctx cancellation and process termination.
func (c *Client) AwaitCompletion(ctx context.Context, jobName string) (*Result, error) {
	if jobName == "" {
		return nil, config.NewUsageError("--jobname", "a job name is required")
	}

	if c.wait.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.wait.Timeout, ErrWaitTimeout)
		defer cancel()
	}

	log := logging.WithJob(jobName, c.provider.Name())
	lc := NewLifecycle(jobName)
	start := time.Now()

	for attempt := 1; ; attempt++ {
		snap, err := c.provider.JobStatus(ctx, jobName)
		if err != nil {
			if ctx.Err() != nil {
				return nil, waitStopped(ctx)
			}
			log.Error().Err(err).Int("attempt", attempt).Msg("Status check failed")
			return nil, &PollError{JobName: jobName, Attempt: attempt, Err: err}
		}

		c.metrics.RecordPoll(c.provider.Name(), snap.Status.String())
		if err := lc.Observe(snap.Status); err != nil {
			return nil, &PollError{JobName: jobName, Attempt: attempt, Err: err}
		}

		if snap.Status.IsTerminal() {
			res := &Result{
				JobName:       jobName,
				Status:        snap.Status,
				TranscriptURI: snap.TranscriptURI,
				FailureReason: snap.FailureReason,
				Elapsed:       time.Since(start),
				Polls:         lc.Polls(),
			}
			c.finish(ctx, log, res)
			return res, nil
		}

		log.Info().Int("attempt", attempt).Msg("Not ready yet...")

		if c.wait.MaxAttempts > 0 && attempt >= c.wait.MaxAttempts {
			return nil, fmt.Errorf("%w: job %q still %v after %d checks", ErrMaxAttempts, jobName, snap.Status, attempt)
		}

		timer := time.NewTimer(c.wait.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, waitStopped(ctx)
		case <-timer.C:
		}
	}
}

// Fetch downloads the transcript document at uri. http(s) URLs are fetched
// with GET; file:// URLs and plain paths are read from disk.
func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse transcript uri: %w", err)
	}

	switch u.Scheme {
	case "":
		return os.ReadFile(uri)
	case "file":
		return os.ReadFile(u.Path)
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch transcript: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("fetch transcript: unexpected status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	default:
		return nil, fmt.Errorf("fetch transcript: unsupported scheme %q", u.Scheme)
	}
}

func (c *Client) finish(ctx context.Context, log zerolog.Logger, res *Result) {
	c.metrics.RecordJobFinished(c.provider.Name(), res.Status.String(), res.Elapsed.Seconds())

	ev := models.JobEvent{
		EventType:     models.EventJobCompleted,
		JobName:       res.JobName,
		Status:        res.Status.String(),
		TranscriptURI: res.TranscriptURI,
		FailureReason: res.FailureReason,
		ElapsedMs:     res.Elapsed.Milliseconds(),
		Polls:         res.Polls,
	}

	if res.Status == StatusFailed {
		ev.EventType = models.EventJobFailed
		log.Warn().
			Str("failureReason", res.FailureReason).
			Dur("elapsed", res.Elapsed).
			Int("polls", res.Polls).
			Msg("Job failed")
	} else {
		log.Info().
			Str("transcriptUri", res.TranscriptURI).
			Dur("elapsed", res.Elapsed).
			Int("polls", res.Polls).
			Msg("Job completed")
	}

	c.publish(ctx, log, ev)
}

// publish never fails the job; event delivery problems are only logged.
func (c *Client) publish(ctx context.Context, log zerolog.Logger, ev models.JobEvent) {
	if c.publisher == nil {
		return
	}
	ev.EventID = ulid.Make().String()
	ev.Provider = c.provider.Name()
	ev.Timestamp = time.Now().UnixMilli()

	if err := c.publisher.Publish(ctx, ev.JobName, ev); err != nil {
		log.Warn().Err(err).Str("eventType", ev.EventType).Msg("Failed to publish job event")
	}
}

func waitStopped(ctx context.Context) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrWaitTimeout) {
		return cause
	}
	return ctx.Err()
}
