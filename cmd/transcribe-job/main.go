// Command transcribe-job submits an audio file to a batch transcription
// service and optionally waits for the job to finish.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"speech-batch-transcriber/internal/app"
	"speech-batch-transcriber/internal/config"
	"speech-batch-transcriber/internal/observability/metrics"
	"speech-batch-transcriber/internal/service/job"
	"speech-batch-transcriber/internal/service/job/aws"
	"speech-batch-transcriber/internal/service/job/google"
	"speech-batch-transcriber/internal/service/job/mock"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	jobName    string
	mediaURL   string
	format     string
	language   string
	sample     int
	xray       bool
	quiet      bool
	output     string
	configFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	req := job.Request{
		JobName:      opts.jobName,
		MediaURI:     opts.mediaURL,
		Format:       opts.format,
		LanguageCode: opts.language,
		SampleRateHz: opts.sample,
	}
	if err := req.Validate(); err != nil {
		return usage(fs, err)
	}
	if opts.output != "" && !opts.xray {
		return usage(fs, config.NewUsageError("--output", "requires --xray"))
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return usage(fs, err)
	}

	a := app.New("transcribe-job", cfg, opts.quiet)
	if err := a.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start")
		return exitError
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Shutdown(shutdownCtx)
	}()

	provider, closeProvider, err := newProvider(ctx, cfg, a.Metrics)
	if err != nil {
		log.Error().Err(err).Str("provider", cfg.Provider.Name).Msg("Failed to create transcription provider")
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer closeProvider()

	client := job.NewClient(provider, a.Publisher, a.Metrics, job.WaitOptionsFrom(cfg.Poll))

	if _, err := client.Submit(ctx, req); err != nil {
		fmt.Fprintln(stderr, err)
		var ue *config.UsageError
		if errors.As(err, &ue) {
			return exitUsage
		}
		return exitError
	}

	if !opts.xray {
		return exitOK
	}

	res, err := client.AwaitCompletion(ctx, req.JobName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	fmt.Fprintf(stdout, "processing time is %s\n", res.Elapsed.Round(time.Millisecond))
	if res.Status == job.StatusFailed {
		fmt.Fprintf(stdout, "job failed: %s\n", res.FailureReason)
		return exitError
	}
	fmt.Fprintf(stdout, "transcript URL is %s\n", res.TranscriptURI)

	if opts.output != "" {
		if err := saveDocument(ctx, client, res.TranscriptURI, opts.output); err != nil {
			fmt.Fprintln(stderr, err)
			return exitError
		}
		log.Info().Str("output", opts.output).Msg("Result document saved")
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("transcribe-job", flag.ContinueOnError)
	fs.SetOutput(stderr)

	stringFlag(fs, &opts.jobName, "j", "jobname", "Provide a name for the transcription job")
	stringFlag(fs, &opts.mediaURL, "m", "mediaurl", "Provide the URL to the source media")
	stringFlag(fs, &opts.format, "f", "format", "Provide the format for the source media")
	stringFlag(fs, &opts.language, "l", "language", "Provide the language for the source media")
	fs.IntVar(&opts.sample, "s", 0, "Provide the sample rate for the source media")
	fs.IntVar(&opts.sample, "sample", 0, "Provide the sample rate for the source media")
	boolFlag(fs, &opts.xray, "x", "xray", "Monitor the status of the transcription job")
	boolFlag(fs, &opts.quiet, "q", "quiet", "Be quiet")
	stringFlag(fs, &opts.output, "o", "output", "Save the result document to this file (with --xray)")
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: transcribe-job -j NAME -m URL -f FORMAT -l LANGUAGE -s RATE [-x] [-q] [-o FILE]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if fs.NArg() > 0 {
		return nil, fs, usageErr(fs, config.NewUsageError("", "unexpected arguments: %v", fs.Args()))
	}
	return opts, fs, nil
}

func stringFlag(fs *flag.FlagSet, p *string, short, long, help string) {
	fs.StringVar(p, short, "", help)
	fs.StringVar(p, long, "", help)
}

func boolFlag(fs *flag.FlagSet, p *bool, short, long, help string) {
	fs.BoolVar(p, short, false, help)
	fs.BoolVar(p, long, false, help)
}

func usageErr(fs *flag.FlagSet, err error) error {
	fmt.Fprintf(fs.Output(), "transcribe-job: error: %v\n", err)
	fs.Usage()
	return err
}

func usage(fs *flag.FlagSet, err error) int {
	_ = usageErr(fs, err)
	return exitUsage
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newProvider builds the configured provider and a func releasing its resources.
func newProvider(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (job.Provider, func(), error) {
	noop := func() {}

	switch cfg.Provider.Name {
	case "aws":
		p, err := aws.New(ctx, cfg.Provider.Region)
		if err != nil {
			return nil, noop, err
		}
		return p, noop, nil
	case "google":
		p, err := google.New(ctx, google.Config{
			Endpoint:  cfg.Provider.GoogleEndpoint,
			ProjectID: cfg.Provider.GoogleProjectID,
			OutputDir: cfg.Provider.OutputDir,
		}, m)
		if err != nil {
			return nil, noop, err
		}
		return p, func() {
			if err := p.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Google speech client")
			}
		}, nil
	case "mock":
		return mock.New(cfg.Provider.MockPolls, cfg.Provider.OutputDir), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}

func saveDocument(ctx context.Context, client *job.Client, uri, path string) error {
	data, err := client.Fetch(ctx, uri)
	if err != nil {
		return fmt.Errorf("fetch transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}
