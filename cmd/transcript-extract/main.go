// Command transcript-extract prints or saves the transcript and the
// timestamped word table of one or more result documents.
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
	"speech-batch-transcriber/internal/service/batch"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts batch.Options
	var configFile string

	fs := flag.NewFlagSet("transcript-extract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	boolFlag(fs, &opts.Transcript, "t", "transcript", "return the transcript text")
	boolFlag(fs, &opts.Timestamped, "x", "timestamped", "return the timestamp per word")
	boolFlag(fs, &opts.Save, "s", "save", "Save the results to a file.")
	boolFlag(fs, &opts.Quiet, "q", "quiet", "Be quiet")
	fs.IntVar(&opts.Parallel, "p", 0, "number of documents to extract concurrently (default from BATCH_PARALLEL)")
	fs.IntVar(&opts.Parallel, "parallel", 0, "number of documents to extract concurrently (default from BATCH_PARALLEL)")
	fs.StringVar(&configFile, "config", "", "YAML configuration file")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: transcript-extract [options] result1.json [result2.json ...]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	paths := fs.Args()

	if err := opts.Validate(paths); err != nil {
		return usage(fs, err)
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return usage(fs, err)
	}
	if opts.Parallel == 0 {
		opts.Parallel = cfg.Batch.Parallel
	}

	a := app.New("transcript-extract", cfg, opts.Quiet)
	if err := a.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start")
		return exitError
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Shutdown(shutdownCtx)
	}()

	summary, err := batch.New(opts, stdout, a.Metrics).Run(ctx, paths)
	if summary != nil {
		log.Debug().
			Int("processed", summary.Processed).
			Int("failed", len(summary.Failed)).
			Int("warnings", summary.Warnings).
			Strs("written", summary.Written).
			Msg("Extraction finished")
	}
	if err != nil {
		var ue *config.UsageError
		if errors.As(err, &ue) {
			return usage(fs, err)
		}
		if summary != nil {
			for _, fe := range summary.Failed {
				fmt.Fprintln(stderr, fe)
			}
		}
		if !errors.Is(err, batch.ErrFilesFailed) {
			fmt.Fprintln(stderr, err)
		}
		return exitError
	}
	return exitOK
}

func boolFlag(fs *flag.FlagSet, p *bool, short, long, help string) {
	fs.BoolVar(p, short, false, help)
	fs.BoolVar(p, long, false, help)
}

func usage(fs *flag.FlagSet, err error) int {
	fmt.Fprintf(fs.Output(), "transcript-extract: error: %v\n", err)
	fs.Usage()
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
