// Package batch runs the extractors over a list of result document files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"speech-batch-transcriber/internal/config"
	"speech-batch-transcriber/internal/models"
	"speech-batch-transcriber/internal/observability/logging"
	"speech-batch-transcriber/internal/observability/metrics"
	"speech-batch-transcriber/internal/schema"
	"speech-batch-transcriber/internal/service/extract"
)

// Output file suffixes appended to the input path when saving.
const (
	TimestampedSuffix = "_timestamped.txt"
	TranscriptSuffix  = "_transcript.txt"
)

// ErrFilesFailed is returned by Run when at least one input could not be processed.
var ErrFilesFailed = errors.New("one or more input files failed")

// Options selects what the driver extracts and where it goes.
type Options struct {
	Transcript  bool
	Timestamped bool
	Save        bool // write <input>_*.txt files instead of stdout
	Quiet       bool
	Parallel    int
}

// Validate reports usage problems before any file is touched.
func (o Options) Validate(paths []string) error {
	if !o.Transcript && !o.Timestamped {
		return config.NewUsageError("", "You must provide either -t, -x or both.")
	}
	if len(paths) == 0 {
		return config.NewUsageError("", "At least one result document file must be provided.")
	}
	if o.Parallel < 0 {
		return config.NewUsageError("--parallel", "must not be negative, got %d", o.Parallel)
	}
	return nil
}

// FileError records why one input was skipped.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Summary describes a finished run.
type Summary struct {
	Processed int
	Written   []string
	Warnings  int
	Failed    []*FileError
}

// Driver processes result documents with the selected extractors.
type Driver struct {
	opts      Options
	out       io.Writer
	validator *schema.Validator
	metrics   *metrics.Metrics
}

// New creates a driver writing unsaved output to out. A nil metrics uses metrics.DefaultMetrics.
func New(opts Options, out io.Writer, m *metrics.Metrics) *Driver {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	return &Driver{
		opts:      opts,
		out:       out,
		validator: schema.New(m),
		metrics:   m,
	}
}

// extraction holds the rendered views of one input.
type extraction struct {
	path        string
	timestamped string
	transcript  string
	warnings    int
	err         error
}

// Run extracts every path in order. A failing file is recorded in the
// summary and the rest are still processed; Run then returns ErrFilesFailed.
func (d *Driver) Run(ctx context.Context, paths []string) (*Summary, error) {
	if err := d.opts.Validate(paths); err != nil {
		return nil, err
	}

	summary := &Summary{}

	if d.opts.Parallel == 1 {
		for _, p := range paths {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			if err := d.emit(summary, d.extract(p)); err != nil {
				return summary, err
			}
		}
		return summary, summary.err()
	}

	results := make([]extraction, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Parallel)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = d.extract(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	for _, r := range results {
		if err := d.emit(summary, r); err != nil {
			return summary, err
		}
	}
	return summary, summary.err()
}

// extract reads, decodes and renders one file. It touches no shared state.
func (d *Driver) extract(path string) extraction {
	res := extraction{path: path}
	log := logging.WithFile(path)

	data, err := os.ReadFile(path)
	if err != nil {
		res.err = err
		return res
	}

	doc, err := d.validator.DecodeBytes(data)
	if err != nil {
		res.err = err
		return res
	}

	reporter := extract.ReporterFunc(func(err error) {
		res.warnings++
		d.metrics.RecordMissingAlternative()
		log.Warn().Err(err).Msg("Skipping word item")
	})

	if d.opts.Timestamped {
		res.timestamped = extract.Timestamped(doc, reporter)
		d.metrics.RecordLines("timestamped", strings.Count(res.timestamped, "\n"))
	}
	if d.opts.Transcript {
		res.transcript = extract.Transcript(doc)
		d.metrics.RecordLines("transcript", segmentCount(doc))
	}
	return res
}

// emit writes one extraction in the original order: timestamped, then transcript.
// Only a stdout write failure is returned; file problems go into the summary.
func (d *Driver) emit(summary *Summary, r extraction) error {
	log := logging.WithFile(r.path)

	log.Info().Msgf("printing %s", r.path)

	if r.err != nil {
		log.Error().Err(r.err).Msg("Failed to process result document")
		summary.Failed = append(summary.Failed, &FileError{Path: r.path, Err: r.err})
		return nil
	}

	summary.Processed++
	summary.Warnings += r.warnings

	views := []struct {
		enabled bool
		text    string
		suffix  string
		label   string
	}{
		{d.opts.Timestamped, r.timestamped, TimestampedSuffix, "timestamped words"},
		{d.opts.Transcript, r.transcript, TranscriptSuffix, "transcript"},
	}

	for _, v := range views {
		if !v.enabled {
			continue
		}

		if !d.opts.Save {
			// Each view is followed by a blank line.
			if _, err := io.WriteString(d.out, v.text+"\n"); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			continue
		}

		target := r.path + v.suffix
		log.Info().Str("output", target).Msgf("saving %s to file %s", v.label, target)
		if err := writeFile(target, v.text); err != nil {
			log.Error().Err(err).Str("output", target).Msg("Failed to save output")
			summary.Failed = append(summary.Failed, &FileError{Path: r.path, Err: err})
			return nil
		}
		d.metrics.RecordFileWritten()
		summary.Written = append(summary.Written, target)
	}
	return nil
}

func (s *Summary) err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(s.Failed)+1)
	errs = append(errs, ErrFilesFailed)
	for _, fe := range s.Failed {
		errs = append(errs, fe)
	}
	return errors.Join(errs...)
}

func writeFile(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

func segmentCount(doc *models.ResultDocument) int {
	if !doc.HasResults() {
		return 0
	}
	return len(doc.Results.Transcripts)
}
