// Package logging provides structured logging with zerolog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	TimeFormat string // RFC3339, Unix, etc.
	Quiet      bool   // raise the level to warn, suppressing progress messages
	Output     io.Writer
}

// DefaultConfig returns the CLI logging configuration.
// Logs go to stderr so stdout only carries extraction results.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
		Output:     os.Stderr,
	}
}

// Init initializes the global zerolog logger.
func Init(cfg Config) {
	zerolog.TimeFieldFormat = cfg.TimeFormat

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Quiet && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
		}
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Logger()
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	return log.Logger
}

// WithComponent returns a logger with a component tag.
func WithComponent(component string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Logger()
}

// WithJob returns a logger with transcription job context.
func WithJob(jobName, provider string) zerolog.Logger {
	return log.With().
		Str("jobName", jobName).
		Str("provider", provider).
		Logger()
}

// WithFile returns a logger with input file context.
func WithFile(path string) zerolog.Logger {
	return log.With().
		Str("component", "batch").
		Str("file", path).
		Logger()
}
