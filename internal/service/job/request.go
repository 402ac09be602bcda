package job

import (
	"strings"

	"speech-batch-transcriber/internal/config"
)

// Validate reports the first missing field as a usage error.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.JobName) == "":
		return config.NewUsageError("--jobname", "a job name is required")
	case strings.TrimSpace(r.MediaURI) == "":
		return config.NewUsageError("--mediaurl", "a URL to the source media is required")
	case strings.TrimSpace(r.Format) == "":
		return config.NewUsageError("--format", "the format of the source media is required")
	case strings.TrimSpace(r.LanguageCode) == "":
		return config.NewUsageError("--language", "the language of the source media is required")
	case r.SampleRateHz <= 0:
		return config.NewUsageError("--sample", "the sample rate of the source media must be a positive integer")
	}
	return nil
}
