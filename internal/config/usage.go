package config

import "fmt"

// UsageError reports missing or invalid command-line arguments.
// No work has been performed when it is returned.
type UsageError struct {
	Flag    string
	Message string
}

func (e *UsageError) Error() string {
	if e.Flag == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Flag, e.Message)
}

// NewUsageError builds a UsageError for flag.
func NewUsageError(flag, format string, args ...any) *UsageError {
	return &UsageError{Flag: flag, Message: fmt.Sprintf(format, args...)}
}
