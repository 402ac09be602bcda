package job

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"speech-batch-transcriber/internal/models"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// WriteDocument stores doc as <dir>/<jobName>.json and returns its file:// URI.
// Providers that do not host transcripts themselves use it to hand a
// document to Fetch and the extractor tool.
func WriteDocument(dir, jobName string, doc *models.ResultDocument) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result document: %w", err)
	}

	path := filepath.Join(dir, unsafeFileChars.ReplaceAllString(jobName, "_")+".json")
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("write result document: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
