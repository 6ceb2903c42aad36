package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SaveReport writes a Markdown report under reportsDir as
// <name>_<timestamp>.md and returns its path.
func SaveReport(report, name, reportsDir string) (string, error) {
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}

	path := filepath.Join(reportsDir, fmt.Sprintf("%s_%s.md", name, time.Now().UTC().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(report), 0644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
