// Package analysis runs the per-paper analysis flow: PDF download and text
// extraction, LLM analysis against the research questions, and Markdown
// reports with YAML front matter.
package analysis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// maxPDFPages bounds extraction; anything past this is references and
	// appendices.
	maxPDFPages = 50

	// minExtractedChars below this the extraction almost certainly failed
	// (scanned PDF, encrypted, etc).
	minExtractedChars = 100
)

var (
	hyphenBreakPattern = regexp.MustCompile(`(\w)-\n(\w)`)
	pageNumberPattern  = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)
)

// ExtractText extracts plain text from the first maxPages pages of a PDF.
// Pages that fail to decode are skipped.
func ExtractText(path string, maxPages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// CleanupText normalizes extracted PDF text: merges hyphenated line breaks,
// strips standalone page numbers, collapses blank-line runs.
func CleanupText(text string) string {
	text = hyphenBreakPattern.ReplaceAllString(text, "$1$2")
	text = pageNumberPattern.ReplaceAllString(text, "")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// DownloadAndExtract fetches a PDF to a temp file, extracts and cleans its
// text, and removes the file. Returns "" (no error) when the text is too
// short to be a usable extraction; analysis falls back to the abstract.
func DownloadAndExtract(ctx context.Context, client *http.Client, pdfURL string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pdf download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "litgraph-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	text, err := ExtractText(tmpPath, maxPDFPages)
	if err != nil {
		return "", err
	}

	text = CleanupText(text)
	if len(text) < minExtractedChars {
		return "", nil
	}
	return text, nil
}
