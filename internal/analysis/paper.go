package analysis

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litgraph/litgraph/internal/llm"
	"github.com/litgraph/litgraph/internal/paper"
)

const (
	// SourceFullText marks analyses backed by extracted PDF text.
	SourceFullText = "full_text"
	// SourceAbstractOnly marks analyses that fell back to the abstract.
	SourceAbstractOnly = "abstract_only"
)

// frontMatter is the YAML header of an analysis Markdown file.
type frontMatter struct {
	PaperID          string   `yaml:"paper_id"`
	Title            string   `yaml:"title"`
	Authors          []string `yaml:"authors"`
	Year             int      `yaml:"year"`
	Source           string   `yaml:"source"`
	DOI              string   `yaml:"doi,omitempty"`
	AnalyzedAt       string   `yaml:"analyzed_at"`
	AnalyzedBy       string   `yaml:"analyzed_by"`
	Mode             string   `yaml:"mode"`
	SourceType       string   `yaml:"source_type"`
	QuestionsVersion int      `yaml:"questions_version"`
}

// Analyzer runs the per-paper analysis flow and writes Markdown reports.
type Analyzer struct {
	completer     llm.Completer
	analysisDir   string
	promptsDir    string
	questionsPath string
	modelName     string
	mode          string
	httpClient    *http.Client

	now func() time.Time
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerHTTPClient sets the client used for PDF downloads.
func WithAnalyzerHTTPClient(hc *http.Client) AnalyzerOption {
	return func(a *Analyzer) {
		a.httpClient = hc
	}
}

// WithClock overrides the timestamp source (for testing).
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates an analyzer writing reports under analysisDir.
// modelName and mode are recorded in each report's front matter.
func NewAnalyzer(completer llm.Completer, analysisDir, promptsDir, questionsPath, modelName, mode string, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		completer:     completer,
		analysisDir:   analysisDir,
		promptsDir:    promptsDir,
		questionsPath: questionsPath,
		modelName:     modelName,
		mode:          mode,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SafeID converts a paper identifier to a filesystem-safe file stem.
func SafeID(paperID string) string {
	return strings.NewReplacer(":", "_", "/", "_").Replace(paperID)
}

// AnalysisPath returns the report path for a paper ID.
func (a *Analyzer) AnalysisPath(paperID string) string {
	return filepath.Join(a.analysisDir, SafeID(paperID)+".md")
}

// Analyze runs the full flow for one paper. An existing report written
// against the current questions version is left alone (skipped=true); one
// written against an older version is renamed to <id>.v<N>.md first.
func (a *Analyzer) Analyze(ctx context.Context, p paper.Paper) (path string, skipped bool, err error) {
	paperID := p.PaperID
	if paperID == "" {
		paperID = p.DedupKey
	}
	if paperID == "" {
		return "", false, fmt.Errorf("paper has no identifier: %q", p.Title)
	}

	questions, currentVersion, err := llm.LoadQuestions(a.questionsPath)
	if err != nil {
		return "", false, err
	}

	mdPath := a.AnalysisPath(paperID)
	if existingVersion, ok := questionsVersionOf(mdPath); ok {
		if existingVersion == currentVersion {
			return mdPath, true, nil
		}
		oldPath := filepath.Join(a.analysisDir, fmt.Sprintf("%s.v%d.md", SafeID(paperID), existingVersion))
		if err := os.Rename(mdPath, oldPath); err != nil {
			return "", false, fmt.Errorf("archiving old analysis: %w", err)
		}
	}

	fullText, sourceType := a.fetchFullText(ctx, p)

	system, user, err := llm.LoadPrompt(a.promptsDir, "paper_analysis", map[string]any{
		"title":           p.Title,
		"authors":         strings.Join(p.Authors, ", "),
		"year":            p.Year,
		"source":          p.Source,
		"abstract":        p.Abstract,
		"full_text":       fullText,
		"questions_block": llm.FormatQuestionsBlock(questions),
	})
	if err != nil {
		return "", false, err
	}

	response, err := a.completer.Complete(ctx, system, user, llm.TierBest)
	if err != nil {
		return "", false, fmt.Errorf("analysis completion for %s: %w", paperID, err)
	}

	fm := frontMatter{
		PaperID:          paperID,
		Title:            p.Title,
		Authors:          p.Authors,
		Year:             p.Year,
		Source:           p.Source,
		DOI:              p.DOI,
		AnalyzedAt:       a.now().UTC().Format(time.RFC3339),
		AnalyzedBy:       a.modelName,
		Mode:             a.mode,
		SourceType:       sourceType,
		QuestionsVersion: currentVersion,
	}

	if err := a.writeReport(mdPath, fm, p.Title, response); err != nil {
		return "", false, err
	}
	return mdPath, false, nil
}

// fetchFullText tries the PDF route; failures fall back to abstract-only.
func (a *Analyzer) fetchFullText(ctx context.Context, p paper.Paper) (string, string) {
	if p.PDFURL == "" {
		return "", SourceAbstractOnly
	}
	text, err := DownloadAndExtract(ctx, a.httpClient, p.PDFURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: pdf extraction failed for %q: %v\n", p.Title, err)
		return "", SourceAbstractOnly
	}
	if text == "" {
		return "", SourceAbstractOnly
	}
	return text, SourceFullText
}

func (a *Analyzer) writeReport(path string, fm frontMatter, title, body string) error {
	if err := os.MkdirAll(a.analysisDir, 0755); err != nil {
		return fmt.Errorf("creating analysis dir: %w", err)
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("encoding front matter: %w", err)
	}

	var content strings.Builder
	content.WriteString("---\n")
	content.Write(header)
	content.WriteString("---\n\n")
	content.WriteString("# " + title + "\n\n")
	content.WriteString(body)
	content.WriteString("\n")

	if err := os.WriteFile(path, []byte(content.String()), 0644); err != nil {
		return fmt.Errorf("writing analysis: %w", err)
	}
	return nil
}

// questionsVersionOf reads the questions_version from a report's front
// matter. Missing or malformed files report !ok.
func questionsVersionOf(mdPath string) (int, bool) {
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return 0, false
	}

	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		return 0, false
	}
	end := strings.Index(content[4:], "---")
	if end < 0 {
		return 0, false
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(content[4:4+end]), &fm); err != nil {
		return 0, false
	}
	return fm.QuestionsVersion, true
}
