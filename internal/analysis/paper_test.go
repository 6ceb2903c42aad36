package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/litgraph/litgraph/internal/llm"
	"github.com/litgraph/litgraph/internal/paper"
)

type fakeCompleter struct {
	response string
	calls    int
	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string, _ llm.Tier) (string, error) {
	f.calls++
	f.lastUser = user
	return f.response, nil
}

const analysisPrompt = `
system: |
  You analyze papers.
template: |
  Title: {{.title}}
  Authors: {{.authors}}
  Year: {{.year}}
  Source: {{.source}}
  Abstract: {{.abstract}}
  Full text: {{.full_text}}

  {{.questions_block}}
`

func newTestAnalyzer(t *testing.T, completer llm.Completer, questionsVersion int) *Analyzer {
	t.Helper()
	root := t.TempDir()

	promptsDir := filepath.Join(root, "prompts")
	if err := os.MkdirAll(promptsDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(promptsDir, "paper_analysis.yaml"), []byte(analysisPrompt), 0644); err != nil {
		t.Fatal(err)
	}

	questions := "version: " + strconv.Itoa(questionsVersion) + "\nquestions:\n  - id: q1\n    text: What is the contribution?\n"
	questionsPath := filepath.Join(root, "questions.yaml")
	if err := os.WriteFile(questionsPath, []byte(questions), 0644); err != nil {
		t.Fatal(err)
	}

	return NewAnalyzer(completer,
		filepath.Join(root, "analysis"), promptsDir, questionsPath,
		"test-model", "pro",
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
}

func testPaper() paper.Paper {
	return paper.Paper{
		PaperID:  "arxiv:2301.00001",
		DedupKey: "arxiv:2301.00001",
		Title:    "A Study",
		Authors:  []string{"Ada Lovelace"},
		Year:     2023,
		Source:   "arxiv",
		Abstract: "We study things.",
	}
}

func TestAnalyze_WritesReport(t *testing.T) {
	completer := &fakeCompleter{response: "## Findings\n\nInteresting."}
	a := newTestAnalyzer(t, completer, 1)

	path, skipped, err := a.Analyze(context.Background(), testPaper())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if skipped {
		t.Fatal("first analysis reported as skipped")
	}
	if filepath.Base(path) != "arxiv_2301.00001.md" {
		t.Errorf("path = %q, want colon replaced", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	for _, want := range []string{
		"paper_id: arxiv:2301.00001",
		"source_type: abstract_only",
		"questions_version: 1",
		"analyzed_by: test-model",
		"mode: pro",
		"# A Study",
		"## Findings",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("report missing %q:\n%s", want, content)
		}
	}

	// The prompt carried the abstract and the questions.
	if !strings.Contains(completer.lastUser, "We study things.") {
		t.Errorf("prompt missing abstract: %s", completer.lastUser)
	}
	if !strings.Contains(completer.lastUser, "1. What is the contribution?") {
		t.Errorf("prompt missing questions: %s", completer.lastUser)
	}
}

func TestAnalyze_SkipsCurrentVersion(t *testing.T) {
	completer := &fakeCompleter{response: "analysis"}
	a := newTestAnalyzer(t, completer, 1)

	if _, _, err := a.Analyze(context.Background(), testPaper()); err != nil {
		t.Fatal(err)
	}
	_, skipped, err := a.Analyze(context.Background(), testPaper())
	if err != nil {
		t.Fatal(err)
	}
	if !skipped {
		t.Error("re-analysis with same questions version not skipped")
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls)
	}
}

func TestAnalyze_ArchivesOldVersion(t *testing.T) {
	completer := &fakeCompleter{response: "analysis v2"}
	a := newTestAnalyzer(t, completer, 2)

	// Pre-existing report from questions v1.
	if err := os.MkdirAll(a.analysisDir, 0755); err != nil {
		t.Fatal(err)
	}
	old := "---\npaper_id: arxiv:2301.00001\nquestions_version: 1\n---\n\nold analysis\n"
	mdPath := a.AnalysisPath("arxiv:2301.00001")
	if err := os.WriteFile(mdPath, []byte(old), 0644); err != nil {
		t.Fatal(err)
	}

	_, skipped, err := a.Analyze(context.Background(), testPaper())
	if err != nil {
		t.Fatal(err)
	}
	if skipped {
		t.Fatal("stale analysis was skipped")
	}

	archived := filepath.Join(a.analysisDir, "arxiv_2301.00001.v1.md")
	data, err := os.ReadFile(archived)
	if err != nil {
		t.Fatalf("archived copy missing: %v", err)
	}
	if !strings.Contains(string(data), "old analysis") {
		t.Error("archived copy lost its content")
	}

	fresh, _ := os.ReadFile(mdPath)
	if !strings.Contains(string(fresh), "questions_version: 2") {
		t.Error("fresh report not written against new questions version")
	}
}

func TestSafeID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"arxiv:2301.00001", "arxiv_2301.00001"},
		{"doi:10.1000/xyz", "doi_10.1000_xyz"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := SafeID(tt.in); got != tt.want {
			t.Errorf("SafeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanupText(t *testing.T) {
	in := "a founda-\ntion model\n\n\n\n12\n\nnext section"
	got := CleanupText(in)

	if strings.Contains(got, "founda-") {
		t.Errorf("hyphen break not merged: %q", got)
	}
	if strings.Contains(got, "\n12\n") {
		t.Errorf("page number not stripped: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank run not collapsed: %q", got)
	}
}
