package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// promptFile is the on-disk prompt layout: a static system prompt and a
// user-prompt template. The template syntax is text/template.
type promptFile struct {
	System   string `yaml:"system"`
	Template string `yaml:"template"`
}

// LoadPrompt reads <dir>/<name>.yaml and renders the user template with
// vars. Returns (system, user).
func LoadPrompt(dir, name string, vars map[string]any) (string, string, error) {
	path := filepath.Join(dir, name+".yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading prompt %s: %w", name, err)
	}

	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", "", fmt.Errorf("parsing prompt %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(file.Template)
	if err != nil {
		return "", "", fmt.Errorf("parsing prompt template %s: %w", name, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}

	return strings.TrimSpace(file.System), strings.TrimSpace(buf.String()), nil
}

// Question is a single research question papers are analyzed against.
type Question struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// questionsFile is the questions.yaml layout.
type questionsFile struct {
	Version   int        `yaml:"version"`
	Questions []Question `yaml:"questions"`
}

// LoadQuestions reads the research questions and their version number.
// A missing version defaults to 1.
func LoadQuestions(path string) ([]Question, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading questions: %w", err)
	}

	var file questionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, 0, fmt.Errorf("parsing questions: %w", err)
	}
	if file.Version == 0 {
		file.Version = 1
	}
	return file.Questions, file.Version, nil
}

// FormatQuestionsBlock renders questions as a numbered block for prompt
// inclusion.
func FormatQuestionsBlock(questions []Question) string {
	var lines []string
	for i, q := range questions {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, q.Text))
	}
	return strings.Join(lines, "\n")
}
