package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/litgraph/litgraph/internal/graph"
	"github.com/litgraph/litgraph/internal/llm"
)

const (
	// ScopeAll covers every analysis on disk.
	ScopeAll = "all"
	// ScopeLastRun covers the most recently written analyses.
	ScopeLastRun = "last-run"

	noAnalysesPlaceholder = "(No paper analyses available)"
	noGraphPlaceholder    = "(Knowledge graph is empty or not built yet)"

	// Caps keep the prompt within context limits.
	maxSummaries     = 50
	maxLastRunFiles  = 20
	summaryCharLimit = 500
)

var versionedBackupPattern = regexp.MustCompile(`\.v\d+\.md$`)

// InnovationReport combines knowledge-graph statistics with analysis
// summaries and asks the best model for research gaps and opportunities.
func InnovationReport(ctx context.Context, completer llm.Completer, analysisDir, kgDir, promptsDir, scope string) (string, error) {
	system, user, err := llm.LoadPrompt(promptsDir, "innovation", map[string]any{
		"kg_context":     gatherKGContext(kgDir),
		"papers_summary": gatherAnalyses(analysisDir, scope),
		"scope":          scope,
	})
	if err != nil {
		return "", err
	}

	report, err := completer.Complete(ctx, system, user, llm.TierBest)
	if err != nil {
		return "", fmt.Errorf("innovation completion: %w", err)
	}
	return report, nil
}

// gatherAnalyses builds the summary block from analysis reports, excluding
// versioned backups.
func gatherAnalyses(analysisDir, scope string) string {
	entries, err := os.ReadDir(analysisDir)
	if err != nil {
		return noAnalysesPlaceholder
	}

	type mdFile struct {
		name    string
		modTime int64
	}
	var files []mdFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") || versionedBackupPattern.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, mdFile{name: e.Name(), modTime: info.ModTime().UnixNano()})
	}

	if scope == ScopeLastRun {
		sort.Slice(files, func(i, j int) bool { return files[i].modTime > files[j].modTime })
		if len(files) > maxLastRunFiles {
			files = files[:maxLastRunFiles]
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })

	if len(files) > maxSummaries {
		files = files[:maxSummaries]
	}

	var summaries []string
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(analysisDir, f.name))
		if err != nil {
			continue
		}
		summary := string(data)
		if len(summary) > summaryCharLimit {
			summary = summary[:summaryCharLimit] + "..."
		}
		stem := strings.TrimSuffix(f.name, ".md")
		summaries = append(summaries, fmt.Sprintf("### %s\n%s", stem, summary))
	}

	if len(summaries) == 0 {
		return noAnalysesPlaceholder
	}
	return strings.Join(summaries, "\n\n")
}

// gatherKGContext renders graph statistics as a bullet list.
func gatherKGContext(kgDir string) string {
	graphPath, ok := graph.FindGraphFile(kgDir)
	if !ok {
		return noGraphPlaceholder
	}

	g, err := graph.LoadGraphML(graphPath)
	if err != nil {
		return noGraphPlaceholder
	}

	stats := graph.GetStats(g)
	lines := []string{
		fmt.Sprintf("- Nodes: %d", stats.NodeCount),
		fmt.Sprintf("- Edges: %d", stats.EdgeCount),
		"- Node types: " + formatHistogram(stats.NodeTypes),
		"- Relation types: " + formatHistogram(stats.RelationTypes),
	}
	return strings.Join(lines, "\n")
}

func formatHistogram(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}
