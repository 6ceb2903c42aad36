package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/analysis"
	"github.com/litgraph/litgraph/internal/config"
	"github.com/litgraph/litgraph/internal/graph"
	"github.com/litgraph/litgraph/internal/index"
	"github.com/litgraph/litgraph/internal/kg"
	"github.com/litgraph/litgraph/internal/paper"
	"github.com/litgraph/litgraph/internal/schema"
	"github.com/litgraph/litgraph/internal/search"
)

var (
	runKeywords     []string
	runSources      string
	runMaxResults   int
	runMinCitations int
	runResume       bool
)

func init() {
	runCmd.Flags().StringArrayVarP(&runKeywords, "keywords", "k", nil, "Seed keywords (repeatable)")
	runCmd.Flags().StringVar(&runSources, "sources", "arxiv,semantic_scholar", "Comma-separated sources")
	runCmd.Flags().IntVar(&runMaxResults, "max-results", 50, "Maximum total search results")
	runCmd.Flags().IntVar(&runMinCitations, "min-citations", 5, "Minimum citation count")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "Skip completed steps")
	runCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Run the complete pipeline: expand keywords from the knowledge graph
when one exists, search, filter, analyze, update the graph, and write an
innovation report. A run record lands under the runs directory.`,
	RunE: runPipeline,
}

// RunRecord is the persisted summary of one pipeline run.
type RunRecord struct {
	StartedAt   string         `json:"started_at"`
	CompletedAt string         `json:"completed_at,omitempty"`
	Keywords    []string       `json:"keywords"`
	Mode        string         `json:"mode"`
	Steps       map[string]any `json:"steps"`
}

func runPipeline(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()
	ctx := context.Background()

	record := RunRecord{
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Keywords:  runKeywords,
		Mode:      settings.Mode,
		Steps:     map[string]any{},
	}

	// Step 1: keyword expansion, when a graph already exists.
	searchKeywords := append([]string(nil), runKeywords...)
	if path, ok := graph.FindGraphFile(settings.KGDir()); ok {
		stepMsg("Step 1: Expanding keywords from knowledge graph")
		g, err := graph.LoadGraphML(path)
		if err != nil {
			exitWithError(ExitDataError, "loading graph: %v", err)
		}
		expanded := graph.ExpandKeywords(g, searchKeywords, 2, 20)

		have := make(map[string]bool, len(searchKeywords))
		for _, kw := range searchKeywords {
			have[kw] = true
		}
		var fresh []string
		for _, kw := range expanded {
			if !have[kw] {
				fresh = append(fresh, kw)
				searchKeywords = append(searchKeywords, kw)
			}
		}
		record.Steps["expand"] = map[string]any{"original": runKeywords, "expanded": fresh}
	} else {
		stepMsg("Step 1: Keyword expansion skipped (no knowledge graph yet)")
		record.Steps["expand"] = "skipped"
	}

	// Step 2: search and merge.
	if runResume && fileExists(settings.IndexPath()) {
		stepMsg("Step 2: Search skipped (index exists)")
		record.Steps["search"] = "skipped"
	} else {
		stepMsg("Step 2: Searching papers")
		providers := buildProviders(runSources, settings)
		if len(providers) == 0 {
			exitWithError(ExitError, "no valid sources in %q", runSources)
		}

		found := search.SearchAll(ctx, providers, searchKeywords, runMaxResults)
		deduped := paper.DedupBatch(found)
		added, _, err := index.Merge(deduped, settings.IndexPath())
		if err != nil {
			exitWithError(ExitDataError, "merging into index: %v", err)
		}
		record.Steps["search"] = map[string]any{"found": len(deduped), "added": len(added)}
	}

	// Step 3: filter.
	stepMsg("Step 3: Filtering papers")
	papers, err := index.Load(settings.IndexPath())
	if err != nil {
		exitWithError(ExitDataError, "loading index: %v", err)
	}
	passed := search.Filter(ctx, papers, search.FilterOptions{
		Keywords:     runKeywords,
		MinCitations: runMinCitations,
	})
	record.Steps["filter"] = map[string]any{"passed": len(passed)}

	// Step 4: analyze the survivors.
	stepMsg("Step 4: Analyzing papers")
	analyzer := newAnalyzer(settings, mustNewCompleter(settings))
	stats := analyzer.AnalyzeBatch(ctx, passed)
	record.Steps["analyze"] = stats

	// Step 5: knowledge graph update.
	stepMsg("Step 5: Updating knowledge graph")
	if inserted, err := updateGraphFromAnalyses(ctx, settings); err != nil {
		fmt.Fprintf(os.Stderr, "warning: kg update failed: %v\n", err)
		record.Steps["kg_update"] = "failed: " + err.Error()
	} else {
		record.Steps["kg_update"] = map[string]any{"inserted": inserted}
	}

	// Step 6: innovation report. Failure here does not sink the run.
	stepMsg("Step 6: Innovation analysis")
	report, err := analysis.InnovationReport(ctx, mustNewCompleter(settings),
		settings.AnalysisDir(), settings.KGDir(), settings.PromptsDir(), analysis.ScopeLastRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: innovation analysis failed: %v\n", err)
		record.Steps["innovate"] = "failed: " + err.Error()
	} else if path, err := analysis.SaveReport(report, "innovation", settings.ReportsDir()); err != nil {
		record.Steps["innovate"] = "failed: " + err.Error()
	} else {
		record.Steps["innovate"] = path
	}

	record.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	runPath, err := saveRunRecord(record, settings.RunsDir())
	if err != nil {
		exitWithError(ExitError, "saving run record: %v", err)
	}

	if humanOutput {
		outputHuman("Run record: %s\n", runPath)
	} else {
		outputJSON(record)
	}
	return nil
}

// updateGraphFromAnalyses runs extraction over all current analyses and
// saves the graph. Shared by 'run'; 'kg update' does the same with paper
// selection.
func updateGraphFromAnalyses(ctx context.Context, settings *config.Settings) (int, error) {
	files, err := listAnalysisFiles(settings.AnalysisDir(), nil)
	if err != nil || len(files) == 0 {
		return 0, nil
	}

	registry, err := schema.Load(settings.SchemaPath())
	if err != nil {
		return 0, err
	}

	graphPath, ok := graph.FindGraphFile(settings.KGDir())
	if !ok {
		graphPath = filepath.Join(settings.KGDir(), "graph.graphml")
	}
	g, err := graph.LoadGraphML(graphPath)
	if err != nil {
		return 0, err
	}

	store := kg.NewNormalizingStore(kg.NewGraphBacked(g), registry)
	extractor := kg.NewExtractor(mustNewCompleter(settings), registry, store, settings.PromptsDir())

	inserted := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if _, err := extractor.Extract(ctx, string(data)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: extraction failed for %s: %v\n", filepath.Base(path), err)
			continue
		}
		inserted++
	}

	if err := graph.SaveGraphML(g, graphPath); err != nil {
		return inserted, err
	}
	return inserted, nil
}

func saveRunRecord(record RunRecord, runsDir string) (string, error) {
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(runsDir, time.Now().UTC().Format("20060102_150405")+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func stepMsg(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
