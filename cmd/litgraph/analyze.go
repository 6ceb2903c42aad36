package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/analysis"
	"github.com/litgraph/litgraph/internal/config"
	"github.com/litgraph/litgraph/internal/index"
	"github.com/litgraph/litgraph/internal/llm"
)

var (
	analyzePaperIDs   []string
	analyzeAllPending bool
)

func init() {
	analyzeCmd.Flags().StringArrayVarP(&analyzePaperIDs, "paper-ids", "p", nil, "Specific paper IDs to analyze")
	analyzeCmd.Flags().BoolVar(&analyzeAllPending, "all-pending", false, "Analyze all papers without an analysis")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze indexed papers with the LLM",
	Long: `Run the per-paper analysis flow: download the PDF when available,
extract its text, and answer the research questions with the best model.
Reports land under the analysis directory as Markdown with YAML front
matter. Papers already analyzed against the current questions version are
skipped.`,
	RunE: runAnalyze,
}

// newAnalyzer wires an Analyzer from resolved settings.
func newAnalyzer(settings *config.Settings, completer llm.Completer) *analysis.Analyzer {
	return analysis.NewAnalyzer(completer,
		settings.AnalysisDir(), settings.PromptsDir(), settings.QuestionsPath(),
		settings.LLM.BestModel, settings.Mode)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	papers, err := index.Load(settings.IndexPath())
	if err != nil {
		exitWithError(ExitDataError, "loading index: %v", err)
	}
	if papers == nil {
		exitWithError(ExitConfigError, "no index at %s; run 'litgraph search' first", settings.IndexPath())
	}

	analyzer := newAnalyzer(settings, mustNewCompleter(settings))
	selected := analyzer.SelectPapers(papers, analyzePaperIDs, analyzeAllPending)

	stats := analyzer.AnalyzeBatch(context.Background(), selected)

	if humanOutput {
		outputHuman("Analyzed: %d, Skipped: %d, Failed: %d\n", stats.Analyzed, stats.Skipped, stats.Failed)
		for _, e := range stats.Errors {
			outputHuman("  error: %s: %s\n", e.PaperID, e.Error)
		}
	} else {
		outputJSON(stats)
	}

	if stats.Failed > 0 {
		os.Exit(ExitError)
	}
	return nil
}
