package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/index"
	"github.com/litgraph/litgraph/internal/search"
)

var (
	filterMinCitations int
	filterRelevance    bool
	filterKeywords     []string
)

func init() {
	filterCmd.Flags().IntVar(&filterMinCitations, "min-citations", 5, "Minimum citation count")
	filterCmd.Flags().BoolVar(&filterRelevance, "relevance-check", false, "Use the cheap model for relevance scoring")
	filterCmd.Flags().StringArrayVarP(&filterKeywords, "keywords", "k", nil, "Topic keywords for the relevance check")
	rootCmd.AddCommand(filterCmd)
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Mark relevant papers in the index",
	Long: `Filter indexed papers by citation count and optionally by an LLM
relevance verdict. Papers that pass are marked relevant in the index;
nothing is deleted.`,
	RunE: runFilter,
}

// FilterResult is the response for the filter command.
type FilterResult struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
}

func runFilter(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	papers, err := index.Load(settings.IndexPath())
	if err != nil {
		exitWithError(ExitDataError, "loading index: %v", err)
	}
	if papers == nil {
		exitWithError(ExitConfigError, "no index at %s; run 'litgraph search' first", settings.IndexPath())
	}

	opts := search.FilterOptions{
		Keywords:     filterKeywords,
		MinCitations: filterMinCitations,
	}
	if filterRelevance {
		opts.Completer = mustNewCompleter(settings)
		opts.PromptsDir = settings.PromptsDir()
	}

	passed := search.Filter(context.Background(), papers, opts)

	// Write relevance markers back without dropping anything.
	passedKeys := make(map[string]bool, len(passed))
	for _, p := range passed {
		passedKeys[p.DedupKey] = true
	}
	for i := range papers {
		papers[i].Relevant = passedKeys[papers[i].DedupKey]
	}
	if err := index.Write(settings.IndexPath(), papers); err != nil {
		exitWithError(ExitDataError, "writing index: %v", err)
	}

	if humanOutput {
		outputHuman("Filtered: %d/%d papers passed\n", len(passed), len(papers))
	} else {
		outputJSON(FilterResult{Total: len(papers), Passed: len(passed)})
	}
	return nil
}
