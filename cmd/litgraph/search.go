package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/config"
	"github.com/litgraph/litgraph/internal/index"
	"github.com/litgraph/litgraph/internal/paper"
	"github.com/litgraph/litgraph/internal/search"
)

var (
	searchKeywords   []string
	searchSources    string
	searchMaxResults int
)

func init() {
	searchCmd.Flags().StringArrayVarP(&searchKeywords, "keywords", "k", nil, "Search keywords (repeatable)")
	searchCmd.Flags().StringVar(&searchSources, "sources", "arxiv,semantic_scholar", "Comma-separated sources")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 50, "Maximum total results")
	searchCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for papers and merge them into the index",
	Long: `Search academic databases by keyword, dedup the results, and merge
them into the paper index. Re-running a search never creates duplicates;
fresher citation counts, DOIs and PDF URLs update existing entries.`,
	RunE: runSearch,
}

// SearchResult is the response for the search command.
type SearchResult struct {
	Found   int    `json:"found"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Index   string `json:"index"`
}

// buildProviders maps a sources string to search clients.
func buildProviders(sources string, settings *config.Settings) []search.Provider {
	var providers []search.Provider
	for _, s := range strings.Split(sources, ",") {
		switch strings.TrimSpace(s) {
		case "arxiv":
			providers = append(providers, search.NewArxivClient())
		case "semantic_scholar", "semantic":
			providers = append(providers, search.NewSemanticScholarClient(
				settings.RateLimit.SearchMaxCalls, settings.RateLimit.SearchPeriod))
		}
	}
	return providers
}

func runSearch(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	providers := buildProviders(searchSources, settings)
	if len(providers) == 0 {
		exitWithError(ExitError, "no valid sources in %q", searchSources)
	}

	found := search.SearchAll(context.Background(), providers, searchKeywords, searchMaxResults)
	deduped := paper.DedupBatch(found)

	added, updated, err := index.Merge(deduped, settings.IndexPath())
	if err != nil {
		exitWithError(ExitDataError, "merging into index: %v", err)
	}

	if humanOutput {
		outputHuman("Found %d unique papers: %d new, %d updated\nIndex: %s\n",
			len(deduped), len(added), len(updated), settings.IndexPath())
	} else {
		outputJSON(SearchResult{
			Found:   len(deduped),
			Added:   len(added),
			Updated: len(updated),
			Index:   settings.IndexPath(),
		})
	}
	return nil
}
