package main

import (
	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/index"
	"github.com/litgraph/litgraph/internal/paper"
)

var indexSearchLimit int

func init() {
	indexSearchCmd.Flags().IntVar(&indexSearchLimit, "limit", 20, "Maximum results")

	indexCmd.AddCommand(indexSyncCmd, indexSearchCmd, indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Paper index query cache",
	Long: `The paper index lives in index.json; these commands manage the
ephemeral SQLite cache that serves full-text queries over it. The cache is
rebuilt wholesale from the index and never written directly.`,
}

var indexSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the query cache from index.json",
	RunE:  runIndexSync,
}

var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over indexed papers",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexSearch,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index and cache status",
	RunE:  runIndexInfo,
}

// IndexSyncResult is the response for the index sync command.
type IndexSyncResult struct {
	Status string `json:"status"`
	Papers int    `json:"papers"`
	Cache  string `json:"cache"`
}

func runIndexSync(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	cache, err := index.OpenCache(settings.CachePath())
	if err != nil {
		exitWithError(ExitError, "opening cache: %v", err)
	}
	defer cache.Close()

	count, err := cache.Rebuild(settings.IndexPath())
	if err != nil {
		exitWithError(ExitDataError, "rebuilding cache: %v", err)
	}

	if humanOutput {
		outputHuman("Rebuilt query cache with %d papers\n", count)
	} else {
		outputJSON(IndexSyncResult{Status: "synced", Papers: count, Cache: settings.CachePath()})
	}
	return nil
}

// IndexSearchResult is the response for the index search command.
type IndexSearchResult struct {
	Query  string        `json:"query"`
	Papers []paper.Paper `json:"papers"`
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	cache, err := index.OpenCache(settings.CachePath())
	if err != nil {
		exitWithError(ExitError, "opening cache: %v", err)
	}
	defer cache.Close()

	if stale, err := cache.NeedsSync(settings.IndexPath()); err == nil && stale {
		if _, err := cache.Rebuild(settings.IndexPath()); err != nil {
			exitWithError(ExitDataError, "rebuilding stale cache: %v", err)
		}
	}

	papers, err := cache.Search(args[0], indexSearchLimit)
	if err != nil {
		exitWithError(ExitDataError, "searching cache: %v", err)
	}

	if humanOutput {
		for i, p := range papers {
			outputHuman("%d. %s (%d) [%s]\n", i+1, p.Title, p.Year, p.DedupKey)
		}
	} else {
		outputJSON(IndexSearchResult{Query: args[0], Papers: papers})
	}
	return nil
}

// IndexInfoResult is the response for the index info command.
type IndexInfoResult struct {
	IndexPath string `json:"index_path"`
	Papers    int    `json:"papers"`
	Cached    int    `json:"cached"`
	InSync    bool   `json:"in_sync"`
}

func runIndexInfo(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	papers, err := index.Load(settings.IndexPath())
	if err != nil {
		exitWithError(ExitDataError, "loading index: %v", err)
	}

	cache, err := index.OpenCache(settings.CachePath())
	if err != nil {
		exitWithError(ExitError, "opening cache: %v", err)
	}
	defer cache.Close()

	cached, err := cache.Count()
	if err != nil {
		exitWithError(ExitDataError, "counting cache: %v", err)
	}

	stale, err := cache.NeedsSync(settings.IndexPath())
	if err != nil {
		exitWithError(ExitDataError, "checking cache staleness: %v", err)
	}

	info := IndexInfoResult{
		IndexPath: settings.IndexPath(),
		Papers:    len(papers),
		Cached:    cached,
		InSync:    !stale,
	}

	if humanOutput {
		outputHuman("Index: %s\nPapers: %d\nCached: %d\nIn sync: %v\n",
			info.IndexPath, info.Papers, info.Cached, info.InSync)
	} else {
		outputJSON(info)
	}
	return nil
}
