// Package main provides the litgraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/config"
	"github.com/litgraph/litgraph/internal/llm"
)

// Version is set at build time via ldflags.
var Version = "dev"

// humanOutput controls whether to use human-readable output.
var humanOutput bool

// modeOverride is the --mode flag; it wins over LITGRAPH_MODE.
var modeOverride string

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra errors surface here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "litgraph",
	Short: "Literature analysis knowledge graph pipeline",
	Long: `litgraph builds a knowledge graph from academic literature.

Pipeline: search papers (arXiv, Semantic Scholar) → dedup into a JSON index
→ filter by citations/relevance → LLM analysis → entity extraction into a
GraphML knowledge graph → innovation reports.

Papers live in a git-versionable JSON index with an ephemeral SQLite cache
for full-text queries. Commands output JSON by default for agent use.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&modeOverride, "mode", "", "Override LLM mode (pro or lite)")
	rootCmd.Version = Version
}

// mustLoadSettings resolves configuration, applying the --mode flag, and
// exits on error. Lite mode gets a quality warning on stderr.
func mustLoadSettings() *config.Settings {
	if modeOverride != "" {
		os.Setenv("LITGRAPH_MODE", modeOverride)
	}

	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	settings, err := config.Load(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "loading configuration: %v", err)
	}

	if settings.Mode == config.ModeLite {
		fmt.Fprintf(os.Stderr, "warning: running in lite mode (%s); analysis and extraction quality will be lower than pro mode\n", settings.LLM.BestModel)
	}
	return settings
}

// mustNewCompleter builds the LLM client for the configured mode, exits on
// error (typically a missing API key in pro mode).
func mustNewCompleter(settings *config.Settings) llm.Completer {
	completer, err := llm.New(settings)
	if err != nil {
		exitWithError(ExitConfigError, "creating LLM client: %v", err)
	}
	return completer
}
