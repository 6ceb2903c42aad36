package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/analysis"
)

var innovateScope string

func init() {
	innovateCmd.Flags().StringVar(&innovateScope, "scope", analysis.ScopeAll, "Analysis scope (all or last-run)")
	rootCmd.AddCommand(innovateCmd)
}

var innovateCmd = &cobra.Command{
	Use:   "innovate",
	Short: "Identify research gaps and opportunities",
	Long: `Combine knowledge-graph statistics with paper analysis summaries
and ask the best model for research gaps and novel directions. The report
is saved under the reports directory.`,
	RunE: runInnovate,
}

func runInnovate(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	if innovateScope != analysis.ScopeAll && innovateScope != analysis.ScopeLastRun {
		exitWithError(ExitError, "invalid scope %q (want all or last-run)", innovateScope)
	}

	report, err := analysis.InnovationReport(context.Background(), mustNewCompleter(settings),
		settings.AnalysisDir(), settings.KGDir(), settings.PromptsDir(), innovateScope)
	if err != nil {
		exitWithError(ExitError, "innovation analysis: %v", err)
	}

	path, err := analysis.SaveReport(report, "innovation", settings.ReportsDir())
	if err != nil {
		exitWithError(ExitError, "saving report: %v", err)
	}

	if humanOutput {
		outputHuman("Report saved: %s\n", path)
	} else {
		outputJSON(StatusResponse{Status: "saved", Path: path})
	}
	return nil
}
