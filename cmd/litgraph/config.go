package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/litgraph/litgraph/internal/llm"
)

func init() {
	configCmd.AddCommand(configShowCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration with a live LLM call",
	RunE:  runConfigValidate,
}

// ConfigShowResult is the response for the config show command. The API key
// is reported as present/absent, never echoed.
type ConfigShowResult struct {
	Mode          string `json:"mode"`
	DataDir       string `json:"data_dir"`
	BestModel     string `json:"best_model"`
	CheapModel    string `json:"cheap_model"`
	BaseURL       string `json:"base_url,omitempty"`
	APIKeySet     bool   `json:"api_key_set"`
	MaxRetries    int    `json:"max_retries"`
	RateLimit     int    `json:"rate_limit_calls"`
	RatePeriodSec int    `json:"rate_limit_period_seconds"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()

	result := ConfigShowResult{
		Mode:          settings.Mode,
		DataDir:       settings.DataDir,
		BestModel:     settings.LLM.BestModel,
		CheapModel:    settings.LLM.CheapModel,
		BaseURL:       settings.LLM.BaseURL,
		APIKeySet:     settings.LLM.APIKey != "",
		MaxRetries:    settings.Retry.MaxRetries,
		RateLimit:     settings.RateLimit.SearchMaxCalls,
		RatePeriodSec: settings.RateLimit.SearchPeriod,
	}

	if humanOutput {
		outputHuman("Mode: %s\nData dir: %s\nBest model: %s\nCheap model: %s\n",
			result.Mode, result.DataDir, result.BestModel, result.CheapModel)
		if result.BaseURL != "" {
			outputHuman("Base URL: %s\n", result.BaseURL)
		}
		outputHuman("API key set: %v\nMax retries: %d\nRate limit: %d/%ds\n",
			result.APIKeySet, result.MaxRetries, result.RateLimit, result.RatePeriodSec)
	} else {
		outputJSON(result)
	}
	return nil
}

// ConfigValidateResult is the response for the config validate command.
type ConfigValidateResult struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	settings := mustLoadSettings()
	completer := mustNewCompleter(settings)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	response, err := completer.Complete(ctx, "", "Say 'ok'.", llm.TierCheap)
	if err != nil {
		exitWithError(ExitConfigError, "LLM check failed: %v", err)
	}
	if strings.TrimSpace(response) == "" {
		exitWithError(ExitConfigError, "LLM returned an empty response")
	}

	if humanOutput {
		outputHuman("LLM: OK (%s)\nAll checks passed.\n", settings.LLM.CheapModel)
	} else {
		outputJSON(ConfigValidateResult{Status: "ok", Model: settings.LLM.CheapModel})
	}
	return nil
}
