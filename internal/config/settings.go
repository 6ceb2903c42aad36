// Package config loads litgraph settings from .env, config/config.yaml,
// and LITGRAPH_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM operation modes.
const (
	ModePro  = "pro"  // Anthropic API
	ModeLite = "lite" // local Ollama, OpenAI-compatible endpoint
)

// Defaults applied when neither config file nor environment specify a value.
const (
	DefaultDataDir       = "DATA"
	DefaultBestModel     = "claude-sonnet-4-20250514"
	DefaultCheapModel    = "claude-haiku-4-20250414"
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	DefaultOllamaModel   = "qwen2.5:7b"
	DefaultMaxRetries    = 3
	DefaultBackoffBase   = 2.0
	DefaultSearchCalls   = 90
	DefaultSearchPeriod  = 300 // seconds
)

// LLMConfig selects the completion backend and its models.
type LLMConfig struct {
	APIKey     string
	BestModel  string
	CheapModel string
	BaseURL    string // lite mode only
}

// RetryConfig controls exponential backoff on LLM calls.
type RetryConfig struct {
	MaxRetries  int
	BackoffBase float64
}

// RateLimitConfig bounds search API usage: SearchMaxCalls per SearchPeriod
// seconds.
type RateLimitConfig struct {
	SearchMaxCalls int
	SearchPeriod   int
}

// Settings is the resolved configuration for a litgraph run.
type Settings struct {
	Mode        string
	DataDir     string
	ProjectRoot string
	LLM         LLMConfig
	Retry       RetryConfig
	RateLimit   RateLimitConfig
}

// fileConfig is the config/config.yaml layout. Only defaults live there;
// secrets come from the environment.
type fileConfig struct {
	DataDir string `yaml:"data_dir"`
}

// Load resolves settings for the given project root. A missing .env or
// config.yaml is fine; environment variables always win.
func Load(projectRoot string) (*Settings, error) {
	if projectRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		projectRoot = cwd
	}

	envPath := filepath.Join(projectRoot, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Overload(envPath); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	var file fileConfig
	configPath := filepath.Join(projectRoot, "config", "config.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing config.yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config.yaml: %w", err)
	}

	mode := strings.ToLower(envOr("LITGRAPH_MODE", ModePro))
	if mode != ModePro && mode != ModeLite {
		return nil, fmt.Errorf("invalid LITGRAPH_MODE %q (want %q or %q)", mode, ModePro, ModeLite)
	}

	s := &Settings{
		Mode:        mode,
		ProjectRoot: projectRoot,
		DataDir:     resolveDataDir(envOr("LITGRAPH_DATA_DIR", orDefault(file.DataDir, DefaultDataDir)), projectRoot),
		Retry: RetryConfig{
			MaxRetries:  envInt("LITGRAPH_MAX_RETRIES", DefaultMaxRetries),
			BackoffBase: envFloat("LITGRAPH_RETRY_BACKOFF_BASE", DefaultBackoffBase),
		},
		RateLimit: RateLimitConfig{
			SearchMaxCalls: envInt("LITGRAPH_SEARCH_RATE_LIMIT", DefaultSearchCalls),
			SearchPeriod:   envInt("LITGRAPH_SEARCH_RATE_PERIOD", DefaultSearchPeriod),
		},
	}

	if mode == ModeLite {
		model := envOr("LITGRAPH_OLLAMA_MODEL", DefaultOllamaModel)
		s.LLM = LLMConfig{
			BaseURL:    envOr("LITGRAPH_OLLAMA_BASE_URL", DefaultOllamaBaseURL),
			BestModel:  model,
			CheapModel: model,
		}
	} else {
		// Key priority: LITGRAPH_ANTHROPIC_API_KEY > ANTHROPIC_API_KEY.
		apiKey := strings.TrimSpace(os.Getenv("LITGRAPH_ANTHROPIC_API_KEY"))
		if apiKey == "" {
			apiKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
		}
		s.LLM = LLMConfig{
			APIKey:     apiKey,
			BestModel:  envOr("LITGRAPH_PRO_BEST_MODEL", DefaultBestModel),
			CheapModel: envOr("LITGRAPH_PRO_CHEAP_MODEL", DefaultCheapModel),
		}
	}

	return s, nil
}

// Derived paths. All live under DataDir except schema/prompt assets, which
// sit in the project's config directory.

// IndexPath returns the paper identity index location.
func (s *Settings) IndexPath() string {
	return filepath.Join(s.DataDir, "papers", "index.json")
}

// CachePath returns the ephemeral SQLite cache location.
func (s *Settings) CachePath() string {
	return filepath.Join(s.DataDir, "cache", "index.db")
}

// AnalysisDir returns the per-paper analysis output directory.
func (s *Settings) AnalysisDir() string {
	return filepath.Join(s.DataDir, "analysis")
}

// KGDir returns the knowledge-graph store directory.
func (s *Settings) KGDir() string {
	return filepath.Join(s.DataDir, "kg_store")
}

// ReportsDir returns the generated-report directory.
func (s *Settings) ReportsDir() string {
	return filepath.Join(s.DataDir, "reports")
}

// RunsDir returns the pipeline run-record directory.
func (s *Settings) RunsDir() string {
	return filepath.Join(s.DataDir, "runs")
}

// SchemaPath returns the KG schema file location.
func (s *Settings) SchemaPath() string {
	return filepath.Join(s.ProjectRoot, "config", "schema.yaml")
}

// QuestionsPath returns the research questions file location.
func (s *Settings) QuestionsPath() string {
	return filepath.Join(s.ProjectRoot, "config", "questions.yaml")
}

// PromptsDir returns the prompt template directory.
func (s *Settings) PromptsDir() string {
	return filepath.Join(s.ProjectRoot, "config", "prompts")
}

func resolveDataDir(raw, projectRoot string) string {
	if filepath.IsAbs(raw) {
		return raw
	}
	return filepath.Join(projectRoot, raw)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
