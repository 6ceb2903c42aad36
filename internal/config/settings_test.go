package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearLitgraphEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LITGRAPH_MODE", "LITGRAPH_DATA_DIR", "LITGRAPH_MAX_RETRIES",
		"LITGRAPH_RETRY_BACKOFF_BASE", "LITGRAPH_SEARCH_RATE_LIMIT",
		"LITGRAPH_SEARCH_RATE_PERIOD", "LITGRAPH_OLLAMA_MODEL",
		"LITGRAPH_OLLAMA_BASE_URL", "LITGRAPH_PRO_BEST_MODEL",
		"LITGRAPH_PRO_CHEAP_MODEL", "LITGRAPH_ANTHROPIC_API_KEY",
		"ANTHROPIC_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearLitgraphEnv(t)
	root := t.TempDir()

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Mode != ModePro {
		t.Errorf("Mode = %q, want %q", s.Mode, ModePro)
	}
	if s.DataDir != filepath.Join(root, DefaultDataDir) {
		t.Errorf("DataDir = %q", s.DataDir)
	}
	if s.Retry.MaxRetries != DefaultMaxRetries || s.Retry.BackoffBase != DefaultBackoffBase {
		t.Errorf("retry defaults wrong: %+v", s.Retry)
	}
	if s.LLM.BestModel != DefaultBestModel {
		t.Errorf("BestModel = %q", s.LLM.BestModel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearLitgraphEnv(t)
	root := t.TempDir()

	t.Setenv("LITGRAPH_MODE", "lite")
	t.Setenv("LITGRAPH_OLLAMA_MODEL", "llama3:8b")
	t.Setenv("LITGRAPH_MAX_RETRIES", "5")

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Mode != ModeLite {
		t.Errorf("Mode = %q, want lite", s.Mode)
	}
	if s.LLM.BestModel != "llama3:8b" || s.LLM.CheapModel != "llama3:8b" {
		t.Errorf("lite models = %q/%q", s.LLM.BestModel, s.LLM.CheapModel)
	}
	if s.LLM.BaseURL != DefaultOllamaBaseURL {
		t.Errorf("BaseURL = %q", s.LLM.BaseURL)
	}
	if s.Retry.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", s.Retry.MaxRetries)
	}
}

func TestLoad_ConfigFileDataDir(t *testing.T) {
	clearLitgraphEnv(t)
	root := t.TempDir()

	configDir := filepath.Join(root, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("data_dir: research-data\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.DataDir != filepath.Join(root, "research-data") {
		t.Errorf("DataDir = %q, want config file value resolved from root", s.DataDir)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearLitgraphEnv(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("LITGRAPH_MODE=lite\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Mode != ModeLite {
		t.Errorf("Mode = %q, want lite from .env", s.Mode)
	}
}

func TestLoad_APIKeyPriority(t *testing.T) {
	clearLitgraphEnv(t)
	root := t.TempDir()

	t.Setenv("ANTHROPIC_API_KEY", "fallback-key")
	t.Setenv("LITGRAPH_ANTHROPIC_API_KEY", "specific-key")

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.LLM.APIKey != "specific-key" {
		t.Errorf("APIKey = %q, want the LITGRAPH-prefixed key to win", s.LLM.APIKey)
	}
}

func TestLoad_InvalidMode(t *testing.T) {
	clearLitgraphEnv(t)
	t.Setenv("LITGRAPH_MODE", "turbo")

	if _, err := Load(t.TempDir()); err == nil {
		t.Error("invalid mode accepted")
	}
}

func TestDerivedPaths(t *testing.T) {
	clearLitgraphEnv(t)
	root := t.TempDir()

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.IndexPath() != filepath.Join(s.DataDir, "papers", "index.json") {
		t.Errorf("IndexPath = %q", s.IndexPath())
	}
	if s.KGDir() != filepath.Join(s.DataDir, "kg_store") {
		t.Errorf("KGDir = %q", s.KGDir())
	}
	if s.SchemaPath() != filepath.Join(root, "config", "schema.yaml") {
		t.Errorf("SchemaPath = %q", s.SchemaPath())
	}
}
